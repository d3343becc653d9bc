package ads

import (
	"context"

	"go-shopfeed/internal/model"
)

type AdsEvent struct {
	Ads []model.Advertisement
	Err error
}

type IRepository interface {
	// NotifyOnChanges delivers the servable ads, see Options.
	NotifyOnChanges(ctx context.Context) <-chan AdsEvent
	List(ctx context.Context) ([]model.Advertisement, error)
	GetById(ctx context.Context, id string) (*model.Advertisement, error)
	Create(ctx context.Context, data ...model.Advertisement) error
	Delete(ctx context.Context, id string) error
	IncrementAnalytics(ctx context.Context, id string, counts model.AdCounts) error
}
