package videos

import (
	"context"

	"go-shopfeed/internal/model"
)

type VideosEvent struct {
	Videos []model.VideoProduct
	Err    error
}

type IRepository interface {
	NotifyOnChanges(ctx context.Context) <-chan VideosEvent
	List(ctx context.Context) ([]model.VideoProduct, error)
	GetById(ctx context.Context, id string) (*model.VideoProduct, error)
	Create(ctx context.Context, data ...model.VideoProduct) error
	Delete(ctx context.Context, id string) error
}
