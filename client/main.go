package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-shopfeed/internal/bootstrap"
	"go-shopfeed/internal/config"
	"go-shopfeed/internal/eventpublisher/event"
	"go-shopfeed/internal/feed"
	"go-shopfeed/internal/logger"
	"go-shopfeed/internal/model"
	adsRepository "go-shopfeed/internal/repository/ads"
	"go-shopfeed/internal/repository/helper"
	videosRepository "go-shopfeed/internal/repository/videos"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type options struct {
	File        string        `long:"file" short:"f" description:"Seed file (json or yaml) with videoProducts and advertisements"`
	DeleteVideo []string      `long:"delete-video" description:"Delete the video with this id, may be repeated"`
	DeleteAd    []string      `long:"delete-ad" description:"Delete the ad with this id, may be repeated"`
	Export      string        `long:"export" description:"Write all videos as json to this file"`
	Watch       bool          `long:"watch" short:"w" description:"Print the composed feed whenever it changes"`
	IdleTimeout time.Duration `long:"idle-timeout" default:"1m" description:"Stop watching after this long without changes"`
}

// seedFile holds either lists of records or objects keyed by id, the way the
// tree itself is laid out.
type seedFile struct {
	VideoProducts  interface{} `json:"videoProducts" yaml:"videoProducts"`
	Advertisements interface{} `json:"advertisements" yaml:"advertisements"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cnf := config.LoadConfigOrPanic()
	logger.Setup(cnf.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := bootstrap.CreateDatabaseOrPanic(ctx, cnf)
	defer db.Close()

	videoRepo := videosRepository.New(db)
	adRepo := adsRepository.New(db, adsRepository.Options{IncludeImageAds: cnf.Feed.IncludeImageAds})

	if err := run(ctx, opts, cnf, videoRepo, adRepo); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, cnf config.Config, videoRepo videosRepository.VideoRepository, adRepo adsRepository.AdRepository) error {
	if opts.File != "" {
		if err := seedFromFile(ctx, videoRepo, adRepo, opts.File); err != nil {
			return err
		}
	}

	for _, id := range opts.DeleteVideo {
		if err := videoRepo.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Println("Deleted video", id)
	}

	for _, id := range opts.DeleteAd {
		if err := adRepo.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Println("Deleted ad", id)
	}

	if opts.Export != "" {
		if err := exportVideos(ctx, videoRepo, opts.Export); err != nil {
			return err
		}
	}

	if opts.Watch {
		format, err := feed.PriceFormatterFor(cnf.Feed.PriceStyle, cnf.Feed.PriceLocale)
		if err != nil {
			return err
		}
		watchFeed(ctx, videoRepo, adRepo, feed.Options{AdInterval: cnf.Feed.AdInterval, Format: format}, opts.IdleTimeout)
	}
	return nil
}

func readSeedFile(path string) (seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &seed)
	default:
		err = json.Unmarshal(data, &seed)
	}
	if err != nil {
		return seedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	return seed, nil
}

func seedFromFile(ctx context.Context, videoRepo videosRepository.VideoRepository, adRepo adsRepository.AdRepository, path string) error {
	seed, err := readSeedFile(path)
	if err != nil {
		return err
	}

	videos, err := decodeRecords(seed.VideoProducts, func(v *model.VideoProduct, id string) {
		if v.ProductId == "" {
			v.ProductId = id
		}
	})
	if err != nil {
		return fmt.Errorf("videoProducts: %w", err)
	}

	ads, err := decodeRecords(seed.Advertisements, func(a *model.Advertisement, id string) {
		if a.AdId == "" {
			a.AdId = id
		}
	})
	if err != nil {
		return fmt.Errorf("advertisements: %w", err)
	}

	if err := videoRepo.Create(ctx, videos...); err != nil {
		return err
	}
	if err := adRepo.Create(ctx, ads...); err != nil {
		return err
	}

	fmt.Printf("Seeded %d videos and %d ads from %s\n", len(videos), len(ads), path)
	return nil
}

// decodeRecords accepts a list or an object keyed by id. Records in a list
// without an id get a push key from the repository.
func decodeRecords[T any](raw interface{}, setId func(*T, string)) ([]T, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]T, 0, len(v))
		for i, item := range v {
			var rec T
			if err := helper.Clone(item, &rec); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			out = append(out, rec)
		}
		return out, nil
	case map[string]interface{}:
		out := make([]T, 0, len(v))
		for id, item := range v {
			var rec T
			if err := helper.Clone(item, &rec); err != nil {
				return nil, fmt.Errorf("record %s: %w", id, err)
			}
			setId(&rec, id)
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list or an object, got %T", raw)
	}
}

func exportVideos(ctx context.Context, videoRepo videosRepository.VideoRepository, path string) error {
	videos, err := videoRepo.List(ctx)
	if err != nil {
		return err
	}

	out := make(map[string]model.VideoProduct, len(videos))
	for _, v := range videos {
		out[v.ProductId] = v
	}

	jsonData, err := json.MarshalIndent(map[string]interface{}{"videoProducts": out}, "", "    ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, jsonData, 0o644); err != nil {
		return err
	}
	fmt.Printf("Exported %d videos to %s\n", len(videos), path)
	return nil
}

// watchFeed prints the feed every time either collection changes and returns
// once no change arrived for idle.
func watchFeed(ctx context.Context, videoRepo videosRepository.VideoRepository, adRepo adsRepository.AdRepository, feedOpts feed.Options, idle time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc := feed.NewService(videoRepo, adRepo, feedOpts)

	ch := make(chan event.Event, 1)
	svc.Subscribe(ch)
	defer svc.Unsubscribe(ch)

	go func() {
		if err := svc.Start(ctx); err != nil {
			fmt.Println("Error:", err)
		}
	}()

	var lastSeq uint64
	helper.DrainChannelWithTimeout[event.Event](ctx, idle, ch, func(e event.Event) {
		if e.Seq <= lastSeq {
			return
		}
		lastSeq = e.Seq

		state, ok := e.Message.(feed.State)
		if !ok {
			return
		}
		printFeed(state)
	})
}

func printFeed(state feed.State) {
	switch {
	case state.Loading:
		fmt.Println("Feed loading...")
		return
	case state.Error != "":
		fmt.Println("Feed error:", state.Error)
		return
	}

	fmt.Printf("Feed version %s with %d items\n", state.Version, len(state.Items))
	for i, item := range state.Items {
		label := ""
		switch {
		case item.Video != nil:
			label = item.Video.Product.Name + " " + item.Video.Product.Price
		case item.Ad != nil:
			label = item.Ad.Title
		}
		fmt.Printf("%3d  %-48s %s\n", i, item.Key, label)
	}
}
