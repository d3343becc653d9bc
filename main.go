package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-shopfeed/internal/analytics"
	"go-shopfeed/internal/api"
	"go-shopfeed/internal/bootstrap"
	"go-shopfeed/internal/config"
	"go-shopfeed/internal/feed"
	"go-shopfeed/internal/logger"
	"go-shopfeed/internal/model"
	adsRepository "go-shopfeed/internal/repository/ads"
	commentsRepository "go-shopfeed/internal/repository/comments"
	likesRepository "go-shopfeed/internal/repository/likes"
	videosRepository "go-shopfeed/internal/repository/videos"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {

	cnf := config.LoadConfigOrPanic()
	logger.Setup(cnf.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	defer close(sigs)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	db := bootstrap.CreateDatabaseOrPanic(ctx, cnf)
	defer db.Close()

	videoRepo := videosRepository.New(db)
	adRepo := adsRepository.New(db, adsRepository.Options{IncludeImageAds: cnf.Feed.IncludeImageAds})
	likeRepo := likesRepository.New(db, cnf.Database.InteractionsRoot)
	commentRepo := commentsRepository.New(db, cnf.Database.InteractionsRoot)

	format, err := feed.PriceFormatterFor(cnf.Feed.PriceStyle, cnf.Feed.PriceLocale)
	if err != nil {
		panic(err)
	}

	feedService := feed.NewService(videoRepo, adRepo, feed.Options{
		AdInterval:  cnf.Feed.AdInterval,
		PageSize:    cnf.Feed.PageSize,
		MaxPageSize: cnf.Feed.MaxPageSize,
		Format:      format,
	})

	var tracker analytics.Tracker = analytics.NewDirect(adRepo)
	var buffered *analytics.Buffered
	if rdb := bootstrap.CreateRedisClient(ctx, cnf.Redis); rdb != nil {
		defer rdb.Close()
		buffered = analytics.NewBuffered(rdb, adRepo, cnf.Redis.Prefix, cnf.Redis.FlushInterval)
		tracker = buffered
	}

	handler := api.NewHandler(api.Deps{
		Feed:     feedService,
		Videos:   videoRepo,
		Ads:      adRepo,
		Likes:    likeRepo,
		Comments: commentRepo,
		Tracker:  tracker,
		DemoUser: model.User{
			Id:     cnf.DemoUser.UserId,
			Name:   cnf.DemoUser.UserName,
			Avatar: cnf.DemoUser.UserAvatar,
		},
	})

	srv := &http.Server{
		Addr:              cnf.Http.Addr,
		Handler:           api.NewServer(handler, cnf.Http),
		ReadHeaderTimeout: time.Second * 10,
		// streams end with the root context
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return feedService.Start(gctx)
	})
	group.Go(func() error {
		log.Info().Str("addr", cnf.Http.Addr).Str("driver", cnf.Database.Driver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*5)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	if buffered != nil {
		group.Go(func() error {
			return buffered.Run(gctx)
		})
	}

	select {
	case <-sigs:
		// Received a termination signal, continue to shutdown
		log.Info().Msg("shutting down")
	case <-gctx.Done():
		// errgroup encountered an error, continue to shutdown
	}

	cancel() // cancel the root context to signal all the consumers

	done := make(chan error, 1)
	go func() {
		done <- group.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("shutdown with error")
			os.Exit(1)
		}
	case <-time.After(time.Second * 15):
		// Give enough time to close all the pending resources
		log.Warn().Msg("shutdown timed out")
		os.Exit(1)
	case <-sigs:
		// Forcefully terminate the app with a signal
		os.Exit(1)
	}
}
