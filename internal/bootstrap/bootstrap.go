package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"

	"go-shopfeed/internal/config"
	"go-shopfeed/internal/database"

	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

func CreateFirebaseAppOrPanic(ctx context.Context, cnf config.Config) *firebase.App {
	var opts []option.ClientOption
	if cnf.Firebase.HasCredentials() {
		creds, err := json.Marshal(cnf.Firebase)
		if err != nil {
			panic(err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   cnf.Firebase.ProjectId,
		DatabaseURL: cnf.Database.Url,
	}, opts...)
	if err != nil {
		panic(err)
	}
	return app
}

// CreateDatabaseOrPanic opens the backend selected by DATABASE_DRIVER.
func CreateDatabaseOrPanic(ctx context.Context, cnf config.Config) database.Client {
	switch cnf.Database.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using the in-memory database, data is lost on exit")
		return database.NewMemory()

	case config.DriverRTDB:
		app := CreateFirebaseAppOrPanic(ctx, cnf)
		client, err := app.Database(ctx)
		if err != nil {
			panic(err)
		}
		return database.NewRealtime(client, cnf.Database.PollInterval, cnf.Firebase.WriteTimeout)

	case config.DriverFirestore:
		app := CreateFirebaseAppOrPanic(ctx, cnf)
		client, err := app.Firestore(ctx)
		if err != nil {
			panic(err)
		}
		return database.New(client, cnf.Firebase.WriteTimeout)

	default:
		panic(fmt.Errorf("unknown database driver %q", cnf.Database.Driver))
	}
}

// CreateRedisClient returns nil when redis is not configured. An unreachable
// redis is only logged; callers fall back to direct writes.
func CreateRedisClient(ctx context.Context, cnf config.Redis) *redis.Client {
	if !cnf.Enabled() {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cnf.Addr,
		Password: cnf.Password,
		DB:       cnf.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cnf.Addr).Msg("redis is not reachable")
	} else {
		log.Info().Str("addr", cnf.Addr).Msg("connected to redis")
	}
	return client
}
