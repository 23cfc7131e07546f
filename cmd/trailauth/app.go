package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jrsteele09/trails-auth/apiclient"
	"github.com/jrsteele09/trails-auth/auth"
	"github.com/jrsteele09/trails-auth/internal/config"
	interrors "github.com/jrsteele09/trails-auth/internal/errors"
	"github.com/jrsteele09/trails-auth/profile"
	"github.com/jrsteele09/trails-auth/sessions"
	"github.com/jrsteele09/trails-auth/signin"
	"github.com/jrsteele09/trails-auth/storage"
	"github.com/jrsteele09/trails-auth/storage/filestore"
	"github.com/jrsteele09/trails-auth/storage/redisstore"
	"github.com/jrsteele09/trails-auth/storage/repofake"
)

// app wires the client packages together for one CLI invocation.
type app struct {
	cfg     config.Config
	store   *sessions.Store
	flow    *signin.Flow
	profile *profile.Service
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	repo, closeRepo, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeRepo)

	store, err := sessions.NewStore(repo)
	if err != nil {
		a.Close()
		return nil, err
	}
	store.Subscribe(func(s sessions.Snapshot) {
		log.Debug().Str("state", s.State.String()).Bool("authenticated", s.IsAuthenticated()).Msg("session changed")
	})
	store.Restore(ctx)
	a.store = store

	httpClient := &http.Client{Timeout: cfg.GetRequestTimeout()}
	options := []auth.GatewayOption{auth.WithHTTPClient(httpClient)}
	if rps := cfg.GetRequestsPerSecond(); rps > 0 {
		options = append(options, auth.WithRateLimiter(rate.NewLimiter(rate.Limit(rps), 1)))
	}
	gw, err := auth.NewGateway(cfg.GetAPIBaseURL(), options...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.flow = signin.NewFlow(gw, store)

	client, err := apiclient.New(cfg.GetAPIBaseURL(), repo, apiclient.WithHTTPClient(httpClient))
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.profile, err = profile.NewService(client, store); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}

// openStorage selects the durable store named by STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Repo, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetStorageDriver() {
	case config.StorageDriverFile:
		repo, err := filestore.New(cfg.GetDataFolder())
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil

	case config.StorageDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrapf(err, "[openStorage] redis %s", cfg.GetRedisAddr())
		}
		return redisstore.New(client, cfg.GetRedisKeyPrefix()), client.Close, nil

	case config.StorageDriverMemory:
		return repofake.NewFakeStorageRepo(), noop, nil
	}
	return nil, nil, interrors.Wrapf(interrors.ErrInvalidConfig, "storage driver %q", cfg.GetStorageDriver())
}
