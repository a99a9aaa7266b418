package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	gameanalytics "github.com/Tap30/gameanalytics-go"
	"github.com/Tap30/gameanalytics-go/adapters"
	"github.com/Tap30/gameanalytics-go/internal/config"
)

// newClient assembles a client from cfg. The returned close function
// releases the storage backend.
func newClient(cfg *config.Config, logger adapters.LoggerAdapter, transport adapters.Transport) (*gameanalytics.Client, func() error, error) {
	store, closeStore, err := cfg.Storage.OpenStorage()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	client, err := gameanalytics.NewClient(gameanalytics.ClientConfig{
		Credentials: gameanalytics.Credentials{
			GameKey:   cfg.Game.GameKey,
			SecretKey: cfg.Game.SecretKey,
		},
		BaseURL:            cfg.Game.BaseURL,
		HTTPTimeout:        cfg.Client.HTTPTimeout,
		MaxEventsPerSecond: cfg.Client.MaxEventsPerSecond,
		Transport:          transport,
		Storage:            store,
		Logger:             logger,
	})
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return client, closeStore, nil
}

// burst sends n design events with at most concurrency in flight. It stops
// at the first failure and reports how many were accepted.
func burst(ctx context.Context, client *gameanalytics.Client, n, concurrency int) (int, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var sent atomic.Int64
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			value := float64(i)
			if err := client.SendDesignEvent(ctx, fmt.Sprintf("Burst:Event%d", i), &value); err != nil {
				return err
			}
			sent.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(sent.Load()), err
}
