package main

import (
	"context"

	"github.com/mealcart/carecost-cli/internal/store"
)

// initStore opens the configured store backend. Returns nil when no driver
// is configured.
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}
