package service

import (
	"context"

	"github.com/flagward/flagward/pkg/store"
)

// IService exposes flag-gated request handling over some transport. Serve
// blocks until ctx is cancelled or the listener fails.
type IService interface {
	Serve(ctx context.Context, manager *store.Manager) error
}
