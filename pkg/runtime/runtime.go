package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"

	"github.com/flagward/flagward/pkg/source"
	"github.com/flagward/flagward/pkg/store"
)

const defaultFetchTimeout = 5 * time.Second

// Runtime wires a definition source to the snapshot manager: an initial
// load at startup, push-style reloads when the source supports watching,
// and periodic reloads on a cron schedule. Reload failures are logged and
// leave the last-known-good snapshot authoritative.
type Runtime struct {
	Manager *store.Manager
	Source  source.ISource

	// FetchTimeout bounds each source fetch; zero means defaultFetchTimeout.
	FetchTimeout time.Duration

	// SyncInterval is a cron spec such as "@every 30s"; empty disables
	// periodic reloads.
	SyncInterval string
}

// Start performs the initial load and launches the watch and cron reload
// loops. The initial load must succeed; later failures only log.
func (rt *Runtime) Start(ctx context.Context) error {
	if err := rt.Sync(ctx); err != nil {
		return err
	}

	if watcher, ok := rt.Source.(source.IWatcher); ok {
		notify := make(chan struct{}, 1)
		if err := watcher.Watch(ctx, notify); err != nil {
			return fmt.Errorf("starting source watch: %w", err)
		}
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-notify:
					if err := rt.Sync(ctx); err != nil {
						log.Errorf("watch-triggered reload failed, keeping previous snapshot: %v", err)
					}
				}
			}
		}()
	}

	if rt.SyncInterval != "" {
		c := cron.New()
		err := c.AddFunc(rt.SyncInterval, func() {
			if err := rt.Sync(ctx); err != nil {
				log.Errorf("scheduled reload failed, keeping previous snapshot: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid sync interval %q: %w", rt.SyncInterval, err)
		}
		c.Start()
		go func() {
			<-ctx.Done()
			c.Stop()
		}()
	}

	return nil
}

// Sync fetches the raw payload from the source and reloads the manager.
func (rt *Runtime) Sync(ctx context.Context) error {
	timeout := rt.FetchTimeout
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := rt.Source.Fetch(fetchCtx)
	if err != nil {
		return fmt.Errorf("fetching definitions: %w", err)
	}
	generation, err := rt.Manager.Reload(raw)
	if err != nil {
		return fmt.Errorf("reloading definitions: %w", err)
	}
	log.Infof("flag definitions reloaded, generation %d", generation)
	return nil
}
