package source

import "context"

// ISource supplies raw flag definition payloads. Fetch may block on I/O;
// callers bound it with a context deadline and treat a failed or timed-out
// fetch as a failed reload.
type ISource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// IWatcher is implemented by sources that can push change notifications.
// A send on notify means "the payload may have changed, fetch again"; the
// watcher stops when ctx is cancelled.
type IWatcher interface {
	Watch(ctx context.Context, notify chan<- struct{}) error
}
