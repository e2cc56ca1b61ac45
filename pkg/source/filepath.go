package source

import (
	"context"
	"errors"
	"os"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// FilePathSource reads flag definitions from a local JSON document and
// notifies watchers on file writes.
type FilePathSource struct {
	URI string
}

func (fp *FilePathSource) Fetch(ctx context.Context) ([]byte, error) {
	if fp.URI == "" {
		return nil, errors.New("no filepath string set")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(fp.URI)
}

func (fp *FilePathSource) Watch(ctx context.Context, notify chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(fp.URI); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// editors replace rather than rewrite, so watch for both
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case notify <- struct{}{}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("watching %s: %v", fp.URI, err)
			}
		}
	}()
	return nil
}
