package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFlagFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFetch_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.json")
	writeFlagFile(t, path, `{"flags": {}}`)

	fp := &FilePathSource{URI: path}
	raw, err := fp.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"flags": {}}`, string(raw))
}

func TestFetch_EmptyURI_Error(t *testing.T) {
	fp := &FilePathSource{}
	_, err := fp.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetch_CancelledContext_Error(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.json")
	writeFlagFile(t, path, `{"flags": {}}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fp := &FilePathSource{URI: path}
	_, err := fp.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatch_NotifiesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.json")
	writeFlagFile(t, path, `{"flags": {}}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := make(chan struct{}, 1)
	fp := &FilePathSource{URI: path}
	require.NoError(t, fp.Watch(ctx, notify))

	writeFlagFile(t, path, `{"flags": {"f": {"enabled": true}}}`)

	select {
	case <-notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch notification")
	}
}

func TestWatch_MissingFile_Error(t *testing.T) {
	fp := &FilePathSource{URI: filepath.Join(t.TempDir(), "absent.json")}
	err := fp.Watch(context.Background(), make(chan struct{}, 1))
	assert.Error(t, err)
}
