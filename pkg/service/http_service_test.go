package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagward/flagward/pkg/store"
)

const EchoEnabled = `{
  "flags": {
    "ReverseEcho": {
      "enabled": true
    }
  }
}`

const EchoDisabled = `{
  "flags": {
    "ReverseEcho": {
      "enabled": false
    }
  }
}`

func newRouter(t *testing.T, payload string) (*store.Manager, http.Handler) {
	t.Helper()
	manager := store.NewManager()
	_, err := manager.Reload([]byte(payload))
	require.NoError(t, err)
	return manager, Router(manager)
}

func TestReverseEcho_Enabled_ReversesBody(t *testing.T) {
	_, router := newRouter(t, EchoEnabled)

	req := httptest.NewRequest(http.MethodPost, "/echo/reverse", strings.NewReader("hello"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "olleh", rec.Body.String())
}

func TestReverseEcho_Disabled_NotFound(t *testing.T) {
	_, router := newRouter(t, EchoDisabled)

	req := httptest.NewRequest(http.MethodPost, "/echo/reverse", strings.NewReader("hello"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "olleh")
}

func TestReverseEcho_ReloadFlipsBehaviour(t *testing.T) {
	manager, router := newRouter(t, EchoDisabled)

	req := httptest.NewRequest(http.MethodPost, "/echo/reverse", strings.NewReader("hello"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := manager.Reload([]byte(EchoEnabled))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/echo/reverse", strings.NewReader("hello"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "olleh", rec.Body.String())
}

func TestFlagsEndpoint_ReportsSnapshot(t *testing.T) {
	_, router := newRouter(t, EchoEnabled)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/flags", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Generation uint64           `json:"generation"`
		Flags      []store.FlagInfo `json:"flags"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.Generation)
	require.Len(t, body.Flags, 1)
	assert.Equal(t, store.FlagInfo{Name: "ReverseEcho", Enabled: true, RuleCount: 0}, body.Flags[0])
}

func TestHealthz(t *testing.T) {
	_, router := newRouter(t, EchoEnabled)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReverse_Unicode(t *testing.T) {
	assert.Equal(t, "olleh", reverse("hello"))
	assert.Equal(t, "", reverse(""))
	assert.Equal(t, "éfac", reverse("café"))
}
