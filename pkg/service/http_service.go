package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/flagward/flagward/pkg/eval"
	"github.com/flagward/flagward/pkg/gate"
	"github.com/flagward/flagward/pkg/store"
)

// ReverseEchoFlag gates the demo echo endpoint.
const ReverseEchoFlag = "ReverseEcho"

const maxEchoBody = 1 << 20

type HTTPServiceConfiguration struct {
	Port int32
}

type HTTPService struct {
	HTTPServiceConfiguration *HTTPServiceConfiguration
}

func (h *HTTPService) Serve(ctx context.Context, manager *store.Manager) error {
	if h.HTTPServiceConfiguration == nil {
		return errors.New("http service configuration has not been initialised")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", h.HTTPServiceConfiguration.Port),
		Handler: Router(manager),
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("http service listening on %s", server.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Router builds the HTTP surface: the gated demo endpoint plus the
// introspection and health routes.
func Router(manager *store.Manager) http.Handler {
	evaluator := eval.NewStoreEvaluator(manager)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/flags", flagsHandler(manager))
	r.With(gate.Middleware(ReverseEchoFlag, evaluator)).
		Post("/echo/reverse", reverseHandler)

	return r
}

// flagsHandler reports the current snapshot generation and a per-flag
// summary for diagnostics.
func flagsHandler(manager *store.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snapshot := manager.Current()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"generation": snapshot.Generation(),
			"flags":      snapshot.Snapshot(),
		})
	}
}

func reverseHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEchoBody))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(reverse(string(body))))
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
