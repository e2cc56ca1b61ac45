package gate

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/flagward/flagward/pkg/eval"
	"github.com/flagward/flagward/pkg/model"
)

// Request headers the gate maps into the evaluation context. Attribute
// headers carry arbitrary key-values: X-Flagward-Attr-Region becomes the
// "region" attribute.
const (
	HeaderSubject    = "X-Flagward-Subject"
	HeaderGroups     = "X-Flagward-Groups"
	HeaderAttrPrefix = "X-Flagward-Attr-"
)

// Wrap decorates next so that every invocation re-evaluates flagKey against
// a context built from the incoming request. Nothing is cached at wrap time:
// a reload takes effect on the very next request. When the flag is disabled
// or missing the wrapped handler is never invoked and the caller receives a
// not-found response.
func Wrap(flagKey string, evaluator eval.IEvaluator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !evaluator.IsEnabled(flagKey, ContextFromRequest(r)) {
			writeUnavailable(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware is Wrap in chi middleware form.
func Middleware(flagKey string, evaluator eval.IEvaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return Wrap(flagKey, evaluator, next)
	}
}

// ContextFromRequest builds the evaluation context for one request.
func ContextFromRequest(r *http.Request) eval.Context {
	ctx := eval.Context{
		SubjectKey: r.Header.Get(HeaderSubject),
		Now:        time.Now(),
		Attributes: map[string]interface{}{},
	}
	if raw := r.Header.Get(HeaderGroups); raw != "" {
		for _, group := range strings.Split(raw, ",") {
			if group = strings.TrimSpace(group); group != "" {
				ctx.Groups = append(ctx.Groups, group)
			}
		}
	}
	for name, values := range r.Header {
		if strings.HasPrefix(name, HeaderAttrPrefix) && len(values) > 0 {
			key := strings.ToLower(strings.TrimPrefix(name, HeaderAttrPrefix))
			ctx.Attributes[key] = values[0]
		}
	}
	return ctx
}

func writeUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"errorCode": model.FlagNotFoundErrorCode,
	})
}
