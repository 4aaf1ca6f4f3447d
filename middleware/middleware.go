// Package middleware validates JSON request bodies against a schema before
// they reach an http.Handler. Validated values travel in the request context.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/reoring/zschema"
)

// ctxKey is a typed context key. The type parameter keeps keys for
// different output types apart.
type ctxKey[T any] struct{}

// WithValue attaches a validated value to the context.
func WithValue[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, ctxKey[T]{}, v)
}

// FromContext retrieves the value stored by ValidateJSON.
func FromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKey[T]{}).(T)
	return v, ok
}

// DefaultParseOpt is used for request bodies unless WithParseOpt replaces it.
// Duplicate keys are errors.
func DefaultParseOpt() zschema.ParseOpt {
	return zschema.ParseOpt{OnDuplicateKey: zschema.Error}
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues zschema.Issues) map[string]any {
	if issues == nil {
		issues = zschema.Issues{}
	}
	return map[string]any{"issues": issues}
}

type config struct {
	log     *zap.Logger
	metrics *Metrics
	opt     zschema.ParseOpt
}

// Option configures ValidateJSON.
type Option func(*config)

// WithLogger logs rejected requests at debug level and internal errors at
// error level.
func WithLogger(l *zap.Logger) Option { return func(c *config) { c.log = l } }

// WithMetrics records every validation in m.
func WithMetrics(m *Metrics) Option { return func(c *config) { c.metrics = m } }

// WithParseOpt replaces DefaultParseOpt.
func WithParseOpt(opt zschema.ParseOpt) Option { return func(c *config) { c.opt = opt } }

// WithMaxBytes caps the request body size.
func WithMaxBytes(n int64) Option { return func(c *config) { c.opt.MaxBytes = n } }

// ValidateJSON parses the request body via s. On success the typed value is
// stored with WithValue and next runs; on failure the client receives 400
// with {"issues": [...]}.
func ValidateJSON[T any](name string, s zschema.Typed[T], opts ...Option) func(http.Handler) http.Handler {
	cfg := config{log: zap.NewNop(), opt: DefaultParseOpt()}
	for _, o := range opts {
		o(&cfg)
	}
	log := cfg.log.With(zap.String("schema", name))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			res := zschema.SafeParseFrom(r.Context(), s, zschema.JSONReader(r.Body), cfg.opt)
			cfg.metrics.observe(name, res.Issues, res.Err(), time.Since(start))

			switch err := res.Err(); {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), res.Value)))
			case res.Issues != nil:
				log.Debug("request rejected",
					zap.String("path", r.URL.Path),
					zap.Int("issues", len(res.Issues)),
					zap.Strings("codes", res.Issues.Codes()))
				writeJSON(w, log, http.StatusBadRequest, ErrorPayload(res.Issues))
			default:
				// cancellation or a failing reader
				log.Error("validation aborted", zap.Error(err))
				writeJSON(w, log, http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		log.Error("encode response", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
