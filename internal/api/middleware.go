package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/go-chi/chi/v5/middleware"
)

// AuthMiddleware rejects requests without the configured bearer key. An
// empty key rejects everything.
func AuthMiddleware(apiKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				jsonError(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				log.Warn("outline request rejected",
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
				)
				jsonError(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extraction accumulates what the outline handlers produced for one request.
type extraction struct {
	documents int
	pages     int
	sections  int
	chunks    int
	policy    string
}

type extractionKey struct{}

// noteResult records res on the request's extraction summary, if any.
func noteResult(ctx context.Context, opts pipeline.Options, res *pipeline.Result) {
	ex, ok := ctx.Value(extractionKey{}).(*extraction)
	if !ok {
		return
	}
	ex.documents++
	ex.pages += res.Pages
	ex.sections += len(res.Sections)
	ex.chunks += len(res.Chunks)
	ex.policy = opts.Policy.String()
}

// RequestLogger logs each request along with the outline it produced.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ex := &extraction{}
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), extractionKey{}, ex)))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if ex.documents == 0 {
				log.Info("request", attrs...)
				return
			}
			attrs = append(attrs,
				"documents", ex.documents,
				"flush_policy", ex.policy,
				"pages", ex.pages,
				"sections", ex.sections,
				"chunks", ex.chunks,
			)
			log.Info("outline served", attrs...)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
