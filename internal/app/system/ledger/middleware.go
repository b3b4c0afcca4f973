// internal/app/system/ledger/middleware.go

// Package ledger records JSON API requests in MongoDB so failed calls from
// external clients can be inspected after the fact.
package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	ledgerstore "github.com/dalemusser/stratasim/internal/app/store/ledger"
	"github.com/dalemusser/stratasim/internal/app/system/network"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey int

const ctxKeyEntry ctxKey = iota

// Recorder persists entries. *ledgerstore.Store satisfies it.
type Recorder interface {
	Create(ctx context.Context, entry ledgerstore.Entry) error
}

// Config holds configuration for the ledger middleware.
type Config struct {
	Store  Recorder
	Logger *zap.Logger

	// MaxBodyPreview caps the stored request body preview. 0 disables it.
	MaxBodyPreview int

	// OnlyErrors skips requests that answered below 400.
	OnlyErrors bool
}

// DefaultConfig records failed requests with a 500-byte body preview.
func DefaultConfig(store Recorder, logger *zap.Logger) Config {
	return Config{
		Store:          store,
		Logger:         logger,
		MaxBodyPreview: 500,
		OnlyErrors:     true,
	}
}

// Middleware returns HTTP middleware that writes one entry per request.
// Entries are stored in the background so the response is never delayed.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimw.GetReqID(r.Context())
			if requestID == "" {
				requestID = uuid.NewString()
			}

			entry := &ledgerstore.Entry{
				RequestID:       requestID,
				ClientRequestID: r.Header.Get("X-Request-ID"),
				Method:          r.Method,
				Path:            r.URL.Path,
				RemoteIP:        network.ClientIP(r),
				UserAgent:       r.UserAgent(),
				Origin:          r.Header.Get("Origin"),
				StartedAt:       start.UTC(),
			}
			captureBody(r, entry, cfg.MaxBodyPreview)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), ctxKeyEntry, entry)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if cfg.OnlyErrors && status < http.StatusBadRequest {
				return
			}

			entry.StatusCode = status
			entry.ResponseSize = int64(ww.BytesWritten())
			entry.DurationMs = float64(time.Since(start).Microseconds()) / 1000.0
			if status >= http.StatusBadRequest && entry.ErrorClass == "" {
				entry.ErrorClass = classify(status)
			}

			rec := *entry
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := cfg.Store.Create(ctx, rec); err != nil {
					cfg.Logger.Error("failed to store ledger entry",
						zap.String("request_id", rec.RequestID),
						zap.Error(err))
				}
			}()
		})
	}
}

// captureBody reads the body for hashing and preview, then restores it.
func captureBody(r *http.Request, entry *ledgerstore.Entry, maxPreview int) {
	if maxPreview <= 0 || r.Body == nil || r.ContentLength == 0 {
		return
	}
	// Decoders cap the body themselves; read one byte more than they allow.
	const limit = 1<<20 + 1
	body, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

	entry.BodySize = int64(len(body))
	if len(body) == 0 {
		return
	}
	sum := sha256.Sum256(body)
	entry.BodyHash = hex.EncodeToString(sum[:])[:8]

	preview := string(body)
	if len(preview) > maxPreview {
		preview = preview[:maxPreview] + "..."
	}
	entry.BodyPreview = preview
}

func classify(status int) string {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return "validation"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusMethodNotAllowed:
		return "method"
	case status == http.StatusRequestEntityTooLarge:
		return "too_large"
	case status == http.StatusBadGateway:
		return "backend"
	case status == http.StatusGatewayTimeout, status == http.StatusServiceUnavailable:
		return "timeout"
	case status >= 500:
		return "internal"
	default:
		return "client_error"
	}
}

// SetError annotates the current request's entry. It is a no-op outside
// the middleware.
func SetError(ctx context.Context, class, message string) {
	entry, ok := ctx.Value(ctxKeyEntry).(*ledgerstore.Entry)
	if !ok {
		return
	}
	entry.ErrorClass = class
	entry.ErrorMessage = message
}

// RequestID returns the ledger request id for ctx, or "".
func RequestID(ctx context.Context) string {
	entry, ok := ctx.Value(ctxKeyEntry).(*ledgerstore.Entry)
	if !ok {
		return ""
	}
	return entry.RequestID
}
