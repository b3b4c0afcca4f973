package ledger

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ledgerstore "github.com/dalemusser/stratasim/internal/app/store/ledger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chanRecorder struct {
	entries chan ledgerstore.Entry
	err     error
}

func newChanRecorder() *chanRecorder {
	return &chanRecorder{entries: make(chan ledgerstore.Entry, 4)}
}

func (c *chanRecorder) Create(_ context.Context, e ledgerstore.Entry) error {
	c.entries <- e
	return c.err
}

func (c *chanRecorder) next(t *testing.T) ledgerstore.Entry {
	t.Helper()
	select {
	case e := <-c.entries:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no ledger entry recorded")
		return ledgerstore.Entry{}
	}
}

func (c *chanRecorder) none(t *testing.T) {
	t.Helper()
	select {
	case e := <-c.entries:
		t.Fatalf("unexpected ledger entry for %s", e.Path)
	case <-time.After(50 * time.Millisecond):
	}
}

func serve(cfg Config, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("User-Agent", "sim-client/1.0")
	rec := httptest.NewRecorder()
	Middleware(cfg)(h).ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_RecordsFailures(t *testing.T) {
	store := newChanRecorder()
	cfg := DefaultConfig(store, zap.NewNop())

	var seenBody string
	handler := func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		SetError(r.Context(), "backend_error", "invalid seed")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Error: invalid seed"}`))
	}

	rec := serve(cfg, handler, `{"config":{"seed":-1}}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, `{"config":{"seed":-1}}`, seenBody, "handler must still see the full body")

	e := store.next(t)
	require.Equal(t, http.StatusBadGateway, e.StatusCode)
	require.Equal(t, "backend_error", e.ErrorClass)
	require.Equal(t, "invalid seed", e.ErrorMessage)
	require.Equal(t, "/api/run", e.Path)
	require.Equal(t, "203.0.113.9", e.RemoteIP)
	require.Equal(t, "sim-client/1.0", e.UserAgent)
	require.Equal(t, `{"config":{"seed":-1}}`, e.BodyPreview)
	require.Len(t, e.BodyHash, 8)
	require.NotEmpty(t, e.RequestID)
	require.Positive(t, e.ResponseSize)
}

func TestMiddleware_SkipsSuccessWhenOnlyErrors(t *testing.T) {
	store := newChanRecorder()
	cfg := DefaultConfig(store, zap.NewNop())

	rec := serve(cfg, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	store.none(t)
}

func TestMiddleware_RecordsSuccessWhenAll(t *testing.T) {
	store := newChanRecorder()
	cfg := DefaultConfig(store, zap.NewNop())
	cfg.OnlyErrors = false

	serve(cfg, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}, `{}`)

	e := store.next(t)
	require.Equal(t, http.StatusOK, e.StatusCode)
	require.Empty(t, e.ErrorClass)
}

func TestMiddleware_ClassifiesByStatus(t *testing.T) {
	store := newChanRecorder()
	cfg := DefaultConfig(store, zap.NewNop())

	serve(cfg, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}, `{`)
	require.Equal(t, "validation", store.next(t).ErrorClass)
}

func TestMiddleware_TruncatesPreview(t *testing.T) {
	store := newChanRecorder()
	cfg := DefaultConfig(store, zap.NewNop())
	cfg.MaxBodyPreview = 10

	serve(cfg, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}, strings.Repeat("x", 40))

	e := store.next(t)
	require.Equal(t, int64(40), e.BodySize)
	require.Equal(t, strings.Repeat("x", 10)+"...", e.BodyPreview)
}

func TestMiddleware_StoreErrorIsLogged(t *testing.T) {
	store := newChanRecorder()
	store.err = errors.New("mongo down")
	cfg := DefaultConfig(store, zap.NewNop())

	rec := serve(cfg, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "internal", store.next(t).ErrorClass)
}

func TestSetError_OutsideMiddleware(t *testing.T) {
	SetError(context.Background(), "x", "y")
	require.Empty(t, RequestID(context.Background()))
}

func TestClassify(t *testing.T) {
	cases := map[int]string{
		400: "validation",
		404: "not_found",
		405: "method",
		413: "too_large",
		409: "client_error",
		502: "backend",
		504: "timeout",
		500: "internal",
	}
	for status, want := range cases {
		require.Equal(t, want, classify(status), "status %d", status)
	}
}
