package ledgerfeature

import (
	"net/http"
	"strings"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/stratasim/internal/app/features/errors"
	ledgerstore "github.com/dalemusser/stratasim/internal/app/store/ledger"
	"github.com/dalemusser/stratasim/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (*ledgerstore.Store, http.Handler) {
	t.Helper()
	testutil.MustBootTemplates(t)
	store := ledgerstore.New(testutil.SetupTestDB(t))
	h := NewHandler(store, errorsfeature.NewErrorLogger(zap.NewNop()), zap.NewNop())
	return store, Routes(h)
}

func addEntry(t *testing.T, store *ledgerstore.Store, requestID string, status int, age time.Duration) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	err := store.Create(ctx, ledgerstore.Entry{
		RequestID:    requestID,
		Method:       http.MethodPost,
		Path:         "/api/run",
		RemoteIP:     "203.0.113.9",
		BodySize:     22,
		BodyPreview:  `{"config":{"seed":-1}}`,
		StatusCode:   status,
		ErrorClass:   "backend_error",
		ErrorMessage: "invalid seed",
		DurationMs:   12.5,
		StartedAt:    time.Now().UTC().Add(-age),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestServeList_ShowsFailuresOnly(t *testing.T) {
	store, router := newRouter(t)
	addEntry(t, store, "req-failed", http.StatusBadGateway, time.Minute)
	addEntry(t, store, "req-ok", http.StatusOK, time.Minute)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewWorkbenchRequest(http.MethodGet, "/"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "/api-errors/req-failed")
	rec.AssertContains(t, "invalid seed")
	if strings.Contains(rec.Body.String(), "req-ok") {
		t.Error("successful requests should not be listed")
	}
}

func TestServeList_Empty(t *testing.T) {
	_, router := newRouter(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewWorkbenchRequest(http.MethodGet, "/"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "No failed API requests recorded.")
}

func TestServeDetail(t *testing.T) {
	store, router := newRouter(t)
	addEntry(t, store, "req-42", http.StatusBadGateway, time.Minute)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewWorkbenchRequest(http.MethodGet, "/req-42"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "req-42")
	rec.AssertContains(t, "status-5xx")
	rec.AssertContains(t, "203.0.113.9")
	rec.AssertContains(t, "&#34;seed&#34;:-1")
}

func TestServeDetail_NotFound(t *testing.T) {
	_, router := newRouter(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewWorkbenchRequest(http.MethodGet, "/missing"))

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestFormatMs(t *testing.T) {
	cases := map[float64]string{
		0.25:   "250µs",
		12.4:   "12ms",
		1500.0: "1.5s",
	}
	for in, want := range cases {
		if got := formatMs(in); got != want {
			t.Errorf("formatMs(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusClass(t *testing.T) {
	if statusClass(404) != "status-4xx" || statusClass(503) != "status-5xx" || statusClass(200) != "status-2xx" {
		t.Error("statusClass buckets are wrong")
	}
}
