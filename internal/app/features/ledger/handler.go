// internal/app/features/ledger/handler.go
package ledgerfeature

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/stratasim/internal/app/features/errors"
	ledgerstore "github.com/dalemusser/stratasim/internal/app/store/ledger"
	"github.com/dalemusser/stratasim/internal/app/system/timeouts"
	"github.com/dalemusser/stratasim/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// listLimit caps the number of failures shown on the list page.
const listLimit = 50

// Handler serves the read-only view of failed JSON API requests.
type Handler struct {
	Store  *ledgerstore.Store
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

// NewHandler creates a ledger handler.
func NewHandler(store *ledgerstore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		ErrLog: errLog,
		Log:    logger,
	}
}

// ServeList handles GET /api-errors - the latest failed API calls.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "api error list")
	defer cancel()

	entries, err := h.Store.RecentErrors(ctx, listLimit)
	if err != nil {
		h.ErrLog.Log(r, "failed to load ledger entries", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rows := make([]EntryVM, len(entries))
	for i := range entries {
		rows[i] = toEntryVM(&entries[i])
	}

	templates.Render(w, r, "ledger/list", ListVM{
		BaseVM:  viewdata.NewBaseVM(r, "API Errors", "/"),
		Entries: rows,
		Limit:   listLimit,
	})
}

// ServeDetail handles GET /api-errors/{requestID}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	entry, err := h.Store.GetByRequestID(ctx, chi.URLParam(r, "requestID"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.ErrLog.Log(r, "failed to load ledger entry", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	templates.Render(w, r, "ledger/detail", DetailVM{
		BaseVM: viewdata.NewBaseVM(r, "API Request", "/api-errors"),
		Entry:  toEntryVM(entry),
	})
}

func toEntryVM(e *ledgerstore.Entry) EntryVM {
	return EntryVM{
		RequestID:       e.RequestID,
		ClientRequestID: e.ClientRequestID,
		Method:          e.Method,
		Path:            e.Path,
		RemoteIP:        e.RemoteIP,
		UserAgent:       e.UserAgent,
		Origin:          e.Origin,
		BodySize:        e.BodySize,
		BodyHash:        e.BodyHash,
		BodyPreview:     e.BodyPreview,
		StatusCode:      e.StatusCode,
		StatusClass:     statusClass(e.StatusCode),
		ResponseSize:    e.ResponseSize,
		ErrorClass:      e.ErrorClass,
		ErrorMessage:    e.ErrorMessage,
		Duration:        formatMs(e.DurationMs),
		StartedAt:       e.StartedAt.Local().Format("Jan 2, 2006 3:04:05 PM"),
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "status-5xx"
	case code >= 400:
		return "status-4xx"
	default:
		return "status-2xx"
	}
}

func formatMs(ms float64) string {
	if ms < 1 {
		return fmt.Sprintf("%.0fµs", ms*1000)
	}
	return (time.Duration(ms * float64(time.Millisecond))).Round(time.Millisecond).String()
}
