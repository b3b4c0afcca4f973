// internal/app/features/history/handler.go
package historyfeature

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/stratasim/internal/app/features/errors"
	runstore "github.com/dalemusser/stratasim/internal/app/store/runs"
	"github.com/dalemusser/stratasim/internal/app/store/workbench"
	"github.com/dalemusser/stratasim/internal/app/system/chart"
	"github.com/dalemusser/stratasim/internal/app/system/export"
	"github.com/dalemusser/stratasim/internal/app/system/session"
	"github.com/dalemusser/stratasim/internal/app/system/timeouts"
	"github.com/dalemusser/stratasim/internal/app/system/viewdata"
	"github.com/dalemusser/stratasim/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultPageSize is used when the handler is built with a zero page size.
const DefaultPageSize = 20

// Handler serves the run history pages.
type Handler struct {
	Runs        *runstore.Store
	Workbenches workbench.Store
	PageSize    int64
	ErrLog      *errorsfeature.ErrorLogger
	Log         *zap.Logger
}

// NewHandler creates a history handler.
func NewHandler(runs *runstore.Store, wb workbench.Store, pageSize int, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Handler{
		Runs:        runs,
		Workbenches: wb,
		PageSize:    int64(pageSize),
		ErrLog:      errLog,
		Log:         logger,
	}
}

// ServeList handles GET /history - recorded runs, newest first.
// ?scope=all lists every browser's runs; the default lists only this one's.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "history list")
	defer cancel()

	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	scope := r.URL.Query().Get("scope")
	if scope != "all" {
		scope = "mine"
	}

	me := session.WorkbenchID(r)
	filter := runstore.ListFilter{Page: page, PageSize: h.PageSize}
	if scope == "mine" {
		filter.WorkbenchID = me
	}

	result, err := h.Runs.List(ctx, filter)
	if err != nil {
		h.ErrLog.Log(r, "failed to list runs", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rows := make([]RunRowVM, len(result.Runs))
	for i := range result.Runs {
		rows[i] = toRowVM(&result.Runs[i], me)
	}

	prevPage, nextPage := pageLinks(int(result.Page), int(result.Pages))

	data := ListVM{
		BaseVM:     viewdata.NewBaseVM(r, "Run History", "/"),
		Runs:       rows,
		Scope:      scope,
		Page:       result.Page,
		TotalPages: result.Pages,
		TotalCount: result.Total,
		PrevPage:   int64(prevPage),
		NextPage:   int64(nextPage),
	}

	if r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Target") == "runs-table" {
		templates.RenderSnippet(w, "history_table", data)
		return
	}

	templates.Render(w, r, "history/list", data)
}

// ServeDetail handles GET /history/{id} - chart, summary and logs of one run.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	data := DetailVM{
		BaseVM:  viewdata.NewBaseVM(r, "Run Details", "/history"),
		Run:     toRowVM(run, session.WorkbenchID(r)),
		Params:  paramVMs(run.Params),
		Summary: viewdata.NewSummaryVM(run.Summary),
		Logs:    run.VerboseLogs,
	}
	if len(run.Curve) > 0 {
		c, err := chart.Render(run.Curve, chart.DefaultOptions())
		if err != nil {
			h.Log.Warn("failed to render chart",
				zap.String("run_id", run.ID.Hex()),
				zap.Error(err))
		}
		data.HasResult = true
		data.Chart = c
	}

	templates.Render(w, r, "history/detail", data)
}

// ServeCSV handles GET /history/{id}/curve.csv - the curve as day,infections.
func (h *Handler) ServeCSV(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="run-%s.csv"`, run.ID.Hex()))
	if err := export.CurveCSV(w, run.Curve); err != nil {
		h.ErrLog.Log(r, "failed to write curve csv", err)
	}
}

// HandleLoad handles POST /history/{id}/load - copies the run's parameters
// into this browser's workbench.
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := workbench.LoadOrCreate(ctx, h.Workbenches, session.WorkbenchID(r))
	if err != nil {
		h.ErrLog.Log(r, "failed to load workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	st.Params = run.Params
	if err := h.Workbenches.Save(ctx, st); err != nil {
		h.ErrLog.Log(r, "failed to save workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("run parameters loaded into workbench",
		zap.String("run_id", run.ID.Hex()),
		zap.String("workbench_id", st.ID))

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleDelete handles POST /history/{id}/delete. Only the browser that
// made a run may delete it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	if run.WorkbenchID != session.WorkbenchID(r) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Runs.Delete(ctx, run.ID); err != nil && !errors.Is(err, runstore.ErrNotFound) {
		h.ErrLog.Log(r, "failed to delete run", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("run deleted", zap.String("run_id", run.ID.Hex()))

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/history")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

// loadRun resolves {id}. It writes the error response itself and reports
// false when the handler should stop.
func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*models.Run, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	run, err := h.Runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, runstore.ErrNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return nil, false
		}
		h.ErrLog.Log(r, "failed to load run", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return run, true
}

func toRowVM(run *models.Run, me string) RunRowVM {
	return RunRowVM{
		ID:         run.ID.Hex(),
		CreatedAt:  run.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM"),
		Population: models.FormatNumber(run.Params.N),
		Days:       models.FormatNumber(run.Params.Max),
		Peak:       models.FormatNumber(run.Summary.PeakInfections),
		DayOfPeak:  run.Summary.DayOfPeak,
		Percentage: run.Summary.PercentageInfected,
		Duration:   (time.Duration(run.DurationMs) * time.Millisecond).String(),
		Verbose:    run.Params.Verbose,
		Mine:       me != "" && run.WorkbenchID == me,
	}
}

func paramVMs(p models.Parameters) []ParamVM {
	fields := models.Fields()
	out := make([]ParamVM, 0, len(fields))
	for _, f := range fields {
		v, _ := p.Get(f.Key)
		val := v.String()
		if f.Kind == models.KindBoolean {
			val = "off"
			if v.Flag {
				val = "on"
			}
		}
		out = append(out, ParamVM{Label: f.Label, Value: val})
	}
	return out
}

// pageLinks returns the previous and next page numbers, both kept within
// 1..pages. An empty listing still links to page 1.
func pageLinks(page, pages int) (prev, next int) {
	if pages < 1 {
		pages = 1
	}
	return max(page-1, 1), min(page+1, pages)
}
