// internal/app/features/workbench/handler.go
package workbenchfeature

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/stratasim/internal/app/features/errors"
	"github.com/dalemusser/stratasim/internal/app/store/workbench"
	"github.com/dalemusser/stratasim/internal/app/system/chart"
	"github.com/dalemusser/stratasim/internal/app/system/metrics"
	"github.com/dalemusser/stratasim/internal/app/system/session"
	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/dalemusser/stratasim/internal/app/system/timeouts"
	"github.com/dalemusser/stratasim/internal/app/system/viewdata"
	"github.com/dalemusser/stratasim/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BusyMessage is shown when a run is requested while another is in flight.
const BusyMessage = "A simulation is already running."

// Handler serves the workbench page and its actions.
type Handler struct {
	Store   workbench.Store
	Sim     Simulator
	History RunRecorder // nil when history is disabled
	ErrLog  *errorsfeature.ErrorLogger
	Log     *zap.Logger
}

// NewHandler creates a workbench handler. history may be nil.
func NewHandler(store workbench.Store, sim Simulator, history RunRecorder, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:   store,
		Sim:     sim,
		History: history,
		ErrLog:  errLog,
		Log:     logger,
	}
}

// ServeIndex handles GET / - the parameter form and the last results.
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := workbench.LoadOrCreate(ctx, h.Store, session.WorkbenchID(r))
	if err != nil {
		h.ErrLog.Log(r, "failed to load workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	templates.Render(w, r, "workbench/index", h.pageVM(r, st, ""))
}

// ServeResults handles GET /results - the results section alone.
func (h *Handler) ServeResults(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := workbench.LoadOrCreate(ctx, h.Store, session.WorkbenchID(r))
	if err != nil {
		h.ErrLog.Log(r, "failed to load workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	templates.RenderSnippet(w, "workbench_results", h.resultsVM(st))
}

// HandleEdit handles POST /params/{key} - one field edit.
//
// An accepted edit answers 204. A rejected edit leaves the record unchanged
// and answers 422 with the control re-rendered at its prior value.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	key := chi.URLParam(r, "key")
	field, ok := models.LookupField(key)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	st, err := workbench.LoadOrCreate(ctx, h.Store, session.WorkbenchID(r))
	if err != nil {
		h.ErrLog.Log(r, "failed to load workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	next, err := models.ApplyEdit(st.Params, key, lastValue(r, key))
	if err != nil {
		metrics.ObserveRejectedEdit(key)
		h.Log.Debug("parameter edit rejected",
			zap.String("field", key),
			zap.String("workbench_id", st.ID),
			zap.Error(err))

		if isHTMX(r) {
			setAlert(w, err.Error())
			w.WriteHeader(http.StatusUnprocessableEntity)
			vm := fieldVM(field, st.Params)
			vm.Rejected = true
			templates.RenderSnippet(w, "workbench_field", vm)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "workbench/index", h.pageVM(r, st, err.Error()))
		return
	}

	st.Params = next
	if err := h.Store.Save(ctx, st); err != nil {
		h.ErrLog.Log(r, "failed to save workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if isHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRun handles POST /run.
//
// Fields posted with the form are applied first as one batch. The run then
// holds the workbench busy for its whole duration; every path releases it.
// A failed run keeps the previous curve, summary and logs.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := workbench.LoadOrCreate(ctx, h.Store, session.WorkbenchID(r))
	if err != nil {
		h.ErrLog.Log(r, "failed to load workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	params, err := models.ApplyEdits(st.Params, formEdits(r))
	if err != nil {
		var rej *models.RejectedEditError
		if errors.As(err, &rej) {
			metrics.ObserveRejectedEdit(rej.Field)
		}
		metrics.ObserveRun(metrics.OutcomeRejected, 0)
		h.reject(w, r, st, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if params != st.Params {
		st.Params = params
		if err := h.Store.Save(ctx, st); err != nil {
			h.ErrLog.Log(r, "failed to save workbench", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	if err := h.Store.TryBegin(ctx, st.ID); err != nil {
		if errors.Is(err, workbench.ErrBusy) {
			metrics.ObserveRun(metrics.OutcomeBusy, 0)
			h.reject(w, r, st, http.StatusConflict, BusyMessage)
			return
		}
		h.ErrLog.Log(r, "failed to mark workbench busy", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer h.end(st.ID)

	start := time.Now()
	res, runErr := h.Sim.Run(r.Context(), params)
	elapsed := time.Since(start)

	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Short())
	defer saveCancel()

	// Edits may have landed while the run was in flight; results go onto
	// the latest record.
	if latest, err := h.Store.Load(saveCtx, st.ID); err == nil {
		st = latest
	}

	if runErr != nil {
		msg := simclient.UserMessage(runErr)
		metrics.ObserveRun(outcomeOf(runErr), elapsed)
		h.Log.Warn("simulation run failed",
			zap.String("workbench_id", st.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(runErr))
		st.LastError = msg
	} else {
		metrics.ObserveRun(metrics.OutcomeSuccess, elapsed)
		st.SetResult(params, res.Curve, res.VerboseLogs)
		st.LastRunID = h.record(saveCtx, r, st, params, res)
		h.Log.Info("simulation run completed",
			zap.String("workbench_id", st.ID),
			zap.Int("days", len(res.Curve)),
			zap.Duration("elapsed", elapsed))
	}

	if err := h.Store.Save(saveCtx, st); err != nil {
		h.ErrLog.Log(r, "failed to save run results", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if isHTMX(r) {
		if runErr != nil {
			setAlert(w, st.LastError)
		}
		templates.RenderSnippet(w, "workbench_results", h.resultsVM(st))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleReset handles POST /reset - restores the default parameters.
// Results are kept.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := workbench.LoadOrCreate(ctx, h.Store, session.WorkbenchID(r))
	if err != nil {
		h.ErrLog.Log(r, "failed to load workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	st.Params = models.DefaultParameters()
	if err := h.Store.Save(ctx, st); err != nil {
		h.ErrLog.Log(r, "failed to save workbench", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.Log.Debug("workbench parameters reset", zap.String("workbench_id", st.ID))

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// reject answers a run that never reached the backend. htmx swaps 422
// bodies into #results, so the unchanged results section is sent back.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, st *workbench.State, status int, msg string) {
	if isHTMX(r) {
		setAlert(w, msg)
		w.WriteHeader(status)
		templates.RenderSnippet(w, "workbench_results", h.resultsVM(st))
		return
	}
	w.WriteHeader(status)
	templates.Render(w, r, "workbench/index", h.pageVM(r, st, msg))
}

// end releases the busy mark even when the request context is gone.
func (h *Handler) end(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	if err := h.Store.End(ctx, id); err != nil {
		h.Log.Error("failed to clear busy workbench",
			zap.String("workbench_id", id),
			zap.Error(err))
	}
}

// record writes a successful run to the history and returns its id. A
// failed write is logged; the run itself still succeeds.
func (h *Handler) record(ctx context.Context, r *http.Request, st *workbench.State, params models.Parameters, res simclient.Result) string {
	if h.History == nil {
		return ""
	}
	run := &models.Run{
		WorkbenchID: st.ID,
		Params:      params,
		Curve:       st.Curve,
		VerboseLogs: st.Logs,
		Summary:     st.Summary,
		DurationMs:  res.Duration.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.History.Create(ctx, run); err != nil {
		metrics.HistoryWriteFailures.Inc()
		h.ErrLog.Log(r, "failed to record simulation run", err)
		return ""
	}
	return run.ID.Hex()
}

func (h *Handler) pageVM(r *http.Request, st *workbench.State, alert string) PageVM {
	groups := make([]GroupVM, 0, len(models.Groups))
	for _, g := range models.Groups {
		gv := GroupVM{Title: g.Title()}
		for _, f := range models.FieldsInGroup(g) {
			gv.Fields = append(gv.Fields, fieldVM(f, st.Params))
		}
		groups = append(groups, gv)
	}
	return PageVM{
		BaseVM:  viewdata.NewBaseVM(r, "Disease Simulation", "/"),
		Groups:  groups,
		Results: h.resultsVM(st),
		Alert:   alert,
	}
}

func (h *Handler) resultsVM(st *workbench.State) ResultsVM {
	vm := ResultsVM{
		Error:   st.LastError,
		RunID:   st.LastRunID,
		History: h.History != nil,
	}
	if len(st.Curve) == 0 {
		return vm
	}
	c, err := chart.Render(st.Curve, chart.DefaultOptions())
	if err != nil {
		h.Log.Warn("failed to render chart",
			zap.String("workbench_id", st.ID),
			zap.Error(err))
	}
	vm.HasResult = true
	vm.Chart = c
	vm.Summary = viewdata.NewSummaryVM(st.Summary)
	vm.Logs = st.Logs
	return vm
}

func fieldVM(f models.Field, p models.Parameters) FieldVM {
	v, _ := p.Get(f.Key)
	return FieldVM{
		Key:         f.Key,
		Label:       f.Label,
		Description: f.Description,
		IsFlag:      f.Kind == models.KindBoolean,
		Value:       v.String(),
		Checked:     v.Flag,
		Step:        f.Step,
	}
}

// formEdits collects the posted values of known parameters. Unknown form
// keys such as the CSRF field are ignored.
func formEdits(r *http.Request) map[string]string {
	edits := map[string]string{}
	for _, f := range models.Fields() {
		if _, ok := r.PostForm[f.Key]; ok {
			edits[f.Key] = lastValue(r, f.Key)
		}
	}
	return edits
}

// lastValue returns the last posted value for key. A checkbox is preceded
// by a hidden "false" input, so the last value wins.
func lastValue(r *http.Request, key string) string {
	vals := r.PostForm[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}

func outcomeOf(err error) string {
	var be *simclient.BackendError
	if errors.As(err, &be) {
		return metrics.OutcomeBackendError
	}
	return metrics.OutcomeTransport
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// setAlert asks the browser to show msg in a blocking alert.
func setAlert(w http.ResponseWriter, msg string) {
	payload, err := json.Marshal(map[string]any{"showAlert": map[string]string{"message": msg}})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}
