// internal/app/features/simapi/handler.go
package simapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/stratasim/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasim/internal/app/system/ledger"
	"github.com/dalemusser/stratasim/internal/app/system/metrics"
	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/dalemusser/stratasim/internal/app/system/timeouts"
	"github.com/dalemusser/stratasim/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the JSON simulation API.
type Handler struct {
	Sim     Simulator
	History RunRecorder // nil when history is disabled
	Log     *zap.Logger
}

// NewHandler creates an API handler. history may be nil.
func NewHandler(sim Simulator, history RunRecorder, logger *zap.Logger) *Handler {
	return &Handler{Sim: sim, History: history, Log: logger}
}

// ServeParams handles GET /api/params - the parameter schema with defaults.
func (h *Handler) ServeParams(w http.ResponseWriter, r *http.Request) {
	defaults := models.DefaultParameters()
	fields := models.Fields()

	resp := ParamsResponse{
		Fields:   make([]FieldSchema, 0, len(fields)),
		Defaults: defaults.Config(),
	}
	for _, f := range fields {
		resp.Fields = append(resp.Fields, FieldSchema{
			Key:         f.Key,
			Label:       f.Label,
			Description: f.Description,
			Kind:        f.Kind.String(),
			Group:       string(f.Group),
			Default:     resp.Defaults[f.Key],
		})
	}
	jsonutil.OK(w, resp)
}

// HandleRun handles POST /api/run.
//
// Validation failures answer 400 without calling the backend. Backend and
// transport failures answer 502 with the message a browser user would see.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var in RunRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		ledger.SetError(r.Context(), "validation", err.Error())
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if in.Config == nil {
		ledger.SetError(r.Context(), "validation", "missing config")
		jsonutil.BadRequest(w, "Configuration data not provided")
		return
	}

	params, err := models.ApplyConfig(models.DefaultParameters(), in.Config)
	if err != nil {
		var rej *models.RejectedEditError
		if errors.As(err, &rej) {
			metrics.ObserveRejectedEdit(rej.Field)
		}
		metrics.ObserveRun(metrics.OutcomeRejected, 0)
		ledger.SetError(r.Context(), "validation", err.Error())
		jsonutil.BadRequest(w, err.Error())
		return
	}

	start := time.Now()
	res, err := h.Sim.Run(r.Context(), params)
	elapsed := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeTransport
		var be *simclient.BackendError
		if errors.As(err, &be) {
			outcome = metrics.OutcomeBackendError
		}
		metrics.ObserveRun(outcome, elapsed)
		h.Log.Warn("api simulation run failed",
			zap.String("request_id", ledger.RequestID(r.Context())),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		ledger.SetError(r.Context(), outcome, err.Error())
		jsonutil.Error(w, http.StatusBadGateway, simclient.UserMessage(err))
		return
	}
	metrics.ObserveRun(metrics.OutcomeSuccess, elapsed)

	resp := RunResponse{
		InfectionCurve: res.Curve,
		VerboseLogs:    res.VerboseLogs,
		Summary:        models.Summarize(res.Curve, params.N, params.Max),
	}
	resp.RunID = h.record(r.Context(), params, res, resp.Summary)

	jsonutil.OK(w, resp)
}

func (h *Handler) record(parent context.Context, params models.Parameters, res simclient.Result, sum models.Summary) string {
	if h.History == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeouts.Short())
	defer cancel()

	run := &models.Run{
		WorkbenchID: APIWorkbenchID,
		Params:      params,
		Curve:       res.Curve,
		VerboseLogs: res.VerboseLogs,
		Summary:     sum,
		DurationMs:  res.Duration.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.History.Create(ctx, run); err != nil {
		metrics.HistoryWriteFailures.Inc()
		h.Log.Error("failed to record api simulation run", zap.Error(err))
		return ""
	}
	return run.ID.Hex()
}
