// internal/app/features/simapi/types.go
package simapi

import (
	"context"

	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/dalemusser/stratasim/internal/domain/models"
)

// Simulator runs one simulation on the remote backend.
type Simulator interface {
	Run(ctx context.Context, params models.Parameters) (simclient.Result, error)
}

// RunRecorder stores completed runs in the history.
type RunRecorder interface {
	Create(ctx context.Context, run *models.Run) error
}

// APIWorkbenchID tags history entries made through the JSON API.
const APIWorkbenchID = "api"

// FieldSchema describes one parameter in GET /api/params.
type FieldSchema struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Group       string `json:"group"`
	Default     any    `json:"default"`
}

// ParamsResponse is the body of GET /api/params.
type ParamsResponse struct {
	Fields   []FieldSchema  `json:"fields"`
	Defaults map[string]any `json:"defaults"`
}

// RunRequest is the body of POST /api/run. Omitted keys keep their defaults.
type RunRequest struct {
	Config map[string]any `json:"config"`
}

// RunResponse is the body of a successful POST /api/run.
type RunResponse struct {
	InfectionCurve []float64      `json:"infection_curve"`
	VerboseLogs    []string       `json:"verbose_logs,omitempty"`
	Summary        models.Summary `json:"summary"`
	RunID          string         `json:"run_id,omitempty"`
}
