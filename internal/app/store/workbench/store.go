// internal/app/store/workbench/store.go
package workbench

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratasim/internal/domain/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound means no workbench exists for the id (never created or expired).
	ErrNotFound = errors.New("workbench not found")
	// ErrBusy means a run is already in flight for the workbench.
	ErrBusy = errors.New("a simulation is already running")
)

// State is one browser session's workbench: the parameter record being
// edited plus the results of the last successful run.
type State struct {
	ID     string            `json:"id"`
	Params models.Parameters `json:"params"`

	Curve   []float64      `json:"curve,omitempty"`
	Logs    []string       `json:"logs,omitempty"`
	Summary models.Summary `json:"summary"`
	// Days is the "max" value of the request that produced Curve.
	Days float64 `json:"days,omitempty"`

	LastError string `json:"last_error,omitempty"` // message of the most recent failed run
	LastRunID string `json:"last_run_id,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns a workbench with default parameters and no results.
func NewState(id string) *State {
	if id == "" {
		id = NewID()
	}
	return &State{
		ID:        id,
		Params:    models.DefaultParameters(),
		Summary:   models.Summary{PercentageInfected: "0.00"},
		UpdatedAt: time.Now().UTC(),
	}
}

// NewID returns a fresh workbench id.
func NewID() string {
	return uuid.NewString()
}

// HasResult reports whether the workbench holds a curve to display.
func (s *State) HasResult() bool {
	return len(s.Curve) > 0
}

// SetResult replaces curve, logs and summary with a new run's output.
// Logs are cleared unless the run was verbose.
func (s *State) SetResult(params models.Parameters, curve []float64, logs []string) {
	s.Curve = append([]float64(nil), curve...)
	if params.Verbose {
		s.Logs = append([]string(nil), logs...)
	} else {
		s.Logs = nil
	}
	s.Days = params.Max
	s.Summary = models.Summarize(s.Curve, params.N, params.Max)
	s.LastError = ""
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	if s.Curve != nil {
		c.Curve = append(make([]float64, 0, len(s.Curve)), s.Curve...)
	}
	if s.Logs != nil {
		c.Logs = append(make([]string, 0, len(s.Logs)), s.Logs...)
	}
	return &c
}

// Store persists workbench state keyed by workbench id.
//
// TryBegin and End bracket a run: TryBegin marks the workbench busy or
// returns ErrBusy, End always clears the mark.
type Store interface {
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, id string) error

	TryBegin(ctx context.Context, id string) error
	End(ctx context.Context, id string) error

	// Sweep drops workbenches idle since before cutoff and returns how many
	// were removed. Backends with native expiry may return 0.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// LoadOrCreate loads id, or saves and returns a fresh workbench when id is
// unknown. An empty id gets a newly generated one.
func LoadOrCreate(ctx context.Context, s Store, id string) (*State, error) {
	if id != "" {
		st, err := s.Load(ctx, id)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	st := NewState(id)
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
