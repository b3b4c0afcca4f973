// internal/domain/models/run.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Run is a completed simulation kept in the run history.
type Run struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkbenchID string             `bson:"workbench_id" json:"workbench_id"` // browser session that started the run

	Params      Parameters `bson:"params" json:"params"`
	Curve       []float64  `bson:"curve" json:"infection_curve"`
	VerboseLogs []string   `bson:"verbose_logs,omitempty" json:"verbose_logs,omitempty"`
	Summary     Summary    `bson:"summary" json:"summary"`

	DurationMs int64     `bson:"duration_ms" json:"duration_ms"` // backend round trip
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Days returns the number of points on the curve.
func (r *Run) Days() int {
	return len(r.Curve)
}
