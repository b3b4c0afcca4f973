// internal/app/features/workbench/types.go
package workbenchfeature

import (
	"context"

	"github.com/dalemusser/stratasim/internal/app/system/chart"
	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/dalemusser/stratasim/internal/app/system/viewdata"
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

// FieldVM is one parameter control.
type FieldVM struct {
	Key         string
	Label       string
	Description string
	IsFlag      bool
	Value       string
	Checked     bool
	Step        string
	Rejected    bool
}

// GroupVM is one fieldset of the parameter form.
type GroupVM struct {
	Title  string
	Fields []FieldVM
}

// ResultsVM drives the chart, summary and log views. None of them render
// when HasResult is false.
type ResultsVM struct {
	HasResult bool
	Chart     chart.Chart
	Summary   viewdata.SummaryVM
	Logs      []string
	Error     string
	RunID     string
	History   bool
}

// PageVM is the view model for the workbench page.
type PageVM struct {
	viewdata.BaseVM
	Groups  []GroupVM
	Results ResultsVM
	Alert   string
}
