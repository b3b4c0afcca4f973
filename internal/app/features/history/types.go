// internal/app/features/history/types.go
package historyfeature

import (
	"github.com/dalemusser/stratasim/internal/app/system/chart"
	"github.com/dalemusser/stratasim/internal/app/system/viewdata"
)

// RunRowVM is one row of the history table.
type RunRowVM struct {
	ID         string
	CreatedAt  string
	Population string
	Days       string
	Peak       string
	DayOfPeak  int
	Percentage string
	Duration   string
	Verbose    bool
	Mine       bool
}

// ParamVM is one labelled parameter value on the detail page.
type ParamVM struct {
	Label string
	Value string
}

// ListVM is the view model for the history list page.
type ListVM struct {
	viewdata.BaseVM
	Runs       []RunRowVM
	Scope      string // "mine" or "all"
	Page       int64
	TotalPages int64
	TotalCount int64
	PrevPage   int64
	NextPage   int64
}

// DetailVM is the view model for one recorded run.
type DetailVM struct {
	viewdata.BaseVM
	Run       RunRowVM
	Params    []ParamVM
	HasResult bool
	Chart     chart.Chart
	Summary   viewdata.SummaryVM
	Logs      []string
}
