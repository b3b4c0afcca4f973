// internal/app/features/ledger/types.go
package ledgerfeature

import "github.com/dalemusser/stratasim/internal/app/system/viewdata"

// EntryVM is one recorded API request formatted for display.
type EntryVM struct {
	RequestID       string
	ClientRequestID string
	Method          string
	Path            string
	RemoteIP        string
	UserAgent       string
	Origin          string
	BodySize        int64
	BodyHash        string
	BodyPreview     string
	StatusCode      int
	StatusClass     string // CSS class for the status badge
	ResponseSize    int64
	ErrorClass      string
	ErrorMessage    string
	Duration        string
	StartedAt       string
}

// ListVM is the view model for the API errors list.
type ListVM struct {
	viewdata.BaseVM
	Entries []EntryVM
	Limit   int
}

// DetailVM is the view model for one API request.
type DetailVM struct {
	viewdata.BaseVM
	Entry EntryVM
}
