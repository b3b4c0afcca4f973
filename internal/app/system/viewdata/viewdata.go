// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"html/template"
	"net/http"
	"sync"

	"github.com/dalemusser/stratasim/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasim/internal/app/system/session"
	"github.com/dalemusser/stratasim/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/"),
//	}
type BaseVM struct {
	// Site settings (from configuration)
	SiteName   string
	FooterHTML template.HTML

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// Browser session
	WorkbenchID string

	// Menu
	HistoryEnabled bool

	// Security
	CSRFToken string // CSRF token for forms (use in hidden input field)
}

var (
	mu             sync.RWMutex
	site           = models.SiteSettings{}.WithDefaults()
	footer         = htmlsanitize.PrepareForDisplay(site.FooterHTML)
	historyEnabled bool
)

// Init sets the site text and menu options. Call this once at startup from
// bootstrap; tests may call it again.
func Init(settings models.SiteSettings, withHistory bool) {
	settings = settings.WithDefaults()

	mu.Lock()
	defer mu.Unlock()
	site = settings
	footer = htmlsanitize.PrepareForDisplay(settings.FooterHTML)
	historyEnabled = withHistory
}

// Settings returns the current site settings.
func Settings() models.SiteSettings {
	mu.RLock()
	defer mu.RUnlock()
	return site
}

// NewBaseVM creates a fully populated BaseVM for a page.
//
// Parameters:
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := New(r)
	vm.Title = title
	vm.BackURL = httpnav.ResolveBackURL(r, backDefault)
	return vm
}

// New creates a BaseVM without a title or back link.
func New(r *http.Request) BaseVM {
	mu.RLock()
	defer mu.RUnlock()

	return BaseVM{
		SiteName:       site.SiteName,
		FooterHTML:     footer,
		CurrentPath:    httpnav.CurrentPath(r),
		WorkbenchID:    session.WorkbenchID(r),
		HistoryEnabled: historyEnabled,
		CSRFToken:      csrf.Token(r),
	}
}

// SummaryVM holds the four derived run statistics formatted for display.
type SummaryVM struct {
	PeakInfections     string
	DayOfPeak          int
	TotalInfections    string
	PercentageInfected string
}

// NewSummaryVM formats s for the shared "summary" template.
func NewSummaryVM(s models.Summary) SummaryVM {
	return SummaryVM{
		PeakInfections:     models.FormatNumber(s.PeakInfections),
		DayOfPeak:          s.DayOfPeak,
		TotalInfections:    models.FormatNumber(s.TotalInfections),
		PercentageInfected: s.PercentageInfected,
	}
}
