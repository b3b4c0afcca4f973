// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/stratasim/internal/domain/models"
)

// Workbench store kinds accepted by workbench_store.
const (
	WorkbenchStoreMemory = "memory"
	WorkbenchStoreValkey = "valkey"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging, CORS and body limits; everything stratasim needs
// on top of that lives here.
type AppConfig struct {
	// Simulation backend
	BackendURL     string
	BackendTimeout time.Duration

	// MongoDB connection configuration (run history)
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Browser session cookie carrying the workbench id
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	CSRFKey string

	// Workbench state
	WorkbenchStore string // "memory" or "valkey"
	ValkeyAddr     string // host:port or valkey:// URL
	WorkbenchTTL   time.Duration

	// Run history
	HistoryEnabled   bool
	HistoryRetention time.Duration // 0 keeps runs forever
	HistoryPageSize  int

	// Site text
	SiteName   string
	AboutTitle string
	AboutHTML  string
	FooterHTML string

	// JSON API
	APIAllowedOrigins  []string
	APILedgerEnabled   bool          // record /api requests in MongoDB
	APILedgerAll       bool          // record successes too, not only failures
	APILedgerRetention time.Duration // 0 keeps entries forever

	MetricsEnabled bool
}

// SiteSettings returns the display text for viewdata and the About page.
func (c AppConfig) SiteSettings() models.SiteSettings {
	return models.SiteSettings{
		SiteName:   c.SiteName,
		FooterHTML: c.FooterHTML,
		AboutTitle: c.AboutTitle,
		AboutHTML:  c.AboutHTML,
	}.WithDefaults()
}

// requestTimeout bounds a whole request. A run may wait for the backend for
// up to BackendTimeout, so the router deadline sits above it.
func (c AppConfig) requestTimeout() time.Duration {
	const floor = 30 * time.Second
	d := c.BackendTimeout + 10*time.Second
	if d < floor {
		return floor
	}
	return d
}
