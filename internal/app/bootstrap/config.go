// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATASIM"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: backend_url, mongo_uri, etc.
//   - Environment variables: STRATASIM_BACKEND_URL, STRATASIM_MONGO_URI, etc.
//   - Command-line flags: --backend_url, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "backend_url", Default: simclient.DefaultEndpoint, Desc: "Simulation backend run endpoint"},
	{Name: "backend_timeout", Default: "60s", Desc: "Maximum wait for one simulation run"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratasim", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratasim-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Workbench state
	{Name: "workbench_store", Default: WorkbenchStoreMemory, Desc: "Workbench state store: 'memory' or 'valkey'"},
	{Name: "valkey_addr", Default: "localhost:6379", Desc: "Valkey address (host:port or valkey:// URL)"},
	{Name: "workbench_ttl", Default: "2h", Desc: "Idle time after which a workbench is discarded"},

	// Run history
	{Name: "history_enabled", Default: true, Desc: "Record completed runs in MongoDB"},
	{Name: "history_retention", Default: "720h", Desc: "Delete runs older than this (0 keeps them forever)"},
	{Name: "history_page_size", Default: 20, Desc: "Runs per history page"},

	// Site text
	{Name: "site_name", Default: "", Desc: "Name shown in the menu header"},
	{Name: "about_title", Default: "", Desc: "Heading of the About page"},
	{Name: "about_html", Default: "", Desc: "About page body (sanitized HTML)"},
	{Name: "footer_html", Default: "", Desc: "Footer content (sanitized HTML)"},

	{Name: "api_allowed_origins", Default: "*", Desc: "Comma-separated origins allowed to call /api"},
	{Name: "api_ledger_enabled", Default: true, Desc: "Record /api requests in MongoDB"},
	{Name: "api_ledger_all", Default: false, Desc: "Record successful /api requests too (default: failures only)"},
	{Name: "api_ledger_retention", Default: "168h", Desc: "Delete ledger entries older than this (0 keeps them forever)"},
	{Name: "metrics_enabled", Default: true, Desc: "Expose Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// WAFFLE_* and STRATASIM_* environment variables and command-line flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		BackendURL:     strings.TrimSpace(appValues.String("backend_url")),
		BackendTimeout: appValues.Duration("backend_timeout", simclient.DefaultTimeout),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		CSRFKey: appValues.String("csrf_key"),

		WorkbenchStore: strings.ToLower(strings.TrimSpace(appValues.String("workbench_store"))),
		ValkeyAddr:     strings.TrimSpace(appValues.String("valkey_addr")),
		WorkbenchTTL:   appValues.Duration("workbench_ttl", 2*time.Hour),

		HistoryEnabled:   appValues.Bool("history_enabled"),
		HistoryRetention: appValues.Duration("history_retention", 720*time.Hour),
		HistoryPageSize:  appValues.Int("history_page_size"),

		SiteName:   appValues.String("site_name"),
		AboutTitle: appValues.String("about_title"),
		AboutHTML:  appValues.String("about_html"),
		FooterHTML: appValues.String("footer_html"),

		APIAllowedOrigins:  splitList(appValues.String("api_allowed_origins")),
		APILedgerEnabled:   appValues.Bool("api_ledger_enabled"),
		APILedgerAll:       appValues.Bool("api_ledger_all"),
		APILedgerRetention: appValues.Duration("api_ledger_retention", 168*time.Hour),

		MetricsEnabled: appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if err := validateBackendURL(appCfg.BackendURL); err != nil {
		logger.Error("invalid backend URL", zap.String("backend_url", appCfg.BackendURL), zap.Error(err))
		return fmt.Errorf("invalid backend URL: %w", err)
	}

	if appCfg.BackendTimeout <= 0 {
		return errors.New("backend_timeout must be positive")
	}

	switch appCfg.WorkbenchStore {
	case WorkbenchStoreMemory:
	case WorkbenchStoreValkey:
		if appCfg.ValkeyAddr == "" {
			return errors.New("valkey_addr is required when workbench_store is 'valkey'")
		}
	default:
		return fmt.Errorf("unknown workbench_store %q (want 'memory' or 'valkey')", appCfg.WorkbenchStore)
	}

	if appCfg.WorkbenchTTL <= 0 {
		return errors.New("workbench_ttl must be positive")
	}
	if appCfg.HistoryRetention < 0 {
		return errors.New("history_retention must not be negative")
	}
	if appCfg.APILedgerRetention < 0 {
		return errors.New("api_ledger_retention must not be negative")
	}

	return nil
}

func validateBackendURL(raw string) error {
	if raw == "" {
		return errors.New("empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
