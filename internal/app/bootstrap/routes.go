// internal/app/bootstrap/routes.go
package bootstrap

import (
	"encoding/json"
	"net/http"

	aboutfeature "github.com/dalemusser/stratasim/internal/app/features/about"
	errorsfeature "github.com/dalemusser/stratasim/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratasim/internal/app/features/health"
	historyfeature "github.com/dalemusser/stratasim/internal/app/features/history"
	ledgerfeature "github.com/dalemusser/stratasim/internal/app/features/ledger"
	simapifeature "github.com/dalemusser/stratasim/internal/app/features/simapi"
	workbenchfeature "github.com/dalemusser/stratasim/internal/app/features/workbench"
	appresources "github.com/dalemusser/stratasim/internal/app/resources"
	ledgerstore "github.com/dalemusser/stratasim/internal/app/store/ledger"
	runstore "github.com/dalemusser/stratasim/internal/app/store/runs"
	"github.com/dalemusser/stratasim/internal/app/store/workbench"
	"github.com/dalemusser/stratasim/internal/app/system/apicors"
	"github.com/dalemusser/stratasim/internal/app/system/ledger"
	"github.com/dalemusser/stratasim/internal/app/system/metrics"
	"github.com/dalemusser/stratasim/internal/app/system/session"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfExpiredMessage is shown when a form post carries a stale token.
const csrfExpiredMessage = "Your session has expired. The page will reload."

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
//
// Route groups:
//   - Browser UI (/, /history, /api-errors, /about): session cookie + CSRF + core CORS
//   - JSON API (/api): no cookie, no CSRF, apicors, request ledger
//   - Probes and metrics (/health, /ready, /readyz, /livez, /metrics)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := session.NewManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	// History is optional; the recorders stay nil interfaces when it is off.
	var (
		runs       *runstore.Store
		wbHistory  workbenchfeature.RunRecorder
		apiHistory simapifeature.RunRecorder
	)
	if appCfg.HistoryEnabled {
		runs = runstore.New(deps.MongoDatabase)
		wbHistory = runs
		apiHistory = runs
	}

	var apiLedger *ledgerstore.Store
	if appCfg.APILedgerEnabled {
		apiLedger = ledgerstore.New(deps.MongoDatabase)
	}

	r := chi.NewRouter()

	// A run holds its request open until the backend answers or times out.
	r.Use(chimw.Timeout(appCfg.requestTimeout()))
	r.Use(chimw.RequestID)

	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	if appCfg.MetricsEnabled {
		r.Use(metrics.Middleware)
	}

	// Probes and metrics sit outside the session and CSRF layers.
	healthHandler := healthfeature.NewHandler(logger, healthChecks(deps)...)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// JSON API: cookie-free, so no session and no CSRF.
	apiHandler := simapifeature.NewHandler(deps.Sim, apiHistory, logger)
	r.Route("/api", func(ar chi.Router) {
		ar.Use(apicors.Middleware(appCfg.APIAllowedOrigins))
		if apiLedger != nil {
			ledgerCfg := ledger.DefaultConfig(apiLedger, logger)
			ledgerCfg.OnlyErrors = !appCfg.APILedgerAll
			ar.Use(ledger.Middleware(ledgerCfg))
		}
		ar.Mount("/", simapifeature.Routes(apiHandler))
	})

	errorsHandler := errorsfeature.NewHandler()

	// Browser UI. Sub-routers get the HTML 404 page explicitly because the
	// group's middleware hides them from chi's NotFound propagation.
	r.Group(func(ui chi.Router) {
		ui.Use(sessionMgr.Middleware)
		ui.Use(csrfMiddleware(appCfg, secure, logger))

		wbHandler := workbenchfeature.NewHandler(deps.Workbenches, deps.Sim, wbHistory, errLog, logger)
		wbRouter := workbenchfeature.Routes(wbHandler)
		wbRouter.NotFound(errorsHandler.NotFound)
		ui.Mount("/", wbRouter)

		if runs != nil {
			historyHandler := historyfeature.NewHandler(runs, deps.Workbenches, appCfg.HistoryPageSize, errLog, logger)
			historyRouter := historyfeature.Routes(historyHandler)
			historyRouter.NotFound(errorsHandler.NotFound)
			ui.Mount("/history", historyRouter)
		}

		if apiLedger != nil {
			ledgerRouter := ledgerfeature.Routes(ledgerfeature.NewHandler(apiLedger, errLog, logger))
			ledgerRouter.NotFound(errorsHandler.NotFound)
			ui.Mount("/api-errors", ledgerRouter)
		}

		aboutRouter := aboutfeature.Routes(aboutfeature.NewHandler())
		aboutRouter.NotFound(errorsHandler.NotFound)
		ui.Mount("/about", aboutRouter)
	})

	// 404 catch-all for unmatched routes
	r.NotFound(errorsHandler.NotFound)

	logger.Info("routes ready",
		zap.Bool("history", appCfg.HistoryEnabled),
		zap.Bool("api_ledger", appCfg.APILedgerEnabled),
		zap.Bool("metrics", appCfg.MetricsEnabled),
		zap.Duration("request_timeout", appCfg.requestTimeout()),
	)

	return r, nil
}

// csrfMiddleware protects the browser forms. A stale token on an htmx
// request shows an alert and reloads the page so a fresh token is issued.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratasim_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			if req.Header.Get("HX-Request") == "true" {
				trigger, _ := json.Marshal(map[string]any{
					"showAlert": map[string]string{"message": csrfExpiredMessage},
				})
				w.Header().Set("HX-Trigger", string(trigger))
				w.Header().Set("HX-Refresh", "true")
				w.WriteHeader(http.StatusForbidden)
				return
			}
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	return csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)
}

// healthChecks lists the dependencies /health reports on. The backend is
// non-critical: the UI still serves and shows run errors while it is down.
func healthChecks(deps DBDeps) []healthfeature.Check {
	checks := []healthfeature.Check{healthfeature.MongoCheck(deps.MongoClient)}

	if deps.Sim != nil {
		checks = append(checks, healthfeature.Check{
			Name: "simulation_backend",
			Ping: deps.Sim.Ping,
		})
	}

	if vs, ok := deps.Workbenches.(*workbench.ValkeyStore); ok {
		checks = append(checks, healthfeature.Check{
			Name:     "valkey",
			Critical: true,
			Ping:     vs.Ping,
		})
	}

	return checks
}
