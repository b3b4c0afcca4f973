// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratasim/internal/app/resources"
	ledgerstore "github.com/dalemusser/stratasim/internal/app/store/ledger"
	runstore "github.com/dalemusser/stratasim/internal/app/store/runs"
	"github.com/dalemusser/stratasim/internal/app/store/workbench"
	"github.com/dalemusser/stratasim/internal/app/system/tasks"
	"github.com/dalemusser/stratasim/internal/app/system/timeouts"
	"github.com/dalemusser/stratasim/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It registers the shared templates, publishes the site text to viewdata
// and starts the background jobs. Returning an error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	timeouts.Configure(timeouts.Config{
		Ping: coreCfg.DBConnectTimeout,
	})

	viewdata.Init(appCfg.SiteSettings(), appCfg.HistoryEnabled)

	startTaskRunner(appCfg, deps, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner registers the jobs this configuration needs and starts
// them. Valkey expires workbenches itself, so only the memory store is swept.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	if mem, ok := deps.Workbenches.(*workbench.MemoryStore); ok {
		taskRunner.Register(tasks.WorkbenchSweepJob(mem, appCfg.WorkbenchTTL, logger))
	}

	if appCfg.HistoryEnabled && appCfg.HistoryRetention > 0 {
		taskRunner.Register(tasks.RunRetentionJob(runstore.New(deps.MongoDatabase), appCfg.HistoryRetention, logger))
	}

	if appCfg.APILedgerEnabled && appCfg.APILedgerRetention > 0 {
		taskRunner.Register(tasks.LedgerRetentionJob(ledgerstore.New(deps.MongoDatabase), appCfg.APILedgerRetention, logger))
	}

	taskRunner.Start()
}
