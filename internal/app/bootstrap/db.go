// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/stratasim/internal/app/store/workbench"
	"github.com/dalemusser/stratasim/internal/app/system/indexes"
	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/dalemusser/stratasim/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

// valkeyPrefix namespaces workbench keys in a shared Valkey.
const valkeyPrefix = "stratasim:wb"

// ConnectDB connects to MongoDB, to Valkey when it holds the workbenches,
// and builds the simulation backend client.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema
// and Startup. The backend itself is not contacted here; a backend that is
// down at boot only degrades /health.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
	}

	switch appCfg.WorkbenchStore {
	case WorkbenchStoreValkey:
		vc, err := connectValkey(ctx, appCfg.ValkeyAddr)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, err
		}
		deps.Valkey = vc
		deps.Workbenches = workbench.NewValkeyStore(vc, valkeyPrefix, appCfg.WorkbenchTTL, appCfg.requestTimeout())
		logger.Info("workbench store: valkey",
			zap.String("addr", appCfg.ValkeyAddr),
			zap.Duration("ttl", appCfg.WorkbenchTTL),
		)
	default:
		deps.Workbenches = workbench.NewMemoryStore()
		logger.Info("workbench store: memory", zap.Duration("ttl", appCfg.WorkbenchTTL))
	}

	deps.Sim = simclient.New(simclient.Config{
		Endpoint: appCfg.BackendURL,
		Timeout:  appCfg.BackendTimeout,
	}, logger)
	logger.Info("simulation backend configured",
		zap.String("endpoint", deps.Sim.Endpoint()),
		zap.Duration("timeout", appCfg.BackendTimeout),
	)

	return deps, nil
}

// connectValkey dials addr (host:port or a valkey:// URL) and pings it.
func connectValkey(ctx context.Context, addr string) (valkey.Client, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid valkey_addr: %w", err)
		}
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}

	vc, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect valkey: %w", err)
	}
	if err := vc.Do(ctx, vc.B().Ping().Build()).Error(); err != nil {
		vc.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}
	return vc, nil
}

// EnsureSchema attaches the run collection validator and creates indexes.
//
// The context has a timeout based on coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Collections and validators first so indexes land on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
