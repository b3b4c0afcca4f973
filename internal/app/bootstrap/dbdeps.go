// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratasim/internal/app/store/workbench"
	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/valkey-io/valkey-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler and Shutdown. Shutdown closes everything held here.
type DBDeps struct {
	// MongoDB client and database (run history)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Valkey is nil unless workbench_store is "valkey".
	Valkey valkey.Client

	// Workbenches holds per-browser parameters and results.
	Workbenches workbench.Store

	// Sim talks to the simulation backend.
	Sim *simclient.Client
}
