package indexes_test

import (
	"context"
	"testing"

	ledgerstore "github.com/dalemusser/stratasim/internal/app/store/ledger"
	runstore "github.com/dalemusser/stratasim/internal/app/store/runs"
	"github.com/dalemusser/stratasim/internal/app/system/indexes"
	"github.com/dalemusser/stratasim/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, coll *mongo.Collection) map[string]bool {
	t.Helper()
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s: %v", coll.Name(), err)
	}
	var specs []bson.M
	if err := cur.All(ctx, &specs); err != nil {
		t.Fatalf("decode indexes on %s: %v", coll.Name(), err)
	}
	names := make(map[string]bool, len(specs))
	for _, s := range specs {
		if name, ok := s["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once.
	for i := 0; i < 2; i++ {
		if err := indexes.EnsureAll(ctx, db); err != nil {
			t.Fatalf("EnsureAll() pass %d error = %v", i+1, err)
		}
	}

	sets := map[string][]mongo.IndexModel{
		runstore.CollectionName: indexes.RunIndexes(),
		ledgerstore.Collection:  indexes.LedgerIndexes(),
	}
	for coll, want := range sets {
		have := indexNames(t, ctx, db.Collection(coll))
		for _, m := range want {
			if m.Options == nil || m.Options.Name == nil {
				t.Fatalf("%s: index %v has no name", coll, m.Keys)
			}
			if !have[*m.Options.Name] {
				t.Errorf("%s: index %s missing", coll, *m.Options.Name)
			}
		}
	}
}
