package ledgerstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratasim/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_RecentErrorsAndPrune(t *testing.T) {
	store := New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	for _, e := range []Entry{
		{RequestID: "old-fail", StatusCode: 502, StartedAt: now.Add(-48 * time.Hour)},
		{RequestID: "new-fail", StatusCode: 400, StartedAt: now.Add(-time.Minute)},
		{RequestID: "new-ok", StatusCode: 200, StartedAt: now},
	} {
		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create(%s) error = %v", e.RequestID, err)
		}
	}

	got, err := store.RecentErrors(ctx, 10)
	if err != nil {
		t.Fatalf("RecentErrors() error = %v", err)
	}
	if len(got) != 2 || got[0].RequestID != "new-fail" || got[1].RequestID != "old-fail" {
		t.Fatalf("RecentErrors() = %+v, want new-fail then old-fail", got)
	}

	n, err := store.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("DeleteOlderThan() = %d, %v; want 1, nil", n, err)
	}
	if _, err := store.GetByRequestID(ctx, "old-fail"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByRequestID(old-fail) error = %v, want ErrNoDocuments", err)
	}
	if e, err := store.GetByRequestID(ctx, "new-ok"); err != nil || e.StatusCode != 200 {
		t.Errorf("GetByRequestID(new-ok) = %+v, %v", e, err)
	}
}
