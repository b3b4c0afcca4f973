// internal/app/store/runs/runstore.go
package runs

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratasim/internal/app/store/storeutil"
	"github.com/dalemusser/stratasim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the Mongo collection holding completed runs.
const CollectionName = "simulation_runs"

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// Store provides access to the run history.
type Store struct {
	c *mongo.Collection
}

// New creates a run store on db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts run, filling in ID and CreatedAt when unset.
func (s *Store) Create(ctx context.Context, run *models.Run) error {
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Curve == nil {
		run.Curve = []float64{}
	}
	_, err := s.c.InsertOne(ctx, run)
	return err
}

// GetByID returns the full run including curve and logs.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Run, error) {
	var run models.Run
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&run); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ListFilter narrows List. Zero values mean no restriction.
type ListFilter struct {
	WorkbenchID string
	Page        int64 // 1-based
	PageSize    int64
}

// ListResult is one page of runs, newest first. Curve and logs are not
// loaded; use GetByID for those.
type ListResult struct {
	Runs  []models.Run
	Total int64
	Page  int64
	Pages int64
}

// List returns a page of runs.
func (s *Store) List(ctx context.Context, f ListFilter) (ListResult, error) {
	filter := bson.M{}
	if f.WorkbenchID != "" {
		filter["workbench_id"] = f.WorkbenchID
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}

	opts := storeutil.Paginate(f.PageSize, f.Page).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"curve": 0, "verbose_logs": 0})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return ListResult{}, err
	}
	defer cur.Close(ctx)

	var items []models.Run
	if err := cur.All(ctx, &items); err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Runs:  items,
		Total: total,
		Page:  f.Page,
		Pages: storeutil.PageCount(total, f.PageSize),
	}, nil
}

// Delete removes one run.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes runs created before cutoff and returns the count.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
