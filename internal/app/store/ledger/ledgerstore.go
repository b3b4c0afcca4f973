// internal/app/store/ledger/ledgerstore.go
package ledgerstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds one document per recorded JSON API request.
const Collection = "api_requests"

// Entry is one JSON API request.
type Entry struct {
	ID primitive.ObjectID `bson:"_id"`

	RequestID       string `bson:"request_id"`
	ClientRequestID string `bson:"client_request_id,omitempty"` // X-Request-ID sent by the caller

	Method    string `bson:"method"`
	Path      string `bson:"path"`
	RemoteIP  string `bson:"remote_ip"`
	UserAgent string `bson:"user_agent,omitempty"`
	Origin    string `bson:"origin,omitempty"`

	BodySize    int64  `bson:"body_size"`
	BodyHash    string `bson:"body_hash,omitempty"`    // first 8 hex chars of SHA-256
	BodyPreview string `bson:"body_preview,omitempty"` // truncated request body

	StatusCode   int    `bson:"status_code"`
	ResponseSize int64  `bson:"response_size"`
	ErrorClass   string `bson:"error_class,omitempty"` // validation, backend, not_found, internal
	ErrorMessage string `bson:"error_message,omitempty"`

	DurationMs float64   `bson:"duration_ms"`
	StartedAt  time.Time `bson:"started_at"`
}

// Store provides ledger entry persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new ledger store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts entry, assigning an id when it has none.
func (s *Store) Create(ctx context.Context, entry Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// GetByRequestID returns the entry for requestID or mongo.ErrNoDocuments.
func (s *Store) GetByRequestID(ctx context.Context, requestID string) (*Entry, error) {
	var entry Entry
	if err := s.c.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RecentErrors returns the latest entries with status >= 400, newest first.
func (s *Store) RecentErrors(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"status_code": bson.M{"$gte": 400}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteOlderThan removes entries started before cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"started_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
