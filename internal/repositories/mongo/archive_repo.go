package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Navin1-11-04/crisp/internal/models"
)

// ArchiveRepository holds completed interviews. Append-only: a session
// is inserted exactly once, when completeInterview moves it out of the
// active slot.
type ArchiveRepository interface {
	Insert(ctx context.Context, s *models.InterviewSession) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.InterviewSession, error)
	ListAll(ctx context.Context, limit int) ([]models.InterviewSession, error)
}

type archiveRepo struct {
	col *mongo.Collection
}

func NewArchiveRepo(db *mongo.Database) ArchiveRepository {
	return &archiveRepo{col: db.Collection("completed_interviews")}
}

func (r *archiveRepo) Insert(ctx context.Context, s *models.InterviewSession) error {
	stampCompleted(s)
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *archiveRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.InterviewSession, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID}, limit)
}

func (r *archiveRepo) ListAll(ctx context.Context, limit int) ([]models.InterviewSession, error) {
	return r.list(ctx, bson.M{}, limit)
}

func (r *archiveRepo) list(ctx context.Context, filter bson.M, limit int) ([]models.InterviewSession, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.InterviewSession, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// completed_at must be set on every archived doc; the list sort keys on it.
func stampCompleted(s *models.InterviewSession) {
	if s.CompletedAt == nil {
		now := time.Now().UTC()
		s.CompletedAt = &now
	}
}
