package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

// Key namespace for the persisted active-session slot. One slot per
// owner; the owners set indexes which slots exist so the timer worker
// can walk them.
const (
	activeKeyPrefix = "crisp:session:active:"
	ownersKey       = "crisp:session:owners"
)

// ActiveSessionRepository is the persisted single-slot session store.
type ActiveSessionRepository interface {
	Load(ctx context.Context, ownerID string) (*models.InterviewSession, error)
	Save(ctx context.Context, s *models.InterviewSession) error
	Clear(ctx context.Context, ownerID string) error
	// Owners lists every owner currently holding an active session.
	Owners(ctx context.Context) ([]string, error)
}

type sessionRepo struct {
	rdb *goredis.Client
}

func NewActiveSessionRepo(rdb *goredis.Client) ActiveSessionRepository {
	return &sessionRepo{rdb: rdb}
}

func (r *sessionRepo) Load(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	raw, err := r.rdb.Get(ctx, activeKeyPrefix+ownerID).Result()
	if err == goredis.Nil {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var s models.InterviewSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// corrupt slot: treat as empty rather than wedging the owner
		_ = r.rdb.Del(ctx, activeKeyPrefix+ownerID).Err()
		_ = r.rdb.SRem(ctx, ownersKey, ownerID).Err()
		return nil, utils.ErrNotFound
	}
	return &s, nil
}

func (r *sessionRepo) Save(ctx context.Context, s *models.InterviewSession) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, activeKeyPrefix+s.OwnerID, b, 0)
	pipe.SAdd(ctx, ownersKey, s.OwnerID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *sessionRepo) Clear(ctx context.Context, ownerID string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, activeKeyPrefix+ownerID)
	pipe.SRem(ctx, ownersKey, ownerID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *sessionRepo) Owners(ctx context.Context) ([]string, error) {
	return r.rdb.SMembers(ctx, ownersKey).Result()
}
