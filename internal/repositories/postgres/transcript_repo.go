package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/Navin1-11-04/crisp/internal/models"
)

type TranscriptRepository interface {
	Insert(ctx context.Context, t *models.ChatTranscript) error
	ListBySession(ctx context.Context, ownerID, sessionID string, limit int) ([]models.ChatTranscript, error)
}

type transcriptRepo struct {
	db *gorm.DB
}

func NewTranscriptRepo(db *gorm.DB) TranscriptRepository {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) Insert(ctx context.Context, t *models.ChatTranscript) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transcriptRepo) ListBySession(ctx context.Context, ownerID, sessionID string, limit int) ([]models.ChatTranscript, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var rows []models.ChatTranscript
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND session_id = ?", ownerID, sessionID).
		Order("timestamp ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
