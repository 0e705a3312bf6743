package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/Navin1-11-04/crisp/internal/models"
)

type ResumeFileRepository interface {
	Insert(ctx context.Context, f *models.ResumeFile) error
	LatestByOwner(ctx context.Context, ownerID string) (*models.ResumeFile, error)
}

type resumeFileRepo struct {
	db *gorm.DB
}

func NewResumeFileRepo(db *gorm.DB) ResumeFileRepository {
	return &resumeFileRepo{db: db}
}

func (r *resumeFileRepo) Insert(ctx context.Context, f *models.ResumeFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *resumeFileRepo) LatestByOwner(ctx context.Context, ownerID string) (*models.ResumeFile, error) {
	var row models.ResumeFile
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("uploaded_at DESC").
		Take(&row).Error
	return &row, err
}
