package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

type ProfileRepository interface {
	Upsert(ctx context.Context, p *models.CandidateProfile) error
	GetByOwner(ctx context.Context, ownerID string) (*models.CandidateProfile, error)
	List(ctx context.Context, limit int) ([]models.CandidateProfile, error)
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Upsert(ctx context.Context, p *models.CandidateProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

func (r *profileRepo) GetByOwner(ctx context.Context, ownerID string) (*models.CandidateProfile, error) {
	var row models.CandidateProfile
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *profileRepo) List(ctx context.Context, limit int) ([]models.CandidateProfile, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var rows []models.CandidateProfile
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
