package services

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/providers/llm"
	pgrepo "github.com/Navin1-11-04/crisp/internal/repositories/postgres"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

// ProfileService maintains the candidate rows behind the interviewer
// dashboard.
type ProfileService interface {
	// UpsertFromExtraction records contact fields, resume text, and
	// skills after an upload. The embedding is best-effort: a missing
	// or failing embedder leaves the column empty.
	UpsertFromExtraction(ctx context.Context, ownerID string, contact models.ContactInfo, resumeText string, skills []string) (*models.CandidateProfile, error)
	// RecordOutcome stamps the final score/summary after completion.
	RecordOutcome(ctx context.Context, ownerID string, contact models.ContactInfo, score int, summary string) error
	Get(ctx context.Context, ownerID string) (*models.CandidateProfile, error)
	List(ctx context.Context, limit int) ([]models.CandidateProfile, error)
}

type profileService struct {
	profiles pgrepo.ProfileRepository
	embedder llm.Embedder // may be nil
	now      func() time.Time
}

func NewProfileService(profiles pgrepo.ProfileRepository, embedder llm.Embedder) ProfileService {
	return &profileService{
		profiles: profiles,
		embedder: embedder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *profileService) UpsertFromExtraction(ctx context.Context, ownerID string, contact models.ContactInfo, resumeText string, skills []string) (*models.CandidateProfile, error) {
	const op = "ProfileService.UpsertFromExtraction"

	if ownerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "owner_id is required", nil)
	}

	row := &models.CandidateProfile{
		OwnerID:    ownerID,
		FullName:   contact.Name,
		Email:      contact.Email,
		Phone:      contact.Phone,
		ResumeText: resumeText,
		Skills:     skills,
		UpdatedAt:  s.now(),
	}

	if s.embedder != nil && resumeText != "" {
		if vec, err := s.embedder.EmbedText(ctx, resumeText); err == nil {
			row.ResumeEmbedding = pgvector.NewVector(vec)
		}
	}

	if err := s.profiles.Upsert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to upsert candidate profile", err)
	}
	return row, nil
}

func (s *profileService) RecordOutcome(ctx context.Context, ownerID string, contact models.ContactInfo, score int, summary string) error {
	const op = "ProfileService.RecordOutcome"

	existing, err := s.profiles.GetByOwner(ctx, ownerID)
	if err != nil {
		// no prior upload row (manual-entry flow); start one
		existing = &models.CandidateProfile{OwnerID: ownerID}
	}

	existing.FullName = contact.Name
	existing.Email = contact.Email
	existing.Phone = contact.Phone
	existing.LastScore = &score
	existing.LastSummary = summary
	existing.UpdatedAt = s.now()

	if err := s.profiles.Upsert(ctx, existing); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to record interview outcome", err)
	}
	return nil
}

func (s *profileService) Get(ctx context.Context, ownerID string) (*models.CandidateProfile, error) {
	const op = "ProfileService.Get"

	row, err := s.profiles.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "candidate profile not found", err)
	}
	return row, nil
}

func (s *profileService) List(ctx context.Context, limit int) ([]models.CandidateProfile, error) {
	const op = "ProfileService.List"

	rows, err := s.profiles.List(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list candidate profiles", err)
	}
	return rows, nil
}
