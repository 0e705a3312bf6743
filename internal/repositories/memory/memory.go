// Package memory provides in-process implementations of the repository
// interfaces. They back the tests and the storage-less dev mode; the
// active-session store round-trips through JSON so persistence bugs
// (unexported fields, bad tags) surface the same way they would against
// Redis.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

type ActiveSessionRepo struct {
	mu    sync.Mutex
	slots map[string][]byte // ownerID -> serialized session
}

func NewActiveSessionRepo() *ActiveSessionRepo {
	return &ActiveSessionRepo{slots: make(map[string][]byte)}
}

func (r *ActiveSessionRepo) Load(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, ok := r.slots[ownerID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	var s models.InterviewSession
	if err := json.Unmarshal(raw, &s); err != nil {
		delete(r.slots, ownerID)
		return nil, utils.ErrNotFound
	}
	return &s, nil
}

func (r *ActiveSessionRepo) Save(ctx context.Context, s *models.InterviewSession) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[s.OwnerID] = b
	return nil
}

func (r *ActiveSessionRepo) Clear(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, ownerID)
	return nil
}

func (r *ActiveSessionRepo) Owners(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.slots))
	for owner := range r.slots {
		out = append(out, owner)
	}
	return out, nil
}

type ArchiveRepo struct {
	mu   sync.Mutex
	docs []models.InterviewSession
}

func NewArchiveRepo() *ArchiveRepo {
	return &ArchiveRepo{}
}

func (r *ArchiveRepo) Insert(ctx context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, *s)
	return nil
}

func (r *ArchiveRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.InterviewSession, 0)
	for _, d := range r.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return trim(out, limit), nil
}

func (r *ArchiveRepo) ListAll(ctx context.Context, limit int) ([]models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.InterviewSession, len(r.docs))
	copy(out, r.docs)
	return trim(out, limit), nil
}

func trim(in []models.InterviewSession, limit int) []models.InterviewSession {
	if limit > 0 && len(in) > limit {
		return in[len(in)-limit:]
	}
	return in
}

type TranscriptRepo struct {
	mu   sync.Mutex
	rows []models.ChatTranscript
}

func NewTranscriptRepo() *TranscriptRepo {
	return &TranscriptRepo{}
}

func (r *TranscriptRepo) Insert(ctx context.Context, t *models.ChatTranscript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *t)
	return nil
}

func (r *TranscriptRepo) ListBySession(ctx context.Context, ownerID, sessionID string, limit int) ([]models.ChatTranscript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ChatTranscript, 0)
	for _, row := range r.rows {
		if row.OwnerID == ownerID && row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type ProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]models.CandidateProfile
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{profiles: make(map[string]models.CandidateProfile)}
}

func (r *ProfileRepo) Upsert(ctx context.Context, p *models.CandidateProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.OwnerID] = *p
	return nil
}

func (r *ProfileRepo) GetByOwner(ctx context.Context, ownerID string) (*models.CandidateProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[ownerID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &p, nil
}

func (r *ProfileRepo) List(ctx context.Context, limit int) ([]models.CandidateProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.CandidateProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
