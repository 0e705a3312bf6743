package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// CandidateProfile is the interviewer-dashboard row for a candidate:
// last known contact fields, resume text, and the outcome of their most
// recent interview.
type CandidateProfile struct {
	OwnerID string `gorm:"column:owner_id;type:uuid;primaryKey" json:"owner_id"`

	FullName string `gorm:"column:full_name;type:text" json:"full_name"`
	Email    string `gorm:"column:email;type:text" json:"email"`
	Phone    string `gorm:"column:phone;type:text" json:"phone"`

	ResumeText string         `gorm:"column:resume_text;type:text" json:"resume_text"`
	Skills     pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	// Filled best-effort from the embedding model; zero-length when the
	// model was unavailable at upload time.
	ResumeEmbedding pgvector.Vector `gorm:"column:resume_embedding;type:vector(768)" json:"resume_embedding"`

	LastScore   *int   `gorm:"column:last_score;type:integer" json:"last_score,omitempty"`
	LastSummary string `gorm:"column:last_summary;type:text" json:"last_summary,omitempty"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (CandidateProfile) TableName() string { return "candidate_profiles" }
