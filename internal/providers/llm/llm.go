// Package llm is the boundary to the language model. Every call takes
// JSON in a requested shape; anything that comes back malformed is an
// error here and a documented fallback at the call site — the rest of
// the service never sees a partially parsed response.
package llm

import (
	"context"

	"github.com/Navin1-11-04/crisp/internal/models"
)

// ContactExtraction is the structured result of resume parsing. Fields
// the model could not find hold models.NotFound. Skills are optional.
type ContactExtraction struct {
	Contact models.ContactInfo
	Skills  []string
}

// VerifyResult is one verification-chat turn: the assistant reply, the
// model's updated view of the contact fields, and whether the candidate
// explicitly confirmed them.
type VerifyResult struct {
	Reply     string
	State     models.ContactInfo
	Confirmed bool
}

type ScoreResult struct {
	Score   int // raw model output; clamped to [0,100] at completion
	Summary string
}

type Oracle interface {
	ExtractContact(ctx context.Context, resumeText string) (ContactExtraction, error)
	VerifyChat(ctx context.Context, transcript []models.ChatMessage, current models.ContactInfo) (VerifyResult, error)
	// GenerateQuestions must return exactly 6 questions, 2 per level.
	GenerateQuestions(ctx context.Context, role string) ([]models.Question, error)
	ScoreInterview(ctx context.Context, contact models.ContactInfo, questions []models.Question) (ScoreResult, error)
	Close() error
}

// Embedder produces the resume text embedding stored on candidate
// profiles. Separate from Oracle so deployments can run without it.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
