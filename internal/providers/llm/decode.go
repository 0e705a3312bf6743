package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Navin1-11-04/crisp/internal/models"
)

// Strict decoders for the four response shapes. A shape mismatch is a
// collaborator failure; nothing here ever returns a half-filled value
// alongside a nil error.

type contactPayload struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Phone  string   `json:"phone"`
	Skills []string `json:"skills"`
}

func decodeContact(raw []byte) (ContactExtraction, error) {
	var p contactPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ContactExtraction{}, fmt.Errorf("malformed contact payload: %w", err)
	}
	if p.Name == "" || p.Email == "" || p.Phone == "" {
		return ContactExtraction{}, fmt.Errorf("contact payload missing fields: %q", string(raw))
	}
	return ContactExtraction{
		Contact: models.ContactInfo{Name: p.Name, Email: p.Email, Phone: p.Phone},
		Skills:  p.Skills,
	}, nil
}

type verifyPayload struct {
	Reply     string              `json:"reply"`
	State     *models.ContactInfo `json:"state"`
	Confirmed *bool               `json:"confirmed"`
}

func decodeVerify(raw []byte) (VerifyResult, error) {
	var p verifyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return VerifyResult{}, fmt.Errorf("malformed verify payload: %w", err)
	}
	if p.Reply == "" || p.State == nil || p.Confirmed == nil {
		return VerifyResult{}, fmt.Errorf("verify payload missing fields: %q", string(raw))
	}
	return VerifyResult{Reply: p.Reply, State: *p.State, Confirmed: *p.Confirmed}, nil
}

type questionPayload struct {
	Questions []struct {
		ID    int    `json:"id"`
		Text  string `json:"text"`
		Level string `json:"level"`
	} `json:"questions"`
}

func decodeQuestions(raw []byte) ([]models.Question, error) {
	var p questionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("malformed questions payload: %w", err)
	}
	if len(p.Questions) != models.QuestionsPerInterview {
		return nil, fmt.Errorf("expected %d questions, got %d", models.QuestionsPerInterview, len(p.Questions))
	}

	counts := map[models.QuestionLevel]int{}
	out := make([]models.Question, 0, models.QuestionsPerInterview)
	for i, q := range p.Questions {
		level := models.QuestionLevel(strings.ToLower(q.Level))
		switch level {
		case models.LevelEasy, models.LevelMedium, models.LevelHard:
		default:
			return nil, fmt.Errorf("question %d has unknown level %q", i+1, q.Level)
		}
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d has empty text", i+1)
		}
		counts[level]++
		out = append(out, models.Question{
			ID:        i + 1,
			Text:      q.Text,
			Level:     level,
			TimeLimit: models.TimeLimitFor(level),
		})
	}
	for _, level := range []models.QuestionLevel{models.LevelEasy, models.LevelMedium, models.LevelHard} {
		if counts[level] != 2 {
			return nil, fmt.Errorf("expected 2 %s questions, got %d", level, counts[level])
		}
	}
	return out, nil
}

type scorePayload struct {
	Score   *int   `json:"score"`
	Summary string `json:"summary"`
}

func decodeScore(raw []byte) (ScoreResult, error) {
	var p scorePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ScoreResult{}, fmt.Errorf("malformed score payload: %w", err)
	}
	if p.Score == nil || p.Summary == "" {
		return ScoreResult{}, fmt.Errorf("score payload missing fields: %q", string(raw))
	}
	return ScoreResult{Score: *p.Score, Summary: p.Summary}, nil
}
