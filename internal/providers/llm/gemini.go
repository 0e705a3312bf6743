package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/googleapi"

	"github.com/Navin1-11-04/crisp/internal/models"
)

// Bounded wait per oracle call; exceeding it is a collaborator failure.
const callTimeout = 120 * time.Second

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// model builds a per-call handle so each request carries its own
// response schema without racing other calls.
func (v *VertexGemini) model(system string, schema *vertexgenai.Schema) *vertexgenai.GenerativeModel {
	m := v.client.GenerativeModel(v.modelName)
	m.SystemInstruction = &vertexgenai.Content{
		Parts: []vertexgenai.Part{vertexgenai.Text(system)},
	}
	m.GenerationConfig.ResponseMIMEType = "application/json"
	m.GenerationConfig.ResponseSchema = schema
	return m
}

func (v *VertexGemini) generate(ctx context.Context, m *vertexgenai.GenerativeModel, prompt string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, fmt.Errorf("model api error (http %d): %w", gerr.Code, err)
		}
		return nil, err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	if sb.Len() == 0 {
		return nil, errors.New("model returned no content")
	}
	return []byte(sb.String()), nil
}

func (v *VertexGemini) ExtractContact(ctx context.Context, resumeText string) (ContactExtraction, error) {
	schema := &vertexgenai.Schema{
		Type: vertexgenai.TypeObject,
		Properties: map[string]*vertexgenai.Schema{
			"name":   {Type: vertexgenai.TypeString},
			"email":  {Type: vertexgenai.TypeString},
			"phone":  {Type: vertexgenai.TypeString},
			"skills": {Type: vertexgenai.TypeArray, Items: &vertexgenai.Schema{Type: vertexgenai.TypeString}},
		},
		Required: []string{"name", "email", "phone"},
	}
	m := v.model(
		"You are an expert data extraction bot. Extract the candidate's name, email, phone number "+
			"and a short list of technical skills into JSON. Use 'Not Found' for any contact field that is missing.",
		schema,
	)

	raw, err := v.generate(ctx, m, "Extract contact information from the following resume text:\n\n\"\"\""+resumeText+"\"\"\"")
	if err != nil {
		return ContactExtraction{}, err
	}
	return decodeContact(raw)
}

func (v *VertexGemini) VerifyChat(ctx context.Context, transcript []models.ChatMessage, current models.ContactInfo) (VerifyResult, error) {
	schema := &vertexgenai.Schema{
		Type: vertexgenai.TypeObject,
		Properties: map[string]*vertexgenai.Schema{
			"reply": {Type: vertexgenai.TypeString},
			"state": {
				Type: vertexgenai.TypeObject,
				Properties: map[string]*vertexgenai.Schema{
					"name":  {Type: vertexgenai.TypeString},
					"email": {Type: vertexgenai.TypeString},
					"phone": {Type: vertexgenai.TypeString},
				},
				Required: []string{"name", "email", "phone"},
			},
			"confirmed": {Type: vertexgenai.TypeBoolean},
		},
		Required: []string{"reply", "state", "confirmed"},
	}
	m := v.model(
		"You help a candidate confirm or correct the contact details extracted from their resume. "+
			"Update the state fields from the conversation, keep 'Not Found' where still unknown, and set "+
			"confirmed to true only when the candidate has explicitly confirmed all details are correct.",
		schema,
	)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Current fields: name=%q email=%q phone=%q\n\nConversation so far:\n",
		current.Name, current.Email, current.Phone)
	for _, msg := range transcript {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}

	raw, err := v.generate(ctx, m, sb.String())
	if err != nil {
		return VerifyResult{}, err
	}
	return decodeVerify(raw)
}

func (v *VertexGemini) GenerateQuestions(ctx context.Context, role string) ([]models.Question, error) {
	schema := &vertexgenai.Schema{
		Type: vertexgenai.TypeObject,
		Properties: map[string]*vertexgenai.Schema{
			"questions": {
				Type: vertexgenai.TypeArray,
				Items: &vertexgenai.Schema{
					Type: vertexgenai.TypeObject,
					Properties: map[string]*vertexgenai.Schema{
						"id":    {Type: vertexgenai.TypeInteger},
						"text":  {Type: vertexgenai.TypeString},
						"level": {Type: vertexgenai.TypeString},
					},
					Required: []string{"text", "level"},
				},
			},
		},
		Required: []string{"questions"},
	}
	m := v.model(
		"You generate technical interview questions. Return exactly 6 questions: "+
			"2 with level 'easy', then 2 'medium', then 2 'hard'. Keep each question self-contained.",
		schema,
	)

	if role == "" {
		role = "software engineer"
	}
	raw, err := v.generate(ctx, m, "Generate interview questions for the role: "+role)
	if err != nil {
		return nil, err
	}
	return decodeQuestions(raw)
}

func (v *VertexGemini) ScoreInterview(ctx context.Context, contact models.ContactInfo, questions []models.Question) (ScoreResult, error) {
	schema := &vertexgenai.Schema{
		Type: vertexgenai.TypeObject,
		Properties: map[string]*vertexgenai.Schema{
			"score":   {Type: vertexgenai.TypeInteger},
			"summary": {Type: vertexgenai.TypeString},
		},
		Required: []string{"score", "summary"},
	}
	m := v.model(
		"You score a completed technical interview. Return an integer score from 0 to 100 and a short "+
			"summary (2-3 sentences) of the candidate's performance. '[No Answer]' means the timer expired.",
		schema,
	)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Candidate: %s (%s)\n\n", contact.Name, contact.Email)
	for _, q := range questions {
		answer := q.Answer
		if answer == "" {
			answer = models.NoAnswer
		}
		fmt.Fprintf(&sb, "Q%d [%s, %ds budget, %ds used]: %s\nA: %s\n\n",
			q.ID, q.Level, q.TimeLimit, q.TimeTaken, q.Text, answer)
	}

	raw, err := v.generate(ctx, m, sb.String())
	if err != nil {
		return ScoreResult{}, err
	}
	return decodeScore(raw)
}
