package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GeminiEmbedder calls the Generative Language embedContent endpoint.
// It is intentionally independent of the Vertex client: it only needs
// an API key, and a deployment without one simply stores no embeddings.
type GeminiEmbedder struct {
	apiKey    string
	modelName string
	http      *http.Client
}

func NewGeminiEmbedder(apiKey, modelName string) *GeminiEmbedder {
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	return &GeminiEmbedder{
		apiKey:    apiKey,
		modelName: modelName,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Model   string `json:"model"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	TaskType string `json:"task_type,omitempty"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	body := embedRequest{Model: e.modelName, TaskType: "RETRIEVAL_DOCUMENT"}
	body.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:embedContent", e.modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedContent returned %d: %s", res.StatusCode, string(raw))
	}

	var out embedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("malformed embedding payload: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return out.Embedding.Values, nil
}
