// Package extract turns uploaded resume documents into raw text.
// Callers treat it as a black box: text out, or one of the sentinel
// failures below.
package extract

import (
	"context"
	"errors"
	"strings"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type, upload PDF or DOCX")
	// ErrEmptyContent usually means a scanned PDF with no text layer.
	ErrEmptyContent = errors.New("no text found in the uploaded file")
)

type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

type DocumentExtractor struct{}

func NewDocumentExtractor() *DocumentExtractor { return &DocumentExtractor{} }

func (e *DocumentExtractor) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	var (
		text string
		err  error
	)
	switch mimeType {
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	default:
		return "", ErrUnsupportedType
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}
