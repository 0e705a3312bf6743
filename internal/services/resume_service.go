package services

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/providers/extract"
	pgrepo "github.com/Navin1-11-04/crisp/internal/repositories/postgres"
	"github.com/Navin1-11-04/crisp/internal/storage"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

// IngestResult is what the upload endpoint returns: the opened session
// plus whether the text pipeline degraded to manual contact entry.
type IngestResult struct {
	Session     *models.InterviewSession `json:"session"`
	File        *models.ResumeFile       `json:"file"`
	NeedsManual bool                     `json:"needs_manual"`
}

// ResumeService runs the upload pipeline: store the raw file, record
// it, extract text, and open a session from the extraction. A failed
// or empty extraction still opens a session; contact fields fall back
// to sentinels so verification can collect them.
type ResumeService interface {
	Ingest(ctx context.Context, ownerID, filename, mimeType string, data []byte) (*IngestResult, error)
}

type resumeService struct {
	store      storage.Uploader // may be nil when no bucket is configured
	files      pgrepo.ResumeFileRepository
	extractor  extract.Extractor
	interviews InterviewService
	log        *logrus.Logger
	now        func() time.Time
}

func NewResumeService(
	store storage.Uploader,
	files pgrepo.ResumeFileRepository,
	extractor extract.Extractor,
	interviews InterviewService,
	log *logrus.Logger,
) ResumeService {
	if log == nil {
		log = logrus.New()
	}
	return &resumeService{
		store:      store,
		files:      files,
		extractor:  extractor,
		interviews: interviews,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *resumeService) Ingest(ctx context.Context, ownerID, filename, mimeType string, data []byte) (*IngestResult, error) {
	const op = "ResumeService.Ingest"

	if len(data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "empty file", nil)
	}

	row := &models.ResumeFile{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		FileName:   filename,
		FileSize:   len(data),
		MimeType:   mimeType,
		UploadedAt: s.now(),
	}

	if s.store != nil {
		objectName := "resumes/" + ownerID + "/" + row.ID + extForMime(mimeType)
		key, err := s.store.Upload(ctx, objectName, mimeType, bytes.NewReader(data))
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to store resume", err)
		}
		row.ObjectPath = key
	}

	if err := s.files.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record resume", err)
	}

	text, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.log.WithError(err).WithField("owner_id", ownerID).Warn("resume text extraction failed")
		}
		sess, cerr := s.interviews.CreateManual(ctx, ownerID)
		if cerr != nil {
			return nil, cerr
		}
		return &IngestResult{Session: sess, File: row, NeedsManual: true}, nil
	}

	sess, err := s.interviews.CreateFromResume(ctx, ownerID, text)
	if err != nil {
		return nil, err
	}
	return &IngestResult{
		Session:     sess,
		File:        row,
		NeedsManual: !sess.UserData.Complete(),
	}, nil
}

func extForMime(mimeType string) string {
	if mimeType == extract.MimeDOCX {
		return ".docx"
	}
	return ".pdf"
}
