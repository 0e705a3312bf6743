package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Navin1-11-04/crisp/internal/models"
	mongorepo "github.com/Navin1-11-04/crisp/internal/repositories/mongo"
	redisrepo "github.com/Navin1-11-04/crisp/internal/repositories/redis"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

// SeedMessage opens every verification chat.
const SeedMessage = "Hi! I've extracted some details from your resume. Can you help me confirm or fill in the missing info?"

// SessionService owns every mutation of the active interview session.
// All transitions go through it; no other component writes the store.
// Each mutating operation stamps last_active_at.
type SessionService interface {
	// Create opens a fresh session in the owner's slot. An existing
	// active session is overwritten: the most recent non-cleared
	// session wins.
	Create(ctx context.Context, ownerID string, extracted models.ContactInfo) (*models.InterviewSession, error)
	Get(ctx context.Context, ownerID string) (*models.InterviewSession, error)

	UpdateUserData(ctx context.Context, ownerID string, fields models.ContactInfo) (*models.InterviewSession, error)
	AppendMessage(ctx context.Context, ownerID string, role models.ChatRole, content string) (*models.InterviewSession, error)
	SetVerified(ctx context.Context, ownerID string, verified bool) (*models.InterviewSession, error)

	StartInterview(ctx context.Context, ownerID, role string, questions []models.Question) (*models.InterviewSession, error)
	RecordAnswer(ctx context.Context, ownerID string, index int, answer string, timeTaken int) (*models.InterviewSession, error)
	AdvanceQuestion(ctx context.Context, ownerID string) (*models.InterviewSession, error)

	// Tick decrements time_left by one second, floored at zero. It is a
	// no-op while the session is paused, not in the interview phase, or
	// already at zero.
	Tick(ctx context.Context, ownerID string) (*models.InterviewSession, error)
	Pause(ctx context.Context, ownerID string) (*models.InterviewSession, error)
	Resume(ctx context.Context, ownerID string) (*models.InterviewSession, error)

	// Complete clamps the score to [0,100], archives the session, and
	// clears the active slot. The only operation that empties the slot
	// as a side effect of success.
	Complete(ctx context.Context, ownerID string, score int, summary string) (*models.InterviewSession, error)
	Clear(ctx context.Context, ownerID string) error

	ListCompleted(ctx context.Context, ownerID string, limit int) ([]models.InterviewSession, error)
}

type sessionService struct {
	active  redisrepo.ActiveSessionRepository
	archive mongorepo.ArchiveRepository
	now     func() time.Time
}

func NewSessionService(active redisrepo.ActiveSessionRepository, archive mongorepo.ArchiveRepository) SessionService {
	return &sessionService{
		active:  active,
		archive: archive,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *sessionService) Create(ctx context.Context, ownerID string, extracted models.ContactInfo) (*models.InterviewSession, error) {
	const op = "SessionService.Create"

	if ownerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "owner_id is required", nil)
	}

	now := s.now()
	sess := &models.InterviewSession{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		ExtractedInfo: extracted,
		UserData:      extracted,
		Messages: []models.ChatMessage{{
			ID:        uuid.NewString(),
			Role:      models.RoleAssistant,
			Content:   SeedMessage,
			Timestamp: now,
		}},
		Questions:    []models.Question{},
		CreatedAt:    now,
		LastActiveAt: now,
	}

	if err := s.active.Save(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist session", err)
	}
	return sess, nil
}

func (s *sessionService) Get(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	const op = "SessionService.Get"

	sess, err := s.active.Load(ctx, ownerID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "no active session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	return sess, nil
}

// mutate loads the active session, applies fn, stamps last_active_at,
// and saves. fn returning an error aborts without saving.
func (s *sessionService) mutate(ctx context.Context, op, ownerID string, fn func(*models.InterviewSession) error) (*models.InterviewSession, error) {
	sess, err := s.active.Load(ctx, ownerID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "no active session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.LastActiveAt = s.now()

	if err := s.active.Save(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist session", err)
	}
	return sess, nil
}

func (s *sessionService) UpdateUserData(ctx context.Context, ownerID string, fields models.ContactInfo) (*models.InterviewSession, error) {
	const op = "SessionService.UpdateUserData"
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		sess.UserData = fields
		return nil
	})
}

func (s *sessionService) AppendMessage(ctx context.Context, ownerID string, role models.ChatRole, content string) (*models.InterviewSession, error) {
	const op = "SessionService.AppendMessage"

	if role != models.RoleAssistant && role != models.RoleUser {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role must be assistant or user", nil)
	}
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		sess.Messages = append(sess.Messages, models.ChatMessage{
			ID:        uuid.NewString(),
			Role:      role,
			Content:   content,
			Timestamp: s.now(),
		})
		return nil
	})
}

func (s *sessionService) SetVerified(ctx context.Context, ownerID string, verified bool) (*models.InterviewSession, error) {
	const op = "SessionService.SetVerified"
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		// once the interview has started, verified never reverts
		if !verified && sess.InterviewStarted && sess.Verified {
			return nil
		}
		sess.Verified = verified
		return nil
	})
}

func (s *sessionService) StartInterview(ctx context.Context, ownerID, role string, questions []models.Question) (*models.InterviewSession, error) {
	const op = "SessionService.StartInterview"

	if len(questions) != models.QuestionsPerInterview {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("exactly %d questions required, got %d", models.QuestionsPerInterview, len(questions)), nil)
	}
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		if sess.InterviewStarted {
			return utils.E(utils.CodeConflict, op, "interview already started", nil)
		}
		now := s.now()
		first := questions[0].TimeLimit

		sess.InterviewStarted = true
		sess.Role = role
		sess.Questions = questions
		sess.CurrentQuestionIndex = 0
		sess.TimeLeft = &first
		sess.IsPaused = false
		sess.StartedAt = &now
		return nil
	})
}

func (s *sessionService) RecordAnswer(ctx context.Context, ownerID string, index int, answer string, timeTaken int) (*models.InterviewSession, error) {
	const op = "SessionService.RecordAnswer"
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		if index < 0 || index >= len(sess.Questions) {
			return utils.E(utils.CodeInvalidArgument, op,
				fmt.Sprintf("question index %d out of range [0,%d)", index, len(sess.Questions)), nil)
		}
		sess.Questions[index].Answer = answer
		sess.Questions[index].TimeTaken = timeTaken
		return nil
	})
}

func (s *sessionService) AdvanceQuestion(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	const op = "SessionService.AdvanceQuestion"
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		// at the last question the orchestrator must complete instead
		if sess.CurrentQuestionIndex >= len(sess.Questions)-1 {
			return nil
		}
		sess.CurrentQuestionIndex++
		next := sess.Questions[sess.CurrentQuestionIndex].TimeLimit
		sess.TimeLeft = &next
		return nil
	})
}

func (s *sessionService) Tick(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	const op = "SessionService.Tick"
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		if !sess.InterviewActive() || sess.IsPaused || sess.TimeLeft == nil || *sess.TimeLeft <= 0 {
			return nil
		}
		left := *sess.TimeLeft - 1
		if left < 0 {
			left = 0
		}
		sess.TimeLeft = &left
		return nil
	})
}

func (s *sessionService) Pause(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	const op = "SessionService.Pause"
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		sess.IsPaused = true
		return nil
	})
}

func (s *sessionService) Resume(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	const op = "SessionService.Resume"
	return s.mutate(ctx, op, ownerID, func(sess *models.InterviewSession) error {
		// resuming continues from the frozen time_left, never resets it
		sess.IsPaused = false
		return nil
	})
}

func (s *sessionService) Complete(ctx context.Context, ownerID string, score int, summary string) (*models.InterviewSession, error) {
	const op = "SessionService.Complete"

	sess, err := s.active.Load(ctx, ownerID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "no active session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	if !sess.InterviewActive() {
		return nil, utils.E(utils.CodeConflict, op, "interview is not in progress", nil)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	now := s.now()
	sess.InterviewCompleted = true
	sess.FinalScore = &score
	sess.FinalSummary = summary
	sess.TimeLeft = nil
	sess.CompletedAt = &now
	sess.LastActiveAt = now

	if err := s.archive.Insert(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to archive session", err)
	}
	if err := s.active.Clear(ctx, ownerID); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to clear active slot", err)
	}
	return sess, nil
}

func (s *sessionService) Clear(ctx context.Context, ownerID string) error {
	const op = "SessionService.Clear"

	if err := s.active.Clear(ctx, ownerID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to clear session", err)
	}
	return nil
}

func (s *sessionService) ListCompleted(ctx context.Context, ownerID string, limit int) ([]models.InterviewSession, error) {
	const op = "SessionService.ListCompleted"

	out, err := s.archive.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list completed sessions", err)
	}
	return out, nil
}
