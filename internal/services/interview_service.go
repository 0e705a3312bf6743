package services

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/providers/llm"
	pgrepo "github.com/Navin1-11-04/crisp/internal/repositories/postgres"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

// FallbackReply is appended when the verification oracle fails; the
// candidate sees a conversational degradation, never a technical error.
const FallbackReply = "I'm having trouble processing your message right now. Could you say that again?"

const fallbackSummary = "The interview was scored automatically because the scoring service was unavailable. " +
	"The score reflects how many questions received an answer."

// InterviewService sequences the phases: create from a resume, verify
// contact details over chat, run the timed question loop, and score.
// It is the only caller of the two external collaborators.
type InterviewService interface {
	// CreateFromResume extracts contact fields from resume text via the
	// oracle and opens a session. Oracle failure degrades to a session
	// with all fields set to the Not Found sentinel.
	CreateFromResume(ctx context.Context, ownerID, resumeText string) (*models.InterviewSession, error)
	// CreateManual opens a session with sentinel fields for the
	// manual-entry fallback after a failed extraction.
	CreateManual(ctx context.Context, ownerID string) (*models.InterviewSession, error)

	// Chat runs one verification turn.
	Chat(ctx context.Context, ownerID, message string) (*models.InterviewSession, error)

	// Begin requests questions and starts the interview. Gated on
	// verified; oracle failure falls back to the built-in bank.
	Begin(ctx context.Context, ownerID, role string) (*models.InterviewSession, error)

	// Submit records an answer for the current question and either
	// advances or finalizes. Idempotent against the auto-submit race:
	// only one submission per question ever applies.
	Submit(ctx context.Context, ownerID string, questionIndex int, answer string) (*models.InterviewSession, error)
	// SubmitExpired is the timer path: records the no-answer sentinel
	// with timeTaken equal to the full budget.
	SubmitExpired(ctx context.Context, ownerID string, questionIndex int) (*models.InterviewSession, error)
}

type interviewService struct {
	sessions    SessionService
	profiles    ProfileService
	oracle      llm.Oracle
	transcripts pgrepo.TranscriptRepository
	log         *logrus.Logger

	// one applied submission per question, regardless of how a manual
	// submit races the timer expiry
	mu        sync.Mutex
	submitted map[string]int // sessionID -> highest question index applied
}

func NewInterviewService(
	sessions SessionService,
	profiles ProfileService,
	oracle llm.Oracle,
	transcripts pgrepo.TranscriptRepository,
	log *logrus.Logger,
) InterviewService {
	if log == nil {
		log = logrus.New()
	}
	return &interviewService{
		sessions:    sessions,
		profiles:    profiles,
		oracle:      oracle,
		transcripts: transcripts,
		log:         log,
		submitted:   make(map[string]int),
	}
}

func (s *interviewService) CreateFromResume(ctx context.Context, ownerID, resumeText string) (*models.InterviewSession, error) {
	extraction, err := s.oracle.ExtractContact(ctx, resumeText)
	if err != nil {
		s.log.WithError(err).WithField("owner_id", ownerID).Warn("contact extraction failed, using sentinels")
		extraction = llm.ContactExtraction{
			Contact: models.ContactInfo{Name: models.NotFound, Email: models.NotFound, Phone: models.NotFound},
		}
	}

	sess, err := s.sessions.Create(ctx, ownerID, extraction.Contact)
	if err != nil {
		return nil, err
	}

	if _, perr := s.profiles.UpsertFromExtraction(ctx, ownerID, extraction.Contact, resumeText, extraction.Skills); perr != nil {
		s.log.WithError(perr).WithField("owner_id", ownerID).Warn("candidate profile upsert failed")
	}
	return sess, nil
}

func (s *interviewService) CreateManual(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	return s.sessions.Create(ctx, ownerID, models.ContactInfo{
		Name:  models.NotFound,
		Email: models.NotFound,
		Phone: models.NotFound,
	})
}

func (s *interviewService) Chat(ctx context.Context, ownerID, message string) (*models.InterviewSession, error) {
	const op = "InterviewService.Chat"

	if strings.TrimSpace(message) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "message is required", nil)
	}

	sess, err := s.sessions.AppendMessage(ctx, ownerID, models.RoleUser, message)
	if err != nil {
		return nil, err
	}
	sessionID := sess.ID
	s.logTranscript(ctx, sess, models.RoleUser, message, nil)

	result, oerr := s.oracle.VerifyChat(ctx, sess.Messages, sess.UserData)
	if oerr != nil {
		s.log.WithError(oerr).WithField("session_id", sessionID).Warn("verification oracle failed")
		return s.appendAssistant(ctx, ownerID, FallbackReply, nil)
	}

	// the session may have been cleared or replaced while the oracle
	// call was in flight; drop the result rather than corrupting it
	if cur, err := s.sessions.Get(ctx, ownerID); err != nil || cur.ID != sessionID {
		s.log.WithField("session_id", sessionID).Info("dropping oracle result for replaced session")
		if err != nil {
			return nil, err
		}
		return cur, nil
	}

	if _, err := s.sessions.UpdateUserData(ctx, ownerID, result.State); err != nil {
		return nil, err
	}

	sess, err = s.appendAssistant(ctx, ownerID, result.Reply, &result.Confirmed)
	if err != nil {
		return nil, err
	}

	if result.Confirmed && result.State.Complete() {
		if sess, err = s.sessions.SetVerified(ctx, ownerID, true); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *interviewService) appendAssistant(ctx context.Context, ownerID, reply string, confirmed *bool) (*models.InterviewSession, error) {
	sess, err := s.sessions.AppendMessage(ctx, ownerID, models.RoleAssistant, reply)
	if err != nil {
		return nil, err
	}
	var meta []byte
	if confirmed != nil {
		if *confirmed {
			meta = []byte(`{"confirmed":true}`)
		} else {
			meta = []byte(`{"confirmed":false}`)
		}
	}
	s.logTranscript(ctx, sess, models.RoleAssistant, reply, meta)
	return sess, nil
}

func (s *interviewService) logTranscript(ctx context.Context, sess *models.InterviewSession, role models.ChatRole, content string, meta []byte) {
	row := &models.ChatTranscript{
		ID:        uuid.NewString(),
		OwnerID:   sess.OwnerID,
		SessionID: sess.ID,
		Role:      string(role),
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  datatypes.JSON(meta),
	}
	if err := s.transcripts.Insert(ctx, row); err != nil {
		s.log.WithError(err).WithField("session_id", sess.ID).Warn("transcript insert failed")
	}
}

func (s *interviewService) Begin(ctx context.Context, ownerID, role string) (*models.InterviewSession, error) {
	const op = "InterviewService.Begin"

	sess, err := s.sessions.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !sess.Verified {
		return nil, utils.E(utils.CodeConflict, op, "contact details are not verified yet", nil)
	}
	if sess.InterviewStarted {
		return nil, utils.E(utils.CodeConflict, op, "interview already started", nil)
	}

	questions, oerr := s.oracle.GenerateQuestions(ctx, role)
	if oerr != nil {
		s.log.WithError(oerr).WithField("session_id", sess.ID).Warn("question generation failed, using fallback bank")
		questions = FallbackQuestions()
	}

	return s.sessions.StartInterview(ctx, ownerID, role, questions)
}

func (s *interviewService) Submit(ctx context.Context, ownerID string, questionIndex int, answer string) (*models.InterviewSession, error) {
	return s.submit(ctx, ownerID, questionIndex, answer, false)
}

func (s *interviewService) SubmitExpired(ctx context.Context, ownerID string, questionIndex int) (*models.InterviewSession, error) {
	return s.submit(ctx, ownerID, questionIndex, models.NoAnswer, true)
}

func (s *interviewService) submit(ctx context.Context, ownerID string, questionIndex int, answer string, expired bool) (*models.InterviewSession, error) {
	const op = "InterviewService.Submit"

	sess, err := s.sessions.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !sess.InterviewActive() {
		return nil, utils.E(utils.CodeConflict, op, "interview is not in progress", nil)
	}
	if questionIndex != sess.CurrentQuestionIndex {
		return nil, utils.E(utils.CodeConflict, op, "question index does not match the current question", nil)
	}

	if !s.acquireSubmit(sess.ID, questionIndex) {
		// the other side of the race already applied; return state as-is
		return sess, nil
	}

	question := sess.Questions[questionIndex]
	timeTaken := question.TimeLimit
	if !expired && sess.TimeLeft != nil {
		timeTaken = question.TimeLimit - *sess.TimeLeft
		if timeTaken < 0 {
			timeTaken = 0
		}
	}
	if expired {
		answer = models.NoAnswer
	}

	if _, err := s.sessions.RecordAnswer(ctx, ownerID, questionIndex, answer, timeTaken); err != nil {
		s.releaseSubmit(sess.ID, questionIndex)
		return nil, err
	}

	if questionIndex < len(sess.Questions)-1 {
		next, err := s.sessions.AdvanceQuestion(ctx, ownerID)
		if err != nil {
			s.releaseSubmit(sess.ID, questionIndex)
			return nil, err
		}
		return next, nil
	}
	completed, err := s.finalize(ctx, ownerID, sess.ID)
	if err != nil {
		// a transient archive failure must not wedge the last question;
		// releasing lets a retry reach completion
		s.releaseSubmit(sess.ID, questionIndex)
		return nil, err
	}
	return completed, nil
}

func (s *interviewService) finalize(ctx context.Context, ownerID, sessionID string) (*models.InterviewSession, error) {
	sess, err := s.sessions.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if sess.ID != sessionID {
		return nil, utils.E(utils.CodeConflict, "InterviewService.finalize", "session was replaced during scoring", nil)
	}

	result, oerr := s.oracle.ScoreInterview(ctx, sess.UserData, sess.Questions)
	if oerr != nil {
		// completion must never be blocked by oracle failure
		s.log.WithError(oerr).WithField("session_id", sess.ID).Warn("scoring oracle failed, computing fallback score")
		result = llm.ScoreResult{
			Score:   FallbackScore(sess.Questions),
			Summary: fallbackSummary,
		}
	}

	completed, err := s.sessions.Complete(ctx, ownerID, result.Score, result.Summary)
	if err != nil {
		return nil, err
	}

	s.forgetSession(sessionID)

	if perr := s.profiles.RecordOutcome(ctx, ownerID, completed.UserData, *completed.FinalScore, completed.FinalSummary); perr != nil {
		s.log.WithError(perr).WithField("owner_id", ownerID).Warn("failed to record outcome on profile")
	}
	return completed, nil
}

func (s *interviewService) acquireSubmit(sessionID string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.submitted[sessionID]; ok && index <= last {
		return false
	}
	s.submitted[sessionID] = index
	return true
}

// releaseSubmit rolls the guard back when the transition itself failed,
// so a retry is possible.
func (s *interviewService) releaseSubmit(sessionID string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.submitted[sessionID]; ok && last == index {
		if index == 0 {
			delete(s.submitted, sessionID)
		} else {
			s.submitted[sessionID] = index - 1
		}
	}
}

func (s *interviewService) forgetSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submitted, sessionID)
}

// FallbackScore is the deterministic formula used when the scoring
// oracle is unavailable: round(answeredFraction*70+20), so the result
// always lands in [20,90].
func FallbackScore(questions []models.Question) int {
	if len(questions) == 0 {
		return 20
	}
	answered := 0
	for _, q := range questions {
		if q.Answer != "" && q.Answer != models.NoAnswer {
			answered++
		}
	}
	frac := float64(answered) / float64(len(questions))
	score := int(math.Round(frac*70 + 20))
	if score < 20 {
		score = 20
	}
	if score > 90 {
		score = 90
	}
	return score
}

// FallbackQuestions is the built-in bank used when question generation
// fails: same shape and level mix as the oracle contract.
func FallbackQuestions() []models.Question {
	texts := []struct {
		text  string
		level models.QuestionLevel
	}{
		{"Tell me about yourself and your background in software development.", models.LevelEasy},
		{"What programming languages are you most comfortable with, and why?", models.LevelEasy},
		{"Describe a challenging bug you fixed recently. How did you track it down?", models.LevelMedium},
		{"How do you decide what to cover with automated tests in a project?", models.LevelMedium},
		{"Design a rate limiter for a public API. Walk through your data structures and trade-offs.", models.LevelHard},
		{"How would you migrate a live service to a new data store without downtime?", models.LevelHard},
	}

	out := make([]models.Question, 0, len(texts))
	for i, t := range texts {
		out = append(out, models.Question{
			ID:        i + 1,
			Text:      t.text,
			Level:     t.level,
			TimeLimit: models.TimeLimitFor(t.level),
		})
	}
	return out
}
