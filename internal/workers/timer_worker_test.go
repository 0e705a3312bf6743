package workers

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/providers/llm"
	"github.com/Navin1-11-04/crisp/internal/repositories/memory"
	"github.com/Navin1-11-04/crisp/internal/services"
)

type staticOracle struct{}

func (staticOracle) ExtractContact(ctx context.Context, resumeText string) (llm.ContactExtraction, error) {
	return llm.ContactExtraction{}, nil
}

func (staticOracle) VerifyChat(ctx context.Context, transcript []models.ChatMessage, current models.ContactInfo) (llm.VerifyResult, error) {
	return llm.VerifyResult{Reply: "ok", State: current, Confirmed: true}, nil
}

func (staticOracle) GenerateQuestions(ctx context.Context, role string) ([]models.Question, error) {
	return services.FallbackQuestions(), nil
}

func (staticOracle) ScoreInterview(ctx context.Context, contact models.ContactInfo, questions []models.Question) (llm.ScoreResult, error) {
	return llm.ScoreResult{Score: 70, Summary: "ok"}, nil
}

func (staticOracle) Close() error { return nil }

type workerFixture struct {
	worker   *TimerWorker
	active   *memory.ActiveSessionRepo
	archive  *memory.ArchiveRepo
	sessions services.SessionService
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	active := memory.NewActiveSessionRepo()
	archive := memory.NewArchiveRepo()
	sessions := services.NewSessionService(active, archive)
	profiles := services.NewProfileService(memory.NewProfileRepo(), nil)
	interviews := services.NewInterviewService(sessions, profiles, staticOracle{}, memory.NewTranscriptRepo(), nil)

	return &workerFixture{
		worker: &TimerWorker{
			Active:     active,
			Sessions:   sessions,
			Interviews: interviews,
			Logger:     logrus.New(),
		},
		active:   active,
		archive:  archive,
		sessions: sessions,
	}
}

func (f *workerFixture) startInterview(t *testing.T, owner string) *models.InterviewSession {
	t.Helper()
	ctx := context.Background()

	_, err := f.sessions.Create(ctx, owner, models.ContactInfo{
		Name: "Ada", Email: "ada@example.com", Phone: "+44123",
	})
	require.NoError(t, err)
	_, err = f.sessions.SetVerified(ctx, owner, true)
	require.NoError(t, err)
	sess, err := f.sessions.StartInterview(ctx, owner, "Backend", services.FallbackQuestions())
	require.NoError(t, err)
	return sess
}

func TestPassDecrementsEveryActiveTimer(t *testing.T) {
	fix := newWorkerFixture(t)
	ctx := context.Background()

	fix.startInterview(t, "owner-1")
	fix.startInterview(t, "owner-2")

	fix.worker.Pass(ctx)

	for _, owner := range []string{"owner-1", "owner-2"} {
		sess, err := fix.sessions.Get(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, models.TimeLimitEasy-1, *sess.TimeLeft)
	}
}

func TestPassSkipsPausedSessions(t *testing.T) {
	fix := newWorkerFixture(t)
	ctx := context.Background()

	fix.startInterview(t, "owner-1")
	_, err := fix.sessions.Pause(ctx, "owner-1")
	require.NoError(t, err)

	fix.worker.Pass(ctx)

	sess, err := fix.sessions.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimeLimitEasy, *sess.TimeLeft)
}

func TestPassSkipsVerificationPhase(t *testing.T) {
	fix := newWorkerFixture(t)
	ctx := context.Background()

	_, err := fix.sessions.Create(ctx, "owner-1", models.ContactInfo{Name: "Ada"})
	require.NoError(t, err)

	fix.worker.Pass(ctx)

	sess, err := fix.sessions.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Nil(t, sess.TimeLeft)
}

func TestPassAutoSubmitsOnExpiry(t *testing.T) {
	fix := newWorkerFixture(t)
	ctx := context.Background()

	sess := fix.startInterview(t, "owner-1")
	one := 1
	sess.TimeLeft = &one
	require.NoError(t, fix.active.Save(ctx, sess))

	// one pass takes the timer to zero and fires the auto-submit
	fix.worker.Pass(ctx)

	after, err := fix.sessions.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.NoAnswer, after.Questions[0].Answer)
	assert.Equal(t, after.Questions[0].TimeLimit, after.Questions[0].TimeTaken)
	assert.Equal(t, 1, after.CurrentQuestionIndex)
	assert.Equal(t, after.Questions[1].TimeLimit, *after.TimeLeft)
}

func TestPassDoesNotResubmitAnsweredQuestion(t *testing.T) {
	fix := newWorkerFixture(t)
	ctx := context.Background()

	sess := fix.startInterview(t, "owner-1")
	sess.Questions[0].Answer = "already answered"
	zero := 0
	sess.TimeLeft = &zero
	require.NoError(t, fix.active.Save(ctx, sess))

	fix.worker.Pass(ctx)

	after, err := fix.sessions.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "already answered", after.Questions[0].Answer)
	assert.Equal(t, 0, after.CurrentQuestionIndex)
}

// staleActiveRepo serves a fixed snapshot on the first Load and then
// defers to the real store, modeling a slot replaced mid-pass.
type staleActiveRepo struct {
	*memory.ActiveSessionRepo
	stale *models.InterviewSession
	used  bool
}

func (r *staleActiveRepo) Load(ctx context.Context, ownerID string) (*models.InterviewSession, error) {
	if !r.used && r.stale != nil {
		r.used = true
		return r.stale, nil
	}
	return r.ActiveSessionRepo.Load(ctx, ownerID)
}

func TestPassSkipsSessionReplacedMidPass(t *testing.T) {
	fix := newWorkerFixture(t)
	ctx := context.Background()

	started := fix.startInterview(t, "owner-1")

	// the candidate starts over while the worker still holds the old
	// started snapshot; the fresh session has no timer yet
	fresh, err := fix.sessions.Create(ctx, "owner-1", models.ContactInfo{Name: "Ada"})
	require.NoError(t, err)

	fix.worker.Active = &staleActiveRepo{ActiveSessionRepo: fix.active, stale: started}
	fix.worker.Pass(ctx)

	after, err := fix.sessions.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, after.ID)
	assert.Nil(t, after.TimeLeft)
	assert.False(t, after.InterviewStarted)
}

func TestPassCompletesInterviewOnLastExpiry(t *testing.T) {
	fix := newWorkerFixture(t)
	ctx := context.Background()

	sess := fix.startInterview(t, "owner-1")
	for i := 0; i < len(sess.Questions)-1; i++ {
		sess.Questions[i].Answer = "answered"
	}
	sess.CurrentQuestionIndex = len(sess.Questions) - 1
	one := 1
	sess.TimeLeft = &one
	require.NoError(t, fix.active.Save(ctx, sess))

	fix.worker.Pass(ctx)

	_, err := fix.sessions.Get(ctx, "owner-1")
	require.Error(t, err)

	archived, err := fix.archive.ListByOwner(ctx, "owner-1", 10)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.True(t, archived[0].InterviewCompleted)
	assert.Equal(t, models.NoAnswer, archived[0].Questions[len(sess.Questions)-1].Answer)
}
