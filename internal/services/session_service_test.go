package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/repositories/memory"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newSessionFixture() (*sessionService, *memory.ActiveSessionRepo, *memory.ArchiveRepo, *testClock) {
	active := memory.NewActiveSessionRepo()
	archive := memory.NewArchiveRepo()
	clock := newTestClock()
	svc := &sessionService{active: active, archive: archive, now: clock.Now}
	return svc, active, archive, clock
}

func contact() models.ContactInfo {
	return models.ContactInfo{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+4412345678"}
}

func startedSession(t *testing.T, svc *sessionService, owner string) *models.InterviewSession {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, contact())
	require.NoError(t, err)
	_, err = svc.SetVerified(ctx, owner, true)
	require.NoError(t, err)

	sess, err := svc.StartInterview(ctx, owner, "Full Stack Developer", FallbackQuestions())
	require.NoError(t, err)
	return sess
}

func assertCode(t *testing.T, err error, code utils.Code) {
	t.Helper()
	var ae *utils.AppError
	require.True(t, errors.As(err, &ae), "expected AppError, got %v", err)
	assert.Equal(t, code, ae.Code)
}

func TestCreateSeedsVerificationChat(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-1", contact())
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, contact(), sess.ExtractedInfo)
	assert.Equal(t, contact(), sess.UserData)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, models.RoleAssistant, sess.Messages[0].Role)
	assert.Equal(t, SeedMessage, sess.Messages[0].Content)
	assert.False(t, sess.Verified)
	assert.False(t, sess.InterviewStarted)
}

func TestCreateOverwritesExistingSession(t *testing.T) {
	svc, active, _, _ := newSessionFixture()
	ctx := context.Background()

	first, err := svc.Create(ctx, "owner-1", contact())
	require.NoError(t, err)

	second, err := svc.Create(ctx, "owner-1", models.ContactInfo{
		Name: models.NotFound, Email: models.NotFound, Phone: models.NotFound,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	stored, err := active.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, stored.ID)

	owners, err := active.Owners(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 1)
}

func TestMutationsStampLastActive(t *testing.T) {
	svc, _, _, clock := newSessionFixture()
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-1", contact())
	require.NoError(t, err)
	createdAt := sess.LastActiveAt

	clock.Advance(42 * time.Second)
	sess, err = svc.AppendMessage(ctx, "owner-1", models.RoleUser, "my phone is 555")
	require.NoError(t, err)
	assert.Equal(t, createdAt.Add(42*time.Second), sess.LastActiveAt)
}

func TestStartInterviewRequiresSixQuestions(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", contact())
	require.NoError(t, err)

	_, err = svc.StartInterview(ctx, "owner-1", "Backend", FallbackQuestions()[:4])
	assertCode(t, err, utils.CodeInvalidArgument)
}

func TestStartInterviewTwiceConflicts(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	startedSession(t, svc, "owner-1")
	_, err := svc.StartInterview(ctx, "owner-1", "Backend", FallbackQuestions())
	assertCode(t, err, utils.CodeConflict)
}

func TestStartInterviewArmsFirstTimer(t *testing.T) {
	svc, _, _, _ := newSessionFixture()

	sess := startedSession(t, svc, "owner-1")
	require.NotNil(t, sess.TimeLeft)
	assert.Equal(t, models.TimeLimitEasy, *sess.TimeLeft)
	assert.Equal(t, 0, sess.CurrentQuestionIndex)
	assert.NotNil(t, sess.StartedAt)
}

func TestTickDecrementsAndFloorsAtZero(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	startedSession(t, svc, "owner-1")

	sess, err := svc.Tick(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimeLimitEasy-1, *sess.TimeLeft)

	for i := 0; i < models.TimeLimitEasy+5; i++ {
		sess, err = svc.Tick(ctx, "owner-1")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, *sess.TimeLeft)
}

func TestTickIsNoopWhilePaused(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	startedSession(t, svc, "owner-1")
	_, err := svc.Pause(ctx, "owner-1")
	require.NoError(t, err)

	sess, err := svc.Tick(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.TimeLimitEasy, *sess.TimeLeft)
}

func TestResumeContinuesFromFrozenTimer(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	startedSession(t, svc, "owner-1")
	for i := 0; i < 7; i++ {
		_, err := svc.Tick(ctx, "owner-1")
		require.NoError(t, err)
	}

	_, err := svc.Pause(ctx, "owner-1")
	require.NoError(t, err)
	sess, err := svc.Resume(ctx, "owner-1")
	require.NoError(t, err)

	assert.False(t, sess.IsPaused)
	assert.Equal(t, models.TimeLimitEasy-7, *sess.TimeLeft)
}

func TestPauseIsIdempotent(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	startedSession(t, svc, "owner-1")
	_, err := svc.Pause(ctx, "owner-1")
	require.NoError(t, err)
	sess, err := svc.Pause(ctx, "owner-1")
	require.NoError(t, err)
	assert.True(t, sess.IsPaused)
}

func TestAdvanceQuestionResetsTimer(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	startedSession(t, svc, "owner-1")
	_, err := svc.RecordAnswer(ctx, "owner-1", 0, "an answer", 12)
	require.NoError(t, err)

	sess, err := svc.AdvanceQuestion(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.CurrentQuestionIndex)
	assert.Equal(t, sess.Questions[1].TimeLimit, *sess.TimeLeft)
}

func TestAdvanceQuestionStopsAtLast(t *testing.T) {
	svc, active, _, _ := newSessionFixture()
	ctx := context.Background()

	sess := startedSession(t, svc, "owner-1")
	sess.CurrentQuestionIndex = len(sess.Questions) - 1
	require.NoError(t, active.Save(ctx, sess))

	after, err := svc.AdvanceQuestion(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, len(sess.Questions)-1, after.CurrentQuestionIndex)
}

func TestSetVerifiedNeverRevertsAfterStart(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	startedSession(t, svc, "owner-1")
	sess, err := svc.SetVerified(ctx, "owner-1", false)
	require.NoError(t, err)
	assert.True(t, sess.Verified)
}

func TestCompleteClampsScore(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name  string
		score int
		want  int
	}{
		{"above range", 150, 100},
		{"below range", -5, 0},
		{"in range", 83, 83},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _, _ := newSessionFixture()
			startedSession(t, svc, "owner-1")

			sess, err := svc.Complete(ctx, "owner-1", tc.score, "summary")
			require.NoError(t, err)
			require.NotNil(t, sess.FinalScore)
			assert.Equal(t, tc.want, *sess.FinalScore)
		})
	}
}

func TestCompleteArchivesAndClearsSlot(t *testing.T) {
	svc, active, archive, _ := newSessionFixture()
	ctx := context.Background()

	started := startedSession(t, svc, "owner-1")
	sess, err := svc.Complete(ctx, "owner-1", 77, "solid performance")
	require.NoError(t, err)

	assert.True(t, sess.InterviewCompleted)
	assert.Nil(t, sess.TimeLeft)
	assert.NotNil(t, sess.CompletedAt)

	_, err = active.Load(ctx, "owner-1")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	archived, err := archive.ListByOwner(ctx, "owner-1", 10)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, started.ID, archived[0].ID)
}

func TestCompleteRequiresActiveInterview(t *testing.T) {
	svc, _, _, _ := newSessionFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", contact())
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "owner-1", 50, "s")
	assertCode(t, err, utils.CodeConflict)
}

func TestGetWithoutSessionIsNotFound(t *testing.T) {
	svc, _, _, _ := newSessionFixture()

	_, err := svc.Get(context.Background(), "owner-unknown")
	assertCode(t, err, utils.CodeNotFound)
}
