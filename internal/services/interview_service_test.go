package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/providers/llm"
	"github.com/Navin1-11-04/crisp/internal/repositories/memory"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

// fakeOracle lets each test script the model's behavior per call.
type fakeOracle struct {
	extract   func(ctx context.Context, resumeText string) (llm.ContactExtraction, error)
	verify    func(ctx context.Context, transcript []models.ChatMessage, current models.ContactInfo) (llm.VerifyResult, error)
	questions func(ctx context.Context, role string) ([]models.Question, error)
	score     func(ctx context.Context, contact models.ContactInfo, questions []models.Question) (llm.ScoreResult, error)
}

func (f *fakeOracle) ExtractContact(ctx context.Context, resumeText string) (llm.ContactExtraction, error) {
	if f.extract != nil {
		return f.extract(ctx, resumeText)
	}
	return llm.ContactExtraction{Contact: contact(), Skills: []string{"go", "sql"}}, nil
}

func (f *fakeOracle) VerifyChat(ctx context.Context, transcript []models.ChatMessage, current models.ContactInfo) (llm.VerifyResult, error) {
	if f.verify != nil {
		return f.verify(ctx, transcript, current)
	}
	return llm.VerifyResult{Reply: "All details look right.", State: current, Confirmed: true}, nil
}

func (f *fakeOracle) GenerateQuestions(ctx context.Context, role string) ([]models.Question, error) {
	if f.questions != nil {
		return f.questions(ctx, role)
	}
	return FallbackQuestions(), nil
}

func (f *fakeOracle) ScoreInterview(ctx context.Context, contact models.ContactInfo, questions []models.Question) (llm.ScoreResult, error) {
	if f.score != nil {
		return f.score(ctx, contact, questions)
	}
	return llm.ScoreResult{Score: 88, Summary: "Strong answers across the board."}, nil
}

func (f *fakeOracle) Close() error { return nil }

type interviewFixture struct {
	svc         InterviewService
	sessions    *sessionService
	active      *memory.ActiveSessionRepo
	archive     *memory.ArchiveRepo
	profiles    *memory.ProfileRepo
	transcripts *memory.TranscriptRepo
	clock       *testClock
}

func newInterviewFixture(oracle llm.Oracle) *interviewFixture {
	sessions, active, archive, clock := newSessionFixture()
	profiles := memory.NewProfileRepo()
	transcripts := memory.NewTranscriptRepo()
	svc := NewInterviewService(
		sessions,
		NewProfileService(profiles, nil),
		oracle,
		transcripts,
		nil,
	)
	return &interviewFixture{
		svc:         svc,
		sessions:    sessions,
		active:      active,
		archive:     archive,
		profiles:    profiles,
		transcripts: transcripts,
		clock:       clock,
	}
}

// flakyArchive fails the first insert and then recovers.
type flakyArchive struct {
	*memory.ArchiveRepo
	failures int
}

func (a *flakyArchive) Insert(ctx context.Context, s *models.InterviewSession) error {
	if a.failures > 0 {
		a.failures--
		return errors.New("archive unavailable")
	}
	return a.ArchiveRepo.Insert(ctx, s)
}

func TestLastAnswerRetriesAfterArchiveFailure(t *testing.T) {
	active := memory.NewActiveSessionRepo()
	archive := &flakyArchive{ArchiveRepo: memory.NewArchiveRepo(), failures: 1}
	sessions := NewSessionService(active, archive)
	svc := NewInterviewService(sessions, NewProfileService(memory.NewProfileRepo(), nil), &fakeOracle{}, memory.NewTranscriptRepo(), nil)
	ctx := context.Background()

	_, err := sessions.Create(ctx, "owner-1", contact())
	require.NoError(t, err)
	_, err = sessions.SetVerified(ctx, "owner-1", true)
	require.NoError(t, err)
	_, err = sessions.StartInterview(ctx, "owner-1", "Backend", FallbackQuestions())
	require.NoError(t, err)

	last := models.QuestionsPerInterview - 1
	for i := 0; i < last; i++ {
		_, err = svc.Submit(ctx, "owner-1", i, "answer")
		require.NoError(t, err)
	}

	_, err = svc.Submit(ctx, "owner-1", last, "final answer")
	require.Error(t, err)

	// the transient failure must not wedge the last question
	sess, err := svc.Submit(ctx, "owner-1", last, "final answer")
	require.NoError(t, err)
	assert.True(t, sess.InterviewCompleted)

	archived, err := archive.ListByOwner(ctx, "owner-1", 10)
	require.NoError(t, err)
	require.Len(t, archived, 1)
}

func TestFullInterviewFlow(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{})
	ctx := context.Background()

	sess, err := fix.svc.CreateFromResume(ctx, "owner-1", "Ada Lovelace, ada@example.com, +4412345678, Go developer")
	require.NoError(t, err)
	assert.Equal(t, contact(), sess.UserData)

	// upload also seeds the dashboard profile
	profile, err := fix.profiles.GetByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, []string(profile.Skills))

	sess, err = fix.svc.Chat(ctx, "owner-1", "yes, everything is correct")
	require.NoError(t, err)
	assert.True(t, sess.Verified)
	assert.Equal(t, "All details look right.", sess.Messages[len(sess.Messages)-1].Content)

	sess, err = fix.svc.Begin(ctx, "owner-1", "Full Stack Developer")
	require.NoError(t, err)
	require.Len(t, sess.Questions, models.QuestionsPerInterview)
	assert.True(t, sess.InterviewActive())

	for i := 0; i < models.QuestionsPerInterview; i++ {
		sess, err = fix.svc.Submit(ctx, "owner-1", i, "my answer")
		require.NoError(t, err)
	}

	assert.True(t, sess.InterviewCompleted)
	require.NotNil(t, sess.FinalScore)
	assert.Equal(t, 88, *sess.FinalScore)
	assert.Equal(t, "Strong answers across the board.", sess.FinalSummary)

	_, err = fix.sessions.Get(ctx, "owner-1")
	assertCode(t, err, utils.CodeNotFound)

	archived, err := fix.archive.ListByOwner(ctx, "owner-1", 10)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	profile, err = fix.profiles.GetByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.NotNil(t, profile.LastScore)
	assert.Equal(t, 88, *profile.LastScore)
}

func TestCreateFromResumeExtractionFailure(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{
		extract: func(ctx context.Context, resumeText string) (llm.ContactExtraction, error) {
			return llm.ContactExtraction{}, errors.New("model unavailable")
		},
	})

	sess, err := fix.svc.CreateFromResume(context.Background(), "owner-1", "some resume text")
	require.NoError(t, err)
	assert.Equal(t, models.NotFound, sess.UserData.Name)
	assert.Equal(t, models.NotFound, sess.UserData.Email)
	assert.Equal(t, models.NotFound, sess.UserData.Phone)
}

func TestChatOracleFailureDegradesGracefully(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{
		verify: func(ctx context.Context, transcript []models.ChatMessage, current models.ContactInfo) (llm.VerifyResult, error) {
			return llm.VerifyResult{}, errors.New("timeout")
		},
	})
	ctx := context.Background()

	_, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)

	sess, err := fix.svc.Chat(ctx, "owner-1", "hello")
	require.NoError(t, err)

	assert.False(t, sess.Verified)
	assert.Equal(t, FallbackReply, sess.Messages[len(sess.Messages)-1].Content)
}

func TestChatDoesNotVerifyWithIncompleteFields(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{
		verify: func(ctx context.Context, transcript []models.ChatMessage, current models.ContactInfo) (llm.VerifyResult, error) {
			state := current
			state.Phone = models.NotFound
			return llm.VerifyResult{Reply: "What is your phone number?", State: state, Confirmed: true}, nil
		},
	})
	ctx := context.Background()

	_, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)

	sess, err := fix.svc.Chat(ctx, "owner-1", "that's all correct")
	require.NoError(t, err)

	assert.False(t, sess.Verified)
	assert.Equal(t, models.NotFound, sess.UserData.Phone)
}

func TestChatDropsResultForReplacedSession(t *testing.T) {
	var fix *interviewFixture
	fix = newInterviewFixture(&fakeOracle{
		verify: func(ctx context.Context, transcript []models.ChatMessage, current models.ContactInfo) (llm.VerifyResult, error) {
			// the candidate started over while the model was thinking
			_, err := fix.sessions.Create(ctx, "owner-1", contact())
			if err != nil {
				return llm.VerifyResult{}, err
			}
			return llm.VerifyResult{Reply: "Confirmed!", State: current, Confirmed: true}, nil
		},
	})
	ctx := context.Background()

	first, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)

	sess, err := fix.svc.Chat(ctx, "owner-1", "yes")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, sess.ID)
	assert.False(t, sess.Verified)
	// the stale reply never reached the new session
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, SeedMessage, sess.Messages[0].Content)
}

func TestChatWritesTranscriptRows(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{})
	ctx := context.Background()

	sess, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)

	_, err = fix.svc.Chat(ctx, "owner-1", "yes, correct")
	require.NoError(t, err)

	rows, err := fix.transcripts.ListBySession(ctx, "owner-1", sess.ID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "user", rows[0].Role)
	assert.Equal(t, "assistant", rows[1].Role)
}

func TestBeginRequiresVerification(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{})
	ctx := context.Background()

	_, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)

	_, err = fix.svc.Begin(ctx, "owner-1", "Backend")
	assertCode(t, err, utils.CodeConflict)
}

func TestBeginFallsBackToBuiltinQuestions(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{
		questions: func(ctx context.Context, role string) ([]models.Question, error) {
			return nil, errors.New("model unavailable")
		},
	})
	ctx := context.Background()

	_, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)
	_, err = fix.svc.Chat(ctx, "owner-1", "all correct")
	require.NoError(t, err)

	sess, err := fix.svc.Begin(ctx, "owner-1", "Backend")
	require.NoError(t, err)

	require.Len(t, sess.Questions, models.QuestionsPerInterview)
	assert.Equal(t, FallbackQuestions()[0].Text, sess.Questions[0].Text)
	assert.Equal(t, models.TimeLimitEasy, *sess.TimeLeft)
}

func TestSubmitRejectsWrongQuestionIndex(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{})
	ctx := context.Background()

	_, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)
	_, err = fix.svc.Chat(ctx, "owner-1", "yes")
	require.NoError(t, err)
	_, err = fix.svc.Begin(ctx, "owner-1", "Backend")
	require.NoError(t, err)

	_, err = fix.svc.Submit(ctx, "owner-1", 3, "answer")
	assertCode(t, err, utils.CodeConflict)
}

func TestSubmitExpiredRecordsNoAnswerSentinel(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{})
	ctx := context.Background()

	_, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)
	_, err = fix.svc.Chat(ctx, "owner-1", "yes")
	require.NoError(t, err)
	_, err = fix.svc.Begin(ctx, "owner-1", "Backend")
	require.NoError(t, err)

	sess, err := fix.svc.SubmitExpired(ctx, "owner-1", 0)
	require.NoError(t, err)

	assert.Equal(t, models.NoAnswer, sess.Questions[0].Answer)
	assert.Equal(t, sess.Questions[0].TimeLimit, sess.Questions[0].TimeTaken)
	assert.Equal(t, 1, sess.CurrentQuestionIndex)
}

func TestSubmitGuardAppliesEachQuestionOnce(t *testing.T) {
	svc := NewInterviewService(nil, nil, &fakeOracle{}, nil, nil).(*interviewService)

	assert.True(t, svc.acquireSubmit("sess-1", 0))
	assert.False(t, svc.acquireSubmit("sess-1", 0))
	assert.True(t, svc.acquireSubmit("sess-1", 1))
	assert.False(t, svc.acquireSubmit("sess-1", 0))

	// a failed transition releases the slot for retry
	svc.releaseSubmit("sess-1", 1)
	assert.True(t, svc.acquireSubmit("sess-1", 1))

	svc.forgetSession("sess-1")
	assert.True(t, svc.acquireSubmit("sess-1", 0))
}

func TestScoringFallbackWhenOracleFails(t *testing.T) {
	fix := newInterviewFixture(&fakeOracle{
		score: func(ctx context.Context, contact models.ContactInfo, questions []models.Question) (llm.ScoreResult, error) {
			return llm.ScoreResult{}, errors.New("model unavailable")
		},
	})
	ctx := context.Background()

	_, err := fix.svc.CreateFromResume(ctx, "owner-1", "resume")
	require.NoError(t, err)
	_, err = fix.svc.Chat(ctx, "owner-1", "yes")
	require.NoError(t, err)
	_, err = fix.svc.Begin(ctx, "owner-1", "Backend")
	require.NoError(t, err)

	var sess *models.InterviewSession
	for i := 0; i < models.QuestionsPerInterview; i++ {
		sess, err = fix.svc.Submit(ctx, "owner-1", i, "answer")
		require.NoError(t, err)
	}

	require.NotNil(t, sess.FinalScore)
	assert.Equal(t, 90, *sess.FinalScore) // all six answered
	assert.NotEmpty(t, sess.FinalSummary)
}

func TestFallbackScoreFormula(t *testing.T) {
	questions := FallbackQuestions()

	assert.Equal(t, 20, FallbackScore(questions)) // nothing answered

	for i := 0; i < 3; i++ {
		questions[i].Answer = "answered"
	}
	questions[3].Answer = models.NoAnswer // auto-submit does not count
	assert.Equal(t, 55, FallbackScore(questions))

	for i := range questions {
		questions[i].Answer = "answered"
	}
	assert.Equal(t, 90, FallbackScore(questions))

	assert.Equal(t, 20, FallbackScore(nil))
}
