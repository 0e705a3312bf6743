package models

import "time"

// NotFound is the sentinel the extraction oracle returns for a contact
// field it could not find in the resume.
const NotFound = "Not Found"

// NoAnswer is recorded when the question timer expires before the
// candidate submitted anything.
const NoAnswer = "[No Answer]"

type ContactInfo struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}

// Complete reports whether all three fields hold real values.
func (c ContactInfo) Complete() bool {
	return c.Name != "" && c.Name != NotFound &&
		c.Email != "" && c.Email != NotFound &&
		c.Phone != "" && c.Phone != NotFound
}

type ChatRole string

const (
	RoleAssistant ChatRole = "assistant"
	RoleUser      ChatRole = "user"
)

type ChatMessage struct {
	ID        string    `bson:"id" json:"id"` // uuid v4
	Role      ChatRole  `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type QuestionLevel string

const (
	LevelEasy   QuestionLevel = "easy"
	LevelMedium QuestionLevel = "medium"
	LevelHard   QuestionLevel = "hard"
)

// Per-level time budgets in seconds.
const (
	TimeLimitEasy   = 20
	TimeLimitMedium = 60
	TimeLimitHard   = 120
)

// QuestionsPerInterview is the contract with the question-generation
// oracle: 2 easy + 2 medium + 2 hard.
const QuestionsPerInterview = 6

func TimeLimitFor(level QuestionLevel) int {
	switch level {
	case LevelEasy:
		return TimeLimitEasy
	case LevelMedium:
		return TimeLimitMedium
	case LevelHard:
		return TimeLimitHard
	default:
		return TimeLimitMedium
	}
}

type Question struct {
	ID        int           `bson:"id" json:"id"`
	Text      string        `bson:"text" json:"text"`
	Level     QuestionLevel `bson:"level" json:"level"`
	TimeLimit int           `bson:"time_limit" json:"time_limit"` // seconds

	Answer    string `bson:"answer,omitempty" json:"answer,omitempty"`
	TimeTaken int    `bson:"time_taken,omitempty" json:"time_taken,omitempty"` // seconds
}

// Answered reports whether anything (including the NoAnswer sentinel)
// has been recorded for this question.
func (q Question) Answered() bool { return q.Answer != "" }

// InterviewSession is the single persisted record behind the whole
// state machine. At most one lives in the active slot per owner; on
// completion it moves to the archive and the slot is cleared.
type InterviewSession struct {
	ID      string `bson:"session_id" json:"id"` // uuid v4
	OwnerID string `bson:"owner_id" json:"owner_id"`

	// ExtractedInfo is the original oracle extraction and never changes;
	// UserData is the chat-corrected working copy.
	ExtractedInfo ContactInfo `bson:"extracted_info" json:"extracted_info"`
	UserData      ContactInfo `bson:"user_data" json:"user_data"`

	Messages []ChatMessage `bson:"messages" json:"messages"`
	Verified bool          `bson:"verified" json:"verified"`

	Role      string     `bson:"role,omitempty" json:"role,omitempty"` // position interviewed for
	Questions []Question `bson:"questions" json:"questions"`

	CurrentQuestionIndex int  `bson:"current_question_index" json:"current_question_index"`
	TimeLeft             *int `bson:"time_left,omitempty" json:"time_left"` // nil when no timer runs
	IsPaused             bool `bson:"is_paused" json:"is_paused"`

	InterviewStarted   bool `bson:"interview_started" json:"interview_started"`
	InterviewCompleted bool `bson:"interview_completed" json:"interview_completed"`

	FinalScore   *int   `bson:"final_score,omitempty" json:"final_score,omitempty"` // 0-100
	FinalSummary string `bson:"final_summary,omitempty" json:"final_summary,omitempty"`

	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	StartedAt    *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt  *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	LastActiveAt time.Time  `bson:"last_active_at" json:"last_active_at"`
}

// InterviewActive reports whether the question timer phase is running.
func (s *InterviewSession) InterviewActive() bool {
	return s.InterviewStarted && !s.InterviewCompleted
}

// CurrentQuestion returns the question the index points at, or nil
// during the transient completion transition.
func (s *InterviewSession) CurrentQuestion() *Question {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentQuestionIndex]
}
