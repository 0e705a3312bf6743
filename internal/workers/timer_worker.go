package workers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	redisrepo "github.com/Navin1-11-04/crisp/internal/repositories/redis"
	"github.com/Navin1-11-04/crisp/internal/services"
)

// EventChannel is the pubsub channel for a session's live events.
func EventChannel(sessionID string) string {
	return "interview:" + sessionID + ":events"
}

// TimerWorker drives the countdown for every active interview. It is
// the single writer of time_left: one pass per interval loads each
// owner's session, decrements, publishes a tick, and auto-submits the
// current question when the budget hits zero. State is reloaded from
// the store on every pass, so a restart resumes from persisted
// time_left rather than a private counter.
type TimerWorker struct {
	Active     redisrepo.ActiveSessionRepository
	Sessions   services.SessionService
	Interviews services.InterviewService
	Redis      *redis.Client
	Logger     *logrus.Logger
	Interval   time.Duration
}

func (w *TimerWorker) Start(ctx context.Context) error {
	if w.Active == nil || w.Sessions == nil || w.Interviews == nil {
		return errors.New("TimerWorker missing dependency: Active/Sessions/Interviews must be set")
	}
	if w.Interval <= 0 {
		w.Interval = time.Second
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}

	go w.run(ctx)
	return nil
}

func (w *TimerWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Pass(ctx)
		}
	}
}

// Pass runs one sweep over all active sessions. Exported so a caller
// can drive time explicitly.
func (w *TimerWorker) Pass(ctx context.Context) {
	owners, err := w.Active.Owners(ctx)
	if err != nil {
		w.Logger.WithError(err).Warn("timer pass: failed to list owners")
		return
	}
	for _, owner := range owners {
		w.tickOwner(ctx, owner)
	}
}

func (w *TimerWorker) tickOwner(ctx context.Context, ownerID string) {
	sess, err := w.Active.Load(ctx, ownerID)
	if err != nil {
		// the slot can empty between Owners and Load; not an error
		return
	}
	if !sess.InterviewActive() || sess.IsPaused || sess.TimeLeft == nil {
		return
	}

	log := w.Logger.WithFields(logrus.Fields{
		"owner_id":   ownerID,
		"session_id": sess.ID,
		"question":   sess.CurrentQuestionIndex,
	})

	if *sess.TimeLeft > 0 {
		ticked, err := w.Sessions.Tick(ctx, ownerID)
		if err != nil {
			log.WithError(err).Warn("tick failed")
			return
		}
		// the slot can be replaced between Load and Tick (the candidate
		// started over); stale timer work must not touch the new session
		if ticked.ID != sess.ID || ticked.TimeLeft == nil {
			return
		}
		sess = ticked
		w.publish(ctx, sess.ID, map[string]any{
			"type":           "timer_tick",
			"session_id":     sess.ID,
			"question_index": sess.CurrentQuestionIndex,
			"time_left":      *sess.TimeLeft,
		})
		if *sess.TimeLeft > 0 {
			return
		}
	}

	// zero budget: auto-submit unless an answer already landed. The
	// orchestrator's per-question guard makes a race with a manual
	// submit apply exactly once, so re-firing here is safe.
	q := sess.CurrentQuestion()
	if q == nil || q.Answered() {
		return
	}

	w.publish(ctx, sess.ID, map[string]any{
		"type":           "time_expired",
		"session_id":     sess.ID,
		"question_index": sess.CurrentQuestionIndex,
	})

	after, err := w.Interviews.SubmitExpired(ctx, ownerID, sess.CurrentQuestionIndex)
	if err != nil {
		log.WithError(err).Warn("auto-submit failed")
		return
	}

	if after.InterviewCompleted {
		w.publish(ctx, after.ID, map[string]any{
			"type":       "interview_completed",
			"session_id": after.ID,
			"score":      after.FinalScore,
		})
		return
	}
	payload := map[string]any{
		"type":           "question_advanced",
		"session_id":     after.ID,
		"question_index": after.CurrentQuestionIndex,
	}
	if after.TimeLeft != nil {
		payload["time_left"] = *after.TimeLeft
	}
	w.publish(ctx, after.ID, payload)
}

func (w *TimerWorker) publish(ctx context.Context, sessionID string, event map[string]any) {
	if w.Redis == nil {
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := w.Redis.Publish(ctx, EventChannel(sessionID), string(b)).Err(); err != nil {
		w.Logger.WithError(err).WithField("session_id", sessionID).Warn("event publish failed")
	}
}
