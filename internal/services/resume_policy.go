package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Navin1-11-04/crisp/internal/models"
	redisrepo "github.com/Navin1-11-04/crisp/internal/repositories/redis"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

// SessionTimeout is how long a session may sit idle before it is
// discarded instead of offered for resumption.
const SessionTimeout = 24 * time.Hour

// RevivalDecision is what the welcome-back prompt renders. Offer is
// false when no session exists or the stale one was silently expired.
type RevivalDecision struct {
	Offer        bool                     `json:"offer"`
	Status       string                   `json:"status,omitempty"`
	Description  string                   `json:"description,omitempty"`
	Candidate    string                   `json:"candidate,omitempty"`
	LastActiveAt *time.Time               `json:"last_active_at,omitempty"`
	Session      *models.InterviewSession `json:"session,omitempty"`
}

// ResumePolicy decides, on rehydration, whether a leftover active
// session should be offered for resumption or expired.
type ResumePolicy interface {
	// Evaluate never errors on a stale session: past SessionTimeout it
	// clears silently and reports no offer.
	Evaluate(ctx context.Context, ownerID string) (RevivalDecision, error)
	// Resolve applies the caller's choice: "resume" keeps the session
	// untouched, "start_new" discards it.
	Resolve(ctx context.Context, ownerID, decision string) error
}

type resumePolicy struct {
	active   redisrepo.ActiveSessionRepository
	sessions SessionService
	now      func() time.Time
}

func NewResumePolicy(active redisrepo.ActiveSessionRepository, sessions SessionService) ResumePolicy {
	return &resumePolicy{
		active:   active,
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *resumePolicy) Evaluate(ctx context.Context, ownerID string) (RevivalDecision, error) {
	const op = "ResumePolicy.Evaluate"

	sess, err := p.active.Load(ctx, ownerID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return RevivalDecision{Offer: false}, nil
		}
		return RevivalDecision{}, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	if p.now().Sub(sess.LastActiveAt) > SessionTimeout {
		if err := p.sessions.Clear(ctx, ownerID); err != nil {
			return RevivalDecision{}, err
		}
		return RevivalDecision{Offer: false}, nil
	}

	status, desc := sessionStatus(sess)
	last := sess.LastActiveAt
	return RevivalDecision{
		Offer:        true,
		Status:       status,
		Description:  desc,
		Candidate:    sess.UserData.Name,
		LastActiveAt: &last,
		Session:      sess,
	}, nil
}

func (p *resumePolicy) Resolve(ctx context.Context, ownerID, decision string) error {
	const op = "ResumePolicy.Resolve"

	switch decision {
	case "resume":
		// no state change, the prompt is simply dismissed
		return nil
	case "start_new":
		return p.sessions.Clear(ctx, ownerID)
	default:
		return utils.E(utils.CodeInvalidArgument, op, "decision must be resume or start_new", nil)
	}
}

func sessionStatus(sess *models.InterviewSession) (status, description string) {
	if !sess.InterviewStarted {
		return "Verification in progress",
			"You were in the middle of confirming your details."
	}
	if sess.InterviewActive() {
		cur, total := sess.CurrentQuestionIndex+1, len(sess.Questions)
		return fmt.Sprintf("Interview in progress (%d/%d)", cur, total),
			fmt.Sprintf("You were answering question %d of %d.", cur, total)
	}
	// completed sessions never linger in the active slot; defensive default
	return "Session found", "You have an unfinished session."
}
