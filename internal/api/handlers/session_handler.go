package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Navin1-11-04/crisp/internal/models"
	"github.com/Navin1-11-04/crisp/internal/services"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

type SessionHandler struct {
	sessions   services.SessionService
	interviews services.InterviewService
	revival    services.ResumePolicy
}

func NewSessionHandler(sessions services.SessionService, interviews services.InterviewService, revival services.ResumePolicy) *SessionHandler {
	return &SessionHandler{sessions: sessions, interviews: interviews, revival: revival}
}

// Get returns the caller's active session.
func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// StartManual opens a session without a resume; all contact fields
// start as sentinels and verification collects them.
func (h *SessionHandler) StartManual(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.interviews.CreateManual(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type UpdateContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UpdateContact is the manual-entry path: the candidate types fields
// the extraction could not find.
func (h *SessionHandler) UpdateContact(c *gin.Context) {
	const op = "SessionHandler.UpdateContact"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateContactRequest
	if !bindJSON(c, op, &req) {
		return
	}
	if req.Name == "" && req.Email == "" && req.Phone == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "at least one field is required", nil))
		return
	}

	ctx := c.Request.Context()
	sess, err := h.sessions.Get(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	fields := sess.UserData
	if req.Name != "" {
		fields.Name = req.Name
	}
	if req.Email != "" {
		fields.Email = req.Email
	}
	if req.Phone != "" {
		fields.Phone = req.Phone
	}

	sess, err = h.sessions.UpdateUserData(ctx, userID, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Clear discards the active session.
func (h *SessionHandler) Clear(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.sessions.Clear(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// Revival reports whether a welcome-back prompt should be shown.
func (h *SessionHandler) Revival(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	decision, err := h.revival.Evaluate(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

type ResolveRevivalRequest struct {
	Decision string `json:"decision" binding:"required"` // resume | start_new
}

// ResolveRevival applies the candidate's welcome-back choice.
func (h *SessionHandler) ResolveRevival(c *gin.Context) {
	const op = "SessionHandler.ResolveRevival"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req ResolveRevivalRequest
	if !bindJSON(c, op, &req) {
		return
	}

	if err := h.revival.Resolve(c.Request.Context(), userID, req.Decision); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decision": req.Decision})
}

// ListCompleted returns the caller's archived interviews, newest
// first.
func (h *SessionHandler) ListCompleted(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	out, err := h.sessions.ListCompleted(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if out == nil {
		out = []models.InterviewSession{}
	}
	c.JSON(http.StatusOK, out)
}
