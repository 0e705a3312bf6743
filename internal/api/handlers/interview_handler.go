package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Navin1-11-04/crisp/internal/services"
)

type InterviewHandler struct {
	sessions   services.SessionService
	interviews services.InterviewService
}

func NewInterviewHandler(sessions services.SessionService, interviews services.InterviewService) *InterviewHandler {
	return &InterviewHandler{sessions: sessions, interviews: interviews}
}

type StartInterviewRequest struct {
	Role string `json:"role"`
}

// Start generates questions and moves the session into the timed
// question loop. Requires verified contact details.
func (h *InterviewHandler) Start(c *gin.Context) {
	const op = "InterviewHandler.Start"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartInterviewRequest
	if !bindJSON(c, op, &req) {
		return
	}
	if req.Role == "" {
		req.Role = "Full Stack Developer"
	}

	sess, err := h.interviews.Begin(c.Request.Context(), userID, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type AnswerRequest struct {
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer" binding:"required"`
}

// Answer submits the current question's answer. A submit that loses
// the race with timer expiry is a no-op that returns current state.
func (h *InterviewHandler) Answer(c *gin.Context) {
	const op = "InterviewHandler.Answer"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if !bindJSON(c, op, &req) {
		return
	}

	sess, err := h.interviews.Submit(c.Request.Context(), userID, req.QuestionIndex, req.Answer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *InterviewHandler) Pause(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.sessions.Pause(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *InterviewHandler) Resume(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.sessions.Resume(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
