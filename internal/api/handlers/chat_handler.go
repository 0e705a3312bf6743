package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Navin1-11-04/crisp/internal/services"
)

type ChatHandler struct {
	interviews services.InterviewService
}

func NewChatHandler(interviews services.InterviewService) *ChatHandler {
	return &ChatHandler{interviews: interviews}
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Send runs one verification turn and returns the updated session,
// including the assistant's reply as the newest message.
func (h *ChatHandler) Send(c *gin.Context) {
	const op = "ChatHandler.Send"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req ChatRequest
	if !bindJSON(c, op, &req) {
		return
	}

	sess, err := h.interviews.Chat(c.Request.Context(), userID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
