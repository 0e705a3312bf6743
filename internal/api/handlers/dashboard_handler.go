package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Navin1-11-04/crisp/internal/models"
	mongorepo "github.com/Navin1-11-04/crisp/internal/repositories/mongo"
	pgrepo "github.com/Navin1-11-04/crisp/internal/repositories/postgres"
	"github.com/Navin1-11-04/crisp/internal/services"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

// DashboardHandler serves the interviewer views: the candidate list,
// the completed-interview archive, and per-session transcripts. All
// routes sit behind the interviewer role.
type DashboardHandler struct {
	profiles    services.ProfileService
	archive     mongorepo.ArchiveRepository
	transcripts pgrepo.TranscriptRepository
}

func NewDashboardHandler(profiles services.ProfileService, archive mongorepo.ArchiveRepository, transcripts pgrepo.TranscriptRepository) *DashboardHandler {
	return &DashboardHandler{profiles: profiles, archive: archive, transcripts: transcripts}
}

func (h *DashboardHandler) Candidates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, err := h.profiles.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.CandidateProfile{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *DashboardHandler) Candidate(c *gin.Context) {
	ownerID := c.Param("owner_id")

	row, err := h.profiles.Get(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *DashboardHandler) Interviews(c *gin.Context) {
	const op = "DashboardHandler.Interviews"

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, err := h.archive.ListAll(c.Request.Context(), limit)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to list interviews", err))
		return
	}
	if rows == nil {
		rows = []models.InterviewSession{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *DashboardHandler) Transcript(c *gin.Context) {
	const op = "DashboardHandler.Transcript"

	ownerID := c.Param("owner_id")
	sessionID := c.Param("session_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	rows, err := h.transcripts.ListBySession(c.Request.Context(), ownerID, sessionID, limit)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to load transcript", err))
		return
	}
	if rows == nil {
		rows = []models.ChatTranscript{}
	}
	c.JSON(http.StatusOK, rows)
}
