package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Navin1-11-04/crisp/internal/providers/extract"
	"github.com/Navin1-11-04/crisp/internal/services"
	"github.com/Navin1-11-04/crisp/internal/utils"
)

const maxResumeBytes = 10 << 20

type ResumeHandler struct {
	svc services.ResumeService
}

func NewResumeHandler(svc services.ResumeService) *ResumeHandler {
	return &ResumeHandler{svc: svc}
}

// Upload accepts a PDF or DOCX resume and opens a new interview
// session from it. The extension decides the declared type; PDF
// content is additionally sniffed (DOCX is a zip, which the sniffer
// cannot distinguish from any other zip).
func (h *ResumeHandler) Upload(c *gin.Context) {
	const op = "ResumeHandler.Upload"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}

	var mimeType string
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".pdf":
		mimeType = extract.MimePDF
	case ".docx":
		mimeType = extract.MimeDOCX
	default:
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "only .pdf and .docx are allowed", nil))
		return
	}
	if fh.Size <= 0 || fh.Size > maxResumeBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxResumeBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}
	if len(data) > maxResumeBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil))
		return
	}

	if mimeType == extract.MimePDF {
		ct := http.DetectContentType(data)
		if ct != "application/pdf" {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid content type (must be pdf)", nil))
			return
		}
	}

	result, err := h.svc.Ingest(c.Request.Context(), userID, fh.Filename, mimeType, data)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
