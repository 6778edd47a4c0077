package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/service"
)

// MaxUploadSize is the per-file cap for report attachments.
const MaxUploadSize = 10 << 20 // 10MB

// uploadError is the upload endpoint's own error shape, kept distinct
// from the uniform envelope for dashboard compatibility.
type uploadError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// UploadController stores report attachments.
type UploadController struct {
	uploads *service.UploadService
}

func NewUploadController(uploads *service.UploadService) *UploadController {
	return &UploadController{uploads: uploads}
}

// Upload accepts one multipart file plus the report id and uploader
// name, stores the file and returns the attachment record.
func (u *UploadController) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, uploadError{
			Error:   "No file provided",
			Details: "The upload request did not include a file",
		})
		return
	}

	reportID := c.PostForm("reportId")
	uploadedBy := c.PostForm("uploadedBy")
	if reportID == "" || uploadedBy == "" {
		c.JSON(http.StatusBadRequest, uploadError{
			Error:   "Report ID and uploader information required",
			Details: "Both reportId and uploadedBy form fields must be set",
		})
		return
	}

	if header.Size > MaxUploadSize {
		c.JSON(http.StatusBadRequest, uploadError{
			Error:   "File size exceeds 10MB limit",
			Details: "Upload a smaller file",
		})
		return
	}

	attachment, err := u.uploads.Store(c.Request.Context(), reportID, uploadedBy, header)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			c.JSON(http.StatusBadRequest, uploadError{
				Error:   "Report not found",
				Details: "No report matches the given reportId",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, uploadError{
			Error:   "Upload failed",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, attachment)
}
