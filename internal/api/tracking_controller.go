package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/service"
)

// TrackingController serves the public, unauthenticated letter lookup.
type TrackingController struct {
	tracking *service.TrackingService
}

func NewTrackingController(tracking *service.TrackingService) *TrackingController {
	return &TrackingController{tracking: tracking}
}

// Track looks a letter up by number, subject or id and returns its
// public timeline.
func (t *TrackingController) Track(c *gin.Context) {
	result, err := t.tracking.Track(c.Param("noSurat"))
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			Error(c, http.StatusNotFound, "surat tidak ditemukan", "")
			return
		}
		Error(c, http.StatusInternalServerError, "failed to track letter", err.Error())
		return
	}
	Success(c, result)
}
