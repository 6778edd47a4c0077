package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/database"
	"github.com/sitrack/sitrack-gin/internal/realtime"
	"gorm.io/gorm"
)

// HealthController reports liveness of the service and its database,
// plus the realtime bridge state as information.
type HealthController struct {
	db     *gorm.DB
	bridge *realtime.Bridge
}

func NewHealthController(db *gorm.DB, bridge *realtime.Bridge) *HealthController {
	return &HealthController{db: db, bridge: bridge}
}

// Check answers the health probe. A broken database turns the whole
// response unhealthy; a disconnected realtime feed does not, because
// the service still works from its own database.
func (h *HealthController) Check(c *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	if h.db != nil {
		if database.CheckHealth(h.db) {
			checks["database"] = "healthy"
		} else {
			status = "unhealthy"
			checks["database"] = "unhealthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.bridge != nil {
		checks["realtime"] = h.bridge.State().String()
	} else {
		checks["realtime"] = "not configured"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}
