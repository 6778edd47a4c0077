package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/service"
)

// BackupController serves the Admin backup endpoints.
type BackupController struct {
	backups *service.BackupService
}

func NewBackupController(backups *service.BackupService) *BackupController {
	return &BackupController{backups: backups}
}

// Create writes a new backup archive.
func (b *BackupController) Create(c *gin.Context) {
	info, err := b.backups.Create(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to create backup", err.Error())
		return
	}
	Success(c, info)
}

// List returns available backups, newest first.
func (b *BackupController) List(c *gin.Context) {
	backups, err := b.backups.List()
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to list backups", err.Error())
		return
	}
	Success(c, backups)
}

// Restore replays a backup archive into the database.
func (b *BackupController) Restore(c *gin.Context) {
	err := b.backups.Restore(c.Request.Context(), c.Param("filename"))
	if err != nil {
		if errors.Is(err, service.ErrBackupNotFound) {
			Error(c, http.StatusNotFound, "backup not found", "")
			return
		}
		Error(c, http.StatusInternalServerError, "failed to restore backup", err.Error())
		return
	}
	Success(c, nil)
}

// Delete removes a backup file.
func (b *BackupController) Delete(c *gin.Context) {
	if err := b.backups.Delete(c.Param("filename")); err != nil {
		if errors.Is(err, service.ErrBackupNotFound) {
			Error(c, http.StatusNotFound, "backup not found", "")
			return
		}
		Error(c, http.StatusInternalServerError, "failed to delete backup", err.Error())
		return
	}
	Success(c, nil)
}
