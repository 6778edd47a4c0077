package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"github.com/sitrack/sitrack-gin/internal/service"
)

// ReportController serves the letter lifecycle endpoints.
type ReportController struct {
	reports *service.ReportService
}

func NewReportController(reports *service.ReportService) *ReportController {
	return &ReportController{reports: reports}
}

// List returns reports, optionally filtered by status, sender, holder
// or letter date range.
func (r *ReportController) List(c *gin.Context) {
	var filter *repository.ReportFilter
	if len(c.Request.URL.Query()) > 0 {
		filter = &repository.ReportFilter{}
		if v := c.Query("status"); v != "" {
			filter.Status = &v
		}
		if v := c.Query("dari"); v != "" {
			filter.Dari = &v
		}
		if v := c.Query("holder"); v != "" {
			filter.Holder = &v
		}
		if v := c.Query("startDate"); v != "" {
			filter.StartDate = &v
		}
		if v := c.Query("endDate"); v != "" {
			filter.EndDate = &v
		}
	}

	reports, err := r.reports.List(filter)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to list reports", err.Error())
		return
	}
	Success(c, reports)
}

// Get returns one report.
func (r *ReportController) Get(c *gin.Context) {
	report, err := r.reports.Get(c.Param("id"))
	if err != nil {
		r.renderError(c, err, "failed to load report")
		return
	}
	Success(c, report)
}

// Create registers an incoming letter.
func (r *ReportController) Create(c *gin.Context) {
	var req service.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	report, err := r.reports.Create(req, actorName(c))
	if err != nil {
		Error(c, http.StatusBadRequest, "failed to create report", err.Error())
		return
	}
	Success(c, report)
}

// Update edits letter metadata.
func (r *ReportController) Update(c *gin.Context) {
	var req service.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	report, err := r.reports.Update(c.Param("id"), req)
	if err != nil {
		r.renderError(c, err, "failed to update report")
		return
	}
	Success(c, report)
}

// Delete removes a letter and everything it owns.
func (r *ReportController) Delete(c *gin.Context) {
	if err := r.reports.Delete(c.Param("id")); err != nil {
		r.renderError(c, err, "failed to delete report")
		return
	}
	Success(c, nil)
}

// Assign delegates the letter to a staff member.
func (r *ReportController) Assign(c *gin.Context) {
	var req service.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	report, err := r.reports.AssignStaff(c.Param("id"), req, actorName(c))
	if err != nil {
		r.renderError(c, err, "failed to assign staff")
		return
	}
	Success(c, report)
}

// UpdateAssignment records to-do completion by staff.
func (r *ReportController) UpdateAssignment(c *gin.Context) {
	var req service.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	report, err := r.reports.UpdateAssignment(c.Param("id"), c.Param("assignmentId"), req)
	if err != nil {
		r.renderError(c, err, "failed to update assignment")
		return
	}
	Success(c, report)
}

// RequestRevision asks a staff member to redo their work.
func (r *ReportController) RequestRevision(c *gin.Context) {
	var req service.RevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	report, err := r.reports.RequestRevision(c.Param("id"), req, actorName(c))
	if err != nil {
		r.renderError(c, err, "failed to request revision")
		return
	}
	Success(c, report)
}

func (r *ReportController) renderError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		Error(c, http.StatusNotFound, "report not found", "")
	case errors.Is(err, service.ErrAssignmentNotFound):
		Error(c, http.StatusNotFound, "assignment not found", "")
	default:
		Error(c, http.StatusInternalServerError, message, err.Error())
	}
}

// actorName is the authenticated display name used in workflow entries.
func actorName(c *gin.Context) string {
	_, name, _, ok := auth.CurrentUser(c)
	if !ok || name == "" {
		return "Pengguna"
	}
	return name
}
