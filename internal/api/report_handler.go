package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// queryDateLayout is the format of the from/to parameters.
const queryDateLayout = "2006-01-02"

// defaultReportDays is the period length used when from is omitted.
const defaultReportDays = 30

type ReportHandler struct {
	reportService service.ReportService
	now           func() time.Time
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, now: time.Now}
}

type ArchiveReportRequest struct {
	StudentID string `json:"studentId" binding:"required,mongodb"`
	From      string `json:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string `json:"to" binding:"omitempty,datetime=2006-01-02"`
}

type ArchiveReportResponse struct {
	Key              string        `json:"key"`
	DownloadURL      string        `json:"downloadUrl"`
	ExpiresInSeconds int           `json:"expiresInSeconds"`
	Report           domain.Report `json:"report"`
}

// period parses the inclusive date range. to defaults to today and from to
// the defaultReportDays days ending at to.
func (h *ReportHandler) period(fromRaw, toRaw string) (time.Time, time.Time, error) {
	to := h.now()
	if toRaw != "" {
		t, err := time.Parse(queryDateLayout, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", toRaw)
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultReportDays - 1))
	if fromRaw != "" {
		f, err := time.Parse(queryDateLayout, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", fromRaw)
		}
		from = f
	}
	return from, to, nil
}

// GetReports godoc
// @Summary Progress reports
// @Description One report per active student, or a single one when studentId is given. Dates are inclusive (YYYY-MM-DD).
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Student ID"
// @Param from query string false "First day"
// @Param to query string false "Last day"
// @Success 200 {array} domain.Report
// @Failure 400 {object} gin.H "Invalid range"
// @Failure 404 {object} gin.H "Student not found"
// @Router /trainer/reports [get]
func (h *ReportHandler) GetReports(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	from, to, err := h.period(c.Query("from"), c.Query("to"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if raw := c.Query("studentId"); raw != "" {
		studentID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid studentId format")
			return
		}
		report, err := h.reportService.StudentReport(c.Request.Context(), trainerID, studentID, from, to)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, []domain.Report{*report})
		return
	}

	reports, err := h.reportService.TrainerReports(c.Request.Context(), trainerID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// ArchiveReport godoc
// @Summary Archive a student report
// @Description Stores the report as JSON in object storage and returns a temporary download link.
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ArchiveReportRequest true "Student and period"
// @Success 201 {object} ArchiveReportResponse
// @Failure 404 {object} gin.H "Student not found"
// @Failure 503 {object} gin.H "Archiving not configured"
// @Router /trainer/reports/archive [post]
func (h *ReportHandler) ArchiveReport(c *gin.Context) {
	var req ArchiveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, _ := primitive.ObjectIDFromHex(req.StudentID)
	from, to, err := h.period(req.From, req.To)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	archive, err := h.reportService.Archive(c.Request.Context(), trainerID, studentID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ArchiveReportResponse{
		Key:              archive.Key,
		DownloadURL:      archive.DownloadURL,
		ExpiresInSeconds: int(archive.ExpiresIn.Seconds()),
		Report:           archive.Report,
	})
}
