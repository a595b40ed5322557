package handlers

import (
	"fmt"
	"net/http"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/services"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	reports services.ReportService
	export  services.ExportService
}

func NewReportHandler(reports services.ReportService, export services.ExportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler: NewBaseHandler(logger),
		reports:     reports,
		export:      export,
	}
}

// GetScores returns the daily score series of a user for one month
// @Summary Score over time
// @Tags reports
// @Produce json
// @Param user_id path int true "User ID"
// @Param year query int true "Year"
// @Param month query string true "Month name (enero ... diciembre)"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /reports/users/{user_id}/scores [get]
func (h *ReportHandler) GetScores(c *gin.Context) {
	userID, ok := ParseUintParam(c, "user_id")
	if !ok {
		return
	}

	var query services.ScoreReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.bindError(c, err)
		return
	}
	query.UserID = userID

	points, err := h.reports.ScoresOverTime(c.Request.Context(), query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Score report retrieved successfully", points)
}

// GetDetails returns the daily answer breakdown of a user, optionally for one course
// @Summary Course and topic detail
// @Tags reports
// @Produce json
// @Param user_id path int true "User ID"
// @Param year query int true "Year"
// @Param month query string true "Month name"
// @Param course_id query int false "Course ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /reports/users/{user_id}/details [get]
func (h *ReportHandler) GetDetails(c *gin.Context) {
	query, ok := h.bindDetailQuery(c)
	if !ok {
		return
	}

	rows, err := h.reports.CourseDetail(c.Request.Context(), query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Detail report retrieved successfully", rows)
}

// ExportUserReport downloads the month's score and answer reports as a workbook
// @Summary Export user report
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param user_id path int true "User ID"
// @Param year query int true "Year"
// @Param month query string true "Month name"
// @Param course_id query int false "Course ID"
// @Success 200 {file} file
// @Router /reports/users/{user_id}/export [get]
func (h *ReportHandler) ExportUserReport(c *gin.Context) {
	query, ok := h.bindDetailQuery(c)
	if !ok {
		return
	}

	data, err := h.export.ExportUserReport(c.Request.Context(), query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("report_%d_%s_%d.xlsx", query.UserID, query.Month, query.Year)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetMaterialConsumption returns average time and frequency per material type.
// It always answers 200; an unavailable datamart shows up in the status field.
// @Summary Material consumption
// @Tags reports
// @Produce json
// @Success 200 {object} models.MaterialConsumption
// @Router /reports/materials/consumption [get]
func (h *ReportHandler) GetMaterialConsumption(c *gin.Context) {
	result := h.reports.MaterialConsumption(c.Request.Context())
	if result.Status != services.StatusSuccess {
		h.LogWarn(c, "Material consumption served degraded", "message", result.Message)
	}
	c.JSON(http.StatusOK, result)
}

func (h *ReportHandler) bindDetailQuery(c *gin.Context) (services.DetailReportQuery, bool) {
	var query services.DetailReportQuery

	userID, ok := ParseUintParam(c, "user_id")
	if !ok {
		return query, false
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.bindError(c, err)
		return query, false
	}
	query.UserID = userID
	return query, true
}
