package handlers

import (
	"errors"
	"net/http"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/etl"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/services"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

type ETLHandler struct {
	BaseHandler
	service services.ETLService
}

func NewETLHandler(service services.ETLService, logger utils.Logger) *ETLHandler {
	return &ETLHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// RunFullReload rebuilds the whole datamart
// @Summary Run the ETL
// @Description Truncates the datamart and reloads every dimension and the fact table in one transaction
// @Tags etl
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /etl/run [post]
func (h *ETLHandler) RunFullReload(c *gin.Context) {
	h.LogRequest(c, "Running full datamart reload")

	result, err := h.service.RunFullReload(c.Request.Context())
	if err != nil {
		h.handleReloadError(c, err)
		return
	}

	h.LogInfo(c, "Datamart reloaded", "skipped_facts", result.SkippedFacts, "duration", result.Duration.String())
	c.JSON(http.StatusOK, loadResultBody(result))
}

// ReloadDimension reloads a single dimension
// @Summary Reload one dimension
// @Description Truncates the datamart and reloads only the named dimension (user, time or topic)
// @Tags etl
// @Produce json
// @Param dimension path string true "Dimension name"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /etl/dimensions/{dimension} [post]
func (h *ETLHandler) ReloadDimension(c *gin.Context) {
	dimension := ParseStringIDParam(c, "dimension")
	if dimension == "" {
		return
	}

	h.LogRequest(c, "Reloading datamart dimension", "dimension", dimension)

	result, err := h.service.ReloadDimension(c.Request.Context(), dimension)
	if err != nil {
		h.handleReloadError(c, err)
		return
	}

	c.JSON(http.StatusOK, loadResultBody(result))
}

// handleReloadError keeps the loader message in the 500 body
func (h *ETLHandler) handleReloadError(c *gin.Context, err error) {
	if services.IsValidation(err) || services.IsConflict(err) || services.IsUnauthorized(err) {
		h.handleServiceError(c, err)
		return
	}

	body := gin.H{"status": false, "message": err.Error()}
	var stageErr *etl.StageError
	if errors.As(err, &stageErr) {
		body["stage"] = stageErr.Stage
	}
	h.LogError(c, err, "Datamart reload failed")
	c.JSON(http.StatusInternalServerError, body)
}

func loadResultBody(result *etl.LoadResult) gin.H {
	body := gin.H{
		"status":        true,
		"mode":          result.Mode,
		"stage":         result.Stage,
		"rows":          result.Rows,
		"skipped_facts": result.SkippedFacts,
		"duration_ms":   result.Duration.Milliseconds(),
	}
	if result.Dimension != "" {
		body["dimension"] = result.Dimension
	}
	return body
}
