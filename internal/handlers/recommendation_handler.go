package handlers

import (
	"net/http"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/services"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

type RecommendationHandler struct {
	BaseHandler
	service services.RecommendationService
}

func NewRecommendationHandler(service services.RecommendationService, logger utils.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetRecommendations lists the courses suggested to a user during the month
// before the requested one
// @Summary Recommended courses
// @Tags recommendations
// @Produce json
// @Param user_id path int true "User ID"
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Success 200 {object} models.Recommendations
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /recommendations/users/{user_id} [get]
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	userID, ok := ParseUintParam(c, "user_id")
	if !ok {
		return
	}

	var query services.RecommendationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.bindError(c, err)
		return
	}
	query.UserID = userID

	result, err := h.service.Recommend(c.Request.Context(), query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
