package handlers

import (
	"net/http"

	"github.com/fishlog/fishlog-backend/internal/api/middleware"
	"github.com/fishlog/fishlog-backend/internal/models"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ============================================
// Catch Handler
// ============================================

type CatchHandler struct {
	catchService service.CatchService
}

func toCatchInput(req *models.CatchRequest) *service.CatchInput {
	in := &service.CatchInput{
		Species:           req.Species,
		Weight:            req.Weight,
		Length:            req.Length,
		LocationName:      req.Location.Name,
		CaughtAt:          req.Date,
		Photos:            safeStringSlice(req.Photos),
		FeaturePhotoIndex: req.FeaturePhotoIndex,
		Notes:             req.Notes,
		SharedWithGroups:  safeStringSlice(req.SharedWithGroups),
	}
	if req.Location.Coordinates != nil {
		lat, lng := req.Location.Coordinates.Lat, req.Location.Coordinates.Lng
		in.Latitude, in.Longitude = &lat, &lng
	}
	if req.Weather != nil {
		if req.Weather.Temperature != nil {
			in.WeatherTemperature = decimal.NewNullDecimal(*req.Weather.Temperature)
		}
		in.WeatherConditions = req.Weather.Conditions
	}
	return in
}

func (h *CatchHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	catches, err := h.catchService.ListMine(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAll(catches, toCatchResponse))
}

func (h *CatchHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CatchRequest
	if !bindJSON(c, &req) {
		return
	}

	catch, err := h.catchService.Create(c.Request.Context(), userID, toCatchInput(&req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCatchResponse(catch))
}

func (h *CatchHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	catch, err := h.catchService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCatchResponse(catch))
}

func (h *CatchHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CatchRequest
	if !bindJSON(c, &req) {
		return
	}

	catch, err := h.catchService.Update(c.Request.Context(), userID, c.Param("id"), toCatchInput(&req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCatchResponse(catch))
}

func (h *CatchHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.catchService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ============================================
// Comments
// ============================================

func (h *CatchHandler) ListComments(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	comments, err := h.catchService.ListComments(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAll(comments, toCommentResponse))
}

func (h *CatchHandler) AddComment(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.catchService.AddComment(c.Request.Context(), userID, c.Param("id"), req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCommentResponse(comment))
}

func (h *CatchHandler) DeleteComment(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.catchService.DeleteComment(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
