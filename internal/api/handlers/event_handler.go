package handlers

import (
	"net/http"

	"github.com/fishlog/fishlog-backend/internal/api/middleware"
	"github.com/fishlog/fishlog-backend/internal/models"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Event Handler
// ============================================

type EventHandler struct {
	eventService service.EventService
}

func toEventInput(req *models.EventRequest) *service.EventInput {
	return &service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
	}
}

func (h *EventHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	events, err := h.eventService.List(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAll(events, toEventResponse))
}

func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.EventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), userID, toEventInput(&req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEventResponse(event))
}

func (h *EventHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	event, err := h.eventService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.EventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), userID, c.Param("id"), toEventInput(&req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EventHandler) AddParticipant(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.AddParticipantRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.eventService.AddParticipant(c.Request.Context(), userID, c.Param("id"), req.Email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) RemoveParticipant(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	event, err := h.eventService.RemoveParticipant(c.Request.Context(), userID, c.Param("id"), c.Param("userId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEventResponse(event))
}
