package handlers

import (
	"net/http"

	"github.com/fishlog/fishlog-backend/internal/api/middleware"
	"github.com/fishlog/fishlog-backend/internal/models"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Challenge Handler
// ============================================

type ChallengeHandler struct {
	challengeService service.ChallengeService
}

func toChallengeInput(req *models.ChallengeRequest) *service.ChallengeInput {
	return &service.ChallengeInput{
		Title:         req.Title,
		Description:   req.Description,
		Type:          repository.ChallengeType(req.Type),
		TargetSpecies: req.Target.Species,
		TargetMetric:  req.Target.Metric,
		TargetCount:   req.Target.Count,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}
}

func (h *ChallengeHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ChallengeRequest
	if !bindJSON(c, &req) {
		return
	}

	challenge, err := h.challengeService.Update(c.Request.Context(), userID, c.Param("id"), toChallengeInput(&req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeResponse(challenge))
}

func (h *ChallengeHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.challengeService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ChallengeHandler) Join(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	challenge, err := h.challengeService.Join(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeResponse(challenge))
}

func (h *ChallengeHandler) Leave(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	challenge, err := h.challengeService.Leave(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeResponse(challenge))
}

func (h *ChallengeHandler) UpdateProgress(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ProgressRequest
	if !bindJSON(c, &req) {
		return
	}

	challenge, err := h.challengeService.UpdateProgress(c.Request.Context(), userID, c.Param("id"), req.Progress)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeResponse(challenge))
}

func (h *ChallengeHandler) Complete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	// body is optional
	var req models.CompleteChallengeRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	challenge, err := h.challengeService.Complete(c.Request.Context(), userID, c.Param("id"), req.WinnerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toChallengeResponse(challenge))
}
