package handlers

import (
	"net/http"

	"github.com/fishlog/fishlog-backend/internal/api/middleware"
	"github.com/fishlog/fishlog-backend/internal/models"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// InvitationHandler exposes HTTP endpoints for invitation flows.
type InvitationHandler struct {
	invitationService service.InvitationService
}

func (h *InvitationHandler) Invite(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.InviteRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.invitationService.Invite(c.Request.Context(), userID, c.Param("id"), req.Email, req.ExpiresIn)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// ListMine returns pending invitations addressed to the caller's email.
func (h *InvitationHandler) ListMine(c *gin.Context) {
	if _, ok := middleware.RequireUserID(c); !ok {
		return
	}

	invitations, err := h.invitationService.ListPendingForEmail(c.Request.Context(), middleware.GetUserEmail(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, emptyIfNil(invitations))
}

func (h *InvitationHandler) ListForGroup(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListForGroup(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, emptyIfNil(invitations))
}

func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	group, err := h.invitationService.Accept(c.Request.Context(), userID, middleware.GetUserEmail(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *InvitationHandler) Decline(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	inv, err := h.invitationService.Decline(c.Request.Context(), userID, middleware.GetUserEmail(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}
