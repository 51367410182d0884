package handlers

import (
	"net/http"

	"github.com/fishlog/fishlog-backend/internal/api/middleware"
	"github.com/fishlog/fishlog-backend/internal/models"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Admin Handler
// ============================================

// AdminHandler serves /api/admin. Routes sit behind RequireAdmin.
type AdminHandler struct {
	adminService service.AdminService
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAll(users, toUserResponse))
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.adminService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req models.AdminUpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), c.Param("id"), req.Name, req.Avatar, req.IsAdmin)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actorID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) ListGroups(c *gin.Context) {
	groups, err := h.adminService.ListGroups(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, emptyIfNil(groups))
}

func (h *AdminHandler) AddGroupMember(c *gin.Context) {
	var req models.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.adminService.AddGroupMember(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *AdminHandler) RemoveGroupMember(c *gin.Context) {
	group, err := h.adminService.RemoveGroupMember(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *AdminHandler) ListCatches(c *gin.Context) {
	catches, err := h.adminService.ListCatches(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAll(catches, toCatchResponse))
}

func (h *AdminHandler) DeleteContent(c *gin.Context) {
	if err := h.adminService.DeleteContent(c.Request.Context(), c.Param("type"), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
