package handlers

import (
	"net/http"

	"github.com/fishlog/fishlog-backend/internal/api/middleware"
	"github.com/fishlog/fishlog-backend/internal/models"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Group Handler
// ============================================

type GroupHandler struct {
	groupService     service.GroupService
	catchService     service.CatchService
	challengeService service.ChallengeService
}

func (h *GroupHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	groups, err := h.groupService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, emptyIfNil(groups))
}

func (h *GroupHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	detail, err := h.groupService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *GroupHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), userID, c.Param("id"), req.Name, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ============================================
// Members
// ============================================

func (h *GroupHandler) AddMember(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.AddMember(c.Request.Context(), userID, c.Param("id"), req.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	group, err := h.groupService.RemoveMember(c.Request.Context(), userID, c.Param("id"), c.Param("userId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateMemberRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.UpdateMemberRole(c.Request.Context(), userID, c.Param("id"), c.Param("userId"), req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// ============================================
// Group-scoped catches and challenges
// ============================================

func (h *GroupHandler) ListCatches(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	catches, err := h.catchService.ListForGroup(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAll(catches, toCatchResponse))
}

func (h *GroupHandler) ListChallenges(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	challenges, err := h.challengeService.ListForGroup(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAll(challenges, toChallengeResponse))
}

func (h *GroupHandler) CreateChallenge(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ChallengeRequest
	if !bindJSON(c, &req) {
		return
	}

	challenge, err := h.challengeService.Create(c.Request.Context(), userID, c.Param("id"), toChallengeInput(&req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toChallengeResponse(challenge))
}
