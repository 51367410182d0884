package handlers

import (
	"github.com/fishlog/fishlog-backend/internal/api/middleware"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every REST route under api. The websocket endpoint is
// mounted separately because it authenticates through the query string.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, services *service.Services) {
	// ============================================
	// Public routes (no auth required)
	// ============================================
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	// ============================================
	// Protected routes (require auth middleware)
	// ============================================
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(services.Auth))
	{
		users := protected.Group("/users")
		{
			users.GET("/me", h.User.GetCurrentUser)
			users.PUT("/me", h.User.UpdateCurrentUser)
		}

		groups := protected.Group("/groups")
		{
			groups.GET("", h.Group.List)
			groups.POST("", h.Group.Create)

			// Invitations addressed to the caller
			groups.GET("/invitations", h.Invitation.ListMine)
			groups.POST("/invitations/:id/accept", h.Invitation.Accept)
			groups.POST("/invitations/:id/decline", h.Invitation.Decline)

			groups.GET("/:id", h.Group.Get)
			groups.PUT("/:id", h.Group.Update)
			groups.DELETE("/:id", h.Group.Delete)
			groups.POST("/:id/invite", h.Invitation.Invite)
			groups.GET("/:id/invitations", h.Invitation.ListForGroup)
			groups.POST("/:id/members", h.Group.AddMember)
			groups.PUT("/:id/members/:userId", h.Group.UpdateMemberRole)
			groups.DELETE("/:id/members/:userId", h.Group.RemoveMember)
			groups.GET("/:id/catches", h.Group.ListCatches)
			groups.GET("/:id/challenges", h.Group.ListChallenges)
			groups.POST("/:id/challenges", h.Group.CreateChallenge)
		}

		catches := protected.Group("/catches")
		{
			catches.GET("", h.Catch.List)
			catches.POST("", h.Catch.Create)
			catches.GET("/:id", h.Catch.Get)
			catches.PUT("/:id", h.Catch.Update)
			catches.DELETE("/:id", h.Catch.Delete)
			catches.GET("/:id/comments", h.Catch.ListComments)
			catches.POST("/:id/comments", h.Catch.AddComment)
		}

		protected.DELETE("/comments/:id", h.Catch.DeleteComment)

		events := protected.Group("/events")
		{
			events.GET("", h.Event.List)
			events.POST("", h.Event.Create)
			events.GET("/:id", h.Event.Get)
			events.PUT("/:id", h.Event.Update)
			events.DELETE("/:id", h.Event.Delete)
			events.POST("/:id/participants", h.Event.AddParticipant)
			events.DELETE("/:id/participants/:userId", h.Event.RemoveParticipant)
		}

		challenges := protected.Group("/challenges")
		{
			challenges.PUT("/:id", h.Challenge.Update)
			challenges.DELETE("/:id", h.Challenge.Delete)
			challenges.POST("/:id/join", h.Challenge.Join)
			challenges.POST("/:id/leave", h.Challenge.Leave)
			challenges.PUT("/:id/progress", h.Challenge.UpdateProgress)
			challenges.POST("/:id/complete", h.Challenge.Complete)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/count", h.Notification.Count)
			notifications.PUT("/read-all", h.Notification.MarkAllRead)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
			notifications.DELETE("/:id", h.Notification.Delete)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin(services.User))
		{
			admin.GET("/users", h.Admin.ListUsers)
			admin.GET("/users/:id", h.Admin.GetUser)
			admin.PUT("/users/:id", h.Admin.UpdateUser)
			admin.DELETE("/users/:id", h.Admin.DeleteUser)
			admin.GET("/groups", h.Admin.ListGroups)
			admin.POST("/groups/:id/members", h.Admin.AddGroupMember)
			admin.DELETE("/groups/:id/members/:userId", h.Admin.RemoveGroupMember)
			admin.GET("/catches", h.Admin.ListCatches)
			admin.DELETE("/content/:type/:id", h.Admin.DeleteContent)
		}
	}
}
