package handlers

import (
	"log"
	"net/http"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/models"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Group        *GroupHandler
	Invitation   *InvitationHandler
	Catch        *CatchHandler
	Event        *EventHandler
	Challenge    *ChallengeHandler
	Admin        *AdminHandler
	Notification *NotificationHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		User:         &UserHandler{userService: services.User},
		Group:        &GroupHandler{groupService: services.Group, catchService: services.Catch, challengeService: services.Challenge},
		Invitation:   &InvitationHandler{invitationService: services.Invitation},
		Catch:        &CatchHandler{catchService: services.Catch},
		Event:        &EventHandler{eventService: services.Event},
		Challenge:    &ChallengeHandler{challengeService: services.Challenge},
		Admin:        &AdminHandler{adminService: services.Admin},
		Notification: &NotificationHandler{notificationService: services.Notification},
	}
}

// ============================================
// Errors and binding
// ============================================

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, models.ErrorResponse{Error: models.ErrorBody{Message: message, Status: status}})
}

// handleServiceError maps typed domain errors to their status. Anything else
// is logged and hidden behind a generic 500.
func handleServiceError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		writeError(c, apperrors.HTTPStatus(appErr), appErr.Message)
		return
	}
	log.Printf("❌ [API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	writeError(c, http.StatusInternalServerError, "Internal server error")
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

func toCatchResponse(c *repository.Catch) models.CatchResponse {
	resp := models.CatchResponse{
		ID:                c.ID,
		UserID:            c.UserID,
		Species:           c.Species,
		Weight:            c.Weight.InexactFloat64(),
		Length:            c.Length.InexactFloat64(),
		Location:          models.CatchLocation{Name: c.LocationName},
		Date:              c.CaughtAt,
		Photos:            safeStringSlice(c.Photos),
		FeaturePhotoIndex: c.FeaturePhotoIndex,
		Notes:             c.Notes,
		SharedWithGroups:  safeStringSlice(c.SharedWithGroups),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.Latitude != nil && c.Longitude != nil {
		resp.Location.Coordinates = &models.Coordinates{Lat: *c.Latitude, Lng: *c.Longitude}
	}
	if c.WeatherTemperature.Valid || c.WeatherConditions != nil {
		resp.Weather = &models.WeatherResponse{Conditions: c.WeatherConditions}
		if c.WeatherTemperature.Valid {
			t := c.WeatherTemperature.Decimal.InexactFloat64()
			resp.Weather.Temperature = &t
		}
	}
	return resp
}

func toCommentResponse(c *repository.Comment) models.CommentResponse {
	return models.CommentResponse{
		ID:        c.ID,
		CatchID:   c.CatchID,
		Content:   c.Content,
		User:      models.CommentUser{ID: c.UserID, Name: c.UserName, Avatar: c.UserAvatar},
		CreatedAt: c.CreatedAt,
	}
}

func toEventResponse(e *repository.Event) models.EventResponse {
	return models.EventResponse{
		ID:           e.ID,
		UserID:       e.UserID,
		Title:        e.Title,
		Description:  e.Description,
		Location:     e.Location,
		Date:         e.EventDate,
		Participants: safeStringSlice(e.Participants),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toChallengeResponse(ch *repository.Challenge) models.ChallengeResponse {
	resp := models.ChallengeResponse{
		ID:          ch.ID,
		GroupID:     ch.GroupID,
		CreatedBy:   ch.CreatedBy,
		Title:       ch.Title,
		Description: ch.Description,
		Type:        string(ch.Type),
		Target: models.ChallengeTarget{
			Species: ch.TargetSpecies,
			Metric:  ch.TargetMetric,
			Count:   ch.TargetCount,
		},
		StartDate:    ch.StartDate,
		EndDate:      ch.EndDate,
		Completed:    ch.Completed,
		WinnerID:     ch.WinnerID,
		CompletedAt:  ch.CompletedAt,
		Participants: make([]models.ChallengeParticipantResponse, len(ch.Participants)),
		CreatedAt:    ch.CreatedAt,
	}
	for i, p := range ch.Participants {
		resp.Participants[i] = models.ChallengeParticipantResponse{
			UserID:   p.UserID,
			Name:     p.Name,
			Progress: p.Progress.InexactFloat64(),
			JoinedAt: p.JoinedAt,
		}
	}
	return resp
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}

// Helper to ensure nil slices become empty slices
func safeStringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func mapAll[T any, R any](items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
