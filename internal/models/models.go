package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================
// Error body
// ============================================

type ErrorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    *string   `json:"avatar,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty" binding:"omitempty,min=2"`
	Avatar *string `json:"avatar,omitempty"`
}

type AdminUpdateUserRequest struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=2"`
	Avatar  *string `json:"avatar,omitempty"`
	IsAdmin *bool   `json:"isAdmin,omitempty"`
}

// ============================================
// Group DTOs
// ============================================

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type InviteRequest struct {
	Email     string `json:"email" binding:"required,email"`
	ExpiresIn *int   `json:"expiresIn,omitempty" binding:"omitempty,min=1,max=30"`
}

type AddMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

// ============================================
// Catch DTOs
// ============================================

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CatchLocation struct {
	Name        string       `json:"name" binding:"required"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type WeatherRequest struct {
	Temperature *decimal.Decimal `json:"temperature,omitempty"`
	Conditions  *string          `json:"conditions,omitempty"`
}

type CatchRequest struct {
	Species           string          `json:"species" binding:"required"`
	Weight            decimal.Decimal `json:"weight"`
	Length            decimal.Decimal `json:"length"`
	Location          CatchLocation   `json:"location"`
	Date              time.Time       `json:"date" binding:"required"`
	Photos            []string        `json:"photos"`
	FeaturePhotoIndex int             `json:"featurePhotoIndex" binding:"min=0"`
	Weather           *WeatherRequest `json:"weather,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	SharedWithGroups  []string        `json:"sharedWithGroups"`
}

type WeatherResponse struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Conditions  *string  `json:"conditions,omitempty"`
}

type CatchResponse struct {
	ID                string           `json:"id"`
	UserID            string           `json:"userId"`
	Species           string           `json:"species"`
	Weight            float64          `json:"weight"`
	Length            float64          `json:"length"`
	Location          CatchLocation    `json:"location"`
	Date              time.Time        `json:"date"`
	Photos            []string         `json:"photos"`
	FeaturePhotoIndex int              `json:"featurePhotoIndex"`
	Weather           *WeatherResponse `json:"weather,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	SharedWithGroups  []string         `json:"sharedWithGroups"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentUser struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

type CommentResponse struct {
	ID        string      `json:"id"`
	CatchID   string      `json:"catchId"`
	Content   string      `json:"content"`
	User      CommentUser `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ============================================
// Event DTOs
// ============================================

type EventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	Location    string    `json:"location" binding:"required"`
	Description *string   `json:"description,omitempty"`
}

type AddParticipantRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type EventResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Location     string    `json:"location"`
	Date         time.Time `json:"date"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ============================================
// Challenge DTOs
// ============================================

type ChallengeTarget struct {
	Species *string `json:"species,omitempty"`
	Metric  *string `json:"metric,omitempty" binding:"omitempty,oneof=weight length"`
	Count   *int    `json:"count,omitempty" binding:"omitempty,min=1"`
}

type ChallengeRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Type        string          `json:"type" binding:"required,oneof=biggest_catch species_variety total_weight"`
	Target      ChallengeTarget `json:"target"`
	StartDate   time.Time       `json:"startDate" binding:"required"`
	EndDate     time.Time       `json:"endDate" binding:"required"`
}

type ProgressRequest struct {
	Progress decimal.Decimal `json:"progress"`
}

type CompleteChallengeRequest struct {
	WinnerID *string `json:"winnerId,omitempty"`
}

type ChallengeParticipantResponse struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Progress float64   `json:"progress"`
	JoinedAt time.Time `json:"joinedAt"`
}

type ChallengeResponse struct {
	ID           string                         `json:"id"`
	GroupID      string                         `json:"groupId"`
	CreatedBy    *string                        `json:"createdBy,omitempty"`
	Title        string                         `json:"title"`
	Description  string                         `json:"description"`
	Type         string                         `json:"type"`
	Target       ChallengeTarget                `json:"target"`
	StartDate    time.Time                      `json:"startDate"`
	EndDate      time.Time                      `json:"endDate"`
	Completed    bool                           `json:"completed"`
	WinnerID     *string                        `json:"winnerId,omitempty"`
	CompletedAt  *time.Time                     `json:"completedAt,omitempty"`
	Participants []ChallengeParticipantResponse `json:"participants"`
	CreatedAt    time.Time                      `json:"createdAt"`
}

// ============================================
// Notification DTOs
// ============================================

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type NotificationCountResponse struct {
	Unread int `json:"unread"`
}
