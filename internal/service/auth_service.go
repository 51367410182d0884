package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/config"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = apperrors.Unauthorized("Invalid email or password")
	ErrInvalidToken       = apperrors.Unauthorized("Invalid or expired token")
)

// Claims is what the API reads back out of an access token.
type Claims struct {
	UserID string
	Email  string
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*repository.User, string, string, error)
	Login(ctx context.Context, email, password string) (*repository.User, string, string, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseToken(token string) (*Claims, error)
}

type authService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository) AuthService {
	return &authService{cfg: cfg, userRepo: userRepo, now: time.Now}
}

// DefaultAvatar is the generated avatar for users without one.
func DefaultAvatar(name string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(name)
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*repository.User, string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", "", fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return nil, "", "", apperrors.Conflict("User already exists")
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, "", "", err
	}

	avatar := DefaultAvatar(name)
	user := &repository.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Avatar:   &avatar,
		IsAdmin:  false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", "", apperrors.Conflict("User already exists")
		}
		return nil, "", "", fmt.Errorf("failed to create user: %w", err)
	}

	accessToken, refreshToken, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	log.Printf("[Auth] Registered %s", user.ID)
	return user, accessToken, refreshToken, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*repository.User, string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", "", fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}
	return user, accessToken, refreshToken, nil
}

// RefreshToken rotates the refresh token: the presented one is always
// consumed.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	rt, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("find refresh token: %w", err)
	}
	if rt == nil {
		return "", "", ErrInvalidToken
	}

	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return "", "", fmt.Errorf("delete refresh token: %w", err)
	}
	if s.now().After(rt.ExpiresAt) {
		return "", "", ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil {
		return "", "", fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return "", "", ErrInvalidToken
	}

	return s.generateTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return &Claims{UserID: userID, Email: email}, nil
}

func (s *authService) generateTokens(ctx context.Context, user *repository.User) (string, string, error) {
	now := s.now()
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   now.Add(time.Hour * time.Duration(s.cfg.JWTExpiry)).Unix(),
		"iat":   now.Unix(),
	})

	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", err
	}

	rt := &repository.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(time.Hour * 24 * time.Duration(s.cfg.RefreshExpiry)),
	}
	if err := s.userRepo.SaveRefreshToken(ctx, rt); err != nil {
		return "", "", err
	}

	return accessTokenString, rt.Token, nil
}
