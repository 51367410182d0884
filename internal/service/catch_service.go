package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/notification"
	"github.com/fishlog/fishlog-backend/internal/permission"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/socket"
	"github.com/shopspring/decimal"
)

// CatchInput carries the writable fields of a catch.
type CatchInput struct {
	Species            string
	Weight             decimal.Decimal
	Length             decimal.Decimal
	LocationName       string
	Latitude           *float64
	Longitude          *float64
	CaughtAt           time.Time
	Photos             []string
	FeaturePhotoIndex  int
	WeatherTemperature decimal.NullDecimal
	WeatherConditions  *string
	Notes              *string
	SharedWithGroups   []string
}

func (in *CatchInput) validate() error {
	if strings.TrimSpace(in.Species) == "" {
		return apperrors.Validation("Species is required")
	}
	if !in.Weight.IsPositive() {
		return apperrors.Validation("Weight must be greater than 0")
	}
	if !in.Length.IsPositive() {
		return apperrors.Validation("Length must be greater than 0")
	}
	if strings.TrimSpace(in.LocationName) == "" {
		return apperrors.Validation("Location name is required")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return apperrors.Validation("Latitude must be between -90 and 90")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return apperrors.Validation("Longitude must be between -180 and 180")
	}
	if in.CaughtAt.IsZero() {
		return apperrors.Validation("Date is required")
	}
	if in.FeaturePhotoIndex < 0 {
		return apperrors.Validation("featurePhotoIndex cannot be negative")
	}
	if len(in.Photos) > 0 && in.FeaturePhotoIndex >= len(in.Photos) {
		return apperrors.Validation("featurePhotoIndex is out of range")
	}
	return nil
}

type CatchService interface {
	Create(ctx context.Context, userID string, in *CatchInput) (*repository.Catch, error)
	Get(ctx context.Context, actorID, catchID string) (*repository.Catch, error)
	ListMine(ctx context.Context, userID string) ([]*repository.Catch, error)
	ListForGroup(ctx context.Context, actorID, groupID string) ([]*repository.Catch, error)
	Update(ctx context.Context, actorID, catchID string, in *CatchInput) (*repository.Catch, error)
	Delete(ctx context.Context, actorID, catchID string) error

	AddComment(ctx context.Context, actorID, catchID, content string) (*repository.Comment, error)
	ListComments(ctx context.Context, actorID, catchID string) ([]*repository.Comment, error)
	DeleteComment(ctx context.Context, actorID, commentID string) error
}

type catchService struct {
	catchRepo   repository.CatchRepository
	commentRepo repository.CommentRepository
	groupRepo   repository.GroupRepository
	notifSvc    *notification.Service
	broadcaster *socket.Broadcaster
}

func NewCatchService(
	catchRepo repository.CatchRepository,
	commentRepo repository.CommentRepository,
	groupRepo repository.GroupRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) CatchService {
	return &catchService{
		catchRepo:   catchRepo,
		commentRepo: commentRepo,
		groupRepo:   groupRepo,
		notifSvc:    notifSvc,
		broadcaster: broadcaster,
	}
}

func (s *catchService) memberships(ctx context.Context, userID string) (map[string]bool, error) {
	groups, err := s.groupRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}
	set := make(map[string]bool, len(groups))
	for _, g := range groups {
		set[g.ID] = true
	}
	return set, nil
}

// checkSharing requires the owner to belong to every group the catch is
// shared with and drops duplicates.
func (s *catchService) checkSharing(ctx context.Context, userID string, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return []string{}, nil
	}
	memberOf, err := s.memberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(groupIDs))
	out := make([]string, 0, len(groupIDs))
	for _, gid := range groupIDs {
		if seen[gid] {
			continue
		}
		if !memberOf[gid] {
			return nil, apperrors.Forbidden("You can only share catches with groups you belong to")
		}
		seen[gid] = true
		out = append(out, gid)
	}
	return out, nil
}

func (s *catchService) load(ctx context.Context, catchID string) (*repository.Catch, error) {
	c, err := s.catchRepo.FindByID(ctx, catchID)
	if err != nil {
		return nil, fmt.Errorf("find catch: %w", err)
	}
	if c == nil {
		return nil, apperrors.NotFound("Catch not found")
	}
	return c, nil
}

func (s *catchService) Create(ctx context.Context, userID string, in *CatchInput) (*repository.Catch, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	shared, err := s.checkSharing(ctx, userID, in.SharedWithGroups)
	if err != nil {
		return nil, err
	}

	c := &repository.Catch{UserID: userID}
	apply(c, in, shared)
	if err := s.catchRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create catch: %w", err)
	}

	s.broadcaster.BroadcastCatchShared(shared, c.ID, userID)
	return c, nil
}

func apply(c *repository.Catch, in *CatchInput, shared []string) {
	c.Species = strings.TrimSpace(in.Species)
	c.Weight = in.Weight
	c.Length = in.Length
	c.LocationName = strings.TrimSpace(in.LocationName)
	c.Latitude = in.Latitude
	c.Longitude = in.Longitude
	c.CaughtAt = in.CaughtAt
	c.Photos = in.Photos
	if c.Photos == nil {
		c.Photos = []string{}
	}
	c.FeaturePhotoIndex = in.FeaturePhotoIndex
	c.WeatherTemperature = in.WeatherTemperature
	c.WeatherConditions = in.WeatherConditions
	c.Notes = in.Notes
	c.SharedWithGroups = shared
}

func (s *catchService) Get(ctx context.Context, actorID, catchID string) (*repository.Catch, error) {
	c, err := s.load(ctx, catchID)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, actorID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *catchService) canRead(ctx context.Context, actorID string, c *repository.Catch) error {
	if c.UserID == actorID {
		return nil
	}
	memberOf, err := s.memberships(ctx, actorID)
	if err != nil {
		return err
	}
	return permission.CatchReader(actorID, c, memberOf)
}

func (s *catchService) ListMine(ctx context.Context, userID string) ([]*repository.Catch, error) {
	return s.catchRepo.FindByUserID(ctx, userID)
}

func (s *catchService) ListForGroup(ctx context.Context, actorID, groupID string) ([]*repository.Catch, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	if group == nil {
		return nil, apperrors.NotFound("Group not found")
	}
	if err := permission.GroupMember(actorID, group); err != nil {
		return nil, err
	}
	return s.catchRepo.FindByGroupID(ctx, groupID)
}

func (s *catchService) Update(ctx context.Context, actorID, catchID string, in *CatchInput) (*repository.Catch, error) {
	c, err := s.load(ctx, catchID)
	if err != nil {
		return nil, err
	}
	if err := permission.CatchOwner(actorID, c); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	shared, err := s.checkSharing(ctx, actorID, in.SharedWithGroups)
	if err != nil {
		return nil, err
	}

	previously := c.SharedWithGroups
	apply(c, in, shared)
	if err := s.catchRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update catch: %w", err)
	}

	s.broadcaster.BroadcastCatchShared(newlyShared(previously, shared), c.ID, actorID)
	return c, nil
}

func newlyShared(before, after []string) []string {
	var out []string
	for _, gid := range after {
		if !containsID(before, gid) {
			out = append(out, gid)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *catchService) Delete(ctx context.Context, actorID, catchID string) error {
	c, err := s.load(ctx, catchID)
	if err != nil {
		return err
	}
	if err := permission.CatchOwner(actorID, c); err != nil {
		return err
	}
	return s.catchRepo.Delete(ctx, catchID)
}

func (s *catchService) AddComment(ctx context.Context, actorID, catchID, content string) (*repository.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("Comment content is required")
	}

	c, err := s.load(ctx, catchID)
	if err != nil {
		return nil, err
	}
	memberOf := map[string]bool{}
	if c.UserID != actorID {
		if memberOf, err = s.memberships(ctx, actorID); err != nil {
			return nil, err
		}
	}
	if err := permission.CommentAdd(actorID, c, memberOf); err != nil {
		return nil, err
	}

	comment := &repository.Comment{CatchID: catchID, UserID: actorID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if c.UserID != actorID {
		if err := s.notifSvc.SendCatchComment(ctx, c.UserID, comment.UserName, c.ID, c.Species); err != nil {
			log.Printf("[Catch] notify owner: %v", err)
		}
	}
	s.broadcaster.BroadcastCommentAdded(c.SharedWithGroups, c.ID, comment, actorID)
	return comment, nil
}

func (s *catchService) ListComments(ctx context.Context, actorID, catchID string) ([]*repository.Comment, error) {
	if _, err := s.Get(ctx, actorID, catchID); err != nil {
		return nil, err
	}
	return s.commentRepo.FindByCatchID(ctx, catchID)
}

func (s *catchService) DeleteComment(ctx context.Context, actorID, commentID string) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("find comment: %w", err)
	}
	if comment == nil {
		return apperrors.NotFound("Comment not found")
	}

	c, err := s.catchRepo.FindByID(ctx, comment.CatchID)
	if err != nil {
		return fmt.Errorf("find catch: %w", err)
	}
	if err := permission.CommentDelete(actorID, comment, c); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, commentID)
}
