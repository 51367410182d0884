package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/metrics"
	"github.com/fishlog/fishlog-backend/internal/notification"
	"github.com/fishlog/fishlog-backend/internal/permission"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/socket"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// GroupCache is the read-path cache for group details. *db.RedisDB satisfies it.
type GroupCache interface {
	SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetCache(ctx context.Context, key string, dest interface{}) error
	InvalidateCache(ctx context.Context, pattern string) error
}

// GroupDetail is a group with member profiles and its open invitations.
type GroupDetail struct {
	*repository.Group
	MemberDetails      []*repository.GroupMember `json:"memberDetails"`
	PendingInvitations []*repository.Invitation  `json:"pendingInvitations"`
}

type GroupService interface {
	Create(ctx context.Context, creatorID, name, description string) (*repository.Group, error)
	Get(ctx context.Context, actorID, groupID string) (*GroupDetail, error)
	ListForUser(ctx context.Context, userID string) ([]*repository.Group, error)
	Update(ctx context.Context, actorID, groupID string, name, description *string) (*repository.Group, error)
	Delete(ctx context.Context, actorID, groupID string) error

	AddMember(ctx context.Context, actorID, groupID, userID string) (*repository.Group, error)
	RemoveMember(ctx context.Context, actorID, groupID, targetID string) (*repository.Group, error)
	UpdateMemberRole(ctx context.Context, actorID, groupID, targetID, role string) (*repository.Group, error)

	// Platform administration; skips the group-level actor checks.
	AdminAddMember(ctx context.Context, groupID, userID string) (*repository.Group, error)
	AdminRemoveMember(ctx context.Context, groupID, userID string) (*repository.Group, error)
	AdminDelete(ctx context.Context, groupID string) error

	InvalidateGroup(ctx context.Context, groupID string)
}

type groupService struct {
	groupRepo      repository.GroupRepository
	userRepo       repository.UserRepository
	invitationRepo repository.InvitationRepository
	notifSvc       *notification.Service
	broadcaster    *socket.Broadcaster
	cache          GroupCache
	cacheTTL       time.Duration
	now            func() time.Time
}

func NewGroupService(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	invitationRepo repository.InvitationRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
	cache GroupCache,
	cacheTTL time.Duration,
) GroupService {
	return &groupService{
		groupRepo:      groupRepo,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		notifSvc:       notifSvc,
		broadcaster:    broadcaster,
		cache:          cache,
		cacheTTL:       cacheTTL,
		now:            time.Now,
	}
}

func groupCacheKey(groupID string) string {
	return "group:" + groupID
}

func (s *groupService) Create(ctx context.Context, creatorID, name, description string) (*repository.Group, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, apperrors.Validation("Group name is required")
	}
	if description == "" {
		return nil, apperrors.Validation("Group description is required")
	}

	group := &repository.Group{
		Name:        name,
		Description: description,
		Admins:      []string{creatorID},
		Members:     []string{creatorID},
		CreatedBy:   &creatorID,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	log.Printf("[Group] Created %s by %s", group.ID, creatorID)
	return group, nil
}

// load fetches a group from the database, never from the cache.
func (s *groupService) load(ctx context.Context, groupID string) (*repository.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	if group == nil {
		return nil, apperrors.NotFound("Group not found")
	}
	return group, nil
}

func (s *groupService) Get(ctx context.Context, actorID, groupID string) (*GroupDetail, error) {
	if s.cache != nil {
		var cached GroupDetail
		err := s.cache.GetCache(ctx, groupCacheKey(groupID), &cached)
		if err == nil && cached.Group != nil {
			if err := permission.GroupMember(actorID, cached.Group); err != nil {
				return nil, err
			}
			// entries may have expired since they were cached
			cached.PendingInvitations = openInvitations(cached.PendingInvitations, s.now())
			return &cached, nil
		}
	}

	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := permission.GroupMember(actorID, group); err != nil {
		return nil, err
	}

	members, err := s.groupRepo.FindMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	invitations, err := s.invitationRepo.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("find invitations: %w", err)
	}

	detail := &GroupDetail{Group: group, MemberDetails: members, PendingInvitations: openInvitations(invitations, s.now())}
	if s.cache != nil {
		if err := s.cache.SetCache(ctx, groupCacheKey(groupID), detail, s.cacheTTL); err != nil {
			log.Printf("[Group] cache set failed for %s: %v", groupID, err)
		}
	}
	return detail, nil
}

func openInvitations(invitations []*repository.Invitation, now time.Time) []*repository.Invitation {
	open := []*repository.Invitation{}
	for _, inv := range invitations {
		if inv.IsPending() && !inv.IsExpired(now) {
			open = append(open, inv)
		}
	}
	return open
}

func (s *groupService) InvalidateGroup(ctx context.Context, groupID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCache(ctx, groupCacheKey(groupID)); err != nil {
		log.Printf("[Group] cache invalidation failed for %s: %v", groupID, err)
	}
}

func (s *groupService) ListForUser(ctx context.Context, userID string) ([]*repository.Group, error) {
	return s.groupRepo.FindByUserID(ctx, userID)
}

func (s *groupService) Update(ctx context.Context, actorID, groupID string, name, description *string) (*repository.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := permission.GroupAdmin(actorID, group); err != nil {
		return nil, err
	}

	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, apperrors.Validation("Group name cannot be empty")
		}
		group.Name = n
	}
	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			return nil, apperrors.Validation("Group description cannot be empty")
		}
		group.Description = d
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}

	s.InvalidateGroup(ctx, groupID)
	s.broadcaster.BroadcastGroupUpdated(groupID, group, actorID)
	return group, nil
}

func (s *groupService) Delete(ctx context.Context, actorID, groupID string) error {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return err
	}
	if err := permission.GroupAdmin(actorID, group); err != nil {
		return err
	}
	return s.delete(ctx, group, actorID)
}

func (s *groupService) AdminDelete(ctx context.Context, groupID string) error {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return err
	}
	return s.delete(ctx, group, "")
}

func (s *groupService) delete(ctx context.Context, group *repository.Group, actorID string) error {
	if err := s.groupRepo.Delete(ctx, group.ID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.InvalidateGroup(ctx, group.ID)
	s.broadcaster.BroadcastGroupDeleted(group.ID, group.Members, actorID)
	log.Printf("[Group] Deleted %s", group.ID)
	return nil
}

func (s *groupService) AddMember(ctx context.Context, actorID, groupID, userID string) (*repository.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := permission.GroupAdmin(actorID, group); err != nil {
		return nil, err
	}
	return s.addMember(ctx, group, userID, actorID)
}

func (s *groupService) AdminAddMember(ctx context.Context, groupID, userID string) (*repository.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.addMember(ctx, group, userID, "")
}

func (s *groupService) addMember(ctx context.Context, group *repository.Group, userID, actorID string) (*repository.Group, error) {
	if group.IsMember(userID) {
		return group, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User not found")
	}

	added, err := s.groupRepo.AddMember(ctx, group.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	if added {
		metrics.MembershipChange("added")
		s.InvalidateGroup(ctx, group.ID)
		s.broadcaster.BroadcastMemberAdded(group.ID, userID, actorID)
	}
	return s.load(ctx, group.ID)
}

func (s *groupService) RemoveMember(ctx context.Context, actorID, groupID, targetID string) (*repository.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := permission.RemoveMember(actorID, targetID, group); err != nil {
		return nil, err
	}
	return s.removeMember(ctx, group, targetID, actorID)
}

func (s *groupService) AdminRemoveMember(ctx context.Context, groupID, userID string) (*repository.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.removeMember(ctx, group, userID, "")
}

// removeMember checks the last-admin rule up front for a clean error; the
// repository re-checks it against the row it updates.
func (s *groupService) removeMember(ctx context.Context, group *repository.Group, targetID, actorID string) (*repository.Group, error) {
	if !group.IsMember(targetID) {
		return nil, apperrors.NotFound("User is not a member of this group")
	}
	if group.IsAdmin(targetID) && len(group.Admins) == 1 {
		return nil, apperrors.ErrLastAdmin
	}

	if err := s.groupRepo.RemoveMember(ctx, group.ID, targetID); err != nil {
		if errors.Is(err, repository.ErrSoleAdmin) {
			return nil, apperrors.ErrLastAdmin
		}
		return nil, fmt.Errorf("remove member: %w", err)
	}

	metrics.MembershipChange("removed")
	s.InvalidateGroup(ctx, group.ID)
	s.broadcaster.BroadcastMemberRemoved(group.ID, targetID, actorID)
	if actorID != targetID {
		if err := s.notifSvc.SendMemberRemoved(ctx, targetID, group.ID, group.Name); err != nil {
			log.Printf("[Group] notify removed member: %v", err)
		}
	}

	return s.load(ctx, group.ID)
}

func (s *groupService) UpdateMemberRole(ctx context.Context, actorID, groupID, targetID, role string) (*repository.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := permission.GroupAdmin(actorID, group); err != nil {
		return nil, err
	}
	if !group.IsMember(targetID) {
		return nil, apperrors.NotFound("User is not a member of this group")
	}

	switch role {
	case RoleAdmin:
		if group.IsAdmin(targetID) {
			return group, nil
		}
		if err := s.groupRepo.AddAdmin(ctx, groupID, targetID); err != nil {
			return nil, fmt.Errorf("add admin: %w", err)
		}
	case RoleMember:
		if !group.IsAdmin(targetID) {
			return group, nil
		}
		if len(group.Admins) == 1 {
			return nil, apperrors.ErrLastAdmin
		}
		if err := s.groupRepo.RemoveAdmin(ctx, groupID, targetID); err != nil {
			if errors.Is(err, repository.ErrSoleAdmin) {
				return nil, apperrors.ErrLastAdmin
			}
			return nil, fmt.Errorf("remove admin: %w", err)
		}
	default:
		return nil, apperrors.Validation("Role must be admin or member")
	}

	s.InvalidateGroup(ctx, groupID)
	updated, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastGroupUpdated(groupID, updated, actorID)
	return updated, nil
}

func isNotPending(err error) bool {
	return errors.Is(err, repository.ErrInvitationNotPending)
}
