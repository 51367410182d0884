package service

import (
	"context"
	"fmt"
	"log"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/repository"
)

// Content types accepted by AdminService.DeleteContent.
const (
	ContentCatch   = "catch"
	ContentComment = "comment"
	ContentGroup   = "group"
	ContentEvent   = "event"
)

type AdminService interface {
	ListUsers(ctx context.Context) ([]*repository.User, error)
	GetUser(ctx context.Context, id string) (*repository.User, error)
	UpdateUser(ctx context.Context, id string, name, avatar *string, isAdmin *bool) (*repository.User, error)
	DeleteUser(ctx context.Context, actorID, id string) error

	ListGroups(ctx context.Context) ([]*repository.Group, error)
	AddGroupMember(ctx context.Context, groupID, userID string) (*repository.Group, error)
	RemoveGroupMember(ctx context.Context, groupID, userID string) (*repository.Group, error)

	ListCatches(ctx context.Context) ([]*repository.Catch, error)
	DeleteContent(ctx context.Context, contentType, id string) error
}

type adminService struct {
	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	catchRepo   repository.CatchRepository
	commentRepo repository.CommentRepository
	eventRepo   repository.EventRepository
	groups      GroupService
	users       UserService
}

func NewAdminService(
	userRepo repository.UserRepository,
	groupRepo repository.GroupRepository,
	catchRepo repository.CatchRepository,
	commentRepo repository.CommentRepository,
	eventRepo repository.EventRepository,
	groups GroupService,
	users UserService,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		groupRepo:   groupRepo,
		catchRepo:   catchRepo,
		commentRepo: commentRepo,
		eventRepo:   eventRepo,
		groups:      groups,
		users:       users,
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]*repository.User, error) {
	return s.userRepo.FindAll(ctx)
}

func (s *adminService) GetUser(ctx context.Context, id string) (*repository.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *adminService) UpdateUser(ctx context.Context, id string, name, avatar *string, isAdmin *bool) (*repository.User, error) {
	user, err := s.users.Update(ctx, id, name, avatar)
	if err != nil {
		return nil, err
	}
	if isAdmin == nil || *isAdmin == user.IsAdmin {
		return user, nil
	}

	user.IsAdmin = *isAdmin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	log.Printf("[Admin] user %s isAdmin=%t", id, user.IsAdmin)
	return user, nil
}

// DeleteUser removes the account and its group memberships. A user who is
// the only admin of a group with other members must hand over first; groups
// where they are the only member go away with them.
//
// The steps do not share a transaction since groups and users sit behind
// different pools. Each step leaves the group consistent, and a failed call
// can be repeated: it resumes from the groups the user still belongs to.
func (s *adminService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperrors.Validation("You cannot delete your own account")
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}

	groups, err := s.groupRepo.FindByUserID(ctx, id)
	if err != nil {
		return fmt.Errorf("find groups: %w", err)
	}
	for _, g := range groups {
		if g.IsAdmin(id) && len(g.Admins) == 1 && len(g.Members) > 1 {
			return apperrors.Validation(fmt.Sprintf("User is the last admin of group %q", g.Name))
		}
	}

	for _, g := range groups {
		if len(g.Members) == 1 {
			if err := s.groups.AdminDelete(ctx, g.ID); err != nil {
				return err
			}
			continue
		}
		if _, err := s.groups.AdminRemoveMember(ctx, g.ID, id); err != nil {
			return err
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		log.Printf("[Admin] ⚠️ user %s left %d groups but was not deleted: %v", id, len(groups), err)
		return fmt.Errorf("delete user: %w", err)
	}
	log.Printf("[Admin] deleted user %s", id)
	return nil
}

func (s *adminService) ListGroups(ctx context.Context) ([]*repository.Group, error) {
	return s.groupRepo.FindAll(ctx)
}

func (s *adminService) AddGroupMember(ctx context.Context, groupID, userID string) (*repository.Group, error) {
	return s.groups.AdminAddMember(ctx, groupID, userID)
}

func (s *adminService) RemoveGroupMember(ctx context.Context, groupID, userID string) (*repository.Group, error) {
	return s.groups.AdminRemoveMember(ctx, groupID, userID)
}

func (s *adminService) ListCatches(ctx context.Context) ([]*repository.Catch, error) {
	return s.catchRepo.FindAll(ctx)
}

func (s *adminService) DeleteContent(ctx context.Context, contentType, id string) error {
	switch contentType {
	case ContentCatch:
		c, err := s.catchRepo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("find catch: %w", err)
		}
		if c == nil {
			return apperrors.NotFound("Catch not found")
		}
		return s.catchRepo.Delete(ctx, id)

	case ContentComment:
		c, err := s.commentRepo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("find comment: %w", err)
		}
		if c == nil {
			return apperrors.NotFound("Comment not found")
		}
		return s.commentRepo.Delete(ctx, id)

	case ContentGroup:
		return s.groups.AdminDelete(ctx, id)

	case ContentEvent:
		e, err := s.eventRepo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("find event: %w", err)
		}
		if e == nil {
			return apperrors.NotFound("Event not found")
		}
		return s.eventRepo.Delete(ctx, id)
	}
	return apperrors.Validation("Invalid content type")
}
