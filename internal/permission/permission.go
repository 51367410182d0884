// Package permission holds the authorization predicates used by the service
// layer. Each check looks only at the actor and a loaded resource and returns
// nil to allow or an *apperrors.Error describing the denial.
package permission

import (
	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/repository"
)

var (
	ErrNotGroupMember = apperrors.Forbidden("You are not a member of this group")
	ErrNotGroupAdmin  = apperrors.Forbidden("Only group admins can perform this action")
	ErrNotOwner       = apperrors.Forbidden("You do not own this resource")
	ErrNoAccess       = apperrors.Forbidden("You do not have access to this resource")
)

func GroupMember(actorID string, g *repository.Group) error {
	if g == nil || !g.IsMember(actorID) {
		return ErrNotGroupMember
	}
	return nil
}

func GroupAdmin(actorID string, g *repository.Group) error {
	if g == nil || !g.IsAdmin(actorID) {
		return ErrNotGroupAdmin
	}
	return nil
}

// RemoveMember allows admins to remove anyone and members to remove
// themselves.
func RemoveMember(actorID, targetID string, g *repository.Group) error {
	if actorID == targetID && g != nil && g.IsMember(actorID) {
		return nil
	}
	return GroupAdmin(actorID, g)
}

func CatchOwner(actorID string, c *repository.Catch) error {
	if c == nil || c.UserID != actorID {
		return ErrNotOwner
	}
	return nil
}

// CatchReader allows the owner and any member of a group the catch is shared
// with. memberOf is the set of group ids the actor belongs to.
func CatchReader(actorID string, c *repository.Catch, memberOf map[string]bool) error {
	if c == nil {
		return ErrNoAccess
	}
	if c.UserID == actorID {
		return nil
	}
	for _, gid := range c.SharedWithGroups {
		if memberOf[gid] {
			return nil
		}
	}
	return ErrNoAccess
}

// CommentAdd is a shared action: anyone who can read the catch may comment.
func CommentAdd(actorID string, c *repository.Catch, memberOf map[string]bool) error {
	return CatchReader(actorID, c, memberOf)
}

func CommentDelete(actorID string, comment *repository.Comment, c *repository.Catch) error {
	if comment != nil && comment.UserID == actorID {
		return nil
	}
	if c != nil && c.UserID == actorID {
		return nil
	}
	return ErrNotOwner
}

func EventOwner(actorID string, e *repository.Event) error {
	if e == nil || e.UserID != actorID {
		return ErrNotOwner
	}
	return nil
}

func EventViewer(actorID string, e *repository.Event) error {
	if e != nil && (e.UserID == actorID || e.HasParticipant(actorID)) {
		return nil
	}
	return ErrNoAccess
}

// EventParticipantAdd is shared among the owner and current participants.
func EventParticipantAdd(actorID string, e *repository.Event) error {
	return EventViewer(actorID, e)
}

func EventParticipantRemove(actorID, targetID string, e *repository.Event) error {
	if e == nil {
		return ErrNoAccess
	}
	if targetID == e.UserID {
		return apperrors.Validation("The event owner cannot be removed")
	}
	if actorID == e.UserID || (actorID == targetID && e.HasParticipant(actorID)) {
		return nil
	}
	return ErrNotOwner
}

// ChallengeManage allows the challenge creator or an admin of its group.
func ChallengeManage(actorID string, c *repository.Challenge, g *repository.Group) error {
	if c != nil && c.CreatedBy != nil && *c.CreatedBy == actorID {
		return nil
	}
	if g != nil && g.IsAdmin(actorID) {
		return nil
	}
	return apperrors.Forbidden("Only the challenge creator or a group admin can perform this action")
}
