package socket

import (
	"context"
	"errors"
	"strings"
)

const (
	groupRoomPrefix = "group:"
	userRoomPrefix  = "user:"
)

var ErrRoomDenied = errors.New("not allowed to join room")

func GroupRoom(groupID string) string { return groupRoomPrefix + groupID }

func UserRoom(userID string) string { return userRoomPrefix + userID }

// RoomAuthorizer decides whether userID may subscribe to room.
type RoomAuthorizer func(ctx context.Context, userID, room string) error

// MembershipChecker is satisfied by the group repository.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// NewRoomAuthorizer allows a user's own room and the rooms of groups they
// belong to. Anything else is denied.
func NewRoomAuthorizer(members MembershipChecker) RoomAuthorizer {
	return func(ctx context.Context, userID, room string) error {
		switch {
		case strings.HasPrefix(room, userRoomPrefix):
			if strings.TrimPrefix(room, userRoomPrefix) == userID {
				return nil
			}
		case strings.HasPrefix(room, groupRoomPrefix):
			groupID := strings.TrimPrefix(room, groupRoomPrefix)
			if groupID == "" {
				return ErrRoomDenied
			}
			ok, err := members.IsMember(ctx, groupID, userID)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
		return ErrRoomDenied
	}
}

func denyAll(context.Context, string, string) error { return ErrRoomDenied }
