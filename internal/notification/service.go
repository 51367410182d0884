package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/socket"
)

// Service persists notifications and pushes them to connected clients. A nil
// *Service ignores every call.
type Service struct {
	notificationRepo repository.NotificationRepository
	broadcaster      *socket.Broadcaster
}

func NewService(notificationRepo repository.NotificationRepository) *Service {
	return &Service{notificationRepo: notificationRepo}
}

func (s *Service) SetBroadcaster(b *socket.Broadcaster) {
	s.broadcaster = b
}

func (s *Service) send(ctx context.Context, n *repository.Notification) error {
	if s == nil || n.UserID == "" {
		return nil
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	s.broadcaster.SendNotification(n.UserID, map[string]interface{}{
		"id":        n.ID,
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"read":      n.Read,
		"createdAt": n.CreatedAt,
	})
	return nil
}

func (s *Service) sendMany(ctx context.Context, userIDs []string, skip string, build func(userID string) *repository.Notification) error {
	var errs []error
	for _, id := range userIDs {
		if id == "" || id == skip {
			continue
		}
		if err := s.send(ctx, build(id)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) SendInvitationReceived(ctx context.Context, userID, groupID, groupName, invitationID string) error {
	return s.send(ctx, &repository.Notification{
		UserID:  userID,
		Type:    repository.NotificationInvitationReceived,
		Title:   "Group Invitation",
		Message: fmt.Sprintf("You have been invited to join %s", groupName),
		Data: map[string]interface{}{
			"groupId":      groupID,
			"invitationId": invitationID,
			"action":       "view_invitation",
		},
	})
}

func (s *Service) SendInvitationAccepted(ctx context.Context, adminIDs []string, userID, userName, groupID, groupName string) error {
	return s.sendMany(ctx, adminIDs, userID, func(adminID string) *repository.Notification {
		return &repository.Notification{
			UserID:  adminID,
			Type:    repository.NotificationInvitationAccepted,
			Title:   "Invitation Accepted",
			Message: fmt.Sprintf("%s joined %s", userName, groupName),
			Data: map[string]interface{}{
				"groupId": groupID,
				"userId":  userID,
			},
		}
	})
}

func (s *Service) SendMemberRemoved(ctx context.Context, userID, groupID, groupName string) error {
	return s.send(ctx, &repository.Notification{
		UserID:  userID,
		Type:    repository.NotificationMemberRemoved,
		Title:   "Removed From Group",
		Message: fmt.Sprintf("You were removed from %s", groupName),
		Data:    map[string]interface{}{"groupId": groupID},
	})
}

func (s *Service) SendCatchComment(ctx context.Context, ownerID, commenterName, catchID, species string) error {
	return s.send(ctx, &repository.Notification{
		UserID:  ownerID,
		Type:    repository.NotificationCatchComment,
		Title:   "New Comment",
		Message: fmt.Sprintf("%s commented on your %s", commenterName, species),
		Data: map[string]interface{}{
			"catchId": catchID,
			"action":  "view_catch",
		},
	})
}

func (s *Service) SendEventAdded(ctx context.Context, userID, eventID, eventTitle, addedByName string) error {
	return s.send(ctx, &repository.Notification{
		UserID:  userID,
		Type:    repository.NotificationEventAdded,
		Title:   "Added To Event",
		Message: fmt.Sprintf("%s added you to %s", addedByName, eventTitle),
		Data:    map[string]interface{}{"eventId": eventID},
	})
}

func (s *Service) SendChallengeCompleted(ctx context.Context, participantIDs []string, challengeID, groupID, title string, winnerID *string) error {
	return s.sendMany(ctx, participantIDs, "", func(userID string) *repository.Notification {
		msg := fmt.Sprintf("The challenge %s has ended", title)
		if winnerID != nil && *winnerID == userID {
			msg = fmt.Sprintf("You won the challenge %s!", title)
		}
		data := map[string]interface{}{
			"challengeId": challengeID,
			"groupId":     groupID,
		}
		if winnerID != nil {
			data["winnerId"] = *winnerID
		}
		return &repository.Notification{
			UserID:  userID,
			Type:    repository.NotificationChallengeCompleted,
			Title:   "Challenge Completed",
			Message: msg,
			Data:    data,
		}
	})
}
