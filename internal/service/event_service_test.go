package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/notification"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		svc := NewEventService(new(MockEventRepository), new(MockUserRepository), nil)
		_, err := svc.Create(ctx, "u1", &EventInput{Title: "", Location: "Lake", Date: time.Now()})
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		_, err = svc.Create(ctx, "u1", &EventInput{Title: "Derby", Location: "Lake"})
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("creates", func(t *testing.T) {
		events := new(MockEventRepository)
		svc := NewEventService(events, new(MockUserRepository), nil)
		events.On("Create", mock.Anything, mock.MatchedBy(func(e *repository.Event) bool {
			return e.UserID == "u1" && e.Title == "Derby"
		})).Return(nil).Once()

		e, err := svc.Create(ctx, "u1", &EventInput{Title: " Derby ", Location: "Lake", Date: time.Now()})
		require.NoError(t, err)
		assert.Equal(t, "Derby", e.Title)
		events.AssertExpectations(t)
	})
}

func TestEventService_Access(t *testing.T) {
	ctx := context.Background()
	event := &repository.Event{ID: "e1", UserID: "owner", Title: "Derby", Participants: []string{"owner", "p1"}}

	tests := []struct {
		name    string
		actor   string
		wantErr bool
	}{
		{"owner", "owner", false},
		{"participant", "p1", false},
		{"stranger", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := new(MockEventRepository)
			events.On("FindByID", mock.Anything, "e1").Return(event, nil).Once()
			svc := NewEventService(events, new(MockUserRepository), nil)

			_, err := svc.Get(ctx, tt.actor, "e1")
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperrors.ErrForbidden))
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("participant cannot delete", func(t *testing.T) {
		events := new(MockEventRepository)
		events.On("FindByID", mock.Anything, "e1").Return(event, nil).Once()
		svc := NewEventService(events, new(MockUserRepository), nil)

		assert.True(t, errors.Is(svc.Delete(ctx, "p1", "e1"), apperrors.ErrForbidden))
		events.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestEventService_AddParticipant(t *testing.T) {
	ctx := context.Background()
	newEvent := func() *repository.Event {
		return &repository.Event{ID: "e1", UserID: "owner", Title: "Derby", Participants: []string{"owner", "p1"}}
	}

	t.Run("participant adds by email and the user is notified", func(t *testing.T) {
		events := new(MockEventRepository)
		users := new(MockUserRepository)
		notifs := new(MockNotificationRepository)
		svc := NewEventService(events, users, notification.NewService(notifs))

		after := newEvent()
		after.Participants = append(after.Participants, "u2")
		events.On("FindByID", mock.Anything, "e1").Return(newEvent(), nil).Once()
		users.On("FindByEmail", mock.Anything, "u2@example.com").Return(&repository.User{ID: "u2"}, nil).Once()
		events.On("AddParticipant", mock.Anything, "e1", "u2").Return(true, nil).Once()
		users.On("FindByID", mock.Anything, "p1").Return(&repository.User{ID: "p1", Name: "Pat"}, nil).Once()
		notifs.On("Create", mock.Anything, mock.MatchedBy(func(n *repository.Notification) bool {
			return n.UserID == "u2" && n.Type == repository.NotificationEventAdded && n.Message == "Pat added you to Derby"
		})).Return(nil).Once()
		events.On("FindByID", mock.Anything, "e1").Return(after, nil).Once()

		e, err := svc.AddParticipant(ctx, "p1", "e1", "u2@example.com")
		require.NoError(t, err)
		assert.Contains(t, e.Participants, "u2")
		events.AssertExpectations(t)
		users.AssertExpectations(t)
		notifs.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		events := new(MockEventRepository)
		users := new(MockUserRepository)
		svc := NewEventService(events, users, nil)
		events.On("FindByID", mock.Anything, "e1").Return(newEvent(), nil).Once()
		users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil).Once()

		_, err := svc.AddParticipant(ctx, "owner", "e1", "ghost@example.com")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("already a participant", func(t *testing.T) {
		events := new(MockEventRepository)
		users := new(MockUserRepository)
		svc := NewEventService(events, users, nil)
		events.On("FindByID", mock.Anything, "e1").Return(newEvent(), nil).Once()
		users.On("FindByEmail", mock.Anything, "p1@example.com").Return(&repository.User{ID: "p1"}, nil).Once()

		_, err := svc.AddParticipant(ctx, "owner", "e1", "p1@example.com")
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
		events.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stranger cannot add", func(t *testing.T) {
		events := new(MockEventRepository)
		svc := NewEventService(events, new(MockUserRepository), nil)
		events.On("FindByID", mock.Anything, "e1").Return(newEvent(), nil).Once()

		_, err := svc.AddParticipant(ctx, "x", "e1", "u2@example.com")
		assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	})
}

func TestEventService_RemoveParticipant(t *testing.T) {
	ctx := context.Background()
	newEvent := func() *repository.Event {
		return &repository.Event{ID: "e1", UserID: "owner", Participants: []string{"owner", "p1", "p2"}}
	}

	t.Run("owner cannot be removed", func(t *testing.T) {
		events := new(MockEventRepository)
		events.On("FindByID", mock.Anything, "e1").Return(newEvent(), nil).Once()
		svc := NewEventService(events, new(MockUserRepository), nil)

		_, err := svc.RemoveParticipant(ctx, "owner", "e1", "owner")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("participant leaves", func(t *testing.T) {
		events := new(MockEventRepository)
		events.On("FindByID", mock.Anything, "e1").Return(newEvent(), nil).Twice()
		events.On("RemoveParticipant", mock.Anything, "e1", "p1").Return(nil).Once()
		svc := NewEventService(events, new(MockUserRepository), nil)

		_, err := svc.RemoveParticipant(ctx, "p1", "e1", "p1")
		assert.NoError(t, err)
		events.AssertExpectations(t)
	})

	t.Run("participant cannot remove another", func(t *testing.T) {
		events := new(MockEventRepository)
		events.On("FindByID", mock.Anything, "e1").Return(newEvent(), nil).Once()
		svc := NewEventService(events, new(MockUserRepository), nil)

		_, err := svc.RemoveParticipant(ctx, "p1", "e1", "p2")
		assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	})
}
