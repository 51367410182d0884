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
)

type EventInput struct {
	Title       string
	Description *string
	Location    string
	Date        time.Time
}

func (in *EventInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.Validation("Title is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return apperrors.Validation("Location is required")
	}
	if in.Date.IsZero() {
		return apperrors.Validation("Date is required")
	}
	return nil
}

type EventService interface {
	List(ctx context.Context, userID string) ([]*repository.Event, error)
	Create(ctx context.Context, userID string, in *EventInput) (*repository.Event, error)
	Get(ctx context.Context, actorID, eventID string) (*repository.Event, error)
	Update(ctx context.Context, actorID, eventID string, in *EventInput) (*repository.Event, error)
	Delete(ctx context.Context, actorID, eventID string) error
	AddParticipant(ctx context.Context, actorID, eventID, email string) (*repository.Event, error)
	RemoveParticipant(ctx context.Context, actorID, eventID, userID string) (*repository.Event, error)
}

type eventService struct {
	eventRepo repository.EventRepository
	userRepo  repository.UserRepository
	notifSvc  *notification.Service
}

func NewEventService(eventRepo repository.EventRepository, userRepo repository.UserRepository, notifSvc *notification.Service) EventService {
	return &eventService{eventRepo: eventRepo, userRepo: userRepo, notifSvc: notifSvc}
}

func (s *eventService) load(ctx context.Context, eventID string) (*repository.Event, error) {
	e, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	if e == nil {
		return nil, apperrors.NotFound("Event not found")
	}
	return e, nil
}

func (s *eventService) List(ctx context.Context, userID string) ([]*repository.Event, error) {
	return s.eventRepo.FindForUser(ctx, userID)
}

func (s *eventService) Create(ctx context.Context, userID string, in *EventInput) (*repository.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	e := &repository.Event{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		EventDate:   in.Date,
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

func (s *eventService) Get(ctx context.Context, actorID, eventID string) (*repository.Event, error) {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := permission.EventViewer(actorID, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *eventService) Update(ctx context.Context, actorID, eventID string, in *EventInput) (*repository.Event, error) {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := permission.EventOwner(actorID, e); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	e.Title = strings.TrimSpace(in.Title)
	e.Description = in.Description
	e.Location = strings.TrimSpace(in.Location)
	e.EventDate = in.Date
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

func (s *eventService) Delete(ctx context.Context, actorID, eventID string) error {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return err
	}
	if err := permission.EventOwner(actorID, e); err != nil {
		return err
	}
	return s.eventRepo.Delete(ctx, eventID)
}

func (s *eventService) AddParticipant(ctx context.Context, actorID, eventID, addr string) (*repository.Event, error) {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := permission.EventParticipantAdd(actorID, e); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(addr))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User not found")
	}
	if e.HasParticipant(user.ID) {
		return nil, apperrors.Conflict("User is already a participant")
	}

	added, err := s.eventRepo.AddParticipant(ctx, eventID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("add participant: %w", err)
	}
	if !added {
		return nil, apperrors.Conflict("User is already a participant")
	}

	addedBy := "Someone"
	if actor, err := s.userRepo.FindByID(ctx, actorID); err == nil && actor != nil {
		addedBy = actor.Name
	}
	if err := s.notifSvc.SendEventAdded(ctx, user.ID, e.ID, e.Title, addedBy); err != nil {
		log.Printf("[Event] notify participant: %v", err)
	}

	return s.load(ctx, eventID)
}

func (s *eventService) RemoveParticipant(ctx context.Context, actorID, eventID, userID string) (*repository.Event, error) {
	e, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := permission.EventParticipantRemove(actorID, userID, e); err != nil {
		return nil, err
	}
	if !e.HasParticipant(userID) {
		return nil, apperrors.NotFound("User is not a participant")
	}
	if err := s.eventRepo.RemoveParticipant(ctx, eventID, userID); err != nil {
		return nil, fmt.Errorf("remove participant: %w", err)
	}
	return s.load(ctx, eventID)
}
