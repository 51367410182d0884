package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/notification"
	"github.com/fishlog/fishlog-backend/internal/permission"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/socket"
	"github.com/shopspring/decimal"
)

type ChallengeInput struct {
	Title         string
	Description   string
	Type          repository.ChallengeType
	TargetSpecies *string
	TargetMetric  *string
	TargetCount   *int
	StartDate     time.Time
	EndDate       time.Time
}

func (in *ChallengeInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.Validation("Title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return apperrors.Validation("Description is required")
	}
	if !in.Type.Valid() {
		return apperrors.Validation("Type must be biggest_catch, species_variety or total_weight")
	}
	if in.TargetMetric != nil && *in.TargetMetric != "weight" && *in.TargetMetric != "length" {
		return apperrors.Validation("Target metric must be weight or length")
	}
	if in.TargetCount != nil && *in.TargetCount < 1 {
		return apperrors.Validation("Target count must be at least 1")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return apperrors.Validation("Start and end dates are required")
	}
	if !in.StartDate.Before(in.EndDate) {
		return apperrors.Validation("Start date must be before end date")
	}
	return nil
}

var errChallengeCompleted = apperrors.Validation("Challenge has already been completed")

type ChallengeService interface {
	ListForGroup(ctx context.Context, actorID, groupID string) ([]*repository.Challenge, error)
	Create(ctx context.Context, actorID, groupID string, in *ChallengeInput) (*repository.Challenge, error)
	Update(ctx context.Context, actorID, challengeID string, in *ChallengeInput) (*repository.Challenge, error)
	Delete(ctx context.Context, actorID, challengeID string) error
	Join(ctx context.Context, actorID, challengeID string) (*repository.Challenge, error)
	Leave(ctx context.Context, actorID, challengeID string) (*repository.Challenge, error)
	UpdateProgress(ctx context.Context, actorID, challengeID string, progress decimal.Decimal) (*repository.Challenge, error)
	Complete(ctx context.Context, actorID, challengeID string, winnerID *string) (*repository.Challenge, error)
	CompleteExpired(ctx context.Context) (int, error)
}

type challengeService struct {
	challengeRepo repository.ChallengeRepository
	groupRepo     repository.GroupRepository
	notifSvc      *notification.Service
	broadcaster   *socket.Broadcaster
	now           func() time.Time
}

func NewChallengeService(
	challengeRepo repository.ChallengeRepository,
	groupRepo repository.GroupRepository,
	notifSvc *notification.Service,
	broadcaster *socket.Broadcaster,
) ChallengeService {
	return &challengeService{
		challengeRepo: challengeRepo,
		groupRepo:     groupRepo,
		notifSvc:      notifSvc,
		broadcaster:   broadcaster,
		now:           time.Now,
	}
}

// standings orders participants by progress, highest first.
func standings(c *repository.Challenge) *repository.Challenge {
	sort.SliceStable(c.Participants, func(i, j int) bool {
		return c.Participants[i].Progress.GreaterThan(c.Participants[j].Progress)
	})
	return c
}

func (s *challengeService) group(ctx context.Context, groupID string) (*repository.Group, error) {
	g, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	if g == nil {
		return nil, apperrors.NotFound("Group not found")
	}
	return g, nil
}

// load returns the challenge and its group.
func (s *challengeService) load(ctx context.Context, challengeID string) (*repository.Challenge, *repository.Group, error) {
	c, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, nil, fmt.Errorf("find challenge: %w", err)
	}
	if c == nil {
		return nil, nil, apperrors.NotFound("Challenge not found")
	}
	g, err := s.group(ctx, c.GroupID)
	if err != nil {
		return nil, nil, err
	}
	return c, g, nil
}

func (s *challengeService) reload(ctx context.Context, challengeID string) (*repository.Challenge, error) {
	c, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("find challenge: %w", err)
	}
	if c == nil {
		return nil, apperrors.NotFound("Challenge not found")
	}
	standings(c)
	s.broadcaster.BroadcastChallengeUpdated(c.GroupID, c)
	return c, nil
}

func (s *challengeService) ListForGroup(ctx context.Context, actorID, groupID string) ([]*repository.Challenge, error) {
	g, err := s.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := permission.GroupMember(actorID, g); err != nil {
		return nil, err
	}
	challenges, err := s.challengeRepo.FindByGroupID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, c := range challenges {
		standings(c)
	}
	return challenges, nil
}

func (s *challengeService) Create(ctx context.Context, actorID, groupID string, in *ChallengeInput) (*repository.Challenge, error) {
	g, err := s.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := permission.GroupMember(actorID, g); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &repository.Challenge{GroupID: groupID, CreatedBy: &actorID}
	applyChallenge(c, in)
	if err := s.challengeRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	s.broadcaster.BroadcastChallengeUpdated(groupID, c)
	return c, nil
}

func applyChallenge(c *repository.Challenge, in *ChallengeInput) {
	c.Title = strings.TrimSpace(in.Title)
	c.Description = strings.TrimSpace(in.Description)
	c.Type = in.Type
	c.TargetSpecies = in.TargetSpecies
	c.TargetMetric = in.TargetMetric
	c.TargetCount = in.TargetCount
	c.StartDate = in.StartDate
	c.EndDate = in.EndDate
}

func (s *challengeService) Update(ctx context.Context, actorID, challengeID string, in *ChallengeInput) (*repository.Challenge, error) {
	c, g, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if err := permission.ChallengeManage(actorID, c, g); err != nil {
		return nil, err
	}
	if c.Completed {
		return nil, errChallengeCompleted
	}
	// the type is fixed once participants may have progress against it
	in.Type = c.Type
	if err := in.validate(); err != nil {
		return nil, err
	}

	applyChallenge(c, in)
	if err := s.challengeRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update challenge: %w", err)
	}
	return s.reload(ctx, challengeID)
}

func (s *challengeService) Delete(ctx context.Context, actorID, challengeID string) error {
	c, g, err := s.load(ctx, challengeID)
	if err != nil {
		return err
	}
	if err := permission.ChallengeManage(actorID, c, g); err != nil {
		return err
	}
	return s.challengeRepo.Delete(ctx, challengeID)
}

func (s *challengeService) Join(ctx context.Context, actorID, challengeID string) (*repository.Challenge, error) {
	c, g, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if err := permission.GroupMember(actorID, g); err != nil {
		return nil, err
	}
	if c.Completed {
		return nil, errChallengeCompleted
	}

	added, err := s.challengeRepo.AddParticipant(ctx, challengeID, actorID)
	if err != nil {
		return nil, fmt.Errorf("join challenge: %w", err)
	}
	if !added {
		return nil, apperrors.Conflict("You have already joined this challenge")
	}
	return s.reload(ctx, challengeID)
}

func (s *challengeService) Leave(ctx context.Context, actorID, challengeID string) (*repository.Challenge, error) {
	c, _, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.Participant(actorID) == nil {
		return nil, apperrors.NotFound("You are not participating in this challenge")
	}
	if c.Completed {
		return nil, errChallengeCompleted
	}
	if err := s.challengeRepo.RemoveParticipant(ctx, challengeID, actorID); err != nil {
		return nil, fmt.Errorf("leave challenge: %w", err)
	}
	return s.reload(ctx, challengeID)
}

func (s *challengeService) UpdateProgress(ctx context.Context, actorID, challengeID string, progress decimal.Decimal) (*repository.Challenge, error) {
	if progress.IsNegative() {
		return nil, apperrors.Validation("Progress cannot be negative")
	}
	c, _, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.Completed {
		return nil, errChallengeCompleted
	}
	if c.Participant(actorID) == nil {
		return nil, apperrors.Forbidden("Only participants can update their progress")
	}

	if err := s.challengeRepo.UpdateProgress(ctx, challengeID, actorID, progress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Forbidden("Only participants can update their progress")
		}
		return nil, fmt.Errorf("update progress: %w", err)
	}
	return s.reload(ctx, challengeID)
}

func (s *challengeService) Complete(ctx context.Context, actorID, challengeID string, winnerID *string) (*repository.Challenge, error) {
	c, g, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if err := permission.ChallengeManage(actorID, c, g); err != nil {
		return nil, err
	}
	if c.Completed {
		return nil, errChallengeCompleted
	}
	if winnerID != nil && c.Participant(*winnerID) == nil {
		return nil, apperrors.Validation("Winner must be a participant")
	}
	if err := s.complete(ctx, c, winnerID); err != nil {
		return nil, err
	}
	return s.reload(ctx, challengeID)
}

// complete closes the challenge. Without an explicit winner the participant
// with the highest progress wins; a challenge nobody joined has no winner.
func (s *challengeService) complete(ctx context.Context, c *repository.Challenge, winnerID *string) error {
	if winnerID == nil {
		if leader := c.Leader(); leader != nil {
			id := leader.UserID
			winnerID = &id
		}
	}

	if err := s.challengeRepo.Complete(ctx, c.ID, winnerID, s.now()); err != nil {
		return fmt.Errorf("complete challenge: %w", err)
	}

	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	if err := s.notifSvc.SendChallengeCompleted(ctx, ids, c.ID, c.GroupID, c.Title, winnerID); err != nil {
		log.Printf("[Challenge] notify participants: %v", err)
	}
	return nil
}

// CompleteExpired closes every challenge whose end date has passed.
func (s *challengeService) CompleteExpired(ctx context.Context) (int, error) {
	ended, err := s.challengeRepo.FindEndedIncomplete(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("find ended challenges: %w", err)
	}

	done := 0
	for _, c := range ended {
		if err := s.complete(ctx, c, nil); err != nil {
			log.Printf("[Challenge] auto-complete %s failed: %v", c.ID, err)
			continue
		}
		done++
	}
	return done, nil
}
