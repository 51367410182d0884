package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/email"
	"github.com/fishlog/fishlog-backend/internal/metrics"
	"github.com/fishlog/fishlog-backend/internal/notification"
	"github.com/fishlog/fishlog-backend/internal/permission"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/socket"
)

const (
	DefaultInvitationDays = 7
	MinInvitationDays     = 1
	MaxInvitationDays     = 30
)

// InvitationMailer queues invitation emails. *email.EmailQueue satisfies it.
type InvitationMailer interface {
	SendGroupInvitation(to string, data email.GroupInvitationData)
}

type InvitationService interface {
	Invite(ctx context.Context, actorID, groupID, email string, expiresInDays *int) (*repository.Invitation, error)
	Accept(ctx context.Context, actorID, actorEmail, invitationID string) (*repository.Group, error)
	Decline(ctx context.Context, actorID, actorEmail, invitationID string) (*repository.Invitation, error)
	ListPendingForEmail(ctx context.Context, email string) ([]*repository.Invitation, error)
	ListForGroup(ctx context.Context, actorID, groupID string) ([]*repository.Invitation, error)
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type invitationService struct {
	invitationRepo repository.InvitationRepository
	groupRepo      repository.GroupRepository
	userRepo       repository.UserRepository
	groups         GroupService
	notifSvc       *notification.Service
	mailer         InvitationMailer
	broadcaster    *socket.Broadcaster
	frontendURL    string
	now            func() time.Time
}

func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	groups GroupService,
	notifSvc *notification.Service,
	mailer InvitationMailer,
	broadcaster *socket.Broadcaster,
	frontendURL string,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		groupRepo:      groupRepo,
		userRepo:       userRepo,
		groups:         groups,
		notifSvc:       notifSvc,
		mailer:         mailer,
		broadcaster:    broadcaster,
		frontendURL:    frontendURL,
		now:            time.Now,
	}
}

func (s *invitationService) Invite(ctx context.Context, actorID, groupID, addr string, expiresInDays *int) (*repository.Invitation, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, apperrors.Validation("Email is required")
	}

	days := DefaultInvitationDays
	if expiresInDays != nil {
		days = *expiresInDays
	}
	if days < MinInvitationDays || days > MaxInvitationDays {
		return nil, apperrors.Validation(fmt.Sprintf("expiresInDays must be between %d and %d", MinInvitationDays, MaxInvitationDays))
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	if group == nil {
		return nil, apperrors.NotFound("Group not found")
	}
	if err := permission.GroupAdmin(actorID, group); err != nil {
		return nil, err
	}

	isMember, err := s.groupRepo.HasMemberWithEmail(ctx, groupID, addr)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if isMember {
		return nil, apperrors.ErrAlreadyMember
	}

	now := s.now()
	existing, err := s.invitationRepo.FindPending(ctx, addr, groupID)
	if err != nil {
		return nil, fmt.Errorf("find pending invitation: %w", err)
	}
	if existing != nil {
		if !existing.IsExpired(now) {
			return nil, apperrors.ErrAlreadyInvited
		}
		// a stale pending row would block the unique index
		if err := s.invitationRepo.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("delete expired invitation: %w", err)
		}
	}

	inv := &repository.Invitation{
		Email:     addr,
		GroupID:   groupID,
		GroupName: group.Name,
		Status:    repository.InvitationPending,
		ExpiresAt: now.Add(time.Duration(days) * 24 * time.Hour),
		InvitedBy: &actorID,
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrAlreadyInvited
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	metrics.InvitationTransition(string(repository.InvitationPending))
	log.Printf("[Invitation] %s invited %s to group %s", actorID, addr, groupID)

	s.groups.InvalidateGroup(ctx, groupID)
	s.broadcaster.BroadcastInvitationCreated(groupID, inv, actorID)
	s.announce(ctx, inv, group, actorID, days)
	return inv, nil
}

// announce tells the invitee through a notification when they already have
// an account and through email when SMTP is configured.
func (s *invitationService) announce(ctx context.Context, inv *repository.Invitation, group *repository.Group, actorID string, days int) {
	if invitee, err := s.userRepo.FindByEmail(ctx, inv.Email); err == nil && invitee != nil {
		if err := s.notifSvc.SendInvitationReceived(ctx, invitee.ID, group.ID, group.Name, inv.ID); err != nil {
			log.Printf("[Invitation] notify invitee: %v", err)
		}
	}

	if s.mailer == nil {
		return
	}
	inviterName := "A FishLog angler"
	if inviter, err := s.userRepo.FindByID(ctx, actorID); err == nil && inviter != nil {
		inviterName = inviter.Name
	}
	s.mailer.SendGroupInvitation(inv.Email, email.GroupInvitationData{
		GroupName:  group.Name,
		InvitedBy:  inviterName,
		InviteURL:  strings.TrimRight(s.frontendURL, "/") + "/groups/invitations",
		ExpiresAt:  inv.ExpiresAt,
		ExpiryDays: days,
	})
}

// resolvable loads the invitation and applies the checks shared by accept
// and decline, in order: existence, addressee, pending.
func (s *invitationService) resolvable(ctx context.Context, actorEmail, invitationID string) (*repository.Invitation, error) {
	inv, err := s.invitationRepo.FindByID(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	if inv == nil {
		return nil, apperrors.NotFound("Invitation not found")
	}
	if !strings.EqualFold(strings.TrimSpace(inv.Email), strings.TrimSpace(actorEmail)) {
		return nil, apperrors.ErrEmailMismatch
	}
	if !inv.IsPending() {
		return nil, apperrors.ErrInvitationProcessed
	}
	return inv, nil
}

func (s *invitationService) Accept(ctx context.Context, actorID, actorEmail, invitationID string) (*repository.Group, error) {
	inv, err := s.resolvable(ctx, actorEmail, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.IsExpired(s.now()) {
		return nil, apperrors.ErrInvitationExpired
	}

	if err := s.invitationRepo.Accept(ctx, inv.ID, actorID); err != nil {
		if isNotPending(err) {
			return nil, apperrors.ErrInvitationProcessed
		}
		return nil, fmt.Errorf("accept invitation: %w", err)
	}

	metrics.InvitationTransition(string(repository.InvitationAccepted))
	metrics.MembershipChange("joined")
	log.Printf("[Invitation] %s accepted invitation %s", actorID, inv.ID)

	s.groups.InvalidateGroup(ctx, inv.GroupID)
	group, err := s.groupRepo.FindByID(ctx, inv.GroupID)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	if group == nil {
		return nil, apperrors.NotFound("Group not found")
	}

	s.broadcaster.BroadcastMemberAdded(group.ID, actorID, actorID)
	userName := actorEmail
	if user, err := s.userRepo.FindByID(ctx, actorID); err == nil && user != nil {
		userName = user.Name
	}
	if err := s.notifSvc.SendInvitationAccepted(ctx, group.Admins, actorID, userName, group.ID, group.Name); err != nil {
		log.Printf("[Invitation] notify admins: %v", err)
	}

	return group, nil
}

func (s *invitationService) Decline(ctx context.Context, actorID, actorEmail, invitationID string) (*repository.Invitation, error) {
	inv, err := s.resolvable(ctx, actorEmail, invitationID)
	if err != nil {
		return nil, err
	}

	if err := s.invitationRepo.Decline(ctx, inv.ID, actorID); err != nil {
		if isNotPending(err) {
			return nil, apperrors.ErrInvitationProcessed
		}
		return nil, fmt.Errorf("decline invitation: %w", err)
	}

	metrics.InvitationTransition(string(repository.InvitationDeclined))
	s.groups.InvalidateGroup(ctx, inv.GroupID)

	inv.Status = repository.InvitationDeclined
	inv.UserID = &actorID
	inv.UpdatedAt = s.now()
	return inv, nil
}

func (s *invitationService) ListPendingForEmail(ctx context.Context, addr string) ([]*repository.Invitation, error) {
	return s.invitationRepo.FindPendingByEmail(ctx, addr, s.now())
}

func (s *invitationService) ListForGroup(ctx context.Context, actorID, groupID string) ([]*repository.Invitation, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	if group == nil {
		return nil, apperrors.NotFound("Group not found")
	}
	if err := permission.GroupAdmin(actorID, group); err != nil {
		return nil, err
	}
	return s.invitationRepo.FindByGroup(ctx, groupID)
}

// PurgeExpired deletes pending invitations that expired more than retention ago.
func (s *invitationService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.invitationRepo.DeleteExpired(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge invitations: %w", err)
	}
	return n, nil
}
