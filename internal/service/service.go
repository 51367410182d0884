package service

import (
	"github.com/fishlog/fishlog-backend/internal/config"
	"github.com/fishlog/fishlog-backend/internal/notification"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/socket"
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	User         UserService
	Group        GroupService
	Invitation   InvitationService
	Catch        CatchService
	Event        EventService
	Challenge    ChallengeService
	Admin        AdminService
	Notification NotificationService
	Broadcaster  *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services.
// Cache and Mailer may be nil.
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	NotifSvc    *notification.Service
	Mailer      InvitationMailer
	Broadcaster *socket.Broadcaster
	Cache       GroupCache
}

func NewServices(deps *ServiceDeps) *Services {
	// GroupService first, invitations and admin go through it
	groupService := NewGroupService(
		deps.Repos.GroupRepo,
		deps.Repos.UserRepo,
		deps.Repos.InvitationRepo,
		deps.NotifSvc,
		deps.Broadcaster,
		deps.Cache,
		deps.Config.GroupCacheTTL,
	)
	userService := NewUserService(deps.Repos.UserRepo)

	return &Services{
		Auth:  NewAuthService(deps.Config, deps.Repos.UserRepo),
		User:  userService,
		Group: groupService,
		Invitation: NewInvitationService(
			deps.Repos.InvitationRepo,
			deps.Repos.GroupRepo,
			deps.Repos.UserRepo,
			groupService,
			deps.NotifSvc,
			deps.Mailer,
			deps.Broadcaster,
			deps.Config.FrontendURL,
		),
		Catch: NewCatchService(
			deps.Repos.CatchRepo,
			deps.Repos.CommentRepo,
			deps.Repos.GroupRepo,
			deps.NotifSvc,
			deps.Broadcaster,
		),
		Event: NewEventService(deps.Repos.EventRepo, deps.Repos.UserRepo, deps.NotifSvc),
		Challenge: NewChallengeService(
			deps.Repos.ChallengeRepo,
			deps.Repos.GroupRepo,
			deps.NotifSvc,
			deps.Broadcaster,
		),
		Admin: NewAdminService(
			deps.Repos.UserRepo,
			deps.Repos.GroupRepo,
			deps.Repos.CatchRepo,
			deps.Repos.CommentRepo,
			deps.Repos.EventRepo,
			groupService,
			userService,
		),
		Notification: NewNotificationService(deps.Repos.NotificationRepo),
		Broadcaster:  deps.Broadcaster,
	}
}
