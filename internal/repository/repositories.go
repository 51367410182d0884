package repository

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	// pgxpool
	UserRepo         UserRepository
	CatchRepo        CatchRepository
	CommentRepo      CommentRepository
	EventRepo        EventRepository
	NotificationRepo NotificationRepository

	// sql.DB
	GroupRepo      GroupRepository
	InvitationRepo InvitationRepository
	ChallengeRepo  ChallengeRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sql.DB) *Repositories {
	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		CatchRepo:        NewCatchRepository(pool),
		CommentRepo:      NewCommentRepository(pool),
		EventRepo:        NewEventRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),

		GroupRepo:      NewGroupRepository(db),
		InvitationRepo: NewInvitationRepository(db),
		ChallengeRepo:  NewChallengeRepository(db),
	}
}
