package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

type Invitation struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	GroupID   string           `json:"groupId"`
	GroupName string           `json:"groupName,omitempty"`
	Status    InvitationStatus `json:"status"`
	ExpiresAt time.Time        `json:"expiresAt"`
	UserID    *string          `json:"userId,omitempty"`
	InvitedBy *string          `json:"invitedBy,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (i *Invitation) IsPending() bool {
	return i.Status == InvitationPending
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

type InvitationRepository interface {
	Create(ctx context.Context, invitation *Invitation) error
	FindByID(ctx context.Context, id string) (*Invitation, error)
	FindPending(ctx context.Context, email, groupID string) (*Invitation, error)
	FindPendingByEmail(ctx context.Context, email string, now time.Time) ([]*Invitation, error)
	FindByGroup(ctx context.Context, groupID string) ([]*Invitation, error)
	Accept(ctx context.Context, id, userID string) error
	Decline(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type invitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

const invitationSelect = `
	SELECT i.id, i.email, i.group_id, g.name, i.status, i.expires_at, i.user_id, i.invited_by, i.created_at, i.updated_at
	FROM invitations i
	JOIN groups g ON g.id = i.group_id`

func scanInvitation(row rowScanner) (*Invitation, error) {
	inv := &Invitation{}
	err := row.Scan(
		&inv.ID, &inv.Email, &inv.GroupID, &inv.GroupName, &inv.Status,
		&inv.ExpiresAt, &inv.UserID, &inv.InvitedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, invitation *Invitation) error {
	if invitation.Status == "" {
		invitation.Status = InvitationPending
	}
	query := `
		INSERT INTO invitations (email, group_id, status, expires_at, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		invitation.Email, invitation.GroupID, invitation.Status, invitation.ExpiresAt, invitation.InvitedBy,
	).Scan(&invitation.ID, &invitation.CreatedAt, &invitation.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *invitationRepository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, invitationSelect+` WHERE i.id = $1`, id))
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// FindPending returns the pending invitation for (email, group) regardless of
// expiry; callers decide what an expired one means.
func (r *invitationRepository) FindPending(ctx context.Context, email, groupID string) (*Invitation, error) {
	query := invitationSelect + `
	WHERE LOWER(i.email) = LOWER($1) AND i.group_id = $2 AND i.status = 'pending'`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, email, groupID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) FindPendingByEmail(ctx context.Context, email string, now time.Time) ([]*Invitation, error) {
	query := invitationSelect + `
	WHERE LOWER(i.email) = LOWER($1) AND i.status = 'pending' AND i.expires_at > $2
	ORDER BY i.created_at DESC`
	return r.queryInvitations(ctx, query, email, now)
}

func (r *invitationRepository) FindByGroup(ctx context.Context, groupID string) ([]*Invitation, error) {
	query := invitationSelect + `
	WHERE i.group_id = $1
	ORDER BY i.created_at DESC`
	return r.queryInvitations(ctx, query, groupID)
}

func (r *invitationRepository) queryInvitations(ctx context.Context, query string, args ...interface{}) ([]*Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := []*Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// Accept marks the invitation accepted and adds the user to the group in a
// single transaction. The status update is conditional on the row still being
// pending, so a concurrent accept or decline makes this return
// ErrInvitationNotPending and nothing is written.
func (r *invitationRepository) Accept(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var groupID string
	err = tx.QueryRowContext(ctx, `
		UPDATE invitations SET status = 'accepted', user_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING group_id`,
		id, userID,
	).Scan(&groupID)
	if err == sql.ErrNoRows {
		return ErrInvitationNotPending
	}
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		groupID, userID,
	); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	return tx.Commit()
}

func (r *invitationRepository) Decline(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'declined', user_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvitationNotPending
	}
	return nil
}

func (r *invitationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	return err
}

// DeleteExpired removes pending invitations that expired before the cutoff.
func (r *invitationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM invitations WHERE status = 'pending' AND expires_at < $1`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
