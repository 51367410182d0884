package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Group is a fishing group. Admins is stored as a plain id list on the group
// row; Members is loaded from group_members.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Admins      []string  `json:"admins"`
	Members     []string  `json:"members"`
	CreatedBy   *string   `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (g *Group) IsMember(userID string) bool {
	return contains(g.Members, userID)
}

func (g *Group) IsAdmin(userID string) bool {
	return contains(g.Admins, userID)
}

// GroupMember is a member joined with their public profile.
type GroupMember struct {
	UserID   string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Avatar   *string   `json:"avatar,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	FindByID(ctx context.Context, id string) (*Group, error)
	FindByUserID(ctx context.Context, userID string) ([]*Group, error)
	FindAll(ctx context.Context) ([]*Group, error)
	FindMembers(ctx context.Context, groupID string) ([]*GroupMember, error)
	Update(ctx context.Context, group *Group) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, userID string) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID string) error
	AddAdmin(ctx context.Context, groupID, userID string) error
	RemoveAdmin(ctx context.Context, groupID, userID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	HasMemberWithEmail(ctx context.Context, groupID, email string) (bool, error)
}

type groupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) GroupRepository {
	return &groupRepository{db: db}
}

const groupSelect = `
	SELECT g.id, g.name, g.description, g.admins,
		ARRAY(SELECT m.user_id::text FROM group_members m WHERE m.group_id = g.id ORDER BY m.joined_at) AS members,
		g.created_by, g.created_at, g.updated_at
	FROM groups g`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGroup(row rowScanner) (*Group, error) {
	g := &Group{}
	err := row.Scan(
		&g.ID, &g.Name, &g.Description,
		pq.Array(&g.Admins), pq.Array(&g.Members),
		&g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if g.Admins == nil {
		g.Admins = []string{}
	}
	if g.Members == nil {
		g.Members = []string{}
	}
	return g, nil
}

// Create inserts the group and its initial members in one transaction.
func (r *groupRepository) Create(ctx context.Context, group *Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO groups (name, description, admins, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		group.Name, group.Description, pq.Array(group.Admins), group.CreatedBy,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	for _, userID := range group.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
			group.ID, userID,
		); err != nil {
			return fmt.Errorf("insert member %s: %w", userID, err)
		}
	}

	return tx.Commit()
}

func (r *groupRepository) FindByID(ctx context.Context, id string) (*Group, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx, groupSelect+` WHERE g.id = $1`, id))
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *groupRepository) FindByUserID(ctx context.Context, userID string) ([]*Group, error) {
	query := groupSelect + `
	JOIN group_members gm ON gm.group_id = g.id
	WHERE gm.user_id = $1
	ORDER BY g.created_at DESC`
	return r.queryGroups(ctx, query, userID)
}

func (r *groupRepository) FindAll(ctx context.Context) ([]*Group, error) {
	return r.queryGroups(ctx, groupSelect+` ORDER BY g.created_at DESC`)
}

func (r *groupRepository) queryGroups(ctx context.Context, query string, args ...interface{}) ([]*Group, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *groupRepository) FindMembers(ctx context.Context, groupID string) ([]*GroupMember, error) {
	query := `
		SELECT u.id, u.name, u.email, u.avatar, gm.joined_at
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*GroupMember{}
	for rows.Next() {
		m := &GroupMember{}
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.Avatar, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *groupRepository) Update(ctx context.Context, group *Group) error {
	query := `
		UPDATE groups SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowContext(ctx, query, group.ID, group.Name, group.Description).Scan(&group.UpdatedAt)
}

// Delete removes the group. Invitations, memberships and challenges cascade
// through foreign keys; catches keep existing but stop being shared with it.
func (r *groupRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE catches SET shared_with_groups = array_remove(shared_with_groups, $1), updated_at = NOW()
		WHERE $1 = ANY(shared_with_groups)`, id); err != nil {
		return fmt.Errorf("unshare catches: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	return tx.Commit()
}

// AddMember is idempotent; it reports whether a new row was inserted.
func (r *groupRepository) AddMember(ctx context.Context, groupID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		groupID, userID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// dropAdmin removes $2 from admins unless it is the only one left. The row
// lock it takes serializes concurrent removals on the same group.
const dropAdmin = `
	UPDATE groups SET admins = array_remove(admins, $2::text), updated_at = NOW()
	WHERE id = $1 AND (NOT $2::text = ANY(admins) OR cardinality(admins) > 1)`

// RemoveMember drops the user from admins and deletes the membership row in
// one transaction. It returns ErrSoleAdmin when the user is the last admin.
func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, dropAdmin, groupID, userID)
	if err != nil {
		return fmt.Errorf("update admins: %w", err)
	}
	if err := soleAdminCheck(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	return tx.Commit()
}

func (r *groupRepository) AddAdmin(ctx context.Context, groupID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE groups SET admins = array_append(admins, $2::text), updated_at = NOW()
		WHERE id = $1 AND NOT $2::text = ANY(admins)`,
		groupID, userID,
	)
	return err
}

func (r *groupRepository) RemoveAdmin(ctx context.Context, groupID, userID string) error {
	res, err := r.db.ExecContext(ctx, dropAdmin, groupID, userID)
	if err != nil {
		return err
	}
	return soleAdminCheck(res)
}

func soleAdminCheck(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSoleAdmin
	}
	return nil
}

func (r *groupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *groupRepository) HasMemberWithEmail(ctx context.Context, groupID, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM group_members gm
			JOIN users u ON u.id = gm.user_id
			WHERE gm.group_id = $1 AND LOWER(u.email) = LOWER($2)
		)`,
		groupID, email,
	).Scan(&exists)
	return exists, err
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
