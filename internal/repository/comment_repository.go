package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Comment struct {
	ID         string
	CatchID    string
	UserID     string
	UserName   string
	UserAvatar *string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id string) (*Comment, error)
	FindByCatchID(ctx context.Context, catchID string) ([]*Comment, error)
	Delete(ctx context.Context, id string) error
}

type pgCommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &pgCommentRepository{pool: pool}
}

const commentSelect = `
	SELECT c.id, c.catch_id, c.user_id, u.name, u.avatar, c.content, c.created_at, c.updated_at
	FROM comments c
	JOIN users u ON u.id = c.user_id`

func scanComment(row pgx.Row) (*Comment, error) {
	c := &Comment{}
	err := row.Scan(&c.ID, &c.CatchID, &c.UserID, &c.UserName, &c.UserAvatar, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgCommentRepository) Create(ctx context.Context, comment *Comment) error {
	query := `
		WITH inserted AS (
			INSERT INTO comments (catch_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, created_at, updated_at
		)
		SELECT i.id, u.name, u.avatar, i.created_at, i.updated_at
		FROM inserted i JOIN users u ON u.id = i.user_id
	`
	return r.pool.QueryRow(ctx, query, comment.CatchID, comment.UserID, comment.Content).
		Scan(&comment.ID, &comment.UserName, &comment.UserAvatar, &comment.CreatedAt, &comment.UpdatedAt)
}

func (r *pgCommentRepository) FindByID(ctx context.Context, id string) (*Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if isNotFound(err) {
		return nil, nil
	}
	return c, err
}

func (r *pgCommentRepository) FindByCatchID(ctx context.Context, catchID string) ([]*Comment, error) {
	rows, err := r.pool.Query(ctx, commentSelect+` WHERE c.catch_id = $1 ORDER BY c.created_at ASC`, catchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *pgCommentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}
