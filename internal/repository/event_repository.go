package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID           string
	UserID       string
	Title        string
	Description  *string
	Location     string
	EventDate    time.Time
	Participants []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (e *Event) HasParticipant(userID string) bool {
	return contains(e.Participants, userID)
}

type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	FindByID(ctx context.Context, id string) (*Event, error)
	FindForUser(ctx context.Context, userID string) ([]*Event, error)
	FindAll(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, eventID, userID string) (bool, error)
	RemoveParticipant(ctx context.Context, eventID, userID string) error
}

type pgEventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &pgEventRepository{pool: pool}
}

const eventSelect = `
	SELECT e.id, e.user_id, e.title, e.description, e.location, e.event_date,
		ARRAY(SELECT p.user_id::text FROM event_participants p WHERE p.event_id = e.id ORDER BY p.joined_at),
		e.created_at, e.updated_at
	FROM events e`

func scanEvent(row pgx.Row) (*Event, error) {
	e := &Event{}
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Location, &e.EventDate,
		&e.Participants, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if e.Participants == nil {
		e.Participants = []string{}
	}
	return e, nil
}

// Create stores the event and registers its owner as the first participant.
func (r *pgEventRepository) Create(ctx context.Context, e *Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO events (user_id, title, description, location, event_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query, e.UserID, e.Title, e.Description, e.Location, e.EventDate).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO event_participants (event_id, user_id) VALUES ($1, $2)`, e.ID, e.UserID,
	); err != nil {
		return err
	}

	e.Participants = []string{e.UserID}
	return tx.Commit(ctx)
}

func (r *pgEventRepository) FindByID(ctx context.Context, id string) (*Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
	if isNotFound(err) {
		return nil, nil
	}
	return e, err
}

func (r *pgEventRepository) FindForUser(ctx context.Context, userID string) ([]*Event, error) {
	query := eventSelect + `
		WHERE e.user_id = $1
		   OR EXISTS (SELECT 1 FROM event_participants p WHERE p.event_id = e.id AND p.user_id = $1)
		ORDER BY e.event_date ASC`
	return r.query(ctx, query, userID)
}

func (r *pgEventRepository) FindAll(ctx context.Context) ([]*Event, error) {
	return r.query(ctx, eventSelect+` ORDER BY e.event_date ASC`)
}

func (r *pgEventRepository) query(ctx context.Context, query string, args ...interface{}) ([]*Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *pgEventRepository) Update(ctx context.Context, e *Event) error {
	query := `
		UPDATE events SET title = $2, description = $3, location = $4, event_date = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, e.ID, e.Title, e.Description, e.Location, e.EventDate).Scan(&e.UpdatedAt)
}

func (r *pgEventRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}

func (r *pgEventRepository) AddParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO event_participants (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		eventID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgEventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	return err
}
