package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ChallengeType string

const (
	ChallengeBiggestCatch   ChallengeType = "biggest_catch"
	ChallengeSpeciesVariety ChallengeType = "species_variety"
	ChallengeTotalWeight    ChallengeType = "total_weight"
)

func (t ChallengeType) Valid() bool {
	switch t {
	case ChallengeBiggestCatch, ChallengeSpeciesVariety, ChallengeTotalWeight:
		return true
	}
	return false
}

type Challenge struct {
	ID            string
	GroupID       string
	CreatedBy     *string
	Title         string
	Description   string
	Type          ChallengeType
	TargetSpecies *string
	TargetMetric  *string
	TargetCount   *int
	StartDate     time.Time
	EndDate       time.Time
	Completed     bool
	WinnerID      *string
	CompletedAt   *time.Time
	Participants  []*ChallengeParticipant
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Challenge) Participant(userID string) *ChallengeParticipant {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// Leader returns the participant with the highest progress, or nil when
// nobody has joined. Ties go to whoever joined first.
func (c *Challenge) Leader() *ChallengeParticipant {
	var best *ChallengeParticipant
	for _, p := range c.Participants {
		if best == nil || p.Progress.GreaterThan(best.Progress) {
			best = p
		}
	}
	return best
}

type ChallengeParticipant struct {
	UserID   string
	Name     string
	Progress decimal.Decimal
	JoinedAt time.Time
}

type ChallengeRepository interface {
	Create(ctx context.Context, c *Challenge) error
	FindByID(ctx context.Context, id string) (*Challenge, error)
	FindByGroupID(ctx context.Context, groupID string) ([]*Challenge, error)
	FindEndedIncomplete(ctx context.Context, now time.Time) ([]*Challenge, error)
	Update(ctx context.Context, c *Challenge) error
	Complete(ctx context.Context, id string, winnerID *string, at time.Time) error
	Delete(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, challengeID, userID string) (bool, error)
	RemoveParticipant(ctx context.Context, challengeID, userID string) error
	UpdateProgress(ctx context.Context, challengeID, userID string, progress decimal.Decimal) error
}

type challengeRepository struct {
	db *sql.DB
}

func NewChallengeRepository(db *sql.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

const challengeColumns = `id, group_id, created_by, title, description, type, target_species, target_metric,
	target_count, start_date, end_date, completed, winner_id, completed_at, created_at, updated_at`

func scanChallenge(row rowScanner) (*Challenge, error) {
	c := &Challenge{}
	var targetCount sql.NullInt64
	err := row.Scan(
		&c.ID, &c.GroupID, &c.CreatedBy, &c.Title, &c.Description, &c.Type,
		&c.TargetSpecies, &c.TargetMetric, &targetCount, &c.StartDate, &c.EndDate,
		&c.Completed, &c.WinnerID, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if targetCount.Valid {
		n := int(targetCount.Int64)
		c.TargetCount = &n
	}
	c.Participants = []*ChallengeParticipant{}
	return c, nil
}

func (r *challengeRepository) Create(ctx context.Context, c *Challenge) error {
	query := `
		INSERT INTO challenges (group_id, created_by, title, description, type, target_species,
			target_metric, target_count, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		c.GroupID, c.CreatedBy, c.Title, c.Description, c.Type, c.TargetSpecies,
		c.TargetMetric, c.TargetCount, c.StartDate, c.EndDate,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}
	if c.Participants == nil {
		c.Participants = []*ChallengeParticipant{}
	}
	return nil
}

func (r *challengeRepository) FindByID(ctx context.Context, id string) (*Challenge, error) {
	c, err := scanChallenge(r.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, []*Challenge{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *challengeRepository) FindByGroupID(ctx context.Context, groupID string) ([]*Challenge, error) {
	return r.queryChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE group_id = $1 ORDER BY created_at DESC`, groupID)
}

// FindEndedIncomplete lists challenges whose end date has passed but which
// have not been completed yet.
func (r *challengeRepository) FindEndedIncomplete(ctx context.Context, now time.Time) ([]*Challenge, error) {
	return r.queryChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE completed = FALSE AND end_date < $1 ORDER BY end_date`, now)
}

func (r *challengeRepository) queryChallenges(ctx context.Context, query string, args ...interface{}) ([]*Challenge, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	challenges := []*Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadParticipants(ctx, challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

func (r *challengeRepository) loadParticipants(ctx context.Context, challenges []*Challenge) error {
	if len(challenges) == 0 {
		return nil
	}
	byID := make(map[string]*Challenge, len(challenges))
	ids := make([]string, 0, len(challenges))
	for _, c := range challenges {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	query := `
		SELECT cp.challenge_id, cp.user_id, u.name, cp.progress, cp.joined_at
		FROM challenge_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.challenge_id::text = ANY($1)
		ORDER BY cp.joined_at`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var challengeID string
		p := &ChallengeParticipant{}
		if err := rows.Scan(&challengeID, &p.UserID, &p.Name, &p.Progress, &p.JoinedAt); err != nil {
			return err
		}
		if c, ok := byID[challengeID]; ok {
			c.Participants = append(c.Participants, p)
		}
	}
	return rows.Err()
}

func (r *challengeRepository) Update(ctx context.Context, c *Challenge) error {
	query := `
		UPDATE challenges SET title = $2, description = $3, target_species = $4, target_metric = $5,
			target_count = $6, start_date = $7, end_date = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowContext(ctx, query,
		c.ID, c.Title, c.Description, c.TargetSpecies, c.TargetMetric, c.TargetCount, c.StartDate, c.EndDate,
	).Scan(&c.UpdatedAt)
}

func (r *challengeRepository) Complete(ctx context.Context, id string, winnerID *string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE challenges SET completed = TRUE, winner_id = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $1`,
		id, winnerID, at,
	)
	return err
}

func (r *challengeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	return err
}

func (r *challengeRepository) AddParticipant(ctx context.Context, challengeID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO challenge_participants (challenge_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		challengeID, userID,
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

func (r *challengeRepository) RemoveParticipant(ctx context.Context, challengeID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID,
	)
	return err
}

func (r *challengeRepository) UpdateProgress(ctx context.Context, challengeID, userID string, progress decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE challenge_participants SET progress = $3 WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID, progress,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
