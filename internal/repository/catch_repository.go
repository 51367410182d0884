package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Catch struct {
	ID                 string
	UserID             string
	Species            string
	Weight             decimal.Decimal
	Length             decimal.Decimal
	LocationName       string
	Latitude           *float64
	Longitude          *float64
	CaughtAt           time.Time
	Photos             []string
	FeaturePhotoIndex  int
	WeatherTemperature decimal.NullDecimal
	WeatherConditions  *string
	Notes              *string
	SharedWithGroups   []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (c *Catch) IsSharedWith(groupID string) bool {
	return contains(c.SharedWithGroups, groupID)
}

type CatchRepository interface {
	Create(ctx context.Context, c *Catch) error
	FindByID(ctx context.Context, id string) (*Catch, error)
	FindByUserID(ctx context.Context, userID string) ([]*Catch, error)
	FindByGroupID(ctx context.Context, groupID string) ([]*Catch, error)
	FindAll(ctx context.Context) ([]*Catch, error)
	Update(ctx context.Context, c *Catch) error
	Delete(ctx context.Context, id string) error
}

type pgCatchRepository struct {
	pool *pgxpool.Pool
}

func NewCatchRepository(pool *pgxpool.Pool) CatchRepository {
	return &pgCatchRepository{pool: pool}
}

const catchColumns = `id, user_id, species, weight, length, location_name, latitude, longitude,
	caught_at, photos, feature_photo_index, weather_temperature, weather_conditions, notes,
	shared_with_groups, created_at, updated_at`

func scanCatch(row pgx.Row) (*Catch, error) {
	c := &Catch{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.Species, &c.Weight, &c.Length, &c.LocationName,
		&c.Latitude, &c.Longitude, &c.CaughtAt, &c.Photos, &c.FeaturePhotoIndex,
		&c.WeatherTemperature, &c.WeatherConditions, &c.Notes, &c.SharedWithGroups,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Photos == nil {
		c.Photos = []string{}
	}
	if c.SharedWithGroups == nil {
		c.SharedWithGroups = []string{}
	}
	return c, nil
}

func (r *pgCatchRepository) Create(ctx context.Context, c *Catch) error {
	query := `
		INSERT INTO catches (
			user_id, species, weight, length, location_name, latitude, longitude,
			caught_at, photos, feature_photo_index, weather_temperature, weather_conditions,
			notes, shared_with_groups
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		c.UserID, c.Species, c.Weight, c.Length, c.LocationName, c.Latitude, c.Longitude,
		c.CaughtAt, nonNil(c.Photos), c.FeaturePhotoIndex, c.WeatherTemperature, c.WeatherConditions,
		c.Notes, nonNil(c.SharedWithGroups),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *pgCatchRepository) FindByID(ctx context.Context, id string) (*Catch, error) {
	c, err := scanCatch(r.pool.QueryRow(ctx, `SELECT `+catchColumns+` FROM catches WHERE id = $1`, id))
	if isNotFound(err) {
		return nil, nil
	}
	return c, err
}

func (r *pgCatchRepository) FindByUserID(ctx context.Context, userID string) ([]*Catch, error) {
	return r.query(ctx, `SELECT `+catchColumns+` FROM catches WHERE user_id = $1 ORDER BY caught_at DESC`, userID)
}

func (r *pgCatchRepository) FindByGroupID(ctx context.Context, groupID string) ([]*Catch, error) {
	return r.query(ctx, `SELECT `+catchColumns+` FROM catches WHERE $1 = ANY(shared_with_groups) ORDER BY caught_at DESC`, groupID)
}

func (r *pgCatchRepository) FindAll(ctx context.Context) ([]*Catch, error) {
	return r.query(ctx, `SELECT `+catchColumns+` FROM catches ORDER BY created_at DESC`)
}

func (r *pgCatchRepository) query(ctx context.Context, query string, args ...interface{}) ([]*Catch, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catches := []*Catch{}
	for rows.Next() {
		c, err := scanCatch(rows)
		if err != nil {
			return nil, err
		}
		catches = append(catches, c)
	}
	return catches, rows.Err()
}

func (r *pgCatchRepository) Update(ctx context.Context, c *Catch) error {
	query := `
		UPDATE catches SET
			species = $2, weight = $3, length = $4, location_name = $5, latitude = $6,
			longitude = $7, caught_at = $8, photos = $9, feature_photo_index = $10,
			weather_temperature = $11, weather_conditions = $12, notes = $13,
			shared_with_groups = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		c.ID, c.Species, c.Weight, c.Length, c.LocationName, c.Latitude, c.Longitude,
		c.CaughtAt, nonNil(c.Photos), c.FeaturePhotoIndex, c.WeatherTemperature, c.WeatherConditions,
		c.Notes, nonNil(c.SharedWithGroups),
	).Scan(&c.UpdatedAt)
}

func (r *pgCatchRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM catches WHERE id = $1`, id)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
