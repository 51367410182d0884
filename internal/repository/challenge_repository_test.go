package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var challengeCols = []string{
	"id", "group_id", "created_by", "title", "description", "type", "target_species", "target_metric",
	"target_count", "start_date", "end_date", "completed", "winner_id", "completed_at", "created_at", "updated_at",
}

func TestChallengeRepository_FindByID(t *testing.T) {
	t.Run("loads participants with progress", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChallengeRepository(db)
		now := time.Now()

		mock.ExpectQuery("SELECT id, group_id").
			WithArgs("c1").
			WillReturnRows(sqlmock.NewRows(challengeCols).AddRow(
				"c1", "g1", "u1", "Biggest bass", "June", "biggest_catch", "Bass", "weight",
				nil, now, now.Add(24*time.Hour), false, nil, nil, now, now,
			))
		mock.ExpectQuery("SELECT cp.challenge_id").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"challenge_id", "user_id", "name", "progress", "joined_at"}).
				AddRow("c1", "u1", "Ann", "2.5", now).
				AddRow("c1", "u2", "Bob", "4.75", now))

		c, err := repo.FindByID(context.Background(), "c1")

		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, ChallengeBiggestCatch, c.Type)
		assert.Nil(t, c.TargetCount)
		require.Len(t, c.Participants, 2)
		assert.True(t, decimal.RequireFromString("4.75").Equal(c.Participants[1].Progress))
		assert.Equal(t, "u2", c.Leader().UserID)
		assert.NotNil(t, c.Participant("u1"))
		assert.Nil(t, c.Participant("u3"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing challenge returns nil", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChallengeRepository(db)

		mock.ExpectQuery("SELECT id, group_id").
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(challengeCols))

		c, err := repo.FindByID(context.Background(), "nope")

		require.NoError(t, err)
		assert.Nil(t, c)
	})
}

func TestChallengeRepository_UpdateProgress(t *testing.T) {
	t.Run("updates participant row", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChallengeRepository(db)
		progress := decimal.RequireFromString("3.2")

		mock.ExpectExec("UPDATE challenge_participants SET progress").
			WithArgs("c1", "u1", progress).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateProgress(context.Background(), "c1", "u1", progress))
	})

	t.Run("non participant gets ErrNoRows", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewChallengeRepository(db)

		mock.ExpectExec("UPDATE challenge_participants SET progress").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateProgress(context.Background(), "c1", "u9", decimal.NewFromInt(1))

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestChallengeType_Valid(t *testing.T) {
	assert.True(t, ChallengeTotalWeight.Valid())
	assert.True(t, ChallengeSpeciesVariety.Valid())
	assert.False(t, ChallengeType("longest_nap").Valid())
}
