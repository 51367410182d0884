package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/notification"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var challengeNow = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

type challengeMocks struct {
	challenges *MockChallengeRepository
	groups     *MockGroupRepository
	notifs     *MockNotificationRepository
	svc        ChallengeService
}

func newChallengeMocks() *challengeMocks {
	m := &challengeMocks{
		challenges: new(MockChallengeRepository),
		groups:     new(MockGroupRepository),
		notifs:     new(MockNotificationRepository),
	}
	svc := NewChallengeService(m.challenges, m.groups, notification.NewService(m.notifs), nil)
	svc.(*challengeService).now = func() time.Time { return challengeNow }
	m.svc = svc
	return m
}

func strPtr(s string) *string { return &s }

func bassGroup() *repository.Group {
	return &repository.Group{ID: "g1", Name: "Bass Masters", Members: []string{"admin", "creator", "m1", "m2"}, Admins: []string{"admin"}}
}

func openChallenge() *repository.Challenge {
	return &repository.Challenge{
		ID:        "ch1",
		GroupID:   "g1",
		CreatedBy: strPtr("creator"),
		Title:     "Summer Slam",
		Type:      repository.ChallengeBiggestCatch,
		StartDate: challengeNow.Add(-24 * time.Hour),
		EndDate:   challengeNow.Add(24 * time.Hour),
		Participants: []*repository.ChallengeParticipant{
			{UserID: "m1", Progress: decimal.NewFromInt(3)},
			{UserID: "m2", Progress: decimal.NewFromInt(7)},
		},
	}
}

func decimalEq(want string) interface{} {
	w := decimal.RequireFromString(want)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(w) })
}

func TestChallengeInput_Validate(t *testing.T) {
	base := func() *ChallengeInput {
		return &ChallengeInput{
			Title:       "Summer Slam",
			Description: "Biggest bass wins",
			Type:        repository.ChallengeBiggestCatch,
			StartDate:   challengeNow,
			EndDate:     challengeNow.Add(7 * 24 * time.Hour),
		}
	}

	assert.NoError(t, base().validate())

	in := base()
	in.Type = "longest_nap"
	assert.True(t, errors.Is(in.validate(), apperrors.ErrValidation))

	in = base()
	in.EndDate = in.StartDate
	assert.True(t, errors.Is(in.validate(), apperrors.ErrValidation))

	in = base()
	in.TargetMetric = strPtr("girth")
	assert.True(t, errors.Is(in.validate(), apperrors.ErrValidation))

	in = base()
	in.TargetCount = intPtr(0)
	assert.True(t, errors.Is(in.validate(), apperrors.ErrValidation))
}

func TestChallengeService_Create(t *testing.T) {
	ctx := context.Background()
	in := &ChallengeInput{
		Title:       "Summer Slam",
		Description: "Biggest bass wins",
		Type:        repository.ChallengeTotalWeight,
		StartDate:   challengeNow,
		EndDate:     challengeNow.Add(48 * time.Hour),
	}

	t.Run("member creates", func(t *testing.T) {
		m := newChallengeMocks()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()
		m.challenges.On("Create", mock.Anything, mock.MatchedBy(func(c *repository.Challenge) bool {
			return c.GroupID == "g1" && *c.CreatedBy == "m1" && c.Type == repository.ChallengeTotalWeight
		})).Return(nil).Once()

		c, err := m.svc.Create(ctx, "m1", "g1", in)
		require.NoError(t, err)
		assert.Equal(t, "Summer Slam", c.Title)
		m.challenges.AssertExpectations(t)
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		m := newChallengeMocks()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()

		_, err := m.svc.Create(ctx, "outsider", "g1", in)
		assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	})
}

func TestChallengeService_ListForGroup(t *testing.T) {
	m := newChallengeMocks()
	m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()
	m.challenges.On("FindByGroupID", mock.Anything, "g1").Return([]*repository.Challenge{openChallenge()}, nil).Once()

	list, err := m.svc.ListForGroup(context.Background(), "m1", "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m2", list[0].Participants[0].UserID, "standings are ordered by progress")
}

func TestChallengeService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("member joins", func(t *testing.T) {
		m := newChallengeMocks()
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(openChallenge(), nil).Twice()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()
		m.challenges.On("AddParticipant", mock.Anything, "ch1", "admin").Return(true, nil).Once()

		_, err := m.svc.Join(ctx, "admin", "ch1")
		require.NoError(t, err)
		m.challenges.AssertExpectations(t)
	})

	t.Run("joining twice is a conflict", func(t *testing.T) {
		m := newChallengeMocks()
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(openChallenge(), nil).Once()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()
		m.challenges.On("AddParticipant", mock.Anything, "ch1", "m1").Return(false, nil).Once()

		_, err := m.svc.Join(ctx, "m1", "ch1")
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
	})

	t.Run("completed challenge rejects joins", func(t *testing.T) {
		m := newChallengeMocks()
		done := openChallenge()
		done.Completed = true
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(done, nil).Once()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()

		_, err := m.svc.Join(ctx, "admin", "ch1")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		m.challenges.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestChallengeService_UpdateProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("participant updates own progress", func(t *testing.T) {
		m := newChallengeMocks()
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(openChallenge(), nil).Twice()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()
		m.challenges.On("UpdateProgress", mock.Anything, "ch1", "m1", decimalEq("9.5")).Return(nil).Once()

		_, err := m.svc.UpdateProgress(ctx, "m1", "ch1", decimal.RequireFromString("9.5"))
		require.NoError(t, err)
		m.challenges.AssertExpectations(t)
	})

	t.Run("non-participant is rejected", func(t *testing.T) {
		m := newChallengeMocks()
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(openChallenge(), nil).Once()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()

		_, err := m.svc.UpdateProgress(ctx, "admin", "ch1", decimal.NewFromInt(1))
		assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("negative progress", func(t *testing.T) {
		m := newChallengeMocks()
		_, err := m.svc.UpdateProgress(ctx, "m1", "ch1", decimal.NewFromInt(-1))
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestChallengeService_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("leader wins by default and everyone is notified", func(t *testing.T) {
		m := newChallengeMocks()
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(openChallenge(), nil).Twice()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()
		m.challenges.On("Complete", mock.Anything, "ch1", mock.MatchedBy(func(w *string) bool {
			return w != nil && *w == "m2"
		}), challengeNow).Return(nil).Once()
		m.notifs.On("Create", mock.Anything, mock.MatchedBy(func(n *repository.Notification) bool {
			return n.UserID == "m2" && n.Message == "You won the challenge Summer Slam!"
		})).Return(nil).Once()
		m.notifs.On("Create", mock.Anything, mock.MatchedBy(func(n *repository.Notification) bool {
			return n.UserID == "m1" && n.Message == "The challenge Summer Slam has ended"
		})).Return(nil).Once()

		_, err := m.svc.Complete(ctx, "creator", "ch1", nil)
		require.NoError(t, err)
		m.challenges.AssertExpectations(t)
		m.notifs.AssertExpectations(t)
	})

	t.Run("explicit winner must be a participant", func(t *testing.T) {
		m := newChallengeMocks()
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(openChallenge(), nil).Once()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()

		_, err := m.svc.Complete(ctx, "admin", "ch1", strPtr("creator"))
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("plain member cannot complete", func(t *testing.T) {
		m := newChallengeMocks()
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(openChallenge(), nil).Once()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()

		_, err := m.svc.Complete(ctx, "m1", "ch1", nil)
		assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("already completed", func(t *testing.T) {
		m := newChallengeMocks()
		done := openChallenge()
		done.Completed = true
		m.challenges.On("FindByID", mock.Anything, "ch1").Return(done, nil).Once()
		m.groups.On("FindByID", mock.Anything, "g1").Return(bassGroup(), nil).Once()

		_, err := m.svc.Complete(ctx, "admin", "ch1", nil)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestChallengeService_CompleteExpired(t *testing.T) {
	m := newChallengeMocks()
	empty := &repository.Challenge{ID: "ch2", GroupID: "g1", Title: "Nobody came"}
	m.challenges.On("FindEndedIncomplete", mock.Anything, challengeNow).
		Return([]*repository.Challenge{openChallenge(), empty}, nil).Once()
	m.challenges.On("Complete", mock.Anything, "ch1", mock.MatchedBy(func(w *string) bool {
		return w != nil && *w == "m2"
	}), challengeNow).Return(nil).Once()
	m.challenges.On("Complete", mock.Anything, "ch2", (*string)(nil), challengeNow).Return(nil).Once()
	m.notifs.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()

	n, err := m.svc.CompleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	m.challenges.AssertExpectations(t)
	m.notifs.AssertExpectations(t)
}
