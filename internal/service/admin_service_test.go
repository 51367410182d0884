package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fishlog/fishlog-backend/internal/apperrors"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	*engine
	catches  *MockCatchRepository
	comments *MockCommentRepository
	events   *MockEventRepository
	svc      AdminService
}

func newAdminFixture(t *testing.T) *adminFixture {
	e := newEngine(t)
	f := &adminFixture{
		engine:   e,
		catches:  new(MockCatchRepository),
		comments: new(MockCommentRepository),
		events:   new(MockEventRepository),
	}
	f.svc = NewAdminService(e.store.Users(), e.store.Groups(), f.catches, f.comments, f.events, e.groups, NewUserService(e.store.Users()))
	return f
}

func TestAdminService_UpdateUser(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	f.store.addUser("u1", "Jane", "jane@example.com")

	yes := true
	user, err := f.svc.UpdateUser(ctx, "u1", nil, nil, &yes)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	stored, err := f.store.Users().FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)

	_, err = f.svc.UpdateUser(ctx, "ghost", nil, nil, &yes)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAdminService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot delete self", func(t *testing.T) {
		f := newAdminFixture(t)
		err := f.svc.DeleteUser(ctx, "root", "root")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("sole admin of a shared group must hand over first", func(t *testing.T) {
		f := newAdminFixture(t)
		f.store.addUser("a", "Alice", "a@example.com")
		f.store.addUser("b", "Bob", "b@example.com")
		g, err := f.groups.Create(ctx, "a", "Bass Masters", "bass")
		require.NoError(t, err)
		_, err = f.groups.AddMember(ctx, "a", g.ID, "b")
		require.NoError(t, err)

		err = f.svc.DeleteUser(ctx, "root", "a")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		u, _ := f.store.Users().FindByID(ctx, "a")
		assert.NotNil(t, u)
	})

	t.Run("memberships are cleaned up", func(t *testing.T) {
		f := newAdminFixture(t)
		f.store.addUser("a", "Alice", "a@example.com")
		f.store.addUser("b", "Bob", "b@example.com")
		shared, err := f.groups.Create(ctx, "a", "Bass Masters", "bass")
		require.NoError(t, err)
		_, err = f.groups.AddMember(ctx, "a", shared.ID, "b")
		require.NoError(t, err)
		solo, err := f.groups.Create(ctx, "b", "Solo", "just me")
		require.NoError(t, err)

		require.NoError(t, f.svc.DeleteUser(ctx, "root", "b"))

		assert.Equal(t, []string{"a"}, f.group(t, shared.ID).Members)
		gone, err := f.store.Groups().FindByID(ctx, solo.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
		f.assertAdminsSubset(t)
	})
}

// flakyUserDelete fails the first Delete and passes later ones through.
type flakyUserDelete struct {
	repository.UserRepository
	failed bool
}

func (r *flakyUserDelete) Delete(ctx context.Context, id string) error {
	if !r.failed {
		r.failed = true
		return errors.New("connection reset")
	}
	return r.UserRepository.Delete(ctx, id)
}

func TestAdminService_DeleteUserRetry(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.store.addUser("a", "Alice", "a@example.com")
	e.store.addUser("b", "Bob", "b@example.com")
	shared, err := e.groups.Create(ctx, "a", "Bass Masters", "bass")
	require.NoError(t, err)
	_, err = e.groups.AddMember(ctx, "a", shared.ID, "b")
	require.NoError(t, err)
	solo, err := e.groups.Create(ctx, "b", "Solo", "just me")
	require.NoError(t, err)

	users := &flakyUserDelete{UserRepository: e.store.Users()}
	svc := NewAdminService(users, e.store.Groups(), nil, nil, nil, e.groups, NewUserService(e.store.Users()))

	err = svc.DeleteUser(ctx, "root", "b")
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, e.group(t, shared.ID).Members)
	e.assertAdminsSubset(t)
	u, _ := e.store.Users().FindByID(ctx, "b")
	assert.NotNil(t, u)

	require.NoError(t, svc.DeleteUser(ctx, "root", "b"))
	u, _ = e.store.Users().FindByID(ctx, "b")
	assert.Nil(t, u)
	gone, err := e.store.Groups().FindByID(ctx, solo.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestAdminService_GroupMembers(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	f.store.addUser("a", "Alice", "a@example.com")
	f.store.addUser("b", "Bob", "b@example.com")
	g, err := f.groups.Create(ctx, "a", "Bass Masters", "bass")
	require.NoError(t, err)

	got, err := f.svc.AddGroupMember(ctx, g.ID, "b")
	require.NoError(t, err)
	assert.Len(t, got.Members, 2)

	_, err = f.svc.RemoveGroupMember(ctx, g.ID, "a")
	assert.True(t, errors.Is(err, apperrors.ErrLastAdmin))

	got, err = f.svc.RemoveGroupMember(ctx, g.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Members)
}

func TestAdminService_DeleteContent(t *testing.T) {
	ctx := context.Background()

	t.Run("catch", func(t *testing.T) {
		f := newAdminFixture(t)
		f.catches.On("FindByID", mock.Anything, "c1").Return(&repository.Catch{ID: "c1"}, nil).Once()
		f.catches.On("Delete", mock.Anything, "c1").Return(nil).Once()
		assert.NoError(t, f.svc.DeleteContent(ctx, ContentCatch, "c1"))
		f.catches.AssertExpectations(t)
	})

	t.Run("missing comment", func(t *testing.T) {
		f := newAdminFixture(t)
		f.comments.On("FindByID", mock.Anything, "cm1").Return(nil, nil).Once()
		err := f.svc.DeleteContent(ctx, ContentComment, "cm1")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("event", func(t *testing.T) {
		f := newAdminFixture(t)
		f.events.On("FindByID", mock.Anything, "e1").Return(&repository.Event{ID: "e1", EventDate: time.Now()}, nil).Once()
		f.events.On("Delete", mock.Anything, "e1").Return(nil).Once()
		assert.NoError(t, f.svc.DeleteContent(ctx, ContentEvent, "e1"))
		f.events.AssertExpectations(t)
	})

	t.Run("group", func(t *testing.T) {
		f := newAdminFixture(t)
		f.store.addUser("a", "Alice", "a@example.com")
		g, err := f.groups.Create(ctx, "a", "Bass Masters", "bass")
		require.NoError(t, err)

		require.NoError(t, f.svc.DeleteContent(ctx, ContentGroup, g.ID))
		gone, err := f.store.Groups().FindByID(ctx, g.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("unknown type", func(t *testing.T) {
		f := newAdminFixture(t)
		err := f.svc.DeleteContent(ctx, "trophy", "x")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}
