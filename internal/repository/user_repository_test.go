package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loginify/internal/model"
	"loginify/internal/repository"
	"loginify/internal/testutil"
)

func seedUser(t *testing.T, repo *repository.UserRepository, username, email string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: email, PasswordHash: "hash-" + username}
	require.NoError(t, repo.Insert(context.Background(), user))
	return user
}

func TestUserRepository_InsertAndFind(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	seedUser(t, repo, "alice", "a@x.com")

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "a@x.com", byName.Email)
	assert.False(t, byName.CreatedAt.IsZero())

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "alice", byEmail.Username)
}

func TestUserRepository_FindMissingReturnsNil(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	user, err := repo.FindByUsername(ctx, "ghost")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.FindByEmail(ctx, "ghost@x.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_InsertDuplicateUsername(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	seedUser(t, repo, "alice", "a@x.com")

	err := repo.Insert(context.Background(), &model.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestUserRepository_InsertDuplicateEmail(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	seedUser(t, repo, "alice", "a@x.com")

	err := repo.Insert(context.Background(), &model.User{Username: "bob", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestUserRepository_UpdateInPlace(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()
	user := seedUser(t, repo, "alice", "a@x.com")

	user.Email = "alice@x.com"
	user.PasswordHash = "new-hash"
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", got.Email)
	assert.Equal(t, "new-hash", got.PasswordHash)
}

func TestUserRepository_UpdateIntoTakenEmail(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	seedUser(t, repo, "alice", "a@x.com")
	bob := seedUser(t, repo, "bob", "b@x.com")

	bob.Email = "a@x.com"
	err := repo.Update(context.Background(), bob)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestUserRepository_Delete(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()
	seedUser(t, repo, "alice", "a@x.com")

	deleted, err := repo.Delete(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, deleted)

	user, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_ListAllOrdered(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	seedUser(t, repo, "carol", "c@x.com")
	seedUser(t, repo, "alice", "a@x.com")
	seedUser(t, repo, "bob", "b@x.com")

	users, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{users[0].Username, users[1].Username, users[2].Username})
}

func TestUserRepository_TransactionCommit(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()
	old := seedUser(t, repo, "alice", "a@x.com")

	err := repo.Transaction(ctx, func(store repository.UserStore) error {
		if _, err := store.Delete(ctx, "alice"); err != nil {
			return err
		}
		return store.Insert(ctx, &model.User{
			Username:     "alice2",
			Email:        old.Email,
			PasswordHash: old.PasswordHash,
			CreatedAt:    old.CreatedAt,
		})
	})
	require.NoError(t, err)

	gone, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, gone)

	renamed, err := repo.FindByUsername(ctx, "alice2")
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, "a@x.com", renamed.Email)
	assert.WithinDuration(t, old.CreatedAt, renamed.CreatedAt, time.Second)
}

func TestUserRepository_TransactionRollback(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()
	seedUser(t, repo, "alice", "a@x.com")
	seedUser(t, repo, "bob", "b@x.com")

	// the insert collides with bob, so the delete of alice must not survive
	err := repo.Transaction(ctx, func(store repository.UserStore) error {
		if _, err := store.Delete(ctx, "alice"); err != nil {
			return err
		}
		return store.Insert(ctx, &model.User{Username: "bob", Email: "a@x.com", PasswordHash: "h"})
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrDuplicateKey))

	alice, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "a@x.com", alice.Email)
}

func TestUserEventRepository_ListByUsername(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserEventRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &model.UserEvent{Type: model.UserEventCreated, Username: "alice", Email: "a@x.com", OccurredAt: now}))
	require.NoError(t, repo.Create(ctx, &model.UserEvent{Type: model.UserEventUpdated, Username: "alice2", PreviousUsername: "alice", Email: "a@x.com", OccurredAt: now.Add(time.Second)}))
	require.NoError(t, repo.Create(ctx, &model.UserEvent{Type: model.UserEventCreated, Username: "bob", Email: "b@x.com", OccurredAt: now}))

	events, err := repo.ListByUsername(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.UserEventUpdated, events[0].Type)
	assert.Equal(t, model.UserEventCreated, events[1].Type)
}
