package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/testutil"
)

func newTestUser(username string, role domainauth.Role) CreateUserParams {
	return CreateUserParams{
		ID:       uuid.New().String(),
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Role:     role,
	}
}

func TestUserRepo_Create_GetByUsername_RoundTrip(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		params := newTestUser("ada", domainauth.RoleAdmin)
		created, err := repo.Create(ctx, params)
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, params.ID, created.ID)
		assert.Equal(t, "ada", created.Username)
		assert.Equal(t, domainauth.RoleAdmin, created.Role)
		assert.False(t, created.CreatedAt.IsZero())

		fetched, err := repo.GetByUsername(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, created.Email, fetched.Email)

		byID, err := repo.GetByID(ctx, params.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada", byID.Username)
	})
}

func TestUserRepo_Create_DuplicateUsername(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, newTestUser("dup", domainauth.RoleDesigner))
		require.NoError(t, err)

		dup := newTestUser("dup", domainauth.RoleDesigner)
		dup.Email = "other@example.com"
		_, err = repo.Create(ctx, dup)
		assert.ErrorIs(t, err, ErrUsernameExists)
	})
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		first := newTestUser("first", domainauth.RoleDesigner)
		_, err := repo.Create(ctx, first)
		require.NoError(t, err)

		second := newTestUser("second", domainauth.RoleDesigner)
		second.Email = first.Email
		_, err = repo.Create(ctx, second)
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)

		_, err := repo.GetByUsername(context.Background(), "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserRepo_List_FilterAndSort(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		for _, u := range []CreateUserParams{
			newTestUser("alpha", domainauth.RoleAdmin),
			newTestUser("bravo", domainauth.RoleManager),
			newTestUser("charlie", domainauth.RoleDesigner),
		} {
			_, err := repo.Create(ctx, u)
			require.NoError(t, err)
		}

		all, err := repo.List(ctx, model.UsersListOptions{Sort: "username", Dir: "asc"})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "alpha", all[0].Username)
		assert.Equal(t, "charlie", all[2].Username)

		managerRole := domainauth.RoleManager
		managers, err := repo.List(ctx, model.UsersListOptions{Role: &managerRole})
		require.NoError(t, err)
		require.Len(t, managers, 1)
		assert.Equal(t, "bravo", managers[0].Username)

		q := "harl"
		matched, err := repo.List(ctx, model.UsersListOptions{Q: &q})
		require.NoError(t, err)
		require.Len(t, matched, 1)
		assert.Equal(t, "charlie", matched[0].Username)

		count, err := repo.Count(ctx, model.UsersListOptions{Role: &managerRole})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestUserRepo_Update_RoleAndFullName(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, newTestUser("mutable", domainauth.RoleDesigner))
		require.NoError(t, err)

		newName := "Promoted Person"
		newRole := domainauth.RoleManager
		updated, err := repo.Update(ctx, "mutable", model.UpdateUserRequest{
			FullName: &newName,
			Role:     &newRole,
		})
		require.NoError(t, err)
		assert.Equal(t, "Promoted Person", updated.FullName)
		assert.Equal(t, domainauth.RoleManager, updated.Role)

		// An empty request reads the row back unchanged.
		unchanged, err := repo.Update(ctx, "mutable", model.UpdateUserRequest{})
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleManager, unchanged.Role)

		_, err = repo.Update(ctx, "absent", model.UpdateUserRequest{FullName: &newName})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserRepo_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, newTestUser("gone", domainauth.RoleDesigner))
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, "gone")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByUsername(ctx, "gone")
		assert.ErrorIs(t, err, ErrUserNotFound)

		deleted, err = repo.Delete(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
