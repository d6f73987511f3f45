package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"user_backend/internal/feature/users/domain/entity"
	"user_backend/internal/feature/users/usecase"
)

// setupTestDB opens an in-memory SQLite database and migrates the users
// table so repository behavior can be exercised against real SQL.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	require.NoError(t, db.AutoMigrate(&entity.User{}), "failed to migrate users table")
	return db
}

func newTestUser(username, email string) *entity.User {
	return &entity.User{
		Username:     username,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$2a$10$testhash",
		IsActive:     true,
		CreatedBy:    "system",
		UpdatedBy:    "system",
		Version:      1,
	}
}

func mustCreate(t *testing.T, repo *userMySQL, u *entity.User) *entity.User {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserMySQL_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserMySQL(db)
	ctx := context.Background()

	t.Run("assigns ID and keeps version 1", func(t *testing.T) {
		u := newTestUser("alice", "alice@example.com")
		err := repo.Create(ctx, u)

		assert.NoError(t, err)
		assert.NotZero(t, u.ID, "ID should be assigned on insert")
		assert.Equal(t, 1, u.Version)
	})

	t.Run("inactive at creation stays inactive", func(t *testing.T) {
		u := newTestUser("inactive", "inactive@example.com")
		u.IsActive = false
		require.NoError(t, repo.Create(ctx, u))

		got, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive, "user created with is_active=false must stay inactive")
	})

	t.Run("duplicate username reports the colliding field", func(t *testing.T) {
		dup := newTestUser("alice", "other@example.com")
		err := repo.Create(ctx, dup)

		var uniqErr *usecase.UniquenessError
		require.ErrorAs(t, err, &uniqErr)
		assert.Equal(t, usecase.FieldUsername, uniqErr.Field)
	})

	t.Run("duplicate email reports the colliding field", func(t *testing.T) {
		dup := newTestUser("bob", "alice@example.com")
		err := repo.Create(ctx, dup)

		var uniqErr *usecase.UniquenessError
		require.ErrorAs(t, err, &uniqErr)
		assert.Equal(t, usecase.FieldEmail, uniqErr.Field)
	})
}

func TestUserMySQL_Find(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserMySQL(db)
	ctx := context.Background()

	created := mustCreate(t, repo, newTestUser("alice", "alice@example.com"))

	t.Run("by ID", func(t *testing.T) {
		got, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("by username", func(t *testing.T) {
		got, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 99999)
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	})

	t.Run("soft-deleted record is invisible", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("ghost", "ghost@example.com"))
		ok, err := repo.SoftDelete(ctx, u.ID, 1, "system")
		require.NoError(t, err)
		require.True(t, ok)

		_, err = repo.FindByID(ctx, u.ID)
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
		_, err = repo.FindByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
		_, err = repo.FindByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	})
}

func TestUserMySQL_Exists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserMySQL(db)
	ctx := context.Background()

	mustCreate(t, repo, newTestUser("alice", "alice@example.com"))

	t.Run("existing username", func(t *testing.T) {
		ok, err := repo.ExistsByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("existing email", func(t *testing.T) {
		ok, err := repo.ExistsByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("absent username", func(t *testing.T) {
		ok, err := repo.ExistsByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("soft-deleted user does not count", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("gone", "gone@example.com"))
		ok, err := repo.SoftDelete(ctx, u.ID, 1, "system")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.ExistsByUsername(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = repo.ExistsByEmail(ctx, "gone@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserMySQL_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserMySQL(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		u := newTestUser(fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i))
		u.IsActive = i%2 == 0
		u.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		mustCreate(t, repo, u)
	}

	t.Run("counts total over the full filtered set", func(t *testing.T) {
		users, total, err := repo.List(ctx, usecase.ListFilter{Page: 0, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, users, 2)
	})

	t.Run("orders newest first", func(t *testing.T) {
		users, _, err := repo.List(ctx, usecase.ListFilter{Page: 0, Size: 5})
		require.NoError(t, err)
		require.Len(t, users, 5)
		assert.Equal(t, "user4", users[0].Username)
		assert.Equal(t, "user0", users[4].Username)
	})

	t.Run("pagination offsets pages", func(t *testing.T) {
		page0, _, err := repo.List(ctx, usecase.ListFilter{Page: 0, Size: 2})
		require.NoError(t, err)
		page1, _, err := repo.List(ctx, usecase.ListFilter{Page: 1, Size: 2})
		require.NoError(t, err)

		assert.NotEqual(t, page0[0].ID, page1[0].ID)
		assert.Equal(t, "user2", page1[0].Username)
	})

	t.Run("page beyond the data is empty not an error", func(t *testing.T) {
		users, total, err := repo.List(ctx, usecase.ListFilter{Page: 10, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Empty(t, users)
	})

	t.Run("filters by is_active", func(t *testing.T) {
		active := true
		users, total, err := repo.List(ctx, usecase.ListFilter{Page: 0, Size: 10, IsActive: &active})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		for _, u := range users {
			assert.True(t, u.IsActive)
		}
	})

	t.Run("filters by username substring", func(t *testing.T) {
		_, total, err := repo.List(ctx, usecase.ListFilter{Page: 0, Size: 10, Username: "user3"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("excludes soft-deleted users", func(t *testing.T) {
		u, err := repo.FindByUsername(ctx, "user0")
		require.NoError(t, err)
		ok, err := repo.SoftDelete(ctx, u.ID, u.Version, "system")
		require.NoError(t, err)
		require.True(t, ok)

		_, total, err := repo.List(ctx, usecase.ListFilter{Page: 0, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})
}

func TestUserMySQL_UpdateWithVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserMySQL(db)
	ctx := context.Background()

	t.Run("matching version applies the patch and bumps version", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("alice", "alice@example.com"))

		email := "alice.new@example.com"
		inactive := false
		got, err := repo.UpdateWithVersion(ctx, u.ID, usecase.UserPatch{
			Email:    &email,
			IsActive: &inactive,
		}, 1, "admin")

		require.NoError(t, err)
		assert.Equal(t, 2, got.Version)
		assert.Equal(t, email, got.Email)
		assert.False(t, got.IsActive)
		assert.Equal(t, "admin", got.UpdatedBy)
		assert.Equal(t, "alice", got.Username, "username is immutable")
	})

	t.Run("omitted fields are left untouched", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("bob", "bob@example.com"))

		name := "Robert"
		got, err := repo.UpdateWithVersion(ctx, u.ID, usecase.UserPatch{FullName: &name}, 1, "admin")

		require.NoError(t, err)
		assert.Equal(t, "Robert", got.FullName)
		assert.Equal(t, "bob@example.com", got.Email)
		assert.True(t, got.IsActive)
	})

	t.Run("stale version reports expected and actual", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("carol", "carol@example.com"))

		name := "Carol A"
		_, err := repo.UpdateWithVersion(ctx, u.ID, usecase.UserPatch{FullName: &name}, 1, "admin")
		require.NoError(t, err)

		// Second writer still holds version 1.
		_, err = repo.UpdateWithVersion(ctx, u.ID, usecase.UserPatch{FullName: &name}, 1, "admin")

		var conflict *usecase.VersionConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 1, conflict.Expected)
		assert.Equal(t, 2, conflict.Actual)
	})

	t.Run("absent record is not found, not a conflict", func(t *testing.T) {
		name := "Nobody"
		_, err := repo.UpdateWithVersion(ctx, 99999, usecase.UserPatch{FullName: &name}, 1, "admin")
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	})

	t.Run("soft-deleted record is not found even with the right version", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("dave", "dave@example.com"))
		ok, err := repo.SoftDelete(ctx, u.ID, 1, "system")
		require.NoError(t, err)
		require.True(t, ok)

		name := "Dave"
		_, err = repo.UpdateWithVersion(ctx, u.ID, usecase.UserPatch{FullName: &name}, 2, "admin")
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	})

	t.Run("email collision surfaces as a uniqueness error", func(t *testing.T) {
		mustCreate(t, repo, newTestUser("erin", "erin@example.com"))
		u := mustCreate(t, repo, newTestUser("frank", "frank@example.com"))

		taken := "erin@example.com"
		_, err := repo.UpdateWithVersion(ctx, u.ID, usecase.UserPatch{Email: &taken}, 1, "admin")

		var uniqErr *usecase.UniquenessError
		require.ErrorAs(t, err, &uniqErr)
		assert.Equal(t, usecase.FieldEmail, uniqErr.Field)
	})
}

func TestUserMySQL_SoftDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserMySQL(db)
	ctx := context.Background()

	t.Run("marks the record deleted and bumps version", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("alice", "alice@example.com"))

		ok, err := repo.SoftDelete(ctx, u.ID, 1, "admin")
		require.NoError(t, err)
		assert.True(t, ok)

		// Row is retained, just invisible to the live read paths.
		var raw entity.User
		require.NoError(t, db.Unscoped().First(&raw, u.ID).Error)
		require.NotNil(t, raw.DeletedAt)
		assert.Equal(t, 2, raw.Version)
		assert.Equal(t, "admin", raw.UpdatedBy)
	})

	t.Run("deleting again finds nothing", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("bob", "bob@example.com"))
		ok, err := repo.SoftDelete(ctx, u.ID, 1, "admin")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.SoftDelete(ctx, u.ID, 2, "admin")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("absent record reports false without error", func(t *testing.T) {
		ok, err := repo.SoftDelete(ctx, 99999, 1, "admin")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("carol", "carol@example.com"))

		name := "Carol"
		_, err := repo.UpdateWithVersion(ctx, u.ID, usecase.UserPatch{FullName: &name}, 1, "admin")
		require.NoError(t, err)

		_, err = repo.SoftDelete(ctx, u.ID, 1, "admin")

		var conflict *usecase.VersionConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 2, conflict.Actual)
	})

	t.Run("deleted row still backs the unique index", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("phoenix", "phoenix@example.com"))
		ok, err := repo.SoftDelete(ctx, u.ID, 1, "admin")
		require.NoError(t, err)
		require.True(t, ok)

		err = repo.Create(ctx, newTestUser("phoenix", "new-phoenix@example.com"))

		var uniqErr *usecase.UniquenessError
		require.ErrorAs(t, err, &uniqErr)
		assert.Equal(t, usecase.FieldUsername, uniqErr.Field)
	})
}

func TestUserMySQL_SetPasswordHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserMySQL(db)
	ctx := context.Background()

	t.Run("updates only the hash", func(t *testing.T) {
		u := mustCreate(t, repo, newTestUser("alice", "alice@example.com"))

		err := repo.SetPasswordHash(ctx, u.ID, "$2a$10$rotated")
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$10$rotated", got.PasswordHash)
		assert.Equal(t, 1, got.Version, "hash writes do not bump the version")
	})

	t.Run("absent record", func(t *testing.T) {
		err := repo.SetPasswordHash(ctx, 99999, "$2a$10$rotated")
		assert.ErrorIs(t, err, usecase.ErrUserNotFound)
	})
}

func TestDuplicateKeyField(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
		wantOK    bool
	}{
		{
			name:      "sqlite username collision",
			err:       errors.New("UNIQUE constraint failed: users.username"),
			wantField: usecase.FieldUsername,
			wantOK:    true,
		},
		{
			name:      "sqlite email collision",
			err:       errors.New("UNIQUE constraint failed: users.email"),
			wantField: usecase.FieldEmail,
			wantOK:    true,
		},
		{
			name:   "unrelated error",
			err:    errors.New("connection refused"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, ok := duplicateKeyField(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}
}
