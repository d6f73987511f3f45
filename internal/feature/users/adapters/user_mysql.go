// Package adapters provides repository implementations for the users feature.
package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"user_backend/internal/feature/users/domain/entity"
	"user_backend/internal/feature/users/usecase"
)

// userMySQL is a MySQL implementation of the UserRepository interface.
// Every read filters on deleted_at IS NULL; soft-deleted rows stay in
// the table but are invisible to callers.
type userMySQL struct {
	db *gorm.DB
}

// Compile-time check to ensure userMySQL implements UserRepository.
var _ usecase.UserRepository = (*userMySQL)(nil)

// NewUserMySQL creates a new instance of userMySQL.
func NewUserMySQL(db *gorm.DB) *userMySQL {
	return &userMySQL{db: db}
}

// duplicateKeyField recognizes unique-constraint violations and
// attributes them to the colliding column. MySQL reports error 1062
// ("Duplicate entry ... for key 'users.username'"); SQLite, used in
// tests, reports "UNIQUE constraint failed: users.username".
func duplicateKeyField(err error) (string, bool) {
	msg := err.Error()

	var mysqlErr *mysql.MySQLError
	switch {
	case errors.As(err, &mysqlErr) && mysqlErr.Number == 1062:
		msg = mysqlErr.Message
	case strings.Contains(msg, "UNIQUE constraint failed"):
	default:
		return "", false
	}

	if strings.Contains(msg, usecase.FieldUsername) {
		return usecase.FieldUsername, true
	}
	if strings.Contains(msg, usecase.FieldEmail) {
		return usecase.FieldEmail, true
	}
	return "", true
}

// Create inserts a new record. A unique-key violation is translated
// into *usecase.UniquenessError rather than surfacing the driver error.
func (r *userMySQL) Create(ctx context.Context, u *entity.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if field, ok := duplicateKeyField(err); ok {
			return &usecase.UniquenessError{Field: field}
		}
		return err
	}
	return nil
}

// FindByID retrieves a live record by ID.
func (r *userMySQL) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.findLive(ctx, "id = ?", id)
}

// FindByUsername retrieves a live record by username.
func (r *userMySQL) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findLive(ctx, "username = ?", username)
}

// FindByEmail retrieves a live record by email.
func (r *userMySQL) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findLive(ctx, "email = ?", email)
}

func (r *userMySQL) findLive(ctx context.Context, cond string, arg interface{}) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).
		Where(cond, arg).
		Where("deleted_at IS NULL").
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ExistsByUsername reports whether a live record owns the username.
func (r *userMySQL) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.existsLive(ctx, "username = ?", username)
}

// ExistsByEmail reports whether a live record owns the email.
func (r *userMySQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsLive(ctx, "email = ?", email)
}

func (r *userMySQL) existsLive(ctx context.Context, cond string, arg interface{}) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where(cond, arg).
		Where("deleted_at IS NULL").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// listQuery builds the filtered query over live records. A fresh query
// is built per finisher so Count and Find do not share statement state.
func (r *userMySQL) listQuery(ctx context.Context, filter usecase.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("deleted_at IS NULL")

	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Username != "" {
		q = q.Where("username LIKE ?", "%"+filter.Username+"%")
	}
	if filter.Email != "" {
		q = q.Where("email LIKE ?", "%"+filter.Email+"%")
	}
	return q
}

// List returns one page of live records matching the filter. The total
// is counted over the filtered set before pagination is applied.
func (r *userMySQL) List(ctx context.Context, filter usecase.ListFilter) ([]*entity.User, int64, error) {
	var total int64
	if err := r.listQuery(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []*entity.User{}
	err := r.listQuery(ctx, filter).
		Order("created_at DESC, id DESC").
		Limit(filter.Size).
		Offset(filter.Page * filter.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// UpdateWithVersion applies the patch through a single conditional
// UPDATE guarded by id, expected version and liveness. The affected-row
// count distinguishes success from absent/stale without a read-then-write
// race window; only on a miss is the row re-read to tell the two apart.
func (r *userMySQL) UpdateWithVersion(ctx context.Context, id uint, patch usecase.UserPatch, expectedVersion int, actor string) (*entity.User, error) {
	updates := map[string]interface{}{
		"version":    expectedVersion + 1,
		"updated_by": actor,
		"updated_at": time.Now(),
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}

	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND version = ? AND deleted_at IS NULL", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		if field, ok := duplicateKeyField(result.Error); ok {
			return nil, &usecase.UniquenessError{Field: field}
		}
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			// ErrUserNotFound for absent or soft-deleted records.
			return nil, err
		}
		return nil, &usecase.VersionConflictError{Expected: expectedVersion, Actual: current.Version}
	}

	return r.FindByID(ctx, id)
}

// SoftDelete marks the record deleted under the same version guard as
// UpdateWithVersion. (false, nil) signals there was nothing to delete,
// which is distinct from a version conflict.
func (r *userMySQL) SoftDelete(ctx context.Context, id uint, expectedVersion int, actor string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND version = ? AND deleted_at IS NULL", id, expectedVersion).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"version":    expectedVersion + 1,
			"updated_by": actor,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}

	if result.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if errors.Is(err, usecase.ErrUserNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return false, &usecase.VersionConflictError{Expected: expectedVersion, Actual: current.Version}
	}

	return true, nil
}

// SetPasswordHash persists only the password hash column. The version
// counter is left alone; this is part of the create flow, not a
// caller-visible mutation.
func (r *userMySQL) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}
