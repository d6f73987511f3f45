package usecase

import (
	"context"

	"user_backend/internal/feature/users/domain/entity"
)

// UserPatch carries the fields of a partial update. A nil field is left
// untouched; there is no way to null a field through a patch.
type UserPatch struct {
	Email    *string
	FullName *string
	IsActive *bool
}

// ListFilter narrows and pages a user listing. Page is 0-indexed;
// Username and Email match by substring, IsActive by exact value.
type ListFilter struct {
	Page     int
	Size     int
	IsActive *bool
	Username string
	Email    string
}

// UserRepository abstracts the persistence layer for user records.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
//
// Every read operation filters out soft-deleted records; a soft-deleted
// record is indistinguishable from an absent one to callers.
type UserRepository interface {
	// Create persists a new record with version 1. A unique-constraint
	// violation is returned as *UniquenessError.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a live record by ID, or ErrUserNotFound.
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindByUsername retrieves a live record by username, or ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// FindByEmail retrieves a live record by email, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// ExistsByUsername reports whether a live record owns the username.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether a live record owns the email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns one page of live records matching the filter and the
	// total count over the filtered set before pagination.
	List(ctx context.Context, filter ListFilter) ([]*entity.User, int64, error)

	// UpdateWithVersion applies the patch to the live record if its
	// current version equals expectedVersion, bumping version by 1.
	// It returns ErrUserNotFound when no live record exists,
	// *VersionConflictError on a stale version, and *UniquenessError
	// when the new email collides.
	UpdateWithVersion(ctx context.Context, id uint, patch UserPatch, expectedVersion int, actor string) (*entity.User, error)

	// SoftDelete marks the live record deleted under the same version
	// discipline as UpdateWithVersion. It returns (false, nil) when no
	// live record exists, and a *VersionConflictError on a stale version.
	SoftDelete(ctx context.Context, id uint, expectedVersion int, actor string) (bool, error)

	// SetPasswordHash persists only the password hash column.
	// It does not bump the version.
	SetPasswordHash(ctx context.Context, id uint, hash string) error
}
