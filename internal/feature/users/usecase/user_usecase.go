package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"user_backend/internal/feature/users/domain/entity"
)

const (
	// systemActor is the attribution fallback when no actor is supplied.
	systemActor = "system"

	// maxPageSize caps the page size of listings. An oversized request
	// is silently clamped, not rejected.
	maxPageSize = 100
)

// dummyHash keeps bcrypt comparison on the authenticate path even when
// the user does not exist, to mitigate timing attacks.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// CreateUserInput carries the fields of a create request.
// The plaintext password is hashed here and never persisted.
type CreateUserInput struct {
	Username string
	Email    string
	FullName string
	Password string
	IsActive bool
}

// UpdateUserInput carries a partial update plus the version the caller
// last observed (optimistic lock).
type UpdateUserInput struct {
	Email    *string
	FullName *string
	IsActive *bool
	Version  int
}

// UserList is one page of a listing with pagination metadata.
// Size reflects the clamped value actually applied.
type UserList struct {
	Total int64
	Page  int
	Size  int
	Users []*entity.User
}

// userUsecase coordinates uniqueness checks, password hashing and
// optimistic-lock mutations on top of the repository.
type userUsecase struct {
	users UserRepository
}

// NewUserUsecase creates a new instance of userUsecase.
func NewUserUsecase(users UserRepository) *userUsecase {
	return &userUsecase{users: users}
}

// orSystem substitutes the system identity for an empty actor.
func orSystem(actor string) string {
	if actor == "" {
		return systemActor
	}
	return actor
}

// Create registers a new user. Username and email are pre-checked
// against live records for a field-tagged error; the database unique
// constraint remains the backstop for concurrent inserts.
func (u *userUsecase) Create(ctx context.Context, in CreateUserInput, actor string) (*entity.User, error) {
	actor = orSystem(actor)

	taken, err := u.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, &UniquenessError{Field: FieldUsername}
	}

	taken, err = u.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, &UniquenessError{Field: FieldEmail}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Username:  in.Username,
		Email:     in.Email,
		FullName:  in.FullName,
		IsActive:  in.IsActive,
		CreatedBy: actor,
		UpdatedBy: actor,
		Version:   1,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// The hash is written in a second step so the record never carries
	// the plaintext, mirroring the insert-then-set flow of the schema.
	if err := u.users.SetPasswordHash(ctx, user.ID, string(hashed)); err != nil {
		return nil, fmt.Errorf("failed to store password hash: %w", err)
	}
	user.PasswordHash = string(hashed)

	return user, nil
}

// GetByID retrieves a live user by ID.
func (u *userUsecase) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}

// GetByUsername retrieves a live user by username.
func (u *userUsecase) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return u.users.FindByUsername(ctx, username)
}

// CheckUsernameExists reports whether a live user owns the username.
func (u *userUsecase) CheckUsernameExists(ctx context.Context, username string) (bool, error) {
	return u.users.ExistsByUsername(ctx, username)
}

// CheckEmailExists reports whether a live user owns the email.
func (u *userUsecase) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	return u.users.ExistsByEmail(ctx, email)
}

// List returns one page of live users. Size is clamped to maxPageSize;
// the returned metadata reflects the clamped value.
func (u *userUsecase) List(ctx context.Context, filter ListFilter) (*UserList, error) {
	if filter.Size > maxPageSize {
		filter.Size = maxPageSize
	}

	users, total, err := u.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &UserList{
		Total: total,
		Page:  filter.Page,
		Size:  filter.Size,
		Users: users,
	}, nil
}

// Update applies a partial update under the optimistic lock. When the
// patch carries a new email, a pre-flight check rejects addresses owned
// by another live user with a field-tagged error; the unique constraint
// still guards the race.
func (u *userUsecase) Update(ctx context.Context, id uint, in UpdateUserInput, actor string) (*entity.User, error) {
	if in.Email != nil {
		owner, err := u.users.FindByEmail(ctx, *in.Email)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if err == nil && owner.ID != id {
			return nil, &UniquenessError{Field: FieldEmail}
		}
	}

	patch := UserPatch{
		Email:    in.Email,
		FullName: in.FullName,
		IsActive: in.IsActive,
	}
	return u.users.UpdateWithVersion(ctx, id, patch, in.Version, orSystem(actor))
}

// Delete soft-deletes a user under the optimistic lock. A record that
// is absent or already soft-deleted reports ErrUserNotFound.
func (u *userUsecase) Delete(ctx context.Context, id uint, version int, actor string) error {
	deleted, err := u.users.SoftDelete(ctx, id, version, orSystem(actor))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}

// Authenticate verifies a username/password pair against live records.
// The full record (hash included) is returned on success for token
// issuance. bcrypt comparison always runs, even for unknown usernames,
// to keep response timing uniform.
func (u *userUsecase) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := u.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash := dummyHash
	if err == nil {
		hash = user.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	if err != nil || compareErr != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
