// Package entity defines the domain entities for the users feature.
package entity

import "time"

// User represents a user account record.
// Uniqueness of Username and Email is enforced by database indexes;
// soft-deleted rows stay in the table and are filtered out by every
// read path in the repository.
type User struct {
	// ID is the stable identifier, assigned at creation and never reused.
	ID uint `gorm:"primaryKey"`

	// Username is unique among live (non-deleted) records.
	Username string `gorm:"uniqueIndex;size:50;not null"`

	// Email is unique among live (non-deleted) records.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// FullName is an optional descriptive name.
	FullName string `gorm:"size:100"`

	// PasswordHash is the bcrypt hash of the user's password.
	// It is opaque to everything except the authenticate path.
	PasswordHash string `gorm:"size:255;not null"`

	// IsActive flags whether the account may authenticate.
	// It is independent of the soft-delete state. The value is always
	// set explicitly by the caller; no column default, since GORM
	// omits zero-valued fields with a default tag from the INSERT and
	// a false would come back true.
	IsActive bool `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// CreatedBy and UpdatedBy record the acting identity,
	// defaulting to "system" when no actor is supplied.
	CreatedBy string `gorm:"size:50;not null"`
	UpdatedBy string `gorm:"size:50;not null"`

	// Version is the optimistic-lock counter. It starts at 1 and is
	// incremented by exactly 1 on every successful mutation.
	Version int `gorm:"not null;default:1"`

	// DeletedAt marks the record soft-deleted when non-nil.
	// Deliberately a plain pointer rather than gorm.DeletedAt: the
	// delete write has to be fused with the version-guarded UPDATE,
	// so visibility filtering is explicit in every query.
	DeletedAt *time.Time `gorm:"index"`
}

// IsDeleted reports whether the record has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}
