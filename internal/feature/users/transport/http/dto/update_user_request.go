package dto

// UpdateUserReq represents the request body for a partial update.
// Omitted fields are left untouched; Version is the optimistic-lock
// value the caller last observed and is always required.
type UpdateUserReq struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	IsActive *bool   `json:"is_active"`
	Version  int     `json:"version" binding:"required,min=1"`
}
