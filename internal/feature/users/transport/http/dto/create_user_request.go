// Package dto defines data transfer objects for the users feature's HTTP transport layer.
package dto

// CreateUserReq represents the request body for creating a user.
// It uses Gin's binding tags for validation; length bounds live here,
// not in the core.
type CreateUserReq struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"max=100"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"is_active"`
}
