package dto

import "user_backend/internal/feature/users/usecase"

// ListUsersQuery binds the query parameters of the listing endpoint.
type ListUsersQuery struct {
	Page     int    `form:"page,default=0" binding:"min=0"`
	Size     int    `form:"size,default=10" binding:"min=1"`
	IsActive *bool  `form:"is_active"`
	Username string `form:"username"`
	Email    string `form:"email"`
}

// ListUsersRes is one page of users with pagination metadata.
// Size reflects the value actually applied after clamping.
type ListUsersRes struct {
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
	Users []UserRes `json:"users"`
}

// NewListUsersRes projects a usecase listing into the response shape.
func NewListUsersRes(list *usecase.UserList) ListUsersRes {
	users := make([]UserRes, len(list.Users))
	for i, u := range list.Users {
		users[i] = NewUserRes(u)
	}
	return ListUsersRes{
		Total: list.Total,
		Page:  list.Page,
		Size:  list.Size,
		Users: users,
	}
}

// ExistsRes is the response of the check-username / check-email endpoints.
type ExistsRes struct {
	Exists bool `json:"exists"`
}
