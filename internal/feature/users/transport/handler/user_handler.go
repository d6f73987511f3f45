// Package handler provides HTTP handlers for the users feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"user_backend/internal/feature/users/domain/entity"
	"user_backend/internal/feature/users/transport/http/dto"
	"user_backend/internal/feature/users/usecase"
	jwtmw "user_backend/internal/platform/jwt"
)

// UserUsecase defines the user operations consumed by this handler.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type UserUsecase interface {
	Create(ctx context.Context, in usecase.CreateUserInput, actor string) (*entity.User, error)
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	CheckUsernameExists(ctx context.Context, username string) (bool, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter usecase.ListFilter) (*usecase.UserList, error)
	Update(ctx context.Context, id uint, in usecase.UpdateUserInput, actor string) (*entity.User, error)
	Delete(ctx context.Context, id uint, version int, actor string) error
}

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// actor returns the authenticated username for attribution, or "" so
// the usecase falls back to the system identity.
func actor(c *gin.Context) string {
	return c.GetString(jwtmw.ContextUsername)
}

// actorID returns the authenticated user's ID for audit logging,
// or 0 on the unauthenticated registration path.
func actorID(c *gin.Context) uint {
	return c.GetUint(jwtmw.ContextUserID)
}

// writeError maps domain errors to transport responses:
// not-found -> 404, uniqueness/version conflict -> 400, the rest -> 500.
func writeError(c *gin.Context, err error) {
	var uniqErr *usecase.UniquenessError
	var verErr *usecase.VersionConflictError

	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.As(err, &uniqErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": uniqErr.Error(), "field": uniqErr.Field})
	case errors.As(err, &verErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            verErr.Error(),
			"expected_version": verErr.Expected,
			"current_version":  verErr.Actual,
		})
	default:
		slog.Error("user operation failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}

// Create handles user creation.
// - 400 on malformed input or a username/email conflict
// - 201 with the public view on success
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("create user validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user, err := h.users.Create(c.Request.Context(), usecase.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		IsActive: isActive,
	}, actor(c))
	if err != nil {
		slog.Warn("create user failed", "error", err, "username", req.Username)
		writeError(c, err)
		return
	}

	slog.Info("user created", "id", user.ID, "username", user.Username)
	c.JSON(http.StatusCreated, dto.NewUserRes(user))
}

// GetByID handles lookup by ID. Soft-deleted users report 404.
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// GetByUsername handles lookup by username. Soft-deleted users report 404.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// CheckUsername reports whether a live user owns the username.
func (h *UserHandler) CheckUsername(c *gin.Context) {
	exists, err := h.users.CheckUsernameExists(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ExistsRes{Exists: exists})
}

// CheckEmail reports whether a live user owns the email passed as the
// "email" query parameter.
func (h *UserHandler) CheckEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	exists, err := h.users.CheckEmailExists(c.Request.Context(), email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ExistsRes{Exists: exists})
}

// List handles the paginated listing with optional filters.
func (h *UserHandler) List(c *gin.Context) {
	var query dto.ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	list, err := h.users.List(c.Request.Context(), usecase.ListFilter{
		Page:     query.Page,
		Size:     query.Size,
		IsActive: query.IsActive,
		Username: query.Username,
		Email:    query.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListUsersRes(list))
}

// Update handles a partial update under the optimistic lock.
// - 404 when no live user exists
// - 400 on a version conflict or email collision
// - 200 with the updated public view on success
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("update user validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, usecase.UpdateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		IsActive: req.IsActive,
		Version:  req.Version,
	}, actor(c))
	if err != nil {
		slog.Warn("update user failed", "error", err, "id", id)
		writeError(c, err)
		return
	}

	slog.Info("user updated", "id", user.ID, "version", user.Version,
		"actor", actor(c), "actor_id", actorID(c))
	c.JSON(http.StatusOK, dto.NewUserRes(user))
}

// Delete handles soft deletion under the optimistic lock. The expected
// version is passed as the "version" query parameter.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	version, err := strconv.Atoi(c.Query("version"))
	if err != nil || version < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version query parameter is required"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), id, version, actor(c)); err != nil {
		slog.Warn("delete user failed", "error", err, "id", id)
		writeError(c, err)
		return
	}

	slog.Info("user deleted", "id", id, "actor", actor(c), "actor_id", actorID(c))
	c.JSON(http.StatusOK, gin.H{"id": id})
}
