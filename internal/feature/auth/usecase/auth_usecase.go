package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"user_backend/internal/feature/auth/domain/entity"
	usersentity "user_backend/internal/feature/users/domain/entity"
)

// defaultMaxSessions caps concurrent sessions per user; the oldest is
// evicted when the cap is reached.
const defaultMaxSessions = 5

// UserDirectory is the slice of the users feature this usecase needs:
// credential verification at login and record lookup at refresh.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider.
type UserDirectory interface {
	// Authenticate verifies a username/password pair against live,
	// active records and returns the matching record.
	Authenticate(ctx context.Context, username, password string) (*usersentity.User, error)

	// GetByID retrieves a live user record by ID.
	GetByID(ctx context.Context, id uint) (*usersentity.User, error)
}

// JWTGenerator defines the interface for access token generation.
type JWTGenerator interface {
	// GenerateToken creates a signed JWT token for the given user.
	GenerateToken(userID uint, username string) (string, error)
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // Access token lifetime in seconds
}

// authUsecase implements login, refresh and logout on top of the users
// feature and the session store.
type authUsecase struct {
	users       UserDirectory
	sessions    SessionRepository
	tokens      JWTGenerator
	accessTTL   time.Duration
	refreshTTL  time.Duration
	maxSessions int64
}

// NewAuthUsecase creates a new instance of authUsecase.
func NewAuthUsecase(users UserDirectory, sessions SessionRepository, tokens JWTGenerator, accessTTL, refreshTTL time.Duration) *authUsecase {
	return &authUsecase{
		users:       users,
		sessions:    sessions,
		tokens:      tokens,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		maxSessions: defaultMaxSessions,
	}
}

// newSessionID generates a 64-character hex refresh token.
func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// issue creates a session for the user and returns the token pair.
func (u *authUsecase) issue(ctx context.Context, user *usersentity.User, userAgent, ipAddress string) (*TokenPair, error) {
	count, err := u.sessions.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if count >= u.maxSessions {
		if err := u.sessions.DeleteOldestByUserID(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &entity.Session{
		ID:        id,
		UserID:    user.ID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.refreshTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	access, err := u.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: id,
		ExpiresIn:    int64(u.accessTTL.Seconds()),
	}, nil
}

// Login authenticates the user and issues an access/refresh token pair.
// Credential failures surface as the users feature's ErrInvalidCredentials.
func (u *authUsecase) Login(ctx context.Context, username, password, userAgent, ipAddress string) (*TokenPair, error) {
	user, err := u.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return u.issue(ctx, user, userAgent, ipAddress)
}

// Refresh rotates a refresh token: the presented session is revoked and
// a new pair is issued. A session whose user has since been deleted or
// deactivated is rejected.
func (u *authUsecase) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*TokenPair, error) {
	session, err := u.sessions.FindByID(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if session.IsRevoked() {
		return nil, ErrSessionRevoked
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	user, err := u.users.GetByID(ctx, session.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	if err := u.sessions.Revoke(ctx, session.ID); err != nil {
		return nil, err
	}
	return u.issue(ctx, user, userAgent, ipAddress)
}

// Logout revokes the presented refresh token. Revoking an unknown
// token is not an error; logout is idempotent.
func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	if err := u.sessions.Revoke(ctx, refreshToken); err != nil && err != ErrSessionNotFound {
		return err
	}
	return nil
}
