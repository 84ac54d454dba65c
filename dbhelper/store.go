package dbhelper

import (
	"context"
	"errors"

	"github.com/authdiscovery/apiv1/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
)

// UserStore is the credential store. Implementations must enforce
// username and email uniqueness at write time.
type UserStore interface {
	// CreateUser inserts user and fills in its ID and timestamps.
	CreateUser(ctx context.Context, user *models.User) error
	// FindByIdentifier matches identifier against username or email.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// CheckAvailable returns ErrUsernameTaken or ErrEmailTaken if either
	// value already belongs to a user.
	CheckAvailable(ctx context.Context, username, email string) error
	// SetRefreshTokenHash replaces the user's live refresh token. nil clears it.
	SetRefreshTokenHash(ctx context.Context, id string, hash *string) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateAccountDetails(ctx context.Context, id, fullName, email string) (*models.User, error)
	// CountUsers returns the total number of users and how many hold a refresh token.
	CountUsers(ctx context.Context) (total int64, active int64, err error)
}

var (
	_ UserStore = (*GormUserStore)(nil)
	_ UserStore = (*MemoryUserStore)(nil)
)
