// Package auth implements account registration, login and password reset.
package auth

import (
	"context"
	"time"

	"lernapp-service/internal/domain"
)

// Account holds login credentials. Profiles (points, clubs) live in the app store.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	ResetToken   string
	ResetExpires time.Time
	CreatedAt    time.Time
}

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByResetToken(ctx context.Context, token string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	List(ctx context.Context) ([]Account, error)
	Delete(ctx context.Context, username string) error
}

// Mailer delivers password-reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

var (
	ErrAccountExists      = domain.NewError(domain.ErrValidation, "username or email already exists")
	ErrAccountNotFound    = domain.NewError(domain.ErrNotFound, "account not found")
	ErrInvalidCredentials = domain.NewError(domain.ErrUnauthenticated, "wrong username or password")
	ErrInvalidResetToken  = domain.NewError(domain.ErrValidation, "invalid or expired password reset token")
)
