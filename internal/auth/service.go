package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"lernapp-service/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultResetTTL is how long a password reset token stays valid.
const DefaultResetTTL = time.Hour

type registration struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service is the local account backend.
type Service struct {
	repo     Repository
	mailer   Mailer
	validate *validator.Validate
	resetTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(repo Repository, mailer Mailer, resetTTL time.Duration, logger *slog.Logger) *Service {
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		mailer:   mailer,
		validate: newValidator(),
		resetTTL: resetTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// newValidator reports field errors by JSON name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Register creates an account. Username and email must both be unused.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	reg := registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := s.validate.Struct(reg); err != nil {
		return validationError(err)
	}

	if _, err := s.repo.FindByUsername(ctx, reg.Username); err == nil {
		return ErrAccountExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return err
	}
	if _, err := s.repo.FindByEmail(ctx, reg.Email); err == nil {
		return ErrAccountExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account := &Account{
		ID:           uuid.NewString(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return err
	}
	s.logger.Info("account registered", "user", account.Username)
	return nil
}

// Authenticate checks username and password. Unknown users and wrong passwords
// produce the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) error {
	account, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Account looks up an account by username.
func (s *Service) Account(ctx context.Context, username string) (*Account, error) {
	return s.repo.FindByUsername(ctx, username)
}

// RequestPasswordReset stores and mails a reset token when email belongs to an
// account. It reports success either way so callers cannot probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return err
	}
	token, err := generateToken()
	if err != nil {
		return err
	}
	account.ResetToken = token
	account.ResetExpires = s.now().UTC().Add(s.resetTTL)
	if err := s.repo.Update(ctx, account); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, account.Email, token); err != nil {
		s.logger.Error("password reset mail failed", "user", account.Username, "err", err)
	}
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token and
// invalidates the token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	if newPassword == "" {
		return domain.ErrMissingFields
	}
	account, err := s.repo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if account.ResetExpires.Before(s.now().UTC()) {
		return ErrInvalidResetToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = string(hash)
	account.ResetToken = ""
	account.ResetExpires = time.Time{}
	return s.repo.Update(ctx, account)
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, username string) error {
	return s.repo.Delete(ctx, username)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewError(domain.ErrValidation, err.Error())
	}
	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fe.Field() + " is required"
	case "email":
		msg = fe.Field() + " must be a valid email address"
	case "max":
		msg = fe.Field() + " is too long"
	default:
		msg = fe.Field() + " is invalid"
	}
	return domain.NewError(domain.ErrValidation, msg)
}
