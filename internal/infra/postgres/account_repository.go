package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lernapp-service/internal/auth"
)

const accountColumns = `id, username, email, password_hash, reset_token, reset_expires, created_at`

// AccountRepository stores accounts in the accounts table.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, a *auth.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Username, a.Email, a.PasswordHash, nullString(a.ResetToken), nullTime(a.ResetExpires), a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	return r.findOne(ctx, `username = $1`, username)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return r.findOne(ctx, `email = $1`, email)
}

func (r *AccountRepository) FindByResetToken(ctx context.Context, token string) (*auth.Account, error) {
	if token == "" {
		return nil, auth.ErrAccountNotFound
	}
	return r.findOne(ctx, `reset_token = $1`, token)
}

func (r *AccountRepository) findOne(ctx context.Context, where string, arg any) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where, arg)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Update(ctx context.Context, a *auth.Account) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET email = $2, password_hash = $3, reset_token = $4, reset_expires = $5 WHERE username = $1`,
		a.Username, a.Email, a.PasswordHash, nullString(a.ResetToken), nullTime(a.ResetExpires))
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context) ([]auth.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []auth.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AccountRepository) Delete(ctx context.Context, username string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		a       auth.Account
		token   *string
		expires *time.Time
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &token, &expires, &a.CreatedAt); err != nil {
		return nil, err
	}
	if token != nil {
		a.ResetToken = *token
	}
	if expires != nil {
		a.ResetExpires = *expires
	}
	return &a, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
