package memory

import (
	"context"
	"sort"
	"sync"

	"lernapp-service/internal/auth"
)

// AccountRepository keeps accounts in memory, keyed by username.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]auth.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]auth.Account)}
}

func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Username]; ok {
		return auth.ErrAccountExists
	}
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return auth.ErrAccountExists
		}
	}
	r.accounts[account.Username] = *account
	return nil
}

func (r *AccountRepository) FindByUsername(_ context.Context, username string) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	return &a, nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	return r.find(func(a auth.Account) bool { return a.Email == email })
}

func (r *AccountRepository) FindByResetToken(_ context.Context, token string) (*auth.Account, error) {
	if token == "" {
		return nil, auth.ErrAccountNotFound
	}
	return r.find(func(a auth.Account) bool { return a.ResetToken == token })
}

func (r *AccountRepository) find(match func(auth.Account) bool) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if match(a) {
			a := a
			return &a, nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (r *AccountRepository) Update(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Username]; !ok {
		return auth.ErrAccountNotFound
	}
	r.accounts[account.Username] = *account
	return nil
}

// List returns all accounts ordered by username.
func (r *AccountRepository) List(_ context.Context) ([]auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]auth.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *AccountRepository) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[username]; !ok {
		return auth.ErrAccountNotFound
	}
	delete(r.accounts, username)
	return nil
}
