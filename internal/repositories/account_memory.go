package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"niplan/internal/models"
)

// MemoryAccountRepository keeps accounts in process memory. Used when no database is
// configured (local development) and in tests; not shared between instances.
type MemoryAccountRepository struct {
	mu     sync.Mutex
	nextID int64
	byKey  map[string]*models.Account
	nowF   func() time.Time
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byKey: make(map[string]*models.Account),
		nowF:  time.Now,
	}
}

// Seed inserts a prepared account, e.g. a legacy NO_PASSWORD row. Returns the stored copy.
func (r *MemoryAccountRepository) Seed(a models.Account) *models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.nowF()
	}
	a.UpdatedAt = a.CreatedAt
	stored := a
	r.byKey[a.PhoneKey] = &stored
	out := stored
	return &out
}

func (r *MemoryAccountRepository) FindByPhone(_ context.Context, phoneKey string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byKey[phoneKey]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := *a
	return &out, nil
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id int64) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byKey {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *MemoryAccountRepository) create(phoneKey, hash string, state models.CredentialState, active bool) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[phoneKey]; ok {
		return nil, ErrAccountExists
	}
	r.nextID++
	now := r.nowF()
	a := &models.Account{
		ID:              r.nextID,
		PhoneKey:        phoneKey,
		PasswordHash:    hash,
		CredentialState: state,
		Active:          active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.byKey[phoneKey] = a
	out := *a
	return &out, nil
}

func (r *MemoryAccountRepository) CreateWithPassword(_ context.Context, phoneKey, passwordHash string) (*models.Account, error) {
	if passwordHash == "" {
		return nil, errors.New("create account: empty password hash")
	}
	return r.create(phoneKey, passwordHash, models.CredentialPasswordSet, true)
}

func (r *MemoryAccountRepository) CreatePendingPassword(_ context.Context, phoneKey string) (*models.Account, error) {
	return r.create(phoneKey, "", models.CredentialNoPassword, false)
}

func (r *MemoryAccountRepository) SetPassword(_ context.Context, acc *models.Account, passwordHash string) error {
	if passwordHash == "" {
		return errors.New("set password: empty password hash")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byKey[acc.PhoneKey]
	if !ok {
		return ErrAccountNotFound
	}
	if a.CredentialState != models.CredentialNoPassword {
		return ErrAlreadySet
	}
	a.PasswordHash = passwordHash
	a.CredentialState = models.CredentialPasswordSet
	a.Active = true
	a.UpdatedAt = r.nowF()
	*acc = *a
	return nil
}

func (r *MemoryAccountRepository) MarkPhoneVerified(_ context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byKey[acc.PhoneKey]
	if !ok {
		return ErrAccountNotFound
	}
	if !a.PhoneVerified {
		a.PhoneVerified = true
		a.UpdatedAt = r.nowF()
	}
	*acc = *a
	return nil
}

var _ AccountRepository = (*MemoryAccountRepository)(nil)
