package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"niplan/internal/models"
)

type AccountRepository interface {
	FindByPhone(ctx context.Context, phoneKey string) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	// CreateWithPassword stores an active PASSWORD_SET account. Fails with ErrAccountExists.
	CreateWithPassword(ctx context.Context, phoneKey, passwordHash string) (*models.Account, error)
	// CreatePendingPassword stores an inactive NO_PASSWORD account. Fails with ErrAccountExists.
	CreatePendingPassword(ctx context.Context, phoneKey string) (*models.Account, error)
	// SetPassword moves NO_PASSWORD to PASSWORD_SET and activates. Fails with ErrAlreadySet.
	SetPassword(ctx context.Context, acc *models.Account, passwordHash string) error
	MarkPhoneVerified(ctx context.Context, acc *models.Account) error
}

type accountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{DB: db}
}

const accountColumns = `id, phone_key, password_hash, credential_state, phone_verified, is_active, is_admin, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	a := &models.Account{}
	var (
		hash  sql.NullString
		state string
	)
	if err := row.Scan(
		&a.ID, &a.PhoneKey, &hash, &state,
		&a.PhoneVerified, &a.Active, &a.IsAdmin,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if hash.Valid {
		a.PasswordHash = hash.String
	}
	a.CredentialState = models.CredentialState(state)
	return a, nil
}

func (r *accountRepository) FindByPhone(ctx context.Context, phoneKey string) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE phone_key = $1`
	a, err := scanAccount(r.DB.QueryRowContext(ctx, q, phoneKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by phone: %w", err)
	}
	return a, nil
}

func (r *accountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return a, nil
}

// insert relies on the unique phone_key index: a concurrent duplicate gets no row back.
func (r *accountRepository) insert(ctx context.Context, phoneKey, passwordHash string, state models.CredentialState, active bool) (*models.Account, error) {
	q := `
		INSERT INTO accounts (phone_key, password_hash, credential_state, phone_verified, is_active, is_admin)
		VALUES ($1, NULLIF($2, ''), $3, FALSE, $4, FALSE)
		ON CONFLICT (phone_key) DO NOTHING
		RETURNING ` + accountColumns
	a, err := scanAccount(r.DB.QueryRowContext(ctx, q, phoneKey, passwordHash, string(state), active))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (r *accountRepository) CreateWithPassword(ctx context.Context, phoneKey, passwordHash string) (*models.Account, error) {
	if passwordHash == "" {
		return nil, errors.New("create account: empty password hash")
	}
	return r.insert(ctx, phoneKey, passwordHash, models.CredentialPasswordSet, true)
}

func (r *accountRepository) CreatePendingPassword(ctx context.Context, phoneKey string) (*models.Account, error) {
	return r.insert(ctx, phoneKey, "", models.CredentialNoPassword, false)
}

func (r *accountRepository) SetPassword(ctx context.Context, acc *models.Account, passwordHash string) error {
	if passwordHash == "" {
		return errors.New("set password: empty password hash")
	}
	const q = `
		UPDATE accounts
		SET password_hash = $1, credential_state = 'PASSWORD_SET', is_active = TRUE, updated_at = NOW()
		WHERE id = $2 AND credential_state = 'NO_PASSWORD'
		RETURNING updated_at
	`
	if err := r.DB.QueryRowContext(ctx, q, passwordHash, acc.ID).Scan(&acc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadySet
		}
		return fmt.Errorf("set password: %w", err)
	}
	acc.PasswordHash = passwordHash
	acc.CredentialState = models.CredentialPasswordSet
	acc.Active = true
	return nil
}

func (r *accountRepository) MarkPhoneVerified(ctx context.Context, acc *models.Account) error {
	const q = `UPDATE accounts SET phone_verified = TRUE, updated_at = NOW() WHERE id = $1 AND phone_verified = FALSE`
	if _, err := r.DB.ExecContext(ctx, q, acc.ID); err != nil {
		return fmt.Errorf("mark phone verified: %w", err)
	}
	acc.PhoneVerified = true
	return nil
}
