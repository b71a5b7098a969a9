package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BusinessRepository answers the one question auth responses need about a vendor's shop.
type BusinessRepository interface {
	// SlugByOwner returns nil when the account has no business yet.
	SlugByOwner(ctx context.Context, accountID int64) (*string, error)
}

type businessRepository struct {
	DB *sql.DB
}

func NewBusinessRepository(db *sql.DB) BusinessRepository {
	return &businessRepository{DB: db}
}

func (r *businessRepository) SlugByOwner(ctx context.Context, accountID int64) (*string, error) {
	var slug sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT slug FROM businesses WHERE owner_id = $1`, accountID).Scan(&slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("business slug by owner: %w", err)
	}
	if !slug.Valid || slug.String == "" {
		return nil, nil
	}
	s := slug.String
	return &s, nil
}

// NoBusinessRepository is used when no database is configured.
type NoBusinessRepository struct{}

func (NoBusinessRepository) SlugByOwner(context.Context, int64) (*string, error) { return nil, nil }
