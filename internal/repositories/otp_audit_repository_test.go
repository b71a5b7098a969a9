package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"niplan/internal/models"
)

func TestOTPAuditRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPAuditRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO otp_challenges")).
		WithArgs("243900000001", "hash", now, now.Add(time.Minute)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta("SET channel = $3, delivered = $4")).
		WithArgs("243900000001", "hash", "whatsapp", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET consumed_at = $3")).
		WithArgs("243900000001", "hash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ch := &models.OTPChallenge{PhoneKey: "243900000001", CodeHash: "hash", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	if err := repo.RecordIssued(ctx, ch); err != nil {
		t.Fatal(err)
	}
	if ch.ID != 42 {
		t.Errorf("ID = %d, want 42", ch.ID)
	}
	if err := repo.RecordDelivery(ctx, "243900000001", "hash", "whatsapp", true); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkConsumed(ctx, "243900000001", "hash", now); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBusinessRepository_SlugByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBusinessRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT slug FROM businesses")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("chez-mama"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT slug FROM businesses")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"slug"}))

	slug, err := repo.SlugByOwner(context.Background(), 1)
	if err != nil || slug == nil || *slug != "chez-mama" {
		t.Fatalf("slug = %v, err = %v", slug, err)
	}
	slug, err = repo.SlugByOwner(context.Background(), 2)
	if err != nil || slug != nil {
		t.Fatalf("no business: slug = %v, err = %v", slug, err)
	}
}
