package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/domain"
)

var sessionColumns = []string{
	"id", "user_id", "refresh_token_hash", "fingerprint", "ip_address",
	"user_agent", "expires_at", "revoked_at", "created_at", "updated_at",
}

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	now := time.Now().UTC()
	fp := "fp-hash"
	ip := "1.1.1.1"
	ua := "UA"
	sess := &domain.Session{
		ID:               "sess-1",
		UserID:           "user-1",
		RefreshTokenHash: "hash",
		Fingerprint:      &fp,
		IPAddress:        &ip,
		UserAgent:        &ua,
		ExpiresAt:        now.Add(time.Hour),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectExec("INSERT INTO user_sessions").
		WithArgs(sess.ID, sess.UserID, sess.RefreshTokenHash,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sess.ExpiresAt, sqlmock.AnyArg(), sess.CreatedAt, sess.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(sessionColumns).
		AddRow("sess-1", "user-1", "hash", "fp-hash", "1.1.1.1", "UA", now.Add(time.Hour), nil, now, now)
	mock.ExpectQuery("SELECT (.+) FROM user_sessions").
		WithArgs("sess-1").
		WillReturnRows(rows)

	sess, err := repo.GetByID(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sess == nil || sess.ID != "sess-1" || sess.UserID != "user-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Fingerprint == nil || *sess.Fingerprint != "fp-hash" {
		t.Error("fingerprint not mapped")
	}
	if sess.RevokedAt != nil {
		t.Error("revoked_at should be nil")
	}
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	mock.ExpectQuery("SELECT (.+) FROM user_sessions").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(sessionColumns))

	sess, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil for missing row, got %+v", sess)
	}
}

func TestPostgresRepository_Revoke_Conditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE user_sessions SET revoked_at").
		WithArgs("sess-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	revoked, err := repo.Revoke(context.Background(), "sess-1", at)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !revoked {
		t.Error("expected revoked = true for active row")
	}

	// Already-revoked row matches zero rows.
	mock.ExpectExec("UPDATE user_sessions SET revoked_at").
		WithArgs("sess-1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	revoked, err = repo.Revoke(context.Background(), "sess-1", at)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked {
		t.Error("expected revoked = false for already-revoked row")
	}
}

func TestPostgresRepository_RevokeAllByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE user_sessions SET revoked_at").
		WithArgs("user-1", at).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.RevokeAllByUser(context.Background(), "user-1", at)
	if err != nil {
		t.Fatalf("RevokeAllByUser: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
}

func TestPostgresRepository_RevokeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE user_sessions SET revoked_at").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.RevokeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("RevokeExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
}

func TestPostgresRepository_UpdateRefreshTokenHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE user_sessions SET refresh_token_hash").
		WithArgs("sess-1", "new-hash", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateRefreshTokenHash(context.Background(), "sess-1", "new-hash", at); err != nil {
		t.Fatalf("UpdateRefreshTokenHash: %v", err)
	}
}
