package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Rakgl/Own-Pro-Api/internal/common"
	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*false,\s*now\(\),\s*now\(\)\)\s*$`

	mock.ExpectExec(q).
		WithArgs("rt-1", "u1", "User: alice, Device: curl, IP: 10.0.0.1, Timestamp: x", "hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "u1",
		Name:      "User: alice, Device: curl, IP: 10.0.0.1, Timestamp: x",
		TokenHash: "hash",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+refresh_tokens`).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.RefreshToken{ID: "rt-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindActiveByHash_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,\s*user_id,\s*name,\s*token,\s*expires_at,\s*revoked\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s+AND\s+revoked\s*=\s*false\s*$`

	expires := time.Now().Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "token", "expires_at", "revoked"}).
		AddRow("rt-1", "u1", "device", "hash", expires, false)

	mock.ExpectQuery(q).WithArgs("hash").WillReturnRows(rows)

	got, err := repo.FindActiveByHash(context.Background(), "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "rt-1" || got.UserID != "u1" || !got.ExpiresAt.Equal(expires) || got.Revoked {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFindActiveByHash_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM refresh_tokens`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByHash(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestRevoke_Winner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+revoked\s*=\s*true,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+AND\s+revoked\s*=\s*false\s*$`

	mock.ExpectExec(q).WithArgs("rt-1").WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.Revoke(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !won {
		t.Fatalf("expected to win the revoke")
	}
}

func TestRevoke_AlreadyRevoked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// conditional update matches no rows once the flag is already true
	mock.ExpectExec(`UPDATE\s+refresh_tokens`).
		WithArgs("rt-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.Revoke(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won {
		t.Fatalf("second revoke must not win")
	}
}

func TestRevoke_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+refresh_tokens`).
		WithArgs("rt-1").
		WillReturnError(errors.New("db err"))

	_, err := repo.Revoke(context.Background(), "rt-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
