package auditlog

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Rakgl/Own-Pro-Api/internal/server/models"
)

func TestAppend_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	q := `(?s)^\s*INSERT\s+INTO\s+user_logins\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`

	mock.ExpectExec(q).
		WithArgs("Login", "u1", "10.0.0.1", "curl/8.0", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Append(context.Background(), &models.LoginAudit{
		Type:       models.AuditLogin,
		UserID:     "u1",
		IPAddress:  "10.0.0.1",
		Browser:    "curl/8.0",
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppend_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec(`INSERT\s+INTO\s+user_logins`).
		WillReturnError(errors.New("db down"))

	err = repo.Append(context.Background(), &models.LoginAudit{Type: models.AuditLogout})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
