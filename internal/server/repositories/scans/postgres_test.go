package scans

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dberezins/threatlens/internal/server/models"
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

	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now())
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+scans\s*\(account_id,\s*scan_type,\s*input,\s*result,\s*storage_key\)`).
		WithArgs("a-1", "Phishing URL", "http://evil.test", "Threat", "").
		WillReturnRows(rows)

	s := &models.Scan{AccountID: "a-1", Type: models.ScanTypePhishingURL, Input: "http://evil.test", Result: "Threat"}
	got, err := repo.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 7 || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected scan: %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+scans`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Scan{AccountID: "a-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByAccount_OrderedNewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "account_id", "scan_type", "input", "result", "storage_key", "created_at"}).
		AddRow(int64(2), "a-1", "SQL Injection", "' OR 1=1 --", "Threat", "", now).
		AddRow(int64(1), "a-1", "File Analysis", "sample.exe", "Clean", "users/2026/9/1/key", now.Add(-time.Hour))
	mock.ExpectQuery(`(?s)SELECT\s+.+\s+FROM\s+scans\s+WHERE\s+account_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs("a-1").
		WillReturnRows(rows)

	got, err := repo.ListByAccount(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("ListByAccount error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 scans, got %d", len(got))
	}
	if got[0].ID != 2 || got[0].Type != models.ScanTypeSQLInjection {
		t.Fatalf("unexpected first scan: %+v", got[0])
	}
	if got[1].StorageKey != "users/2026/9/1/key" {
		t.Fatalf("storage key not decoded: %+v", got[1])
	}
}

func TestListByAccount_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "account_id", "scan_type", "input", "result", "storage_key", "created_at"})
	mock.ExpectQuery(`SELECT\s+.+\s+FROM\s+scans`).
		WithArgs("a-1").
		WillReturnRows(rows)

	got, err := repo.ListByAccount(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("ListByAccount error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no scans, got %d", len(got))
	}
}
