package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vietddude/retrykit/internal/core/domain"
)

func newMockRepo(t *testing.T) (*JournalRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewJournalRepo(Wrap(sqlDB)), mock
}

func TestJournalRepo_Append(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO error_journal").
		WithArgs("e1", "u1", "save profile", "NETWORK", "medium", "Erro de conexão.", false, sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM error_journal").
		WithArgs(100).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Append(context.Background(), &domain.ErrorEntry{
		ID: "e1",
		Context: domain.ErrorContext{
			UserID:   "u1",
			Action:   "save profile",
			Category: domain.CategoryNetwork,
		},
		Message:   "Erro de conexão.",
		Severity:  domain.SeverityMedium,
		CreatedAt: created,
	}, 100)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestJournalRepo_AppendRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO error_journal").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := repo.Append(context.Background(), &domain.ErrorEntry{ID: "dup"}, 0)
	if err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestJournalRepo_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "context", "message", "severity", "recovered", "created_at"}).
		AddRow("e1", []byte(`{"user_id":"u1","action":"save","category":"UNAUTHORIZED","error":"401"}`),
			"Sessão expirada.", "high", false, created).
		AddRow("e2", []byte(`{"action":"load","category":"VALIDATION","error":"bad"}`),
			"Dados inválidos: bad", "low", true, created)
	mock.ExpectQuery("SELECT id, context, message, severity, recovered, created_at").WillReturnRows(rows)

	entries, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Context.UserID != "u1" || first.Context.Category != domain.CategoryUnauthorized {
		t.Errorf("unexpected context %+v", first.Context)
	}
	if first.Severity != domain.SeverityHigh || !first.IsCritical() {
		t.Errorf("expected high severity, got %s", first.Severity)
	}
	if !entries[1].Recovered {
		t.Error("expected second entry recovered")
	}
}

func TestJournalRepo_ListBadContext(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "context", "message", "severity", "recovered", "created_at"}).
		AddRow("e1", []byte(`{`), "x", "low", false, time.Now())
	mock.ExpectQuery("SELECT id").WillReturnRows(rows)

	if _, err := repo.List(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestJournalRepo_Clear(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM error_journal").WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.Clear(context.Background()); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestJournalRepo_DeleteOlderThan(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM error_journal WHERE created_at").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 rows, got %d", n)
	}
}
