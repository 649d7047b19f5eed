package repository

import (
	"context"
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}

	return db, mock
}

func TestUpdateStatusGuardedApplies(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cases" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatusGuarded(context.Background(), id, model.CaseStatusPending, map[string]interface{}{
		"status": model.CaseStatusApproved,
	})
	if err != nil {
		t.Fatalf("UpdateStatusGuarded = %v, want nil", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateStatusGuardedConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	id := uuid.New()

	// Another writer already moved the row out of PENDING: zero rows match
	// the guard, the statement itself still succeeds.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "cases" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateStatusGuarded(context.Background(), id, model.CaseStatusPending, map[string]interface{}{
		"status": model.CaseStatusApproved,
	})
	if !apperror.IsKind(err, apperror.ErrConflict) {
		t.Fatalf("UpdateStatusGuarded = %v, want ErrConflict", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)

	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "cases"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), id)
	if !apperror.IsKind(err, apperror.ErrNotFound) {
		t.Fatalf("FindByID = %v, want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
