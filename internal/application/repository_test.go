package application

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateApplicationAlwaysStartsPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO application").
		WithArgs("app-1", "int-1", "stu-1", nil, nil, StatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepository(db)
	// even a caller that claims another status gets pending
	err = repo.CreateApplication(Application{
		ID:           "app-1",
		InternshipID: "int-1",
		StudentID:    "stu-1",
		Status:       StatusAccepted,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateApplicationDuplicatePair(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO application").
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewRepository(db)
	err = repo.CreateApplication(Application{ID: "app-1", InternshipID: "int-1", StudentID: "stu-1"})
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	readAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	t.Run("matching updated_at wins", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("UPDATE application SET status").
			WithArgs(StatusReviewing, "app-1", readAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewRepository(db)
		assert.NoError(t, repo.UpdateStatus("app-1", StatusReviewing, readAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale updated_at is rejected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("UPDATE application SET status").
			WithArgs(StatusAccepted, "app-1", readAt).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("app-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		repo := NewRepository(db)
		err = repo.UpdateStatus("app-1", StatusAccepted, readAt)
		assert.ErrorIs(t, err, ErrStaleUpdate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing application", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("UPDATE application SET status").
			WithArgs(StatusReviewing, "gone", readAt).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("gone").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		repo := NewRepository(db)
		err = repo.UpdateStatus("gone", StatusReviewing, readAt)
		assert.ErrorIs(t, err, ErrApplicationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHasStudentAppliedToCompany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("stu-1", "com-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("stu-1", "com-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	repo := NewRepository(db)
	applied, err := repo.HasStudentAppliedToCompany("stu-1", "com-1")
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.HasStudentAppliedToCompany("stu-1", "com-2")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
