package notification

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkAsReadIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE notification SET is_read").
		WithArgs("n-1", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE notification SET is_read").
		WithArgs("n-1", "alice").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRepository(db)

	updated, err := repo.MarkAsRead("n-1", "alice")
	require.NoError(t, err)
	assert.True(t, updated)

	// second call finds nothing left to update and does not error
	updated, err = repo.MarkAsRead("n-1", "alice")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAsReadScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE notification SET is_read").
		WithArgs("n-1", "mallory").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRepository(db)
	updated, err := repo.MarkAsRead("n-1", "mallory")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAllAsRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE notification SET is_read").
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	repo := NewRepository(db)
	updated, err := repo.MarkAllAsRead("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated)

	unread, err := repo.UnreadCountForUser("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
	assert.NoError(t, mock.ExpectationsWereMet())
}
