package message

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkAsReadScopedToRecipient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE message SET is_read").
		WithArgs("m-1", "recipient-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the sender cannot mark their own outbound message read
	mock.ExpectExec("UPDATE message SET is_read").
		WithArgs("m-1", "sender-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRepository(db)

	updated, err := repo.MarkAsRead("m-1", "recipient-1")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.MarkAsRead("m-1", "sender-1")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
