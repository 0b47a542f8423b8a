package bookmark

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleTwiceReturnsToUnbookmarked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// first toggle: nothing to delete, insert the bookmark
	mock.ExpectExec("DELETE FROM bookmark").
		WithArgs("stu-1", "int-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO bookmark").
		WithArgs("bm-1", "stu-1", "int-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// second toggle: the delete removes it, no insert follows
	mock.ExpectExec("DELETE FROM bookmark").
		WithArgs("stu-1", "int-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepository(db)

	bookmarked, err := repo.Toggle("bm-1", "stu-1", "int-1")
	require.NoError(t, err)
	assert.True(t, bookmarked)

	bookmarked, err = repo.Toggle("bm-2", "stu-1", "int-1")
	require.NoError(t, err)
	assert.False(t, bookmarked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsBookmarked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("stu-1", "int-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewRepository(db)
	bookmarked, err := repo.IsBookmarked("stu-1", "int-1")
	require.NoError(t, err)
	assert.True(t, bookmarked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
