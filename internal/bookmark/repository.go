package bookmark

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) BookmarksForStudent(studentID string) ([]Bookmark, error) {
	bookmarks := []Bookmark{}
	rows, err := r.db.Query(
		`SELECT b.id, b.student_id, b.internship_id, b.created_at, i.title, i.slug, c.company_name
		FROM bookmark b
		JOIN internship i ON i.id = b.internship_id
		JOIN profile c ON c.id = i.company_id
		WHERE b.student_id = $1
		ORDER BY b.created_at DESC`, studentID)
	if err != nil {
		return bookmarks, err
	}
	defer rows.Close()
	for rows.Next() {
		b := Bookmark{}
		var companyName sql.NullString
		err := rows.Scan(
			&b.ID,
			&b.StudentID,
			&b.InternshipID,
			&b.CreatedAt,
			&b.InternshipTitle,
			&b.InternshipSlug,
			&companyName,
		)
		if err != nil {
			return bookmarks, err
		}
		if companyName.Valid {
			b.CompanyName = companyName.String
		}
		b.CreatedAtHumanized = humanize.Time(b.CreatedAt.UTC())
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

func (r *Repository) IsBookmarked(studentID, internshipID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM bookmark WHERE student_id = $1 AND internship_id = $2)`,
		studentID, internshipID).Scan(&exists)
	return exists, err
}

// Toggle flips the bookmark for the (student, internship) pair and reports
// the resulting state: true when the pair is now bookmarked. Toggling twice
// always lands back where it started.
func (r *Repository) Toggle(id, studentID, internshipID string) (bool, error) {
	res, err := r.db.Exec(
		`DELETE FROM bookmark WHERE student_id = $1 AND internship_id = $2`,
		studentID, internshipID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return false, nil
	}
	_, err = r.db.Exec(
		`INSERT INTO bookmark (id, student_id, internship_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, internship_id) DO NOTHING`,
		id, studentID, internshipID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return true, nil
}
