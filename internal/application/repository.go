package application

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lib/pq"
)

const applicationSelect = `SELECT a.id, a.internship_id, a.student_id, a.cover_letter, a.resume_url, a.status, a.created_at, a.updated_at, i.title, i.company_id, c.company_name, s.full_name
	FROM application a
	JOIN internship i ON i.id = a.internship_id
	JOIN profile c ON c.id = i.company_id
	JOIN profile s ON s.id = a.student_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) CreateApplication(a Application) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(
		`INSERT INTO application (id, internship_id, student_id, cover_letter, resume_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID,
		a.InternshipID,
		a.StudentID,
		a.CoverLetter,
		a.ResumeURL,
		StatusPending,
		now,
		now,
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrAlreadyApplied
	}
	return err
}

func (r *Repository) ApplicationByID(id string) (Application, error) {
	row := r.db.QueryRow(applicationSelect+` WHERE a.id = $1`, id)
	return scanApplication(row)
}

func (r *Repository) ApplicationsByStudentID(studentID string) ([]Application, error) {
	return r.queryApplications(applicationSelect+` WHERE a.student_id = $1 ORDER BY a.created_at DESC`, studentID)
}

func (r *Repository) ApplicationsByInternshipID(internshipID string) ([]Application, error) {
	return r.queryApplications(applicationSelect+` WHERE a.internship_id = $1 ORDER BY a.created_at DESC`, internshipID)
}

func (r *Repository) ApplicationsByCompanyID(companyID string) ([]Application, error) {
	return r.queryApplications(applicationSelect+` WHERE i.company_id = $1 ORDER BY a.created_at DESC`, companyID)
}

// UpdateStatus is an optimistic compare-and-set on updated_at: two actors
// racing on the same application cannot silently clobber each other.
func (r *Repository) UpdateStatus(id string, to Status, expectedUpdatedAt time.Time) error {
	res, err := r.db.Exec(
		`UPDATE application SET status = $1, updated_at = NOW() WHERE id = $2 AND updated_at = $3`,
		to, id, expectedUpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM application WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrApplicationNotFound
	}
	return ErrStaleUpdate
}

// HasStudentAppliedToCompany answers the messaging permission relationship:
// whether the student applied to at least one internship of the company.
func (r *Repository) HasStudentAppliedToCompany(studentID, companyID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS (
			SELECT 1 FROM application a
			JOIN internship i ON i.id = a.internship_id
			WHERE a.student_id = $1 AND i.company_id = $2
		)`, studentID, companyID).Scan(&exists)
	return exists, err
}

// DeleteApplicationByID hard-deletes one application. Admin action only.
func (r *Repository) DeleteApplicationByID(id string) error {
	res, err := r.db.Exec(`DELETE FROM application WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *Repository) CountByStatus(status Status) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM application WHERE status = $1`, status).Scan(&count)
	return count, err
}

func (r *Repository) queryApplications(query string, args ...interface{}) ([]Application, error) {
	applications := []Application{}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return applications, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return applications, err
		}
		applications = append(applications, a)
	}
	return applications, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (Application, error) {
	a := Application{}
	var coverLetter, resumeURL, companyName sql.NullString
	err := row.Scan(
		&a.ID,
		&a.InternshipID,
		&a.StudentID,
		&coverLetter,
		&resumeURL,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.InternshipTitle,
		&a.CompanyID,
		&companyName,
		&a.StudentName,
	)
	if err == sql.ErrNoRows {
		return a, ErrApplicationNotFound
	}
	if err != nil {
		return a, err
	}
	if coverLetter.Valid {
		a.CoverLetter = &coverLetter.String
	}
	if resumeURL.Valid {
		a.ResumeURL = &resumeURL.String
	}
	a.CompanyName = companyName.String
	a.CreatedAtHumanized = humanize.Time(a.CreatedAt.UTC())
	return a, nil
}
