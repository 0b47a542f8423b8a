package interview

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
)

const interviewSelect = `SELECT iv.id, iv.application_id, iv.student_id, iv.company_id, iv.title,
	iv.start_time, iv.end_time, iv.meeting_type, iv.meeting_link, iv.description, iv.status, iv.created_at,
	i.title, c.company_name, s.full_name
	FROM interview iv
	JOIN application a ON a.id = iv.application_id
	JOIN internship i ON i.id = a.internship_id
	JOIN profile c ON c.id = iv.company_id
	JOIN profile s ON s.id = iv.student_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) CreateInterview(iv Interview) error {
	_, err := r.db.Exec(
		`INSERT INTO interview (id, application_id, student_id, company_id, title, start_time, end_time, meeting_type, meeting_link, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		iv.ID,
		iv.ApplicationID,
		iv.StudentID,
		iv.CompanyID,
		iv.Title,
		iv.StartTime,
		iv.EndTime,
		iv.MeetingType,
		iv.MeetingLink,
		iv.Description,
		StatusScheduled,
		time.Now().UTC(),
	)
	return err
}

func (r *Repository) InterviewByID(id string) (Interview, error) {
	row := r.db.QueryRow(interviewSelect+` WHERE iv.id = $1`, id)
	return scanInterview(row)
}

func (r *Repository) InterviewsByStudentID(studentID string) ([]Interview, error) {
	return r.queryInterviews(interviewSelect+` WHERE iv.student_id = $1 ORDER BY iv.start_time ASC`, studentID)
}

func (r *Repository) InterviewsByCompanyID(companyID string) ([]Interview, error) {
	return r.queryInterviews(interviewSelect+` WHERE iv.company_id = $1 ORDER BY iv.start_time ASC`, companyID)
}

func (r *Repository) InterviewsByApplicationID(applicationID string) ([]Interview, error) {
	return r.queryInterviews(interviewSelect+` WHERE iv.application_id = $1 ORDER BY iv.start_time ASC`, applicationID)
}

func (r *Repository) UpdateStatus(id string, status Status) error {
	res, err := r.db.Exec(`UPDATE interview SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInterviewNotFound
	}
	return nil
}

func (r *Repository) queryInterviews(query string, args ...interface{}) ([]Interview, error) {
	interviews := []Interview{}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return interviews, err
	}
	defer rows.Close()
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return interviews, err
		}
		interviews = append(interviews, iv)
	}
	return interviews, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInterview(row rowScanner) (Interview, error) {
	iv := Interview{}
	var meetingLink, description, companyName sql.NullString
	err := row.Scan(
		&iv.ID,
		&iv.ApplicationID,
		&iv.StudentID,
		&iv.CompanyID,
		&iv.Title,
		&iv.StartTime,
		&iv.EndTime,
		&iv.MeetingType,
		&meetingLink,
		&description,
		&iv.Status,
		&iv.CreatedAt,
		&iv.InternshipTitle,
		&companyName,
		&iv.StudentName,
	)
	if err == sql.ErrNoRows {
		return iv, ErrInterviewNotFound
	}
	if err != nil {
		return iv, err
	}
	if meetingLink.Valid {
		iv.MeetingLink = &meetingLink.String
	}
	if description.Valid {
		iv.Description = &description.String
	}
	if companyName.Valid {
		iv.CompanyName = companyName.String
	}
	iv.StartTimeHumanized = humanize.Time(iv.StartTime.UTC())
	return iv, nil
}
