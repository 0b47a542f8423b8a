package internship

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) CreateInternship(i Internship) error {
	_, err := r.db.Exec(
		`INSERT INTO internship (id, company_id, title, description, requirements, location, is_remote, type, duration, stipend, deadline, skills, slug, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		i.ID,
		i.CompanyID,
		i.Title,
		i.Description,
		i.Requirements,
		i.Location,
		i.IsRemote,
		i.Type,
		i.Duration,
		i.Stipend,
		i.Deadline,
		strings.Join(i.SkillsArray, ","),
		i.Slug,
		i.Status,
		time.Now().UTC(),
	)
	return err
}

func (r *Repository) InternshipByID(id string) (Internship, error) {
	row := r.db.QueryRow(
		`SELECT i.id, i.company_id, i.title, i.description, i.requirements, i.location, i.is_remote, i.type, i.duration, i.stipend, i.deadline, i.skills, i.slug, i.status, i.created_at, i.updated_at, p.company_name
		FROM internship i
		JOIN profile p ON p.id = i.company_id
		WHERE i.id = $1`, id)
	return scanInternship(row)
}

func (r *Repository) InternshipBySlug(slug string) (Internship, error) {
	row := r.db.QueryRow(
		`SELECT i.id, i.company_id, i.title, i.description, i.requirements, i.location, i.is_remote, i.type, i.duration, i.stipend, i.deadline, i.skills, i.slug, i.status, i.created_at, i.updated_at, p.company_name
		FROM internship i
		JOIN profile p ON p.id = i.company_id
		WHERE i.slug = $1`, slug)
	return scanInternship(row)
}

func (r *Repository) UpdateInternship(i Internship) error {
	_, err := r.db.Exec(
		`UPDATE internship SET title = $1, description = $2, requirements = $3, location = $4, is_remote = $5, type = $6, duration = $7, stipend = $8, deadline = $9, skills = $10, status = $11, updated_at = NOW() WHERE id = $12`,
		i.Title,
		i.Description,
		i.Requirements,
		i.Location,
		i.IsRemote,
		i.Type,
		i.Duration,
		i.Stipend,
		i.Deadline,
		strings.Join(i.SkillsArray, ","),
		i.Status,
		i.ID,
	)
	return err
}

// DeleteInternshipByID removes the posting and, via ON DELETE CASCADE, its
// applications, bookmarks and interviews.
func (r *Repository) DeleteInternshipByID(id string) error {
	res, err := r.db.Exec(`DELETE FROM internship WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInternshipNotFound
	}
	return nil
}

// OpenInternshipsByQuery returns open postings matching an optional location
// and skill filter, newest first, with the total match count for pagination.
func (r *Repository) OpenInternshipsByQuery(location, skill string, pageID, perPage int) ([]Internship, int, error) {
	internships := []Internship{}
	offset := pageID*perPage - perPage
	where := `i.status = 'open'`
	args := []interface{}{}
	if location != "" {
		args = append(args, "%"+location+"%")
		where += ` AND (i.location ILIKE $1 OR i.is_remote = TRUE)`
	}
	if skill != "" {
		args = append(args, "%"+skill+"%")
		where += ` AND i.skills ILIKE $` + strconv.Itoa(len(args))
	}
	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM internship i WHERE `+where, args...).Scan(&total); err != nil {
		return internships, 0, err
	}
	args = append(args, perPage, offset)
	rows, err := r.db.Query(
		`SELECT i.id, i.company_id, i.title, i.description, i.requirements, i.location, i.is_remote, i.type, i.duration, i.stipend, i.deadline, i.skills, i.slug, i.status, i.created_at, i.updated_at, p.company_name
		FROM internship i
		JOIN profile p ON p.id = i.company_id
		WHERE `+where+`
		ORDER BY i.created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return internships, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		i, err := scanInternship(rows)
		if err != nil {
			return internships, total, err
		}
		internships = append(internships, i)
	}
	return internships, total, rows.Err()
}

func (r *Repository) InternshipsByCompanyID(companyID string) ([]Internship, error) {
	internships := []Internship{}
	rows, err := r.db.Query(
		`SELECT i.id, i.company_id, i.title, i.description, i.requirements, i.location, i.is_remote, i.type, i.duration, i.stipend, i.deadline, i.skills, i.slug, i.status, i.created_at, i.updated_at, p.company_name
		FROM internship i
		JOIN profile p ON p.id = i.company_id
		WHERE i.company_id = $1
		ORDER BY i.created_at DESC`, companyID)
	if err != nil {
		return internships, err
	}
	defer rows.Close()
	for rows.Next() {
		i, err := scanInternship(rows)
		if err != nil {
			return internships, err
		}
		internships = append(internships, i)
	}
	return internships, rows.Err()
}

func (r *Repository) CountOpenInternships() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM internship WHERE status = 'open'`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInternship(row rowScanner) (Internship, error) {
	i := Internship{}
	var stipend, companyName sql.NullString
	var deadline, updatedAt sql.NullTime
	var skills string
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.Title,
		&i.Description,
		&i.Requirements,
		&i.Location,
		&i.IsRemote,
		&i.Type,
		&i.Duration,
		&stipend,
		&deadline,
		&skills,
		&i.Slug,
		&i.Status,
		&i.CreatedAt,
		&updatedAt,
		&companyName,
	)
	if err == sql.ErrNoRows {
		return i, ErrInternshipNotFound
	}
	if err != nil {
		return i, err
	}
	if stipend.Valid {
		i.Stipend = &stipend.String
	}
	if deadline.Valid {
		i.Deadline = &deadline.Time
	}
	if updatedAt.Valid {
		i.UpdatedAt = &updatedAt.Time
	}
	i.Skills = skills
	if skills != "" {
		i.SkillsArray = strings.Split(skills, ",")
	} else {
		i.SkillsArray = []string{}
	}
	i.CompanyName = companyName.String
	i.CreatedAtHumanized = humanize.Time(i.CreatedAt.UTC())
	return i, nil
}

