package profile

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lib/pq"
)

const profileColumns = `id, email, role, full_name, avatar_url, bio, location, university, degree, graduation_year, resume_url, company_name, company_industry, company_size, website, email_verified_at, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) CreateProfile(p Profile, passwordHash string) error {
	var university, degree, resumeURL, companyName, companyIndustry, companySize, website sql.NullString
	var graduationYear sql.NullInt64
	if p.Student != nil {
		university = sql.NullString{String: p.Student.University, Valid: p.Student.University != ""}
		degree = sql.NullString{String: p.Student.Degree, Valid: p.Student.Degree != ""}
		if p.Student.GraduationYear != 0 {
			graduationYear = sql.NullInt64{Int64: int64(p.Student.GraduationYear), Valid: true}
		}
		if p.Student.ResumeURL != nil {
			resumeURL = sql.NullString{String: *p.Student.ResumeURL, Valid: true}
		}
	}
	if p.Company != nil {
		companyName = sql.NullString{String: p.Company.CompanyName, Valid: p.Company.CompanyName != ""}
		companyIndustry = sql.NullString{String: p.Company.CompanyIndustry, Valid: p.Company.CompanyIndustry != ""}
		companySize = sql.NullString{String: p.Company.CompanySize, Valid: p.Company.CompanySize != ""}
		website = sql.NullString{String: p.Company.Website, Valid: p.Company.Website != ""}
	}
	_, err := r.db.Exec(
		`INSERT INTO profile (id, email, password_hash, role, full_name, avatar_url, bio, location, university, degree, graduation_year, resume_url, company_name, company_industry, company_size, website, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.ID,
		p.Email,
		passwordHash,
		p.Role,
		p.FullName,
		p.AvatarURL,
		p.Bio,
		p.Location,
		university,
		degree,
		graduationYear,
		resumeURL,
		companyName,
		companyIndustry,
		companySize,
		website,
		time.Now().UTC(),
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (r *Repository) ProfileByID(id string) (Profile, error) {
	row := r.db.QueryRow(`SELECT `+profileColumns+` FROM profile WHERE id = $1`, id)
	return scanProfile(row)
}

func (r *Repository) ProfileByEmail(email string) (Profile, error) {
	row := r.db.QueryRow(`SELECT `+profileColumns+` FROM profile WHERE email = lower($1)`, email)
	return scanProfile(row)
}

// CredentialsByEmail returns what the sign in flow needs without loading
// the password hash into a Profile value.
func (r *Repository) CredentialsByEmail(email string) (id string, passwordHash string, verified bool, err error) {
	var verifiedAt sql.NullTime
	row := r.db.QueryRow(`SELECT id, password_hash, email_verified_at FROM profile WHERE email = lower($1)`, email)
	if err = row.Scan(&id, &passwordHash, &verifiedAt); err != nil {
		if err == sql.ErrNoRows {
			err = ErrProfileNotFound
		}
		return "", "", false, err
	}
	return id, passwordHash, verifiedAt.Valid, nil
}

func (r *Repository) UpdateProfile(p Profile) error {
	var university, degree, resumeURL, companyName, companyIndustry, companySize, website sql.NullString
	var graduationYear sql.NullInt64
	if p.Student != nil {
		university = sql.NullString{String: p.Student.University, Valid: p.Student.University != ""}
		degree = sql.NullString{String: p.Student.Degree, Valid: p.Student.Degree != ""}
		if p.Student.GraduationYear != 0 {
			graduationYear = sql.NullInt64{Int64: int64(p.Student.GraduationYear), Valid: true}
		}
		if p.Student.ResumeURL != nil {
			resumeURL = sql.NullString{String: *p.Student.ResumeURL, Valid: true}
		}
	}
	if p.Company != nil {
		companyName = sql.NullString{String: p.Company.CompanyName, Valid: p.Company.CompanyName != ""}
		companyIndustry = sql.NullString{String: p.Company.CompanyIndustry, Valid: p.Company.CompanyIndustry != ""}
		companySize = sql.NullString{String: p.Company.CompanySize, Valid: p.Company.CompanySize != ""}
		website = sql.NullString{String: p.Company.Website, Valid: p.Company.Website != ""}
	}
	// role is immutable here on purpose
	_, err := r.db.Exec(
		`UPDATE profile SET full_name = $1, avatar_url = $2, bio = $3, location = $4, university = $5, degree = $6, graduation_year = $7, resume_url = $8, company_name = $9, company_industry = $10, company_size = $11, website = $12, updated_at = NOW() WHERE id = $13`,
		p.FullName,
		p.AvatarURL,
		p.Bio,
		p.Location,
		university,
		degree,
		graduationYear,
		resumeURL,
		companyName,
		companyIndustry,
		companySize,
		website,
		p.ID,
	)
	return err
}

// DeleteProfileByID removes the profile; internships, applications, bookmarks,
// messages, notifications and interviews go with it via ON DELETE CASCADE.
func (r *Repository) DeleteProfileByID(id string) error {
	res, err := r.db.Exec(`DELETE FROM profile WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *Repository) ProfilesByRole(role Role, pageID, perPage int) ([]Profile, int, error) {
	profiles := []Profile{}
	offset := pageID*perPage - perPage
	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM profile WHERE role = $1`, role).Scan(&total); err != nil {
		return profiles, 0, err
	}
	rows, err := r.db.Query(`SELECT `+profileColumns+` FROM profile WHERE role = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, role, perPage, offset)
	if err != nil {
		return profiles, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return profiles, total, err
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

func (r *Repository) CountByRole(role Role) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM profile WHERE role = $1`, role).Scan(&count)
	return count, err
}

func (r *Repository) SaveVerificationToken(token, profileID string) error {
	_, err := r.db.Exec(`INSERT INTO email_verification_token (token, profile_id, created_at) VALUES ($1, $2, $3)`, token, profileID, time.Now().UTC())
	return err
}

// ConfirmVerificationToken marks the token confirmed and the profile email
// verified. Confirming an already-confirmed token is a no-op that still
// returns the profile id.
func (r *Repository) ConfirmVerificationToken(token string) (string, error) {
	var profileID string
	row := r.db.QueryRow(`UPDATE email_verification_token SET confirmed_at = COALESCE(confirmed_at, NOW()) WHERE token = $1 RETURNING profile_id`, token)
	if err := row.Scan(&profileID); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrProfileNotFound
		}
		return "", err
	}
	if _, err := r.db.Exec(`UPDATE profile SET email_verified_at = COALESCE(email_verified_at, NOW()) WHERE id = $1`, profileID); err != nil {
		return "", err
	}
	return profileID, nil
}

// DeleteExpiredVerificationTokens deletes verification tokens older than 1 week
func (r *Repository) DeleteExpiredVerificationTokens() error {
	_, err := r.db.Exec(`DELETE FROM email_verification_token WHERE created_at < NOW() - INTERVAL '7 DAYS' AND confirmed_at IS NULL`)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (Profile, error) {
	p := Profile{}
	var avatarURL, bio, location, university, degree, resumeURL, companyName, companyIndustry, companySize, website sql.NullString
	var graduationYear sql.NullInt64
	var verifiedAt, updatedAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.Role,
		&p.FullName,
		&avatarURL,
		&bio,
		&location,
		&university,
		&degree,
		&graduationYear,
		&resumeURL,
		&companyName,
		&companyIndustry,
		&companySize,
		&website,
		&verifiedAt,
		&p.CreatedAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return p, ErrProfileNotFound
	}
	if err != nil {
		return p, err
	}
	if avatarURL.Valid {
		p.AvatarURL = &avatarURL.String
	}
	if bio.Valid {
		p.Bio = &bio.String
	}
	if location.Valid {
		p.Location = &location.String
	}
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	p.EmailVerified = verifiedAt.Valid
	switch p.Role {
	case RoleStudent:
		details := &StudentDetails{
			University: university.String,
			Degree:     degree.String,
		}
		if graduationYear.Valid {
			details.GraduationYear = int(graduationYear.Int64)
		}
		if resumeURL.Valid && resumeURL.String != "" {
			details.ResumeURL = &resumeURL.String
		}
		p.Student = details
	case RoleCompany:
		p.Company = &CompanyDetails{
			CompanyName:     companyName.String,
			CompanyIndustry: companyIndustry.String,
			CompanySize:     companySize.String,
			Website:         website.String,
		}
	}
	p.CreatedAtHumanized = humanize.Time(p.CreatedAt.UTC())
	return p, nil
}
