package notification

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

// CreateNotification inserts the row; the notification_insert trigger takes
// care of pushing it onto the LISTEN/NOTIFY channel.
func (r *Repository) CreateNotification(n Notification) error {
	_, err := r.db.Exec(
		`INSERT INTO notification (id, user_id, type, related_id, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID,
		n.UserID,
		n.Type,
		n.RelatedID,
		n.Title,
		n.Content,
		time.Now().UTC(),
	)
	return err
}

func (r *Repository) NotificationByID(id string) (Notification, error) {
	row := r.db.QueryRow(`SELECT id, user_id, type, related_id, title, content, is_read, created_at FROM notification WHERE id = $1`, id)
	return scanNotification(row)
}

// NotificationsForUser returns the newest notifications first.
func (r *Repository) NotificationsForUser(userID string, limit int) ([]Notification, error) {
	notifications := []Notification{}
	rows, err := r.db.Query(
		`SELECT id, user_id, type, related_id, title, content, is_read, created_at
		FROM notification WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return notifications, err
	}
	defer rows.Close()
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return notifications, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *Repository) UnreadCountForUser(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notification WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	return count, err
}

// MarkAsRead sets is_read for exactly one row scoped to the owner. It is
// idempotent: marking an already-read or foreign row reports false with no
// error.
func (r *Repository) MarkAsRead(id, userID string) (bool, error) {
	res, err := r.db.Exec(`UPDATE notification SET is_read = TRUE WHERE id = $1 AND user_id = $2 AND is_read = FALSE`, id, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkAllAsRead marks every unread notification of the user. Rows are
// independent idempotent updates so partial failure leaves no inconsistency
// a retry cannot fix.
func (r *Repository) MarkAllAsRead(userID string) (int64, error) {
	res, err := r.db.Exec(`UPDATE notification SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (Notification, error) {
	n := Notification{}
	var relatedID sql.NullString
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&relatedID,
		&n.Title,
		&n.Content,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return n, ErrNotificationNotFound
	}
	if err != nil {
		return n, err
	}
	if relatedID.Valid {
		n.RelatedID = &relatedID.String
	}
	n.CreatedAtHumanized = humanize.Time(n.CreatedAt.UTC())
	return n, nil
}
