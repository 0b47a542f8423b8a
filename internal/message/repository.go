package message

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
)

const messageSelect = `SELECT m.id, m.sender_id, m.recipient_id, m.subject, m.message_text,
	m.related_to, m.related_id, m.is_read, m.created_at, m.updated_at,
	s.full_name, r.full_name
	FROM message m
	JOIN profile s ON s.id = m.sender_id
	JOIN profile r ON r.id = m.recipient_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) CreateMessage(m Message) error {
	_, err := r.db.Exec(
		`INSERT INTO message (id, sender_id, recipient_id, subject, message_text, related_to, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID,
		m.SenderID,
		m.RecipientID,
		m.Subject,
		m.MessageText,
		m.RelatedTo,
		m.RelatedID,
		time.Now().UTC(),
	)
	return err
}

func (r *Repository) MessageByID(id string) (Message, error) {
	row := r.db.QueryRow(messageSelect+` WHERE m.id = $1`, id)
	return scanMessage(row)
}

// InboxForUser returns messages received by the user, newest first.
func (r *Repository) InboxForUser(userID string) ([]Message, error) {
	return r.queryMessages(messageSelect+` WHERE m.recipient_id = $1 ORDER BY m.created_at DESC`, userID)
}

func (r *Repository) SentByUser(userID string) ([]Message, error) {
	return r.queryMessages(messageSelect+` WHERE m.sender_id = $1 ORDER BY m.created_at DESC`, userID)
}

// ConversationBetween returns both directions of traffic between two users
// in ascending order, oldest first.
func (r *Repository) ConversationBetween(userA, userB string) ([]Message, error) {
	return r.queryMessages(
		messageSelect+` WHERE (m.sender_id = $1 AND m.recipient_id = $2)
		OR (m.sender_id = $2 AND m.recipient_id = $1)
		ORDER BY m.created_at ASC`, userA, userB)
}

func (r *Repository) UnreadCountForUser(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM message WHERE recipient_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	return count, err
}

// MarkAsRead sets is_read on exactly one message scoped to its recipient.
// Idempotent: an already-read or foreign message reports false with no error.
func (r *Repository) MarkAsRead(id, recipientID string) (bool, error) {
	res, err := r.db.Exec(
		`UPDATE message SET is_read = TRUE, updated_at = $3 WHERE id = $1 AND recipient_id = $2 AND is_read = FALSE`,
		id, recipientID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *Repository) queryMessages(query string, args ...interface{}) ([]Message, error) {
	messages := []Message{}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return messages, err
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return messages, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (Message, error) {
	m := Message{}
	var relatedID sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.RecipientID,
		&m.Subject,
		&m.MessageText,
		&m.RelatedTo,
		&relatedID,
		&m.IsRead,
		&m.CreatedAt,
		&updatedAt,
		&m.SenderName,
		&m.RecipientName,
	)
	if err == sql.ErrNoRows {
		return m, ErrMessageNotFound
	}
	if err != nil {
		return m, err
	}
	if relatedID.Valid {
		m.RelatedID = &relatedID.String
	}
	if updatedAt.Valid {
		m.UpdatedAt = &updatedAt.Time
	}
	m.CreatedAtHumanized = humanize.Time(m.CreatedAt.UTC())
	return m, nil
}
