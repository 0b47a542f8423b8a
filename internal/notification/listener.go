package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

const insertChannel = "notification_insert"

// Listener bridges the postgres notification_insert channel into the hub.
// The payload only carries identifiers; the full row is refetched by id so
// subscribers always see the authoritative record.
type Listener struct {
	pqListener *pq.Listener
	repo       *Repository
	hub        *Hub
	logFn      func(err error, msg string)
}

func NewListener(conninfo string, repo *Repository, hub *Hub, logFn func(err error, msg string)) *Listener {
	pqListener := pq.NewListener(conninfo, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logFn(err, "notification listener connection event")
		}
	})
	return &Listener{
		pqListener: pqListener,
		repo:       repo,
		hub:        hub,
		logFn:      logFn,
	}
}

// Start listens until the context is cancelled. The channel and the hub are
// both released on every exit path.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.pqListener.Listen(insertChannel); err != nil {
		return err
	}
	go func() {
		defer l.pqListener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-l.pqListener.Notify:
				if event == nil {
					// connection was re-established, pending events may be lost
					continue
				}
				l.dispatch(event.Extra)
			case <-time.After(90 * time.Second):
				go func() {
					if err := l.pqListener.Ping(); err != nil {
						l.logFn(err, "unable to ping notification listener connection")
					}
				}()
			}
		}
	}()
	return nil
}

func (l *Listener) dispatch(payload string) {
	var event struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		l.logFn(err, "unable to decode notification insert payload")
		return
	}
	n, err := l.repo.NotificationByID(event.ID)
	if err != nil {
		l.logFn(err, "unable to fetch notification "+event.ID+" after insert event")
		return
	}
	l.hub.Publish(n)
}
