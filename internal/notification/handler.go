package notification

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/server"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func ListNotificationsHandler(svr server.Server, notificationRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit < 1 || limit > 100 {
			limit = FeedCap
		}
		notifications, err := notificationRepo.NotificationsForUser(claims.UserID, limit)
		if err != nil {
			svr.Log(err, "unable to list notifications for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		unread, err := notificationRepo.UnreadCountForUser(claims.UserID)
		if err != nil {
			svr.Log(err, "unable to count unread notifications for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"notifications": notifications,
			"unread":        unread,
		})
	}
}

// MarkNotificationAsReadHandler is idempotent: re-marking an already read
// notification responds 200 with updated=false.
func MarkNotificationAsReadHandler(svr server.Server, notificationRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		req := &struct {
			ID string `json:"id"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		updated, err := notificationRepo.MarkAsRead(req.ID, claims.UserID)
		if err != nil {
			svr.Log(err, "unable to mark notification as read "+req.ID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]bool{"updated": updated})
	}
}

func MarkAllNotificationsAsReadHandler(svr server.Server, notificationRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		updated, err := notificationRepo.MarkAllAsRead(claims.UserID)
		if err != nil {
			svr.Log(err, "unable to mark all notifications as read for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]int64{"updated": updated})
	}
}

type streamMessage struct {
	Type          string         `json:"type"`
	Notification  *Notification  `json:"notification,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
	Unread        int            `json:"unread,omitempty"`
}

// StreamNotificationsHandler upgrades the connection to a websocket and
// pushes newly inserted notifications to the signed-in user. The hub
// subscription is released on every exit path.
func StreamNotificationsHandler(svr server.Server, notificationRepo *Repository, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			svr.Log(err, "unable to upgrade notification stream connection")
			return
		}
		defer conn.Close()

		sub := hub.Subscribe(claims.UserID)
		defer sub.Close()

		backlog, err := notificationRepo.NotificationsForUser(claims.UserID, FeedCap)
		if err != nil {
			svr.Log(err, "unable to load notification backlog for "+claims.UserID)
			return
		}
		unread, err := notificationRepo.UnreadCountForUser(claims.UserID)
		if err != nil {
			svr.Log(err, "unable to load unread count for "+claims.UserID)
			return
		}
		if err := conn.WriteJSON(streamMessage{Type: "snapshot", Notifications: backlog, Unread: unread}); err != nil {
			return
		}

		// the read pump only exists to detect the peer going away
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pingTicker := time.NewTicker(30 * time.Second)
		defer pingTicker.Stop()
		for {
			select {
			case <-done:
				return
			case n, ok := <-sub.C:
				if !ok {
					return
				}
				if err := conn.WriteJSON(streamMessage{Type: "notification", Notification: &n}); err != nil {
					return
				}
			case <-pingTicker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}
}
