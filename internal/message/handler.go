package message

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/internmatch/internmatch/internal/application"
	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/notification"
	"github.com/internmatch/internmatch/internal/profile"
	"github.com/internmatch/internmatch/internal/server"

	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"
	"github.com/segmentio/ksuid"
)

var messagePolicy = bluemonday.StrictPolicy()

// SendMessageHandler persists a message after the authorization gate passes.
// The gate runs here, on the server, regardless of what any client checked
// before navigating.
func SendMessageHandler(svr server.Server, msgRepo *Repository, profileRepo *profile.Repository, appRepo *application.Repository, notificationRepo *notification.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		req := &struct {
			RecipientID string  `json:"recipient_id"`
			Subject     string  `json:"subject"`
			MessageText string  `json:"message_text"`
			RelatedTo   string  `json:"related_to"`
			RelatedID   *string `json:"related_id"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		errs := map[string]string{}
		if req.RecipientID == "" {
			errs["recipient_id"] = "recipient is required"
		}
		if req.MessageText == "" {
			errs["message_text"] = "message text is required"
		}
		relatedTo := RelatedTo(req.RelatedTo)
		if req.RelatedTo == "" {
			relatedTo = RelatedToGeneral
		} else if !relatedTo.Valid() {
			errs["related_to"] = "must be one of application, internship, general"
		}
		if len(errs) > 0 {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
			return
		}
		sender, err := profileRepo.ProfileByID(claims.UserID)
		if err != nil {
			svr.Log(err, "unable to load sender profile")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		recipient, err := profileRepo.ProfileByID(req.RecipientID)
		if err == profile.ErrProfileNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load recipient profile")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		allowed, err := CanMessage(sender, recipient, appRepo)
		if !allowed {
			switch err {
			case ErrStudentMustApplyFirst, ErrCompanyNoApplicant, ErrMessagingNotAllowed:
				svr.JSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			default:
				svr.Log(err, "unable to evaluate messaging permission")
				svr.JSON(w, http.StatusInternalServerError, nil)
			}
			return
		}
		k, err := ksuid.NewRandom()
		if err != nil {
			svr.Log(err, "unable to generate message ID")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		m := Message{
			ID:          k.String(),
			SenderID:    sender.ID,
			RecipientID: recipient.ID,
			Subject:     messagePolicy.Sanitize(req.Subject),
			MessageText: messagePolicy.Sanitize(req.MessageText),
			RelatedTo:   relatedTo,
			RelatedID:   req.RelatedID,
		}
		if err := msgRepo.CreateMessage(m); err != nil {
			svr.Log(err, "unable to create message")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		nk, err := ksuid.NewRandom()
		if err != nil {
			svr.Log(err, "unable to generate notification ID")
		} else {
			n := notification.Notification{
				ID:        nk.String(),
				UserID:    recipient.ID,
				Type:      notification.TypeMessage,
				RelatedID: &m.ID,
				Title:     "New message",
				Content:   fmt.Sprintf("%s sent you a message", sender.DisplayName()),
			}
			if err := notificationRepo.CreateNotification(n); err != nil {
				svr.Log(err, "unable to emit message notification to "+recipient.ID)
			}
		}
		created, err := msgRepo.MessageByID(m.ID)
		if err != nil {
			svr.Log(err, "unable to reload message after create")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusCreated, created)
	}
}

func ListInboxHandler(svr server.Server, msgRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var messages []Message
		if r.URL.Query().Get("box") == "sent" {
			messages, err = msgRepo.SentByUser(claims.UserID)
		} else {
			messages, err = msgRepo.InboxForUser(claims.UserID)
		}
		if err != nil {
			svr.Log(err, "unable to list messages for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		unread, err := msgRepo.UnreadCountForUser(claims.UserID)
		if err != nil {
			svr.Log(err, "unable to count unread messages for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"messages": messages, "unread": unread})
	}
}

// ConversationHandler returns both directions of traffic between the caller
// and the other profile, oldest first.
func ConversationHandler(svr server.Server, msgRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		messages, err := msgRepo.ConversationBetween(claims.UserID, vars["id"])
		if err != nil {
			svr.Log(err, "unable to load conversation for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
	}
}

func MarkMessageAsReadHandler(svr server.Server, msgRepo *Repository) http.HandlerFunc {
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
		updated, err := msgRepo.MarkAsRead(req.ID, claims.UserID)
		if err != nil {
			svr.Log(err, "unable to mark message as read")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]bool{"updated": updated})
	}
}
