package main

import (
	"context"
	"log"

	"github.com/internmatch/internmatch/internal/admin"
	"github.com/internmatch/internmatch/internal/application"
	"github.com/internmatch/internmatch/internal/bookmark"
	"github.com/internmatch/internmatch/internal/config"
	"github.com/internmatch/internmatch/internal/database"
	"github.com/internmatch/internmatch/internal/email"
	"github.com/internmatch/internmatch/internal/internship"
	"github.com/internmatch/internmatch/internal/interview"
	"github.com/internmatch/internmatch/internal/message"
	"github.com/internmatch/internmatch/internal/notification"
	"github.com/internmatch/internmatch/internal/profile"
	"github.com/internmatch/internmatch/internal/server"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
	}
	conn, err := database.GetDbConn(
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)
	if err := database.MigrateUp(conn); err != nil {
		log.Fatalf("unable to apply migrations: %v", err)
	}
	emailClient, err := email.NewClient(cfg.EmailAPIKey, cfg.SupportEmail, cfg.NoReplyEmail, cfg.SiteName)
	if err != nil {
		log.Fatalf("unable to create email client: %v", err)
	}
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)

	svr := server.NewServer(
		cfg,
		conn,
		mux.NewRouter(),
		emailClient,
		sessionStore,
	)

	profileRepo := profile.NewRepository(conn)
	internshipRepo := internship.NewRepository(conn)
	applicationRepo := application.NewRepository(conn)
	bookmarkRepo := bookmark.NewRepository(conn)
	messageRepo := message.NewRepository(conn)
	notificationRepo := notification.NewRepository(conn)
	interviewRepo := interview.NewRepository(conn)

	hub := notification.NewHub()
	defer hub.Close()
	listener := notification.NewListener(
		database.ConnString(
			cfg.DatabaseUser,
			cfg.DatabasePassword,
			cfg.DatabaseHost,
			cfg.DatabasePort,
			cfg.DatabaseName,
			cfg.DatabaseSSLMode,
		),
		notificationRepo,
		hub,
		svr.Log,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := listener.Start(ctx); err != nil {
		log.Fatalf("unable to start notification listener: %v", err)
	}

	// auth
	svr.RegisterRoute("/x/auth/signup", profile.SignUpHandler(svr, profileRepo), []string{"POST"})
	svr.RegisterRoute("/x/auth/signin", profile.SignInHandler(svr, profileRepo), []string{"POST"})
	svr.RegisterRoute("/x/auth/signout", profile.SignOutHandler(svr), []string{"POST"})
	svr.RegisterRoute("/x/auth/verify/{token}", profile.VerifyEmailHandler(svr, profileRepo), []string{"GET"})
	svr.RegisterRoute("/x/auth/resend", profile.ResendVerificationHandler(svr, profileRepo), []string{"POST"})

	// profiles
	svr.RegisterRoute("/x/profile/me", profile.CurrentProfileHandler(svr, profileRepo), []string{"GET"})
	svr.RegisterRoute("/x/profile/{id}", profile.ProfileByIDHandler(svr, profileRepo), []string{"GET"})
	svr.RegisterRoute("/x/profile/{id}", profile.UpdateProfileHandler(svr, profileRepo), []string{"PUT"})

	// internships
	svr.RegisterRoute("/x/internships", internship.ListOpenInternshipsHandler(svr, internshipRepo), []string{"GET"})
	svr.RegisterRoute("/x/internships", internship.CreateInternshipHandler(svr, internshipRepo, profileRepo), []string{"POST"})
	svr.RegisterRoute("/x/internships/mine", internship.ListCompanyInternshipsHandler(svr, internshipRepo), []string{"GET"})
	svr.RegisterRoute("/x/internships/{slug}", internship.InternshipBySlugHandler(svr, internshipRepo), []string{"GET"})
	svr.RegisterRoute("/x/internships/{id}", internship.UpdateInternshipHandler(svr, internshipRepo), []string{"PUT"})
	svr.RegisterRoute("/x/internships/{id}", internship.DeleteInternshipHandler(svr, internshipRepo), []string{"DELETE"})
	svr.RegisterRoute("/x/internships/{id}/applications", application.ListInternshipApplicationsHandler(svr, applicationRepo, internshipRepo), []string{"GET"})

	// applications
	svr.RegisterRoute("/x/applications", application.SubmitApplicationHandler(svr, applicationRepo, profileRepo, internshipRepo, notificationRepo), []string{"POST"})
	svr.RegisterRoute("/x/applications", application.ListMyApplicationsHandler(svr, applicationRepo), []string{"GET"})
	svr.RegisterRoute("/x/applications/{id}/status", application.TransitionApplicationHandler(svr, applicationRepo, profileRepo, notificationRepo), []string{"PUT"})

	// bookmarks
	svr.RegisterRoute("/x/bookmarks", bookmark.ListBookmarksHandler(svr, bookmarkRepo), []string{"GET"})
	svr.RegisterRoute("/x/bookmarks/toggle", bookmark.ToggleBookmarkHandler(svr, bookmarkRepo, internshipRepo), []string{"POST"})

	// messages
	svr.RegisterRoute("/x/messages", message.SendMessageHandler(svr, messageRepo, profileRepo, applicationRepo, notificationRepo), []string{"POST"})
	svr.RegisterRoute("/x/messages", message.ListInboxHandler(svr, messageRepo), []string{"GET"})
	svr.RegisterRoute("/x/messages/read", message.MarkMessageAsReadHandler(svr, messageRepo), []string{"POST"})
	svr.RegisterRoute("/x/messages/with/{id}", message.ConversationHandler(svr, messageRepo), []string{"GET"})

	// notifications
	svr.RegisterRoute("/x/notifications", notification.ListNotificationsHandler(svr, notificationRepo), []string{"GET"})
	svr.RegisterRoute("/x/notifications/read", notification.MarkNotificationAsReadHandler(svr, notificationRepo), []string{"POST"})
	svr.RegisterRoute("/x/notifications/read-all", notification.MarkAllNotificationsAsReadHandler(svr, notificationRepo), []string{"POST"})
	svr.RegisterRoute("/x/notifications/stream", notification.StreamNotificationsHandler(svr, notificationRepo, hub), []string{"GET"})

	// interviews
	svr.RegisterRoute("/x/interviews", interview.ScheduleInterviewHandler(svr, interviewRepo, applicationRepo, notificationRepo), []string{"POST"})
	svr.RegisterRoute("/x/interviews", interview.ListMyInterviewsHandler(svr, interviewRepo), []string{"GET"})
	svr.RegisterRoute("/x/interviews/{id}/status", interview.UpdateInterviewStatusHandler(svr, interviewRepo), []string{"PUT"})

	// admin back-office
	svr.RegisterRoute("/x/admin/analytics", admin.AnalyticsHandler(svr, profileRepo, internshipRepo, applicationRepo), []string{"GET"})
	svr.RegisterRoute("/x/admin/profiles", profile.ListProfilesHandler(svr, profileRepo), []string{"GET"})
	svr.RegisterRoute("/x/admin/profiles/delete", profile.DeleteProfileHandler(svr, profileRepo), []string{"POST"})
	svr.RegisterRoute("/x/admin/applications/delete", application.DeleteApplicationHandler(svr, applicationRepo, notificationRepo), []string{"POST"})

	log.Fatal(svr.Run())
}
