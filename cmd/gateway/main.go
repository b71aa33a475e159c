package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/quizraft/quizraft/internal/api/http"
	auth "github.com/quizraft/quizraft/internal/auth/middleware"
	"github.com/quizraft/quizraft/internal/config"
	"github.com/quizraft/quizraft/internal/db"
	"github.com/quizraft/quizraft/internal/events"
	"github.com/quizraft/quizraft/internal/notify"
	"github.com/quizraft/quizraft/internal/pacing"
	"github.com/quizraft/quizraft/internal/proctoring"
	"github.com/quizraft/quizraft/internal/quiz"
	"github.com/quizraft/quizraft/internal/rbac"
	"github.com/quizraft/quizraft/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := quiz.NewSQLStore(dbh)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	sink := proctoring.NewSink(proctoring.NewSQLStore(dbh), bs)
	eventLog := events.NewRepo(dbh)

	var mailer notify.Mailer = notify.ConsoleMailer{}
	if cfg.SendgridKey != "" {
		mailer = notify.NewSendgridMailer(cfg.SendgridKey, cfg.MailFrom)
	}

	timers := pacing.NewRegistry()
	onExpiry := func(attemptID string) {
		// Server-side countdown elapsed. The attempt is not force-closed;
		// the elapsed marker lands in the telemetry trail for review.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := sink.LogEvent(ctx, attemptID, "", proctoring.EventDurationElapsed, ""); err != nil {
			log.Printf("attempt %s: record duration elapsed: %v", attemptID, err)
		}
	}

	svc := quiz.NewService(store,
		quiz.WithMailer(mailer, cfg.MailSubject),
		quiz.WithTimers(timers, onExpiry),
		quiz.WithDurationEnforcement(cfg.EnforceDuration),
		quiz.WithSnapshotInterval(cfg.SnapshotInterval),
	)

	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)
	checker := rbac.NewChecker(nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	// Anonymous surface: public quizzes only, ephemeral attempts.
	r.Post("/public/attempts", api.PublicStartHandler(svc))
	r.Post("/public/submissions", api.PublicSubmitHandler(svc))

	// Protected API (JWT -> role in context -> RBAC).
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(checker.Require("quiz:create")).
			Post("/quizzes", api.CreateQuizHandler(store))
		pr.With(checker.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(store))

		pr.With(checker.Require("attempt:start")).
			Post("/attempts", api.StartAttemptHandler(svc))
		pr.With(checker.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(svc))
		pr.With(checker.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(svc, checker))
		pr.With(checker.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(svc, checker))
		pr.With(checker.Require("attempt:grade")).
			Post("/attempts/{attemptID}/grades", api.ApplyGradesHandler(svc))

		pr.With(checker.Require("proctoring:ingest")).
			Post("/proctoring/events", api.LogEventHandler(sink))
		pr.With(checker.Require("proctoring:ingest")).
			Post("/proctoring/snapshots", api.SnapshotHandler(sink))
		pr.With(checker.Require("proctoring:report")).
			Get("/proctoring/report/{attemptID}", api.ReportHandler(sink, store))
		pr.Route("/proctoring/assets", func(ar chi.Router) {
			ar.Use(checker.Require("proctoring:report"))
			api.MountSnapshotAssets(ar, bs)
		})

		pr.With(checker.Require("audit:view")).
			Get("/audit/{key}", api.AuditTrailHandler(eventLog))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
