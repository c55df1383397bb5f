package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/akulikov/review-request-service/internal/access"
	"github.com/akulikov/review-request-service/internal/config"
	"github.com/akulikov/review-request-service/internal/identity"
	"github.com/akulikov/review-request-service/internal/notify"
	"github.com/akulikov/review-request-service/internal/repository/postgres"
	"github.com/akulikov/review-request-service/internal/scm"
	"github.com/akulikov/review-request-service/internal/service"
	"github.com/akulikov/review-request-service/internal/storage"
	myhttp "github.com/akulikov/review-request-service/internal/transport/http"
	"github.com/akulikov/review-request-service/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting review-request-service", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := postgres.NewDB(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("db close failed", slog.String("error", err.Error()))
		}
	}()

	mediaStore, err := storage.NewFileStore(cfg.Site.MediaDir)
	if err != nil {
		return fmt.Errorf("failed to init media store: %v", err)
	}

	var (
		requests    = postgres.NewReviewRequestRepository(db, log)
		drafts      = postgres.NewDraftRepository(db, log)
		reviews     = postgres.NewReviewRepository(db, log)
		comments    = postgres.NewCommentRepository(db, log)
		diffs       = postgres.NewDiffRepository(db, log)
		users       = postgres.NewUserRepository(db, log)
		screenshots = postgres.NewScreenshotRepository(db, log)
		profiles    = postgres.NewProfileRepository(db, log)
	)

	var (
		resolver      = identity.NewAutoProvisioner(cfg.Site.Domain)
		checker       = access.NewAdminChecker(cfg.Site.Administrators)
		notifications = notify.NewLogDispatcher(log)
		diffParser    = scm.NewDiffParser()
		changesets    = scm.NewNullChangesetProvider()
	)

	base := service.NewBaseService(db, log)

	requestService := service.NewReviewRequestService(
		base, requests, users, diffs, screenshots, profiles, resolver, checker, changesets,
	)
	draftService := service.NewDraftService(
		base, requests, drafts, diffs, screenshots, users, resolver, diffParser, mediaStore, notifications,
	)
	reviewService := service.NewReviewService(base, requests, reviews, checker, notifications)
	commentService := service.NewCommentService(
		base, requests, reviews, comments, diffs, screenshots, checker,
	)
	userService := service.NewUserService(base, users)

	srv := myhttp.NewServer(
		log, cfg.Site, requestService, draftService, reviewService, commentService, userService,
	)

	httpServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:     srv.Routes(),
		ReadTimeout: cfg.Server.Timeout,
	}

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %v", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}
