package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/schoolvote/election/internal/adapters/cache"
	httphandler "github.com/schoolvote/election/internal/adapters/handler/http"
	wshandler "github.com/schoolvote/election/internal/adapters/handler/ws"
	"github.com/schoolvote/election/internal/adapters/repository/postgres"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
	"github.com/schoolvote/election/internal/core/services"
	"github.com/schoolvote/election/internal/platform/config"
	"github.com/schoolvote/election/internal/platform/metrics"
	"github.com/schoolvote/election/internal/platform/redis"
	"github.com/schoolvote/election/internal/realtime"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.FromEnv()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	voterRepo := postgres.NewVoterRepository(db)
	postRepo := postgres.NewPostRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	backupRepo := postgres.NewBackupRepository(db)
	ledger := postgres.NewLedgerStore(db)

	var resultsCache ports.ResultsCache
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		resultsCache = cache.NewResultsCache(redisClient)
	}

	resultsService := services.NewResultsService(postRepo, voteRepo, voterRepo, resultsCache, logger)
	receiptService := services.NewReceiptService(voteRepo, cfg.ReceiptSalt)
	auditRecorder := services.NewAuditRecorder(auditRepo, logger, m)

	// The hub has an explicit lifecycle: constructed here, handed to
	// every publisher, shut down on termination.
	hub := realtime.NewHub()
	defer hub.Shutdown()
	notifier := realtime.NewNotifier(hub, resultsService, logger, m)

	voteService := services.NewVoteService(postRepo, voterRepo, voteRepo, receiptService, notifier, auditRecorder, logger, m)
	postService := services.NewPostService(postRepo)
	backupService := services.NewBackupService(backupRepo, ledger, auditRecorder, notifier, logger, m)

	auth := httphandler.NewAuthenticator(cfg.JWTSecret)
	handler := httphandler.NewHandler(auth, httphandler.Handlers{
		Votes:    httphandler.NewVoteHandler(voteService, receiptService),
		Posts:    httphandler.NewPostHandler(postService, resultsService),
		Backups:  httphandler.NewBackupHandler(backupService, domain.RetentionPolicy{MaxCount: cfg.BackupMaxCount, MaxAge: cfg.BackupMaxAge}),
		Audit:    httphandler.NewAuditHandler(auditRepo),
		Realtime: wshandler.NewHandler(hub, auth, logger),
	})

	server := &stdhttp.Server{Addr: cfg.Addr, Handler: handler}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := auditRecorder.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		logger.Info("gracefully shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
