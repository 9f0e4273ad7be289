package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/schoolvote/election/internal/adapters/repository/postgres"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/services"
	"github.com/schoolvote/election/internal/platform/config"
	"github.com/schoolvote/election/internal/platform/metrics"
)

// One-shot retention job, intended to run from cron. The most recent
// complete snapshot always survives, whatever the policy says.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.FromEnv()

	var maxCount int
	var maxAgeDays int
	flag.IntVar(&maxCount, "max-count", cfg.BackupMaxCount, "Maximum number of snapshots to keep")
	flag.IntVar(&maxAgeDays, "max-age-days", int(cfg.BackupMaxAge/(24*time.Hour)), "Maximum snapshot age in days")
	flag.Parse()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	m := metrics.NewWith(prometheus.NewRegistry())

	auditRecorder := services.NewAuditRecorder(postgres.NewAuditRepository(db), logger, m)

	backupService := services.NewBackupService(
		postgres.NewBackupRepository(db),
		postgres.NewLedgerStore(db),
		auditRecorder,
		noopNotifier{},
		logger,
		m,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	workerDone := make(chan struct{})
	workerCtx, stopWorker := context.WithCancel(ctx)
	go func() {
		defer close(workerDone)
		_ = auditRecorder.Run(workerCtx)
	}()

	log.Println("Starting backup cleanup job...")

	deleted, err := backupService.Cleanup(ctx, "backupcleanup-job", domain.RetentionPolicy{
		MaxCount: maxCount,
		MaxAge:   time.Duration(maxAgeDays) * 24 * time.Hour,
	})
	if err != nil {
		log.Fatalf("Error cleaning up backups: %v", err)
	}

	stopWorker()
	<-workerDone

	log.Printf("Backup cleanup completed, %d snapshots deleted.", deleted)
}

type noopNotifier struct{}

func (noopNotifier) VoteCommitted(context.Context, uuid.UUID, uuid.UUID)     {}
func (noopNotifier) ResultsChanged(context.Context, uuid.UUID)               {}
func (noopNotifier) NotifyAdmins(context.Context, string, map[string]string) {}
