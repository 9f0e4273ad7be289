package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	httphandler "github.com/schoolvote/election/internal/adapters/handler/http"
	wshandler "github.com/schoolvote/election/internal/adapters/handler/ws"
	pgrepo "github.com/schoolvote/election/internal/adapters/repository/postgres"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/services"
	"github.com/schoolvote/election/internal/platform/metrics"
	"github.com/schoolvote/election/internal/realtime"
)

const testJWTSecret = "integration-test-secret"

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("election_test"),
		postgres.WithUsername("election"),
		postgres.WithPassword("election"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Hub         *realtime.Hub
	DBContainer testcontainers.Container

	auditCancel context.CancelFunc
	auditDone   chan struct{}
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := pgrepo.Open(dbURL)
	require.NoError(t, err)

	require.NoError(t, applyMigrations(db))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(promclient.NewRegistry())

	voterRepo := pgrepo.NewVoterRepository(db)
	postRepo := pgrepo.NewPostRepository(db)
	voteRepo := pgrepo.NewVoteRepository(db)
	auditRepo := pgrepo.NewAuditRepository(db)
	backupRepo := pgrepo.NewBackupRepository(db)
	ledger := pgrepo.NewLedgerStore(db)

	auditRecorder := services.NewAuditRecorder(auditRepo, log, m)
	auditCtx, auditCancel := context.WithCancel(ctx)
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		_ = auditRecorder.Run(auditCtx)
	}()

	hub := realtime.NewHub()
	resultsService := services.NewResultsService(postRepo, voteRepo, voterRepo, nil, log)
	notifier := realtime.NewNotifier(hub, resultsService, log, m)
	receiptService := services.NewReceiptService(voteRepo, "integration-salt")
	voteService := services.NewVoteService(postRepo, voterRepo, voteRepo, receiptService, notifier, auditRecorder, log, m)
	postService := services.NewPostService(postRepo)
	backupService := services.NewBackupService(backupRepo, ledger, auditRecorder, notifier, log, m)

	authenticator := httphandler.NewAuthenticator(testJWTSecret)
	router := httphandler.NewHandler(authenticator, httphandler.Handlers{
		Votes:    httphandler.NewVoteHandler(voteService, receiptService),
		Posts:    httphandler.NewPostHandler(postService, resultsService),
		Backups:  httphandler.NewBackupHandler(backupService, domain.RetentionPolicy{MaxCount: 10}),
		Audit:    httphandler.NewAuditHandler(auditRepo),
		Realtime: wshandler.NewHandler(hub, authenticator, log),
	})

	return &TestApp{
		DB:          db,
		Server:      httptest.NewServer(router),
		Hub:         hub,
		DBContainer: dbContainer,
		auditCancel: auditCancel,
		auditDone:   auditDone,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.Hub.Shutdown()
	app.auditCancel()
	<-app.auditDone
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func (app *TestApp) createVoterAndToken(t *testing.T, role domain.Role) (uuid.UUID, string) {
	t.Helper()

	voterID := uuid.New()
	studentID := fmt.Sprintf("S-%s", voterID.String()[:8])
	name := fmt.Sprintf("Student %s", studentID)
	_, err := app.DB.Exec(
		"INSERT INTO voters (id, student_id, name, role) VALUES ($1, $2, $3, $4)",
		voterID, studentID, name, string(role),
	)
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"sub":  voterID.String(),
		"role": string(role),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return voterID, signedToken
}

func (app *TestApp) createPostWithCandidates(t *testing.T, title string, candidateNames ...string) (uuid.UUID, []uuid.UUID) {
	t.Helper()

	postID := uuid.New()
	_, err := app.DB.Exec(
		"INSERT INTO election_posts (id, title, active) VALUES ($1, $2, TRUE)",
		postID, title,
	)
	require.NoError(t, err)

	candidateIDs := make([]uuid.UUID, 0, len(candidateNames))
	for _, name := range candidateNames {
		candidateID := uuid.New()
		_, err := app.DB.Exec(
			"INSERT INTO candidates (id, post_id, name, active) VALUES ($1, $2, $3, TRUE)",
			candidateID, postID, name,
		)
		require.NoError(t, err)
		candidateIDs = append(candidateIDs, candidateID)
	}
	return postID, candidateIDs
}
