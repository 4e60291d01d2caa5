package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"osu-push-tracker/internal/leaderboard"
	"osu-push-tracker/internal/observability"
	"osu-push-tracker/internal/osuapi"
	"osu-push-tracker/internal/scheduler"
	"osu-push-tracker/internal/service"
	"osu-push-tracker/internal/storage"
	"osu-push-tracker/internal/storage/memory"
	"osu-push-tracker/internal/storage/migrations"
	pgstore "osu-push-tracker/internal/storage/postgres"
	"osu-push-tracker/internal/syncer"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	mode := flag.String("mode", "serve", "Run mode: serve, sync, baseline, or register")
	clientID := flag.String("osu-client-id", os.Getenv("OSU_CLIENT_ID"), "osu! OAuth client id")
	clientSecret := flag.String("osu-client-secret", os.Getenv("OSU_CLIENT_SECRET"), "osu! OAuth client secret")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	chatID := flag.String("chat-id", "", "Chat user id for register mode")
	osuUser := flag.String("osu-user", "", "osu! username or id for register mode")

	flag.Parse()

	logger := log.New(os.Stdout, "[tracker] ", log.LstdFlags|log.Lshortfile)

	if *clientID == "" || *clientSecret == "" {
		logger.Fatal("osu! credentials required: set --osu-client-id/--osu-client-secret or OSU_CLIENT_ID/OSU_CLIENT_SECRET")
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	app, cleanup, err := buildApp(ctx, logger, *clientID, *clientSecret, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
	defer cleanup()

	switch *mode {
	case "serve":
		err = runServe(ctx, logger, app)
	case "sync":
		err = runSync(ctx, logger, app)
	case "baseline":
		err = runBaseline(ctx, logger, app)
	case "register":
		err = runRegister(ctx, logger, app, *chatID, *osuUser)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// app bundles the wired components each mode picks from.
type app struct {
	syncer  *syncer.Syncer
	service *service.Service
}

// buildApp wires the storage, API client and pipeline. The returned cleanup
// closes the client and the connection pool.
func buildApp(ctx context.Context, logger *log.Logger, clientID, clientSecret, postgresDSN string, useMemory bool) (*app, func(), error) {
	if !useMemory && postgresDSN == "" {
		return nil, nil, fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	var playerStore storage.PlayerStore = memory.NewPlayerStore()
	var playStore storage.PlayStore = memory.NewPlayStore()
	var baselineStore storage.BaselineStore = memory.NewBaselineStore()
	var snapshotStore storage.SnapshotStore = memory.NewSnapshotStore()

	var pool *pgstore.Pool
	if !useMemory {
		var err error
		pool, err = pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}

		playerStore = pgstore.NewPlayerStore(pool)
		playStore = pgstore.NewPlayStore(pool)
		baselineStore = pgstore.NewBaselineStore(pool)
		snapshotStore = pgstore.NewSnapshotStore(pool)
	}

	client := osuapi.NewClient(clientID, clientSecret)
	api := osuapi.NewAPI(client)

	sync := syncer.New(api, playerStore, playStore, baselineStore, logger)
	board := leaderboard.New(playerStore, playStore, snapshotStore, logger)
	svc := service.New(api, sync, board, playerStore, playStore, logger)

	cleanup := func() {
		client.Close()
		if pool != nil {
			pool.Close()
		}
	}
	return &app{syncer: sync, service: svc}, cleanup, nil
}

// runServe runs the scheduler until the context is cancelled.
func runServe(ctx context.Context, logger *log.Logger, a *app) error {
	sched := scheduler.New(a.syncer, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	sched.Stop()
	return nil
}

// runSync runs one recent-play sync cycle for all players and exits.
func runSync(ctx context.Context, logger *log.Logger, a *app) error {
	result, err := a.syncer.SyncAllRecent(ctx)
	if err != nil {
		return err
	}
	logger.Printf("Sync complete: %d players, %d plays ingested, %d errors",
		result.Players, result.PlaysIngested, len(result.Errors))
	for _, e := range result.Errors {
		logger.Printf("  %s", e)
	}
	return nil
}

// runBaseline initializes the current month's baselines for all players.
func runBaseline(ctx context.Context, logger *log.Logger, a *app) error {
	result, err := a.syncer.InitMonthlyBaselines(ctx)
	if err != nil {
		return err
	}
	logger.Printf("Baseline init complete: %d players, %d baselines, %d errors",
		result.Players, result.Baselines, len(result.Errors))
	for _, e := range result.Errors {
		logger.Printf("  %s", e)
	}
	return nil
}

// runRegister binds a chat user to an osu! account.
func runRegister(ctx context.Context, logger *log.Logger, a *app, chatID, osuUser string) error {
	if chatID == "" || osuUser == "" {
		return fmt.Errorf("--chat-id and --osu-user are required for register mode")
	}

	player, err := a.service.RegisterPlayer(ctx, chatID, osuUser)
	if err != nil {
		return err
	}
	logger.Printf("Registered %s -> %s (osu id %s)", chatID, player.OsuUsername, player.OsuUserID)
	return nil
}
