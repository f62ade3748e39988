// File: cmd/app/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"pickup-verification/internal/application"
	"pickup-verification/internal/config"
	"pickup-verification/internal/domain/ports/adapter"
	"pickup-verification/internal/infra/adapters/audit"
	"pickup-verification/internal/infra/adapters/notify"
	"pickup-verification/internal/infra/db"
	"pickup-verification/internal/infra/logging"
	"pickup-verification/internal/infra/metrics"
	red "pickup-verification/internal/infra/redis"
	"pickup-verification/internal/infra/sched"
	"pickup-verification/internal/usecase"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "", "path to YAML config file (defaults apply when empty)")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted codes)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.SetBuildInfo(version)

	res := newClosers(logger)
	defer res.Close()

	// ---- Persistence ----
	repo, closeRepo, err := db.OpenSnapshotRepo(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store backend")
	}
	res.Push("store backend", func() error { closeRepo(); return nil })

	store := usecase.NewVerificationStore(repo, cfg.Store.FlushTimeout, logger)
	if err := store.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("load verification codes")
	}
	logger.Info().Int("records", store.Len()).Msg("verification codes loaded")

	// ---- Attempt limiter (optional) ----
	var limiter adapter.AttemptLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		res.Push("redis", redisClient.Close)
		limiter = red.NewRateLimiter(redisClient, cfg.Limiter.Attempts, cfg.Limiter.Window)
		logger.Info().Int("attempts", cfg.Limiter.Attempts).Dur("window", cfg.Limiter.Window).Msg("verify attempts limited")
	}

	// ---- Audit trail ----
	activity, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Audit.Path).Msg("open activity log")
	}
	res.Push("activity log", activity.Close)

	// ---- Use case & facade ----
	expander := usecase.NewVariantExpander(usecase.PolicyFromConfig(cfg.Variants))
	checkout := usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		Store:    store,
		Expander: expander,
		Notifier: notify.NewConsoleNotifier(os.Stdout),
		Activity: activity,
		Limiter:  limiter,
		Logger:   logger,
		Dev:      cfg.Runtime.Dev,
	})
	kiosk := application.NewKioskFacade(checkout, prometheus.DefaultGatherer)

	// ---- Autosave worker ----
	worker := sched.NewAutosaveWorker(cfg.Store.AutosaveInterval, checkout, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = worker.Run(ctx)
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Info().Msg("shutdown requested")
		cancel()
		// stdin stays blocked in the scanner; the final flush runs in the worker.
		<-workerDone
		res.Close()
		os.Exit(0)
	}()

	runConsole(ctx, kiosk, cfg.Kiosk.ID)

	cancel()
	<-workerDone
	res.Close()
}

func runConsole(ctx context.Context, kiosk *application.KioskFacade, kioskID string) {
	fmt.Printf("pickup verification kiosk %q (type help)\n", kioskID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		cmdCtx := logging.WithKioskID(logging.WithTraceID(ctx, uuid.NewString()), kioskID)
		out, err := kiosk.Dispatch(cmdCtx, scanner.Text())
		if out != "" {
			fmt.Println(out)
		}
		if errors.Is(err, application.ErrQuit) {
			return
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
