package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pickup-verification/internal/config"
	"pickup-verification/internal/domain"
	"pickup-verification/internal/domain/model"
	"pickup-verification/internal/infra/adapters/audit"
	"pickup-verification/internal/infra/adapters/notify"
	"pickup-verification/internal/infra/db"
	"pickup-verification/internal/infra/logging"
	"pickup-verification/internal/usecase"
)

type seedFile struct {
	Children []seedChild `yaml:"children"`
}

type seedChild struct {
	Child  string `yaml:"child"`
	DOB    string `yaml:"dob"`
	Parent string `yaml:"parent"`
	Expand bool   `yaml:"expand"`
}

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file")
	seedPath := flag.String("file", "seed.yaml", "YAML list of children to enroll")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	raw, err := os.ReadFile(*seedPath)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeRepo, err := db.OpenSnapshotRepo(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store backend: %v", err)
	}
	defer closeRepo()

	store := usecase.NewVerificationStore(repo, cfg.Store.FlushTimeout, logger)
	if err := store.Load(ctx); err != nil {
		log.Fatalf("load: %v", err)
	}
	activity, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		log.Fatalf("activity log: %v", err)
	}
	defer activity.Close()

	checkout := usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		Store:    store,
		Expander: usecase.NewVariantExpander(usecase.PolicyFromConfig(cfg.Variants)),
		Notifier: notify.NoopNotifier{},
		Activity: activity,
		Logger:   logger,
		Dev:      cfg.Runtime.Dev,
	})

	before := store.Len()
	for _, c := range seed.Children {
		id, err := model.NewIdentity(c.Child, c.DOB, c.Parent)
		if err != nil {
			log.Fatalf("child %q: %v", c.Child, err)
		}
		rec, inserted, err := checkout.Enroll(ctx, *id)
		if err != nil {
			log.Fatalf("enroll %q: %v", c.Child, err)
		}
		state := "exists"
		if inserted {
			state = "new"
		}
		fmt.Printf("  - %s: %s (%s)\n", id.ChildName, rec.Code, state)
		if c.Expand {
			codes, err := checkout.ExpandVariants(ctx, *id)
			if errors.Is(err, domain.ErrNotFound) {
				// the canonical code belongs to another identity
				fmt.Printf("      skipped expand: %v\n", err)
				continue
			}
			if err != nil {
				log.Fatalf("expand %q: %v", c.Child, err)
			}
			fmt.Printf("      %d variants registered\n", len(codes))
		}
	}

	if err := checkout.Flush(ctx); err != nil {
		log.Fatalf("flush: %v", err)
	}
	fmt.Printf("Seeding complete: %d codes added, %d total.\n", store.Len()-before, store.Len())
}
