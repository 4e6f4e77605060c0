package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/config"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/database"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/router"
	"gorm.io/gorm"
)

// cmd/reconcile prints a per-provider ledger summary and optionally re-verifies
// stale pending payments against the provider.
//
// Usage:
//
//	go run ./cmd/reconcile                  # report only
//	go run ./cmd/reconcile -verify          # report, then verify stale refs
//	go run ./cmd/reconcile -verify -age 30  # pending older than 30 minutes
func main() {
	verify := flag.Bool("verify", false, "re-verify stale pending payments against the provider")
	age := flag.Int("age", 15, "minutes after which a pending payment counts as stale")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Plain database/sql store for the read-only report
	store, err := database.Start()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	report, err := store.LedgerReport()
	if err != nil {
		log.Fatalf("Failed to build ledger report: %v", err)
	}

	fmt.Println("Ledger summary (provider / status / count / amount):")
	if len(report) == 0 {
		fmt.Println("  no payments recorded")
	}
	for _, row := range report {
		fmt.Printf("  %-12s %-10s %6d  %12.2f\n", row.Provider, row.Status, row.Count, row.Amount)
	}

	refs, err := store.StalePendingReferences(*age)
	if err != nil {
		log.Fatalf("Failed to list stale pending payments: %v", err)
	}
	fmt.Printf("\nStale pending payments (older than %d minutes): %d\n", *age, len(refs))

	if !*verify || len(refs) == 0 {
		return
	}

	// Verification needs the full service graph: GORM store plus the
	// configured provider adapters.
	getEnv, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gormStore, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect GORM store: %v", err)
	}
	defer gormStore.Close()

	db, ok := gormStore.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	registry := router.BuildRegistry(getEnv)
	svcs := router.BuildServices(db, registry, getEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	failed := 0
	for _, ref := range refs {
		result, err := svcs.Verification.VerifyReference(ctx, ref)
		if err != nil {
			failed++
			fmt.Printf("  %-30s verify failed: %v\n", ref, err)
			continue
		}
		status := "(no local payment)"
		if result.Payment != nil {
			status = string(result.Payment.Status)
		}
		fmt.Printf("  %-30s provider=%s local=%s\n", ref, result.ProviderStatus, status)
	}

	fmt.Printf("\nVerified %d references, %d failed\n", len(refs)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
