package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shelfwise/circulation/internal/config"
	"github.com/shelfwise/circulation/internal/database"
	"github.com/shelfwise/circulation/internal/entrypoint"
	"github.com/shelfwise/circulation/internal/fines"
	"github.com/shelfwise/circulation/internal/ledger"
	"github.com/shelfwise/circulation/internal/lending"
	"github.com/shelfwise/circulation/internal/reservations"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]

	switch command {
	case "sweep":
		// One-shot sweep for external cron setups.
		cfg := config.NewConfig()
		if err := runSweep(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runSweep(cfg *config.Config) error {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	inventoryLedger := ledger.New()
	fineLedger := fines.NewLedger(db.DB)
	queue := reservations.NewQueue(db.DB, inventoryLedger, cfg.Circulation.ReservationHoldDays)
	service := lending.NewService(db.DB, inventoryLedger, fineLedger, lending.Options{
		DefaultLoanDays: cfg.Circulation.DefaultLoanDays,
	})

	overdue, err := service.SweepOverdue()
	if err != nil {
		return err
	}
	expired, err := queue.ExpireStale()
	if err != nil {
		return err
	}
	log.Printf("Sweep complete: %d overdue, %d reservations expired", overdue, expired)
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve   Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  sweep   Run one overdue/expiry sweep and exit\n")
}
