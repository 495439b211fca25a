package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shelfwise/circulation/internal/config"
	"github.com/shelfwise/circulation/internal/database"
	"github.com/shelfwise/circulation/internal/database/catalog"
	"github.com/shelfwise/circulation/internal/fines"
	http_controllers "github.com/shelfwise/circulation/internal/http"
	"github.com/shelfwise/circulation/internal/ledger"
	"github.com/shelfwise/circulation/internal/lending"
	"github.com/shelfwise/circulation/internal/reservations"
	"github.com/shelfwise/circulation/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Circulation v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	dailyRate, err := decimal.NewFromString(cfg.Circulation.LateFeeDailyRate)
	if err != nil {
		log.Fatalf("Invalid LATE_FEE_DAILY_RATE %q: %v", cfg.Circulation.LateFeeDailyRate, err)
	}
	lostCharge, err := decimal.NewFromString(cfg.Circulation.LostBookCharge)
	if err != nil {
		log.Fatalf("Invalid LOST_BOOK_CHARGE %q: %v", cfg.Circulation.LostBookCharge, err)
	}

	// Wire the circulation engine: the ledger owns the copy counters, the
	// reservation queue gets first claim on freed copies.
	catalogRepo := catalog.NewRepository(db.DB)
	inventoryLedger := ledger.New()
	fineLedger := fines.NewLedger(db.DB)
	reservationQueue := reservations.NewQueue(db.DB, inventoryLedger, cfg.Circulation.ReservationHoldDays)
	inventoryLedger.SetFreedHook(reservationQueue.FulfillNext)

	lendingService := lending.NewService(db.DB, inventoryLedger, fineLedger, lending.Options{
		DefaultLoanDays: cfg.Circulation.DefaultLoanDays,
		DailyRate:       dailyRate,
		LostBookCharge:  lostCharge,
	})

	// Periodic sweep: overdue persist + reservation expiry.
	var sweep *scheduler.SweepScheduler
	var sweepCtxCancel context.CancelFunc
	if cfg.Sweep.Enabled {
		sweep = scheduler.NewSweepScheduler(lendingService, reservationQueue, cfg.Sweep.Schedule)

		var sweepCtx context.Context
		sweepCtx, sweepCtxCancel = context.WithCancel(context.Background())
		if err := sweep.Start(sweepCtx); err != nil {
			log.Fatalf("Failed to start sweep scheduler: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:     db,
		Catalog:      catalogRepo,
		Lending:      lendingService,
		Reservations: reservationQueue,
		Fines:        fineLedger,
		Version:      version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sweep != nil {
			sweep.Stop()
			sweepCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
