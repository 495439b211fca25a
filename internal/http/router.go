package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shelfwise/circulation/internal/database"
)

// RouterConfig carries all dependencies the router needs. Narrow interfaces
// keep the controllers testable against fakes.
type RouterConfig struct {
	Database     *database.Database
	Catalog      CatalogStore
	Lending      LendingService
	Reservations ReservationQueue
	Fines        FineLedger
	Version      string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	catalogController := NewCatalogController(cfg.Catalog)
	lendingController := NewLendingController(cfg.Lending)
	reservationsController := NewReservationsController(cfg.Reservations)
	finesController := NewFinesController(cfg.Fines)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog reads
	router.GET("/api/books", catalogController.GetAllBooks)
	router.GET("/api/books/search", catalogController.SearchBooks)
	router.GET("/api/books/:id", catalogController.GetBook)
	router.GET("/api/members/:id", catalogController.GetMember)

	// Borrowing lifecycle
	router.POST("/api/borrowings", lendingController.Borrow)
	router.POST("/api/borrowings/:id/return", lendingController.Return)
	router.POST("/api/borrowings/:id/lost", lendingController.MarkLost)
	router.GET("/api/borrowings/:id", lendingController.GetBorrowing)
	router.GET("/api/members/:id/borrowings", lendingController.ListForMember)

	// Reservation queue
	router.POST("/api/reservations", reservationsController.Enqueue)
	router.POST("/api/reservations/:id/cancel", reservationsController.Cancel)
	router.GET("/api/books/:id/reservations", reservationsController.ListForBook)
	router.GET("/api/members/:id/reservations", reservationsController.ListForMember)

	// Fine settlement
	router.POST("/api/fines", finesController.Create)
	router.POST("/api/fines/:id/pay", finesController.Pay)
	router.POST("/api/fines/:id/waive", finesController.Waive)
	router.GET("/api/fines/:id", finesController.Get)
	router.GET("/api/members/:id/fines", finesController.ListForMember)

	return router
}
