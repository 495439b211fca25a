package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfwise/circulation/internal/database"
	"github.com/shelfwise/circulation/internal/entities"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db == nil {
		checks["database"] = "not configured"
	} else if err := h.pingDatabase(); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "ok"

		// A reachable database without the circulation schema cannot
		// serve a single borrow, so report it as unhealthy too.
		if missing := h.missingTable(); missing != "" {
			checks["schema"] = "missing table: " + missing
			status = "unhealthy"
		} else {
			checks["schema"] = "ok"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) pingDatabase() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (h *HealthController) missingTable() string {
	migrator := h.db.DB.Migrator()
	for _, model := range []interface {
		TableName() string
	}{
		entities.Book{},
		entities.Member{},
		entities.Borrowing{},
		entities.Reservation{},
		entities.Fine{},
	} {
		if !migrator.HasTable(model) {
			return model.TableName()
		}
	}
	return ""
}
