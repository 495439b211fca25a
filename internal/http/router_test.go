package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfwise/circulation/internal/database"
	"github.com/shelfwise/circulation/internal/database/catalog"
	"github.com/shelfwise/circulation/internal/entities"
	"github.com/shelfwise/circulation/internal/fines"
	"github.com/shelfwise/circulation/internal/ledger"
	"github.com/shelfwise/circulation/internal/lending"
	"github.com/shelfwise/circulation/internal/reservations"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupTestRouter(t *testing.T) (*testEnv, func()) {
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	catalogRepo := catalog.NewRepository(db)
	inventoryLedger := ledger.New()
	fineLedger := fines.NewLedger(db)
	queue := reservations.NewQueue(db, inventoryLedger, 7)
	inventoryLedger.SetFreedHook(queue.FulfillNext)

	service := lending.NewService(db, inventoryLedger, fineLedger, lending.Options{
		DefaultLoanDays: 14,
		DailyRate:       decimal.NewFromFloat(0.50),
	})

	router := NewRouter(RouterConfig{
		Database:     &database.Database{DB: db},
		Catalog:      catalogRepo,
		Lending:      service,
		Reservations: queue,
		Fines:        fineLedger,
		Version:      "test",
	})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
	}

	return &testEnv{db: db, router: router}, cleanup
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createBook(t *testing.T, copies int) *entities.Book {
	book := &entities.Book{
		Title:           "Test Book",
		Author:          "Test Author",
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	require.NoError(t, e.db.Create(book).Error)
	return book
}

func (e *testEnv) createMember(t *testing.T, status entities.MembershipStatus) *entities.Member {
	member := &entities.Member{
		Name:     "Test Member",
		Email:    fmt.Sprintf("%s-%d@example.com", t.Name(), time.Now().UnixNano()),
		Status:   status,
		JoinedAt: time.Now(),
	}
	require.NoError(t, e.db.Create(member).Error)
	return member
}

func TestHealth(t *testing.T) {
	env, cleanup := setupTestRouter(t)
	defer cleanup()

	w := env.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status": "healthy"`)
	assert.Contains(t, w.Body.String(), `"schema": "ok"`)
}

func TestBorrowEndpoint(t *testing.T) {
	env, cleanup := setupTestRouter(t)
	defer cleanup()

	book := env.createBook(t, 1)
	member := env.createMember(t, entities.MembershipStatusActive)

	w := env.request(t, http.MethodPost, "/api/borrowings", gin.H{
		"member_id": member.ID,
		"book_id":   book.ID,
		"loan_days": 14,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var borrowing entities.Borrowing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &borrowing))
	assert.Equal(t, entities.BorrowingStatusBorrowed, borrowing.Status)

	// Last copy gone, a second borrow conflicts.
	other := env.createMember(t, entities.MembershipStatusActive)
	w = env.request(t, http.MethodPost, "/api/borrowings", gin.H{
		"member_id": other.ID,
		"book_id":   book.ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBorrowEndpoint_Validation(t *testing.T) {
	env, cleanup := setupTestRouter(t)
	defer cleanup()

	w := env.request(t, http.MethodPost, "/api/borrowings", gin.H{"member_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBorrowEndpoint_InactiveMember(t *testing.T) {
	env, cleanup := setupTestRouter(t)
	defer cleanup()

	book := env.createBook(t, 1)
	member := env.createMember(t, entities.MembershipStatusSuspended)

	w := env.request(t, http.MethodPost, "/api/borrowings", gin.H{
		"member_id": member.ID,
		"book_id":   book.ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReturnEndpoint(t *testing.T) {
	env, cleanup := setupTestRouter(t)
	defer cleanup()

	book := env.createBook(t, 1)
	member := env.createMember(t, entities.MembershipStatusActive)

	w := env.request(t, http.MethodPost, "/api/borrowings", gin.H{
		"member_id": member.ID,
		"book_id":   book.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var borrowing entities.Borrowing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &borrowing))

	w = env.request(t, http.MethodPost, fmt.Sprintf("/api/borrowings/%d/return", borrowing.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodPost, fmt.Sprintf("/api/borrowings/%d/return", borrowing.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReservationEndpoints(t *testing.T) {
	env, cleanup := setupTestRouter(t)
	defer cleanup()

	book := env.createBook(t, 1)
	member := env.createMember(t, entities.MembershipStatusActive)

	w := env.request(t, http.MethodPost, "/api/reservations", gin.H{
		"member_id": member.ID,
		"book_id":   book.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Duplicate pending reservation conflicts.
	w = env.request(t, http.MethodPost, "/api/reservations", gin.H{
		"member_id": member.ID,
		"book_id":   book.ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/books/%d/reservations", book.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count": 1`)
}

func TestFineEndpoints(t *testing.T) {
	env, cleanup := setupTestRouter(t)
	defer cleanup()

	member := env.createMember(t, entities.MembershipStatusActive)

	w := env.request(t, http.MethodPost, "/api/fines", gin.H{
		"member_id": member.ID,
		"amount":    "12.00",
		"reason":    "damage",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var fine entities.Fine
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fine))

	w = env.request(t, http.MethodPost, fmt.Sprintf("/api/fines/%d/pay", fine.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Second payment is an invalid transition.
	w = env.request(t, http.MethodPost, fmt.Sprintf("/api/fines/%d/pay", fine.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	env, cleanup := setupTestRouter(t)
	defer cleanup()

	book := env.createBook(t, 2)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available_copies": 2`)

	w = env.request(t, http.MethodGet, "/api/books/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodGet, "/api/books/search?q=test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count": 1`)
}
