package fines

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfwise/circulation/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Ledger, func()) {
	dbPath := "./test_fines_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Member{}, &entities.Borrowing{}, &entities.Fine{})
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
	}

	return db, NewLedger(db), cleanup
}

func createTestFine(t *testing.T, ledger *Ledger, amount string) *entities.Fine {
	value, err := decimal.NewFromString(amount)
	require.NoError(t, err)

	fine := &entities.Fine{
		MemberID: 1,
		Amount:   value,
		Reason:   entities.FineReasonLateReturn,
	}
	require.NoError(t, ledger.Create(fine))
	return fine
}

func TestCreate(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	fine := createTestFine(t, ledger, "2.50")

	assert.Equal(t, entities.FineStatusPending, fine.Status)
	assert.False(t, fine.FineDate.IsZero())
}

func TestCreate_NonPositiveAmountRejected(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	err := ledger.Create(&entities.Fine{MemberID: 1, Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	err = ledger.Create(&entities.Fine{MemberID: 1, Amount: decimal.NewFromFloat(-1)})
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
}

func TestPay(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	fine := createTestFine(t, ledger, "2.50")

	paid, err := ledger.Pay(fine.ID)
	require.NoError(t, err)

	assert.Equal(t, entities.FineStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.False(t, paid.PaidDate.Before(paid.FineDate.Truncate(time.Second)))
}

func TestPay_TwiceFails(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	fine := createTestFine(t, ledger, "2.50")

	_, err := ledger.Pay(fine.ID)
	require.NoError(t, err)

	_, err = ledger.Pay(fine.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPay_NotFound(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := ledger.Pay(999)
	assert.ErrorIs(t, err, ErrFineNotFound)
}

func TestWaive(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	fine := createTestFine(t, ledger, "10.00")

	waived, err := ledger.Waive(fine.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.FineStatusWaived, waived.Status)
	assert.Nil(t, waived.PaidDate)
}

func TestWaive_AfterPayFails(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	fine := createTestFine(t, ledger, "10.00")

	_, err := ledger.Pay(fine.ID)
	require.NoError(t, err)

	_, err = ledger.Waive(fine.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPay_AfterWaiveFails(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	fine := createTestFine(t, ledger, "10.00")

	_, err := ledger.Waive(fine.ID)
	require.NoError(t, err)

	_, err = ledger.Pay(fine.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestListForMemberAndOutstanding(t *testing.T) {
	_, ledger, cleanup := setupTestDB(t)
	defer cleanup()

	first := createTestFine(t, ledger, "2.50")
	createTestFine(t, ledger, "5.00")

	// Another member's fine must not leak in.
	other := &entities.Fine{
		MemberID: 2,
		Amount:   decimal.NewFromFloat(99),
		Reason:   entities.FineReasonDamage,
	}
	require.NoError(t, ledger.Create(other))

	list, err := ledger.ListForMember(1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	outstanding, err := ledger.TotalOutstanding(1)
	require.NoError(t, err)
	assert.Equal(t, "7.50", outstanding.StringFixed(2))

	// Paying one shrinks the outstanding balance.
	_, err = ledger.Pay(first.ID)
	require.NoError(t, err)

	outstanding, err = ledger.TotalOutstanding(1)
	require.NoError(t, err)
	assert.Equal(t, "5.00", outstanding.StringFixed(2))
}
