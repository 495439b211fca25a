// Package fines tracks fine records and their payment status.
//
// Fines are created by the return flow (late returns), the loss flow, or
// staff action (damage, other). Status transitions happen only here:
// pending -> paid and pending -> waived, nothing else.
package fines

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shelfwise/circulation/internal/entities"
)

var (
	ErrFineNotFound = errors.New("fine not found")

	// ErrInvalidState means a payment or waiver was attempted on a fine
	// that is no longer pending.
	ErrInvalidState = errors.New("fine is not pending")

	ErrNonPositiveAmount = errors.New("fine amount must be positive")
)

// Ledger handles fine persistence and settlement.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Record inserts a fine inside the caller's transaction. Used by the return
// and loss flows so the fine commits or rolls back with the rest of the unit.
func (l *Ledger) Record(tx *gorm.DB, fine *entities.Fine) error {
	if !fine.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if fine.Status == "" {
		fine.Status = entities.FineStatusPending
	}
	if fine.FineDate.IsZero() {
		fine.FineDate = l.now()
	}
	if err := tx.Create(fine).Error; err != nil {
		return fmt.Errorf("failed to record fine: %w", err)
	}
	return nil
}

// Create records a standalone fine (staff-entered damage/other charges).
func (l *Ledger) Create(fine *entities.Fine) error {
	return l.Record(l.db, fine)
}

// Pay settles a pending fine. A second call on the same fine fails with
// ErrInvalidState.
func (l *Ledger) Pay(fineID uint) (*entities.Fine, error) {
	return l.settle(fineID, entities.FineStatusPaid)
}

// Waive forgives a pending fine without payment.
func (l *Ledger) Waive(fineID uint) (*entities.Fine, error) {
	return l.settle(fineID, entities.FineStatusWaived)
}

func (l *Ledger) settle(fineID uint, target entities.FineStatus) (*entities.Fine, error) {
	var fine entities.Fine
	err := l.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": target}
		if target == entities.FineStatusPaid {
			updates["paid_date"] = l.now()
		}

		// Conditional update so concurrent settlements cannot both win.
		result := tx.Model(&entities.Fine{}).
			Where("id = ? AND status = ?", fineID, entities.FineStatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&entities.Fine{}).Where("id = ?", fineID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrFineNotFound
			}
			return ErrInvalidState
		}
		return tx.First(&fine, fineID).Error
	})
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

func (l *Ledger) Get(fineID uint) (*entities.Fine, error) {
	var fine entities.Fine
	err := l.db.First(&fine, fineID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

func (l *Ledger) ListForMember(memberID uint) ([]entities.Fine, error) {
	var list []entities.Fine
	err := l.db.Where("member_id = ?", memberID).Order("fine_date DESC").Find(&list).Error
	return list, err
}

// TotalOutstanding sums the member's pending fines.
func (l *Ledger) TotalOutstanding(memberID uint) (decimal.Decimal, error) {
	var fines []entities.Fine
	err := l.db.Where("member_id = ? AND status = ?", memberID, entities.FineStatusPending).Find(&fines).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, f := range fines {
		total = total.Add(f.Amount)
	}
	return total, nil
}
