// Package lending drives a borrowing through its lifecycle:
// borrowed -> returned on the normal path, borrowed -> overdue once the due
// date passes, and borrowed|overdue -> lost by staff action.
//
// Borrow and return are each one transaction under the book's ledger lock,
// so the copy counters and the lending history can never disagree.
package lending

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shelfwise/circulation/internal/entities"
	"github.com/shelfwise/circulation/internal/fees"
	"github.com/shelfwise/circulation/internal/fines"
	"github.com/shelfwise/circulation/internal/ledger"
)

var (
	// ErrMemberNotActive means the member's status forbids borrowing.
	ErrMemberNotActive = errors.New("member is not active")

	// ErrBookUnavailable means every copy of the book is checked out.
	ErrBookUnavailable = errors.New("book unavailable")

	// ErrBorrowingNotFound means no active (unreturned) borrowing matches.
	ErrBorrowingNotFound = errors.New("active borrowing not found")

	ErrMemberNotFound = errors.New("member not found")
)

// Options configures lending policy.
type Options struct {
	DefaultLoanDays int             // loan length when the request gives none
	DailyRate       decimal.Decimal // late fee per day
	LostBookCharge  decimal.Decimal // replacement fine for lost copies; zero disables
}

// Service orchestrates borrow/return against the ledger and fine ledger.
type Service struct {
	db    *gorm.DB
	ldgr  *ledger.Ledger
	fines *fines.Ledger
	opts  Options
	now   func() time.Time
}

func NewService(db *gorm.DB, ldgr *ledger.Ledger, fineLedger *fines.Ledger, opts Options) *Service {
	if opts.DefaultLoanDays <= 0 {
		opts.DefaultLoanDays = 14
	}
	if opts.DailyRate.IsZero() {
		opts.DailyRate = fees.DefaultDailyRate
	}
	return &Service{
		db:    db,
		ldgr:  ldgr,
		fines: fineLedger,
		opts:  opts,
		now:   time.Now,
	}
}

// BorrowBook checks the member out with one copy. The ledger decrement and
// the borrowing insert are one atomic unit: if the insert fails, the
// transaction rolls the decrement back and no copy leaks.
func (s *Service) BorrowBook(memberID, bookID uint, loanDays int) (*entities.Borrowing, error) {
	if loanDays <= 0 {
		loanDays = s.opts.DefaultLoanDays
	}

	unlock := s.ldgr.Lock(bookID)
	defer unlock()

	now := s.now()
	borrowing := &entities.Borrowing{
		MemberID:   memberID,
		BookID:     bookID,
		BorrowDate: now,
		DueDate:    now.AddDate(0, 0, loanDays),
		Status:     entities.BorrowingStatusBorrowed,
		LateFee:    decimal.Zero,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var member entities.Member
		if err := tx.First(&member, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if member.Status != entities.MembershipStatusActive {
			return ErrMemberNotActive
		}

		if err := s.ldgr.TryDecrement(tx, bookID); err != nil {
			if errors.Is(err, ledger.ErrNoCopies) {
				return ErrBookUnavailable
			}
			return err
		}

		if err := tx.Create(borrowing).Error; err != nil {
			return fmt.Errorf("failed to create borrowing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return borrowing, nil
}

// ReturnBook closes an active borrowing: computes the late fee, records a
// fine when the fee is positive, releases the copy back to the ledger and
// lets the reservation queue claim it first. One atomic unit.
func (s *Service) ReturnBook(borrowingID uint) (*entities.Borrowing, error) {
	borrowing, err := s.activeBorrowing(borrowingID)
	if err != nil {
		return nil, err
	}

	unlock := s.ldgr.Lock(borrowing.BookID)
	defer unlock()

	var returned entities.Borrowing
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Re-read under the lock, the record may have changed since the
		// unlocked lookup.
		if err := s.lockedActiveBorrowing(tx, borrowingID, &returned); err != nil {
			return err
		}

		now := s.now()
		fee := fees.LateFee(returned.DueDate, now, s.opts.DailyRate)

		returned.ReturnDate = &now
		returned.Status = entities.BorrowingStatusReturned
		returned.LateFee = fee
		if err := tx.Save(&returned).Error; err != nil {
			return fmt.Errorf("failed to update borrowing: %w", err)
		}

		if fee.IsPositive() {
			fine := &entities.Fine{
				MemberID:    returned.MemberID,
				BorrowingID: &returned.ID,
				Amount:      fee,
				Reason:      entities.FineReasonLateReturn,
				FineDate:    now,
			}
			if err := s.fines.Record(tx, fine); err != nil {
				return err
			}
		}

		return s.ldgr.Increment(tx, returned.BookID)
	})
	if err != nil {
		return nil, err
	}
	return &returned, nil
}

// MarkLost forfeits the copy permanently: the borrowing goes to lost, total
// copies drop by one and the shelf count is not restored. Staff-only.
func (s *Service) MarkLost(borrowingID uint) (*entities.Borrowing, error) {
	borrowing, err := s.activeBorrowing(borrowingID)
	if err != nil {
		return nil, err
	}

	unlock := s.ldgr.Lock(borrowing.BookID)
	defer unlock()

	var lost entities.Borrowing
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lockedActiveBorrowing(tx, borrowingID, &lost); err != nil {
			return err
		}

		lost.Status = entities.BorrowingStatusLost
		if err := tx.Save(&lost).Error; err != nil {
			return fmt.Errorf("failed to update borrowing: %w", err)
		}

		if s.opts.LostBookCharge.IsPositive() {
			fine := &entities.Fine{
				MemberID:    lost.MemberID,
				BorrowingID: &lost.ID,
				Amount:      s.opts.LostBookCharge,
				Reason:      entities.FineReasonLostBook,
				FineDate:    s.now(),
			}
			if err := s.fines.Record(tx, fine); err != nil {
				return err
			}
		}

		return s.ldgr.ForfeitCopy(tx, lost.BookID)
	})
	if err != nil {
		return nil, err
	}
	return &lost, nil
}

// SweepOverdue persists overdue status on every borrowed record whose due
// date has passed. Idempotent; the overdue state is otherwise derived.
func (s *Service) SweepOverdue() (int64, error) {
	result := s.db.Model(&entities.Borrowing{}).
		Where("status = ? AND due_date < ?", entities.BorrowingStatusBorrowed, s.now()).
		Update("status", entities.BorrowingStatusOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("overdue sweep failed: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("Overdue sweep: %d borrowing(s) marked overdue", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

func (s *Service) GetBorrowing(id uint) (*entities.Borrowing, error) {
	var borrowing entities.Borrowing
	err := s.db.First(&borrowing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBorrowingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

func (s *Service) ListForMember(memberID uint) ([]entities.Borrowing, error) {
	var list []entities.Borrowing
	err := s.db.Where("member_id = ?", memberID).Order("borrow_date DESC").Find(&list).Error
	return list, err
}

func (s *Service) activeBorrowing(id uint) (*entities.Borrowing, error) {
	var borrowing entities.Borrowing
	err := s.db.
		Where("id = ? AND status IN ?", id,
			[]entities.BorrowingStatus{entities.BorrowingStatusBorrowed, entities.BorrowingStatusOverdue}).
		First(&borrowing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBorrowingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

func (s *Service) lockedActiveBorrowing(tx *gorm.DB, id uint, dst *entities.Borrowing) error {
	err := tx.
		Where("id = ? AND status IN ?", id,
			[]entities.BorrowingStatus{entities.BorrowingStatusBorrowed, entities.BorrowingStatusOverdue}).
		First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBorrowingNotFound
	}
	return err
}
