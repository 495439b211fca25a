// Package reservations keeps a per-book ordered queue of pending
// reservations and fulfills the head whenever the ledger frees a copy.
package reservations

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/shelfwise/circulation/internal/entities"
	"github.com/shelfwise/circulation/internal/ledger"
)

var (
	// ErrDuplicateReservation means the member already holds a pending
	// reservation for the book.
	ErrDuplicateReservation = errors.New("member already has a pending reservation for this book")

	ErrReservationNotFound = errors.New("reservation not found")

	// ErrInvalidReservationState means a cancel was attempted on a
	// reservation that is no longer pending.
	ErrInvalidReservationState = errors.New("reservation is not pending")

	ErrMemberNotFound = errors.New("member not found")
)

// Queue owns reservation creation and status transitions.
type Queue struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	holdDays int
	now      func() time.Time
}

func NewQueue(db *gorm.DB, ldgr *ledger.Ledger, holdDays int) *Queue {
	if holdDays <= 0 {
		holdDays = 7
	}
	return &Queue{db: db, ledger: ldgr, holdDays: holdDays, now: time.Now}
}

// Enqueue adds a pending reservation for the member. The duplicate check and
// the insert run under the book lock so two racing requests from the same
// member cannot both slip in.
func (q *Queue) Enqueue(memberID, bookID uint, priority int) (*entities.Reservation, error) {
	if priority < 1 {
		priority = 1
	}

	unlock := q.ledger.Lock(bookID)
	defer unlock()

	now := q.now()
	reservation := &entities.Reservation{
		MemberID:        memberID,
		BookID:          bookID,
		ReservationDate: now,
		ExpiryDate:      now.AddDate(0, 0, q.holdDays),
		Status:          entities.ReservationStatusPending,
		Priority:        priority,
	}

	err := q.db.Transaction(func(tx *gorm.DB) error {
		var member entities.Member
		if err := tx.First(&member, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		if err := tx.First(&entities.Book{}, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrBookNotFound
			}
			return err
		}

		var pending int64
		err := tx.Model(&entities.Reservation{}).
			Where("member_id = ? AND book_id = ? AND status = ?",
				memberID, bookID, entities.ReservationStatusPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateReservation
		}

		return tx.Create(reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// FulfillNext pops the head of the book's pending queue and marks it
// fulfilled. Expired entries are cancelled and skipped during the scan.
// Runs inside the ledger's increment transaction as its freed hook, so
// fulfillment happens-before the copy is reported generally available.
func (q *Queue) FulfillNext(tx *gorm.DB, bookID uint) (bool, error) {
	now := q.now()
	for {
		var head entities.Reservation
		err := tx.Where("book_id = ? AND status = ?", bookID, entities.ReservationStatusPending).
			Order("priority ASC, reservation_date ASC").
			First(&head).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		if head.ExpiryDate.Before(now) {
			err := tx.Model(&head).Update("status", entities.ReservationStatusCancelled).Error
			if err != nil {
				return false, err
			}
			continue
		}

		err = tx.Model(&head).Update("status", entities.ReservationStatusFulfilled).Error
		if err != nil {
			return false, err
		}
		log.Printf("Reservation %d fulfilled: book %d held for member %d", head.ID, bookID, head.MemberID)
		return true, nil
	}
}

// Cancel withdraws a pending reservation (member action).
func (q *Queue) Cancel(reservationID uint) (*entities.Reservation, error) {
	var reservation entities.Reservation
	err := q.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Reservation{}).
			Where("id = ? AND status = ?", reservationID, entities.ReservationStatusPending).
			Update("status", entities.ReservationStatusCancelled)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&entities.Reservation{}).Where("id = ?", reservationID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrReservationNotFound
			}
			return ErrInvalidReservationState
		}
		return tx.First(&reservation, reservationID).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ExpireStale cancels every pending reservation past its expiry date.
// Called periodically by the sweep scheduler.
func (q *Queue) ExpireStale() (int64, error) {
	result := q.db.Model(&entities.Reservation{}).
		Where("status = ? AND expiry_date < ?", entities.ReservationStatusPending, q.now()).
		Update("status", entities.ReservationStatusCancelled)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire reservations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (q *Queue) ListForBook(bookID uint) ([]entities.Reservation, error) {
	var list []entities.Reservation
	err := q.db.Where("book_id = ? AND status = ?", bookID, entities.ReservationStatusPending).
		Order("priority ASC, reservation_date ASC").
		Find(&list).Error
	return list, err
}

func (q *Queue) ListForMember(memberID uint) ([]entities.Reservation, error) {
	var list []entities.Reservation
	err := q.db.Where("member_id = ?", memberID).Order("reservation_date DESC").Find(&list).Error
	return list, err
}
