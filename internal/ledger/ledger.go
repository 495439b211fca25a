// Package ledger owns the available-copy counters.
//
// Nothing outside this package writes Book.AvailableCopies or
// Book.TotalCopies. Callers serialize on a book via Lock before running the
// transaction that decrements or increments its counters, so two concurrent
// borrows of the last copy can never both succeed.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gorm.io/gorm"

	"github.com/shelfwise/circulation/internal/entities"
)

var (
	// ErrNoCopies means the book exists but every copy is checked out.
	ErrNoCopies = errors.New("no copies available")

	// ErrBookNotFound means the book id does not exist in the catalog.
	ErrBookNotFound = errors.New("book not found")

	// ErrIntegrity means the copy counters are corrupt: an increment would
	// push available past total, or a forfeit would push total below
	// available. Always a defect, never a user error. The enclosing
	// transaction must abort.
	ErrIntegrity = errors.New("copy count integrity violation")
)

// FreedHook is invoked inside the increment transaction after a copy comes
// back. Returning claimed=true means the hook allocated the copy (a pending
// reservation was fulfilled) and the ledger re-decrements before the copy is
// ever reported as generally available.
type FreedHook func(tx *gorm.DB, bookID uint) (claimed bool, err error)

// Ledger performs atomic copy-count accounting for the catalog.
type Ledger struct {
	freedHook FreedHook

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func New() *Ledger {
	return &Ledger{locks: make(map[uint]*sync.Mutex)}
}

// SetFreedHook wires the reservation queue in. Must be called during startup,
// before the ledger serves requests.
func (l *Ledger) SetFreedHook(hook FreedHook) {
	l.freedHook = hook
}

// Lock serializes all count-affecting operations on one book. Operations on
// different books proceed in parallel. The returned func releases the lock.
func (l *Ledger) Lock(bookID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[bookID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[bookID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// TryDecrement claims one available copy. The conditional update only
// succeeds while available_copies > 0, so the counter can never go negative.
func (l *Ledger) TryDecrement(tx *gorm.DB, bookID uint) error {
	result := tx.Model(&entities.Book{}).
		Where("id = ? AND available_copies > 0", bookID).
		Update("available_copies", gorm.Expr("available_copies - 1"))
	if result.Error != nil {
		return fmt.Errorf("decrement failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return l.classifyMiss(tx, bookID, func() error { return ErrNoCopies })
	}
	return nil
}

// Increment releases one copy back to the shelf and gives the reservation
// queue first claim on it. available_copies exceeding total_copies is
// reported as corruption, never clamped.
func (l *Ledger) Increment(tx *gorm.DB, bookID uint) error {
	result := tx.Model(&entities.Book{}).
		Where("id = ? AND available_copies < total_copies", bookID).
		Update("available_copies", gorm.Expr("available_copies + 1"))
	if result.Error != nil {
		return fmt.Errorf("increment failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return l.classifyMiss(tx, bookID, func() error {
			return l.fault(bookID, "increment would exceed total_copies")
		})
	}

	if l.freedHook == nil {
		return nil
	}
	claimed, err := l.freedHook(tx, bookID)
	if err != nil {
		return fmt.Errorf("freed hook failed: %w", err)
	}
	if claimed {
		// The freed copy goes to the reservation head, not the shelf.
		if err := l.TryDecrement(tx, bookID); err != nil {
			return l.fault(bookID, "reservation claim found no copy to allocate")
		}
	}
	return nil
}

// ForfeitCopy permanently removes a checked-out copy from circulation
// (loss). A lost copy is by definition not on the shelf, so total must
// stay strictly above available for the forfeit to be legal.
func (l *Ledger) ForfeitCopy(tx *gorm.DB, bookID uint) error {
	result := tx.Model(&entities.Book{}).
		Where("id = ? AND total_copies > available_copies", bookID).
		Update("total_copies", gorm.Expr("total_copies - 1"))
	if result.Error != nil {
		return fmt.Errorf("forfeit failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return l.classifyMiss(tx, bookID, func() error {
			return l.fault(bookID, "forfeit would push total_copies below available_copies")
		})
	}
	return nil
}

// classifyMiss distinguishes "condition not met" from "book does not exist"
// after a zero-row conditional update. conditionErr is a closure so that a
// fault is only constructed (and logged) once the book is known to exist.
func (l *Ledger) classifyMiss(tx *gorm.DB, bookID uint, conditionErr func() error) error {
	var count int64
	if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrBookNotFound
	}
	return conditionErr()
}

func (l *Ledger) fault(bookID uint, detail string) error {
	log.Printf("CONSISTENCY FAULT: book %d: %s", bookID, detail)
	return fmt.Errorf("book %d: %s: %w", bookID, detail, ErrIntegrity)
}
