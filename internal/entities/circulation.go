package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type BorrowingStatus string

const (
	BorrowingStatusBorrowed BorrowingStatus = "borrowed"
	BorrowingStatusReturned BorrowingStatus = "returned"
	BorrowingStatusOverdue  BorrowingStatus = "overdue"
	BorrowingStatusLost     BorrowingStatus = "lost"
)

// IsActive reports whether the copy is still out with the member.
func (s BorrowingStatus) IsActive() bool {
	return s == BorrowingStatusBorrowed || s == BorrowingStatusOverdue
}

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

type FineStatus string

const (
	FineStatusPending FineStatus = "pending"
	FineStatusPaid    FineStatus = "paid"
	FineStatusWaived  FineStatus = "waived"
)

type FineReason string

const (
	FineReasonLateReturn FineReason = "late_return"
	FineReasonLostBook   FineReason = "lost_book"
	FineReasonDamage     FineReason = "damage"
	FineReasonOther      FineReason = "other"
)

// Borrowing is one lending of one copy. Records are never deleted, they are
// the permanent lending history of the branch.
type Borrowing struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	MemberID   uint            `gorm:"index" json:"member_id"`
	BookID     uint            `gorm:"index" json:"book_id"`
	BorrowDate time.Time       `json:"borrow_date"`
	DueDate    time.Time       `json:"due_date"`
	ReturnDate *time.Time      `json:"return_date,omitempty"`
	Status     BorrowingStatus `gorm:"index;size:20;default:'borrowed'" json:"status"`
	LateFee    decimal.Decimal `gorm:"type:decimal(10,2)" json:"late_fee"`
	Member     Member          `gorm:"foreignKey:MemberID" json:"-"`
	Book       Book            `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Reservation is a queued claim on the next freed copy of a book.
// At most one pending reservation may exist per (member, book) pair.
type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	MemberID        uint              `gorm:"index" json:"member_id"`
	BookID          uint              `gorm:"index" json:"book_id"`
	ReservationDate time.Time         `json:"reservation_date"`
	ExpiryDate      time.Time         `json:"expiry_date"`
	Status          ReservationStatus `gorm:"index;size:20;default:'pending'" json:"status"`
	Priority        int               `gorm:"default:1" json:"priority"`
	Member          Member            `gorm:"foreignKey:MemberID" json:"-"`
	Book            Book              `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type Fine struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	MemberID    uint            `gorm:"index" json:"member_id"`
	BorrowingID *uint           `gorm:"index" json:"borrowing_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Reason      FineReason      `gorm:"size:20" json:"reason"`
	Status      FineStatus      `gorm:"index;size:20;default:'pending'" json:"status"`
	FineDate    time.Time       `json:"fine_date"`
	PaidDate    *time.Time      `json:"paid_date,omitempty"`
	Member      Member          `gorm:"foreignKey:MemberID" json:"-"`
	Borrowing   *Borrowing      `gorm:"foreignKey:BorrowingID" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Borrowing) TableName() string {
	return "borrowings"
}

func (Reservation) TableName() string {
	return "reservations"
}

func (Fine) TableName() string {
	return "fines"
}
