package entities

import (
	"time"

	"gorm.io/gorm"
)

type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusSuspended MembershipStatus = "suspended"
	MembershipStatusExpired   MembershipStatus = "expired"
)

// Book is a catalog record plus the copy counters owned by the inventory
// ledger. AvailableCopies and TotalCopies are never written outside of
// internal/ledger.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"index;size:512" json:"title"`
	Author          string         `gorm:"index;size:256" json:"author"`
	ISBN            string         `gorm:"index;size:20" json:"isbn,omitempty"`
	Publisher       string         `gorm:"size:256" json:"publisher,omitempty"`
	PublicationYear int            `json:"publication_year,omitempty"`
	TotalCopies     int            `gorm:"not null;default:0" json:"total_copies"`
	AvailableCopies int            `gorm:"not null;default:0" json:"available_copies"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type Member struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Name      string           `gorm:"size:256" json:"name"`
	Email     string           `gorm:"uniqueIndex;size:255" json:"email"`
	Status    MembershipStatus `gorm:"size:20;default:'active'" json:"status"`
	JoinedAt  time.Time        `json:"joined_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

func (Member) TableName() string {
	return "members"
}
