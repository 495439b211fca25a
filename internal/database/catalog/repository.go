// Package catalog provides flat record storage for books and members.
//
// The catalog carries no business rules beyond uniqueness and referential
// integrity. Copy counters on Book are read here but mutated only by the
// inventory ledger.
package catalog

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shelfwise/circulation/internal/entities"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrMemberNotFound = errors.New("member not found")
)

// Repository handles catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook adds a book to the catalog. All copies start available.
func (r *Repository) CreateBook(book *entities.Book) error {
	if book.AvailableCopies == 0 {
		book.AvailableCopies = book.TotalCopies
	}
	return r.db.Create(book).Error
}

func (r *Repository) GetBook(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("title ASC").Find(&books).Error
	return books, err
}

func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?) OR isbn = ?", pattern, pattern, query).
		Order("title ASC").
		Find(&books).Error
	return books, err
}

func (r *Repository) CreateMember(member *entities.Member) error {
	if member.Status == "" {
		member.Status = entities.MembershipStatusActive
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	return r.db.Create(member).Error
}

func (r *Repository) GetMember(id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.First(&member, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// SetMemberStatus updates the membership status (suspension, expiry).
func (r *Repository) SetMemberStatus(id uint, status entities.MembershipStatus) error {
	result := r.db.Model(&entities.Member{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}
