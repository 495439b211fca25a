package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfwise/circulation/internal/entities"
)

// LendingService is the surface the lending controller needs.
type LendingService interface {
	BorrowBook(memberID, bookID uint, loanDays int) (*entities.Borrowing, error)
	ReturnBook(borrowingID uint) (*entities.Borrowing, error)
	MarkLost(borrowingID uint) (*entities.Borrowing, error)
	GetBorrowing(id uint) (*entities.Borrowing, error)
	ListForMember(memberID uint) ([]entities.Borrowing, error)
}

type LendingController struct {
	service LendingService
}

func NewLendingController(service LendingService) *LendingController {
	return &LendingController{service: service}
}

type borrowRequest struct {
	MemberID uint `json:"member_id" binding:"required"`
	BookID   uint `json:"book_id" binding:"required"`
	LoanDays int  `json:"loan_days"`
}

func (controller *LendingController) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	borrowing, err := controller.service.BorrowBook(req.MemberID, req.BookID, req.LoanDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, borrowing)
}

func (controller *LendingController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	borrowing, err := controller.service.ReturnBook(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, borrowing)
}

func (controller *LendingController) MarkLost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	borrowing, err := controller.service.MarkLost(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, borrowing)
}

func (controller *LendingController) GetBorrowing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	borrowing, err := controller.service.GetBorrowing(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, borrowing)
}

func (controller *LendingController) ListForMember(c *gin.Context) {
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	borrowings, err := controller.service.ListForMember(memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"borrowings": borrowings, "count": len(borrowings)})
}
