package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shelfwise/circulation/internal/entities"
)

// FineLedger is the surface the fines controller needs.
type FineLedger interface {
	Create(fine *entities.Fine) error
	Pay(fineID uint) (*entities.Fine, error)
	Waive(fineID uint) (*entities.Fine, error)
	Get(fineID uint) (*entities.Fine, error)
	ListForMember(memberID uint) ([]entities.Fine, error)
	TotalOutstanding(memberID uint) (decimal.Decimal, error)
}

type FinesController struct {
	ledger FineLedger
}

func NewFinesController(ledger FineLedger) *FinesController {
	return &FinesController{ledger: ledger}
}

type createFineRequest struct {
	MemberID    uint   `json:"member_id" binding:"required"`
	BorrowingID *uint  `json:"borrowing_id"`
	Amount      string `json:"amount" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

// Create records a staff-entered fine (damage, other).
func (controller *FinesController) Create(c *gin.Context) {
	var req createFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	fine := &entities.Fine{
		MemberID:    req.MemberID,
		BorrowingID: req.BorrowingID,
		Amount:      amount.Round(2),
		Reason:      entities.FineReason(req.Reason),
	}
	if err := controller.ledger.Create(fine); err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, fine)
}

func (controller *FinesController) Pay(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fine, err := controller.ledger.Pay(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fine)
}

func (controller *FinesController) Waive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fine, err := controller.ledger.Waive(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fine)
}

func (controller *FinesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fine, err := controller.ledger.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fine)
}

func (controller *FinesController) ListForMember(c *gin.Context) {
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := controller.ledger.ListForMember(memberID)
	if err != nil {
		respondError(c, err)
		return
	}

	outstanding, err := controller.ledger.TotalOutstanding(memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"fines":       list,
		"count":       len(list),
		"outstanding": outstanding,
	})
}
