package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfwise/circulation/internal/entities"
)

// ReservationQueue is the surface the reservations controller needs.
type ReservationQueue interface {
	Enqueue(memberID, bookID uint, priority int) (*entities.Reservation, error)
	Cancel(reservationID uint) (*entities.Reservation, error)
	ListForBook(bookID uint) ([]entities.Reservation, error)
	ListForMember(memberID uint) ([]entities.Reservation, error)
}

type ReservationsController struct {
	queue ReservationQueue
}

func NewReservationsController(queue ReservationQueue) *ReservationsController {
	return &ReservationsController{queue: queue}
}

type reserveRequest struct {
	MemberID uint `json:"member_id" binding:"required"`
	BookID   uint `json:"book_id" binding:"required"`
	Priority int  `json:"priority"`
}

func (controller *ReservationsController) Enqueue(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservation, err := controller.queue.Enqueue(req.MemberID, req.BookID, req.Priority)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, reservation)
}

func (controller *ReservationsController) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reservation, err := controller.queue.Cancel(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, reservation)
}

func (controller *ReservationsController) ListForBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := controller.queue.ListForBook(bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"reservations": list, "count": len(list)})
}

func (controller *ReservationsController) ListForMember(c *gin.Context) {
	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := controller.queue.ListForMember(memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"reservations": list, "count": len(list)})
}
