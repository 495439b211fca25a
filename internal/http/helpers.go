package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shelfwise/circulation/internal/database/catalog"
	"github.com/shelfwise/circulation/internal/fines"
	"github.com/shelfwise/circulation/internal/ledger"
	"github.com/shelfwise/circulation/internal/lending"
	"github.com/shelfwise/circulation/internal/reservations"
)

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})
		return 0, false
	}
	return uint(id), true
}

// respondError maps domain errors onto HTTP statuses. Conflicts (business
// rule rejections) are 409, missing records 404, anything else 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lending.ErrMemberNotActive),
		errors.Is(err, lending.ErrBookUnavailable),
		errors.Is(err, reservations.ErrDuplicateReservation),
		errors.Is(err, reservations.ErrInvalidReservationState),
		errors.Is(err, fines.ErrInvalidState):
		c.IndentedJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, lending.ErrBorrowingNotFound),
		errors.Is(err, lending.ErrMemberNotFound),
		errors.Is(err, ledger.ErrBookNotFound),
		errors.Is(err, catalog.ErrBookNotFound),
		errors.Is(err, catalog.ErrMemberNotFound),
		errors.Is(err, reservations.ErrReservationNotFound),
		errors.Is(err, reservations.ErrMemberNotFound),
		errors.Is(err, fines.ErrFineNotFound):
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, fines.ErrNonPositiveAmount):
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		// Includes ledger.ErrIntegrity, which the ledger has already
		// logged as a consistency fault.
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
