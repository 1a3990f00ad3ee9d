package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/library"
)

type BorrowsController struct {
	library *library.Service
}

func NewBorrowsController(svc *library.Service) *BorrowsController {
	return &BorrowsController{library: svc}
}

type borrowRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

// Borrow lends a copy of a book to the caller.
// POST /api/borrows
func (bc *BorrowsController) Borrow(c *gin.Context) {
	var req borrowRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := bc.library.Borrow(c.Request.Context(), identity(c), req.BookID)
	if err != nil {
		respondError(c, err, "borrow")
		return
	}
	respondCreated(c, record)
}

// Return closes a loan.
// POST /api/borrows/:id/return
func (bc *BorrowsController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := bc.library.ReturnBook(c.Request.Context(), identity(c), id); err != nil {
		respondError(c, err, "return")
		return
	}
	respondSuccess(c, "book returned")
}

// Mine lists the caller's loans.
// GET /api/borrows/me
func (bc *BorrowsController) Mine(c *gin.Context) {
	records, err := bc.library.MyBorrowed(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "my borrows")
		return
	}
	c.JSON(http.StatusOK, records)
}

// All lists every loan; ?active=true keeps only books still out.
// GET /api/borrows
func (bc *BorrowsController) All(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	records, err := bc.library.AllBorrowed(c.Request.Context(), identity(c), activeOnly)
	if err != nil {
		respondError(c, err, "all borrows")
		return
	}
	c.JSON(http.StatusOK, records)
}

// Reminders returns the caller's due-date reminders.
// GET /api/user/due-reminders
func (bc *BorrowsController) Reminders(c *gin.Context) {
	reminders, err := bc.library.DueReminders(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "due reminders")
		return
	}
	c.JSON(http.StatusOK, reminders)
}

// SweepDelays records delays for overdue loans, in the background when a
// task queue is configured.
// POST /api/borrows/delays/sweep
func (bc *BorrowsController) SweepDelays(c *gin.Context) {
	sweep, err := bc.library.RequestDelaySweep(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "delay sweep")
		return
	}
	status := http.StatusOK
	if sweep.Queued {
		status = http.StatusAccepted
	}
	c.JSON(status, sweep)
}
