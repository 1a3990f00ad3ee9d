package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/library"
)

type BooksController struct {
	library *library.Service
}

func NewBooksController(svc *library.Service) *BooksController {
	return &BooksController{library: svc}
}

type createBookRequest struct {
	library.BookFields
	Quantity int `json:"quantity"`
}

type updateBookRequest struct {
	library.BookFields
	AddQuantity int `json:"add_quantity"`
}

type availableResponse struct {
	BookID    uint `json:"book_id"`
	Available int  `json:"available"`
}

// List returns the catalog.
// GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	books, err := bc.library.ListBooks(c.Request.Context())
	if err != nil {
		respondError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, books)
}

// Get returns a single book.
// GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.library.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Available returns the number of copies that can be borrowed.
// GET /api/books/:id/available
func (bc *BooksController) Available(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	n, err := bc.library.AvailableCount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "available count")
		return
	}
	c.JSON(http.StatusOK, availableResponse{BookID: id, Available: n})
}

// Create adds a book.
// POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	var req createBookRequest
	if !bindJSON(c, &req) {
		return
	}
	book, err := bc.library.AddBook(c.Request.Context(), identity(c), req.BookFields, req.Quantity)
	if err != nil {
		respondError(c, err, "add book")
		return
	}
	respondCreated(c, book)
}

// Update edits a book and optionally its stock.
// PUT /api/books/:id
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := bc.library.UpdateBook(ctx, identity(c), id, req.BookFields, req.AddQuantity); err != nil {
		respondError(c, err, "update book")
		return
	}
	book, err := bc.library.GetBook(ctx, id)
	if err != nil {
		respondError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete removes a book with its history.
// DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := bc.library.DeleteBook(c.Request.Context(), identity(c), id); err != nil {
		respondError(c, err, "delete book")
		return
	}
	c.Status(http.StatusNoContent)
}
