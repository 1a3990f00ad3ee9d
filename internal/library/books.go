package library

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/database/catalog"
	"github.com/mrlokans/library/internal/entities"
)

var ErrBookNameRequired = apperr.New(apperr.Validation, "name_required", "book name is required")

// BookFields are the editable catalog attributes of a book.
type BookFields struct {
	Name            string     `json:"name"`
	Author          string     `json:"author"`
	Editor          string     `json:"editor"`
	PublicationDate *time.Time `json:"publication_date"`
	ImageExt        string     `json:"image_ext"`
}

func (f BookFields) normalize() (catalog.BookFields, error) {
	out := catalog.BookFields{
		Name:            strings.TrimSpace(f.Name),
		Author:          strings.TrimSpace(f.Author),
		Editor:          strings.TrimSpace(f.Editor),
		PublicationDate: f.PublicationDate,
		ImageExt:        strings.TrimPrefix(strings.ToLower(strings.TrimSpace(f.ImageExt)), "."),
	}
	if out.Name == "" {
		return out, ErrBookNameRequired
	}
	return out, nil
}

// ListBooks returns the whole catalog. It is public.
func (s *Service) ListBooks(ctx context.Context) ([]BookView, error) {
	books, err := s.catalog.ListBooks()
	if err != nil {
		return nil, err
	}
	return lo.Map(books, func(b entities.Book, _ int) BookView {
		return newBookView(b)
	}), nil
}

// GetBook returns one book. It is public.
func (s *Service) GetBook(ctx context.Context, id uint) (*BookView, error) {
	book, err := s.catalog.GetBook(id)
	if err != nil {
		return nil, err
	}
	view := newBookView(*book)
	return &view, nil
}

// AvailableCount returns the number of copies that can be borrowed now.
// A book without a stock row has none; an unknown book is NotFound.
func (s *Service) AvailableCount(ctx context.Context, bookID uint) (int, error) {
	exists, err := s.catalog.BookExists(bookID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, catalog.ErrBookNotFound
	}
	return s.catalog.Available(bookID)
}

// AddBook creates a book with initialQuantity copies (at least one).
func (s *Service) AddBook(ctx context.Context, identity *SessionIdentity, fields BookFields, initialQuantity int) (*BookView, error) {
	if err := s.authorize(identity, entities.RightManageBooks); err != nil {
		return nil, err
	}
	normalized, err := fields.normalize()
	if err != nil {
		return nil, err
	}

	book, err := s.catalog.CreateBook(normalized, initialQuantity)
	s.record(ctx, identity, entities.AuditEventCatalog, "book_create", "book", bookID(book), "Added book: "+normalized.Name, err)
	if err != nil {
		return nil, err
	}

	view := newBookView(*book)
	return &view, nil
}

// UpdateBook replaces the catalog fields of a book and adds addQuantity
// copies to its stock. A negative addQuantity removes copies.
func (s *Service) UpdateBook(ctx context.Context, identity *SessionIdentity, id uint, fields BookFields, addQuantity int) error {
	if err := s.authorize(identity, entities.RightManageBooks); err != nil {
		return err
	}
	normalized, err := fields.normalize()
	if err != nil {
		return err
	}

	err = s.catalog.UpdateBook(id, normalized, addQuantity)
	s.record(ctx, identity, entities.AuditEventCatalog, "book_update", "book", id, "Updated book: "+normalized.Name, err)
	return err
}

// DeleteBook removes a book with its stock and loan history. It requires
// delete_books, which editors do not hold.
func (s *Service) DeleteBook(ctx context.Context, identity *SessionIdentity, id uint) error {
	if err := s.authorize(identity, entities.RightDeleteBooks); err != nil {
		return err
	}

	err := s.catalog.DeleteBook(id)
	s.record(ctx, identity, entities.AuditEventCatalog, "book_delete", "book", id, "", err)
	return err
}

func bookID(book *entities.Book) uint {
	if book == nil {
		return 0
	}
	return book.ID
}
