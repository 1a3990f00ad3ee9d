// Package catalog provides database operations for books and their stock.
//
// # Usage
//
//	repo := catalog.NewRepository(db)
//	book, err := repo.CreateBook(fields, 2)
//	available, err := repo.Available(book.ID)
package catalog

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrBookNotFound       = apperr.New(apperr.NotFound, "book_not_found", "book not found")
	ErrStockBelowBorrowed = apperr.New(apperr.Conflict, "stock_below_borrowed", "cannot remove copies that are currently borrowed")
)

// BookFields are the editable catalog attributes of a book.
type BookFields struct {
	Name            string
	Author          string
	Editor          string
	PublicationDate *time.Time
	ImageExt        string
}

// Repository handles book and stock persistence. Only the loans package
// changes borrowed_count.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBooks returns all books with their stock row loaded, ordered by id.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Stock").Order("id ASC").Find(&books).Error
	return books, err
}

// GetBook retrieves a book with its stock row.
func (r *Repository) GetBook(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Stock").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// BookExists reports whether a book row exists.
func (r *Repository) BookExists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateBook inserts a book and its stock row in one transaction.
// A quantity below one is stored as one copy.
func (r *Repository) CreateBook(fields BookFields, quantity int) (*entities.Book, error) {
	if quantity <= 0 {
		quantity = 1
	}

	book := &entities.Book{
		Name:            fields.Name,
		Author:          fields.Author,
		Editor:          fields.Editor,
		PublicationDate: fields.PublicationDate,
		ImageExt:        fields.ImageExt,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Stock").Create(book).Error; err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}
		stock := &entities.LibraryStock{BookID: book.ID, TotalStock: quantity}
		if err := tx.Create(stock).Error; err != nil {
			return fmt.Errorf("failed to create stock: %w", err)
		}
		book.Stock = stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateBook replaces the catalog fields of a book and adjusts its total
// stock by addQuantity. The stock row is created when missing. Removing
// copies is refused when it would leave fewer copies than are on loan.
func (r *Repository) UpdateBook(id uint, fields BookFields, addQuantity int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Book{}).Where("id = ?", id).Updates(map[string]any{
			"name":             fields.Name,
			"author":           fields.Author,
			"editor":           fields.Editor,
			"publication_date": fields.PublicationDate,
			"image_ext":        fields.ImageExt,
			"updated_at":       time.Now(),
		})
		if result.Error != nil {
			return fmt.Errorf("failed to update book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}

		if addQuantity == 0 {
			return nil
		}

		var stock entities.LibraryStock
		err := tx.Where("book_id = ?", id).Take(&stock).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if addQuantity < 0 {
				return ErrStockBelowBorrowed
			}
			return tx.Create(&entities.LibraryStock{BookID: id, TotalStock: addQuantity}).Error
		}
		if err != nil {
			return err
		}

		result = tx.Model(&entities.LibraryStock{}).
			Where("book_id = ? AND total_stock + ? >= borrowed_count", id, addQuantity).
			UpdateColumn("total_stock", gorm.Expr("total_stock + ?", addQuantity))
		if result.Error != nil {
			return fmt.Errorf("failed to update stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrStockBelowBorrowed
		}
		return nil
	})
}

// DeleteBook removes a book with its stock, loan history and delays.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.Delay{}).Error; err != nil {
			return fmt.Errorf("failed to delete delays: %w", err)
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Borrowed{}).Error; err != nil {
			return fmt.Errorf("failed to delete loan history: %w", err)
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.LibraryStock{}).Error; err != nil {
			return fmt.Errorf("failed to delete stock: %w", err)
		}

		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}
		return nil
	})
}

// Available returns total_stock - borrowed_count, or 0 when the book has
// no stock row.
func (r *Repository) Available(bookID uint) (int, error) {
	var stock entities.LibraryStock
	err := r.db.Where("book_id = ?", bookID).Take(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stock.Available(), nil
}
