// Package loans implements the borrow/return workflow. It is the only code
// that changes LibraryStock.BorrowedCount, and every change happens in the
// same transaction as the matching Borrowed row change.
//
// # Usage
//
//	repo := loans.NewRepository(db)
//	loan, err := repo.Borrow(userID, bookID, loans.Day(time.Now()), due)
//	_, err = repo.Return(loan.ID, time.Now())
package loans

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/database/catalog"
	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrBorrowNotFound  = apperr.New(apperr.NotFound, "borrow_not_found", "borrow record not found")
	ErrAlreadyBorrowed = apperr.New(apperr.Conflict, "already_borrowed", "you already have this book on loan")
	ErrNoneAvailable   = apperr.New(apperr.Conflict, "none_available", "no copy of this book is available")
	ErrAlreadyReturned = apperr.New(apperr.Conflict, "already_returned", "this loan has already been returned")
)

// BorrowRow is the read model of a loan joined with its book and borrower.
type BorrowRow struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"user_id"`
	UserName   string     `json:"user_name"`
	UserEmail  string     `json:"user_email"`
	BookID     uint       `json:"book_id"`
	BookName   string     `json:"book_name"`
	StartDate  time.Time  `json:"start_date"`
	DueDate    time.Time  `json:"due_date"`
	Returned   bool       `json:"returned"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Repository handles loan persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Day truncates t to midnight UTC. Start and due dates are stored as days.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Borrow lends one copy of a book to a user. The duplicate-loan check, the
// guarded stock increment and the insert commit together or not at all.
func (r *Repository) Borrow(userID, bookID uint, start, due time.Time) (*entities.Borrowed, error) {
	loan := &entities.Borrowed{
		UserID:    userID,
		BookID:    bookID,
		StartDate: start,
		DueDate:   due,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id").First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrBookNotFound
			}
			return err
		}

		// Row lock on MySQL; SQLite already holds the database write lock.
		var stock entities.LibraryStock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("book_id = ?", bookID).
			Take(&stock).Error
		stockMissing := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !stockMissing {
			return err
		}

		var active int64
		if err := tx.Model(&entities.Borrowed{}).
			Where("user_id = ? AND book_id = ? AND returned = ?", userID, bookID, false).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrAlreadyBorrowed
		}

		if stockMissing {
			return ErrNoneAvailable
		}

		result := tx.Model(&entities.LibraryStock{}).
			Where("book_id = ? AND borrowed_count < total_stock", bookID).
			UpdateColumn("borrowed_count", gorm.Expr("borrowed_count + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to reserve copy: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNoneAvailable
		}

		if err := tx.Omit(clause.Associations).Create(loan).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBorrowed
			}
			return fmt.Errorf("failed to create loan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Return marks a loan returned and gives the copy back to stock, clamping
// the borrowed count at zero. A late return records a delay if the sweep
// has not already done so.
func (r *Repository) Return(borrowID uint, now time.Time) (*entities.Borrowed, error) {
	var loan entities.Borrowed

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loan, borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBorrowNotFound
			}
			return err
		}
		if loan.Returned {
			return ErrAlreadyReturned
		}

		result := tx.Model(&entities.Borrowed{}).
			Where("id = ? AND returned = ?", borrowID, false).
			Updates(map[string]any{"returned": true, "returned_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to mark loan returned: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyReturned
		}

		if err := tx.Model(&entities.LibraryStock{}).
			Where("book_id = ? AND borrowed_count > 0", loan.BookID).
			UpdateColumn("borrowed_count", gorm.Expr("borrowed_count - 1")).Error; err != nil {
			return fmt.Errorf("failed to release copy: %w", err)
		}

		if loan.IsOverdue(Day(now)) {
			if _, err := recordDelay(tx, &loan, now); err != nil {
				return err
			}
		}

		loan.Returned = true
		loan.ReturnedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetBorrow retrieves a loan by id.
func (r *Repository) GetBorrow(id uint) (*entities.Borrowed, error) {
	var loan entities.Borrowed
	if err := r.db.First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (r *Repository) rows() *gorm.DB {
	return r.db.Table("borrowed").
		Select(`borrowed.id, borrowed.user_id, users.name AS user_name, users.email AS user_email,
			borrowed.book_id, books.name AS book_name, borrowed.start_date, borrowed.due_date,
			borrowed.returned, borrowed.returned_at`).
		Joins("JOIN books ON books.id = borrowed.book_id").
		Joins("JOIN users ON users.id = borrowed.user_id")
}

// ListForUser returns a user's loans, newest first.
func (r *Repository) ListForUser(userID uint) ([]BorrowRow, error) {
	rows := []BorrowRow{}
	err := r.rows().
		Where("borrowed.user_id = ?", userID).
		Order("borrowed.start_date DESC, borrowed.id DESC").
		Scan(&rows).Error
	return rows, err
}

// ListAll returns every loan ordered by due date. activeOnly restricts the
// listing to books that are still out.
func (r *Repository) ListAll(activeOnly bool) ([]BorrowRow, error) {
	rows := []BorrowRow{}
	query := r.rows()
	if activeOnly {
		query = query.Where("borrowed.returned = ?", false)
	}
	err := query.Order("borrowed.due_date ASC, borrowed.id ASC").Scan(&rows).Error
	return rows, err
}

// ActiveDueBy returns a user's active loans due on or before limit, overdue
// ones included, ordered by due date.
func (r *Repository) ActiveDueBy(userID uint, limit time.Time) ([]BorrowRow, error) {
	rows := []BorrowRow{}
	err := r.rows().
		Where("borrowed.user_id = ? AND borrowed.returned = ? AND borrowed.due_date <= ?", userID, false, limit).
		Order("borrowed.due_date ASC, borrowed.id ASC").
		Scan(&rows).Error
	return rows, err
}

// OverdueWithoutDelay returns active loans past due on day today that have
// no delay recorded yet.
func (r *Repository) OverdueWithoutDelay(today time.Time) ([]entities.Borrowed, error) {
	var overdue []entities.Borrowed
	err := r.db.
		Where("returned = ? AND due_date < ?", false, today).
		Where("NOT EXISTS (SELECT 1 FROM delays WHERE delays.borrow_id = borrowed.id)").
		Order("id ASC").
		Find(&overdue).Error
	return overdue, err
}

// RecordDelay stores a delay for an overdue loan. It reports false when one
// was already recorded.
func (r *Repository) RecordDelay(loan *entities.Borrowed, now time.Time) (bool, error) {
	return recordDelay(r.db, loan, now)
}

func recordDelay(db *gorm.DB, loan *entities.Borrowed, now time.Time) (bool, error) {
	delay := entities.Delay{
		BorrowID:   loan.ID,
		UserID:     loan.UserID,
		BookID:     loan.BookID,
		DaysLate:   int(Day(now).Sub(loan.DueDate).Hours() / 24),
		RecordedAt: now,
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&delay)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record delay: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
