// Package stats runs the read-only aggregation queries behind the
// statistics dashboard. Nothing is cached; every call hits the database.
package stats

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

// Stock states reported by StockByState.
const (
	StockStateTotal     = 1
	StockStateBorrowed  = 2
	StockStateAvailable = 3
)

type Counts struct {
	TotalBooks        int64
	TotalUsers        int64
	TotalBorrowings   int64
	ActiveBorrowings  int64
	OverdueBorrowings int64
	TotalDelays       int64
}

type BookPopularity struct {
	BookID      uint   `json:"book_id"`
	BookName    string `json:"book_name"`
	BorrowCount int64  `json:"borrow_count"`
}

type StockSnapshot struct {
	Total     int64 `json:"total"`
	Borrowed  int64 `json:"borrowed"`
	Available int64 `json:"available"`
}

type StockByState struct {
	StateID int    `json:"state_id"`
	State   string `json:"state"`
	Count   int64  `json:"count"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Counts returns the dashboard counters. Overdue loans are active loans
// whose due date is before today.
func (r *Repository) Counts(today time.Time) (*Counts, error) {
	var c Counts
	queries := []struct {
		name  string
		query *gorm.DB
		dest  *int64
	}{
		{"books", r.db.Model(&entities.Book{}), &c.TotalBooks},
		{"users", r.db.Model(&entities.User{}), &c.TotalUsers},
		{"borrowings", r.db.Model(&entities.Borrowed{}), &c.TotalBorrowings},
		{"active borrowings", r.db.Model(&entities.Borrowed{}).Where("returned = ?", false), &c.ActiveBorrowings},
		{"overdue borrowings", r.db.Model(&entities.Borrowed{}).Where("returned = ? AND due_date < ?", false, today), &c.OverdueBorrowings},
		{"delays", r.db.Model(&entities.Delay{}), &c.TotalDelays},
	}
	for _, q := range queries {
		if err := q.query.Count(q.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", q.name, err)
		}
	}
	return &c, nil
}

// PopularBooks ranks books by historical borrow count, ties broken by book
// id ascending.
func (r *Repository) PopularBooks(limit int) ([]BookPopularity, error) {
	popular := []BookPopularity{}
	err := r.db.Table("borrowed").
		Select("borrowed.book_id AS book_id, books.name AS book_name, COUNT(*) AS borrow_count").
		Joins("JOIN books ON books.id = borrowed.book_id").
		Group("borrowed.book_id, books.name").
		Order("borrow_count DESC, borrowed.book_id ASC").
		Limit(limit).
		Scan(&popular).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank books: %w", err)
	}
	return popular, nil
}

// Stock sums copies across every stock row.
func (r *Repository) Stock() (*StockSnapshot, error) {
	var snapshot StockSnapshot
	err := r.db.Model(&entities.LibraryStock{}).
		Select("COALESCE(SUM(total_stock), 0) AS total, COALESCE(SUM(borrowed_count), 0) AS borrowed").
		Scan(&snapshot).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum stock: %w", err)
	}
	snapshot.Available = snapshot.Total - snapshot.Borrowed
	return &snapshot, nil
}

// ByState expands a snapshot into the three-state list used by charts.
func (s StockSnapshot) ByState() []StockByState {
	return []StockByState{
		{StateID: StockStateTotal, State: "total", Count: s.Total},
		{StateID: StockStateBorrowed, State: "borrowed", Count: s.Borrowed},
		{StateID: StockStateAvailable, State: "available", Count: s.Available},
	}
}

// DelayRate is delays per hundred borrowings rounded to two decimals, and
// zero when nothing was ever borrowed.
func DelayRate(totalDelays, totalBorrowings int64) float64 {
	if totalBorrowings == 0 {
		return 0
	}
	rate := float64(totalDelays) / float64(totalBorrowings) * 100
	return math.Round(rate*100) / 100
}
