package library

import (
	"time"

	"github.com/samber/lo"

	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/stats"
	"github.com/mrlokans/library/internal/entities"
)

// BookView is a catalog entry with its derived availability.
type BookView struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Author          string     `json:"author"`
	Editor          string     `json:"editor"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	ImageExt        string     `json:"image_ext,omitempty"`
	TotalStock      int        `json:"total_stock"`
	BorrowedCount   int        `json:"borrowed_count"`
	Available       int        `json:"available"`
}

func newBookView(book entities.Book) BookView {
	view := BookView{
		ID:              book.ID,
		Name:            book.Name,
		Author:          book.Author,
		Editor:          book.Editor,
		PublicationDate: book.PublicationDate,
		ImageExt:        book.ImageExt,
	}
	if book.Stock != nil {
		view.TotalStock = book.Stock.TotalStock
		view.BorrowedCount = book.Stock.BorrowedCount
		view.Available = book.Stock.Available()
	}
	return view
}

// BorrowRecord is a loan as shown to clients. Overdue is computed against
// the current day.
type BorrowRecord struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"user_id"`
	UserName   string     `json:"user_name,omitempty"`
	UserEmail  string     `json:"user_email,omitempty"`
	BookID     uint       `json:"book_id"`
	BookName   string     `json:"book_name,omitempty"`
	StartDate  time.Time  `json:"start_date"`
	DueDate    time.Time  `json:"due_date"`
	Returned   bool       `json:"returned"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Overdue    bool       `json:"overdue"`
}

func newBorrowRecords(rows []loans.BorrowRow, today time.Time) []BorrowRecord {
	return lo.Map(rows, func(row loans.BorrowRow, _ int) BorrowRecord {
		return BorrowRecord{
			ID:         row.ID,
			UserID:     row.UserID,
			UserName:   row.UserName,
			UserEmail:  row.UserEmail,
			BookID:     row.BookID,
			BookName:   row.BookName,
			StartDate:  row.StartDate,
			DueDate:    row.DueDate,
			Returned:   row.Returned,
			ReturnedAt: row.ReturnedAt,
			Overdue:    !row.Returned && today.After(row.DueDate),
		}
	})
}

// UserSummary is a user account without credentials.
type UserSummary struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	RoleID      uint       `json:"role_id"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newUserSummary(user entities.User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		RoleID:      user.RoleID,
		Role:        user.Role.Name,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// CurrentUser is the caller's profile with the rights their role grants.
type CurrentUser struct {
	ID     uint     `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Rights []string `json:"rights"`
}

// RoleView is a role with the names of its rights.
type RoleView struct {
	ID     uint     `json:"id"`
	Name   string   `json:"name"`
	Rights []string `json:"rights"`
}

func newRoleView(role entities.Role) RoleView {
	return RoleView{
		ID:   role.ID,
		Name: role.Name,
		Rights: lo.Map(role.Rights, func(r entities.Right, _ int) string {
			return r.Name
		}),
	}
}

// StatisticsSummary is the dashboard payload.
type StatisticsSummary struct {
	TotalBooks        int64                  `json:"total_books"`
	TotalUsers        int64                  `json:"total_users"`
	TotalBorrowings   int64                  `json:"total_borrowings"`
	ActiveBorrowings  int64                  `json:"active_borrowings"`
	OverdueBorrowings int64                  `json:"overdue_borrowings"`
	TotalDelays       int64                  `json:"total_delays"`
	DelayRate         float64                `json:"delay_rate"`
	PopularBooks      []stats.BookPopularity `json:"popular_books"`
	Stock             stats.StockSnapshot    `json:"stock"`
	StockByState      []stats.StockByState   `json:"stock_by_state"`
}

// ReminderDetail is one loan listed in DueReminders. DaysLeft is negative
// once the loan is overdue.
type ReminderDetail struct {
	BorrowID uint      `json:"borrow_id"`
	BookID   uint      `json:"book_id"`
	BookName string    `json:"book_name"`
	DueDate  time.Time `json:"due_date"`
	DaysLeft int       `json:"days_left"`
	Overdue  bool      `json:"overdue"`
}

// DueReminders summarises the caller's loans that are due soon.
type DueReminders struct {
	HasReminder bool             `json:"hasReminder"`
	IsCritical  bool             `json:"isCritical"`
	Message     string           `json:"message"`
	Details     []ReminderDetail `json:"details"`
}
