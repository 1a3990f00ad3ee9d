package entities

import "time"

// Borrowed is a loan of one copy of a book to a user. It is created on
// borrow and only ever mutated once, when it is returned.
type Borrowed struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	BookID     uint       `gorm:"not null;index" json:"book_id"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	DueDate    time.Time  `gorm:"not null;index" json:"due_date"`
	Returned   bool       `gorm:"not null;default:false;index" json:"returned"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Borrowed) TableName() string {
	return "borrowed"
}

// IsOverdue reports whether an active loan is past its due date on day today.
func (b Borrowed) IsOverdue(today time.Time) bool {
	return !b.Returned && today.After(b.DueDate)
}

// Delay records that a loan went past its due date. At most one per loan.
type Delay struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BorrowID   uint      `gorm:"uniqueIndex;not null" json:"borrow_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	BookID     uint      `gorm:"not null;index" json:"book_id"`
	DaysLate   int       `gorm:"not null" json:"days_late"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`

	Borrow Borrowed `gorm:"foreignKey:BorrowID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Delay) TableName() string {
	return "delays"
}
