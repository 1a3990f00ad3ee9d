package entities

import "time"

// Book is a catalog entry. Copies are tracked separately in LibraryStock.
type Book struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:255;not null;index" json:"name"`
	Author          string     `gorm:"size:255" json:"author"`
	Editor          string     `gorm:"size:255" json:"editor"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	ImageExt        string     `gorm:"size:10" json:"image_ext,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Stock *LibraryStock `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
}

// LibraryStock holds copy counts for a single book.
// 0 <= BorrowedCount <= TotalStock.
type LibraryStock struct {
	BookID        uint `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	TotalStock    int  `gorm:"not null;default:1" json:"total_stock"`
	BorrowedCount int  `gorm:"not null;default:0" json:"borrowed_count"`
}

func (LibraryStock) TableName() string {
	return "library_stock"
}

// Available is derived, never stored.
func (s LibraryStock) Available() int {
	return s.TotalStock - s.BorrowedCount
}
