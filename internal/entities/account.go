package entities

import "time"

// Rights known to the application. Roles are granted any subset of them.
const (
	RightManageBooks    = "manage_books"
	RightDeleteBooks    = "delete_books"
	RightManageUsers    = "manage_users"
	RightManageLoans    = "manage_loans"
	RightViewStatistics = "view_statistics"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	RoleID       uint       `gorm:"not null;index" json:"role_id"`
	Role         Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT" json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Role struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	Name   string  `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Rights []Right `gorm:"many2many:role_rights;constraint:OnDelete:CASCADE" json:"rights,omitempty"`
}

type Right struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

// RoleRight is the join row conferring a right on a role.
type RoleRight struct {
	RoleID  uint `gorm:"primaryKey;autoIncrement:false"`
	RightID uint `gorm:"primaryKey;autoIncrement:false"`
}

func (RoleRight) TableName() string {
	return "role_rights"
}
