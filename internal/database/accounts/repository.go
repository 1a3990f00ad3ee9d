// Package accounts provides database operations for users, roles and rights.
//
// # Usage
//
//	repo := accounts.NewRepository(db)
//	rights, err := repo.RightsForUser(userID)
//	ok, err := repo.HasRight(userID, entities.RightManageBooks)
package accounts

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrUserNotFound       = apperr.New(apperr.NotFound, "user_not_found", "user not found")
	ErrRoleNotFound       = apperr.New(apperr.NotFound, "role_not_found", "role not found")
	ErrRightNotFound      = apperr.New(apperr.NotFound, "right_not_found", "right not found")
	ErrEmailTaken         = apperr.New(apperr.Conflict, "email_taken", "a user with this email already exists")
	ErrUserHasActiveLoans = apperr.New(apperr.Conflict, "user_has_active_loans", "user still has books to return")
)

// Repository handles user, role and right persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new accounts repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user. The email must be unique.
func (r *Repository) CreateUser(user *entities.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user with their role.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Role").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Role").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether another user already uses email.
// excludeID may be zero.
func (r *Repository) EmailExists(email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&entities.User{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUsers returns all users ordered by name.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Preload("Role").Order("name ASC, id ASC").Find(&users).Error
	return users, err
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// UpdateUser applies column updates to a user.
func (r *Repository) UpdateUser(id uint, updates map[string]any) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.ensureUserExists(id)
	}
	return nil
}

// RecordLogin stores the time of the last successful login.
func (r *Repository) RecordLogin(id uint, at time.Time) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// DeleteUser removes a user together with their returned loans and delay
// records. Users holding books cannot be deleted.
func (r *Repository) DeleteUser(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&entities.Borrowed{}).
			Where("user_id = ? AND returned = ?", id, false).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrUserHasActiveLoans
		}

		if err := tx.Where("user_id = ?", id).Delete(&entities.Delay{}).Error; err != nil {
			return fmt.Errorf("failed to delete delays: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&entities.Borrowed{}).Error; err != nil {
			return fmt.Errorf("failed to delete loan history: %w", err)
		}

		result := tx.Delete(&entities.User{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func (r *Repository) ensureUserExists(id uint) error {
	var count int64
	if err := r.db.Model(&entities.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListRoles returns every role with its rights.
func (r *Repository) ListRoles() ([]entities.Role, error) {
	var roles []entities.Role
	err := r.db.Preload("Rights", func(db *gorm.DB) *gorm.DB {
		return db.Order("rights.name ASC")
	}).Order("id ASC").Find(&roles).Error
	return roles, err
}

// GetRole retrieves a role with its rights.
func (r *Repository) GetRole(id uint) (*entities.Role, error) {
	var role entities.Role
	err := r.db.Preload("Rights", func(db *gorm.DB) *gorm.DB {
		return db.Order("rights.name ASC")
	}).First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// GetRoleByName retrieves a role by its unique name.
func (r *Repository) GetRoleByName(name string) (*entities.Role, error) {
	var role entities.Role
	err := r.db.Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// ListRights returns every known right.
func (r *Repository) ListRights() ([]entities.Right, error) {
	var rights []entities.Right
	err := r.db.Order("name ASC").Find(&rights).Error
	return rights, err
}

// GrantRight confers a right on a role. Granting twice is a no-op.
func (r *Repository) GrantRight(roleID uint, rightName string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		right, err := r.lookupRoleAndRight(tx, roleID, rightName)
		if err != nil {
			return err
		}
		link := entities.RoleRight{RoleID: roleID, RightID: right.ID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
	})
}

// RevokeRight removes a right from a role. Revoking a right the role does
// not hold is a no-op.
func (r *Repository) RevokeRight(roleID uint, rightName string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		right, err := r.lookupRoleAndRight(tx, roleID, rightName)
		if err != nil {
			return err
		}
		return tx.Where("role_id = ? AND right_id = ?", roleID, right.ID).
			Delete(&entities.RoleRight{}).Error
	})
}

func (r *Repository) lookupRoleAndRight(tx *gorm.DB, roleID uint, rightName string) (*entities.Right, error) {
	var role entities.Role
	if err := tx.Select("id").First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	var right entities.Right
	if err := tx.Where("name = ?", rightName).First(&right).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRightNotFound.Withf("right %q does not exist", rightName)
		}
		return nil, err
	}
	return &right, nil
}

// RightsForUser resolves User -> Role -> RoleRight -> Right. The result is
// sorted and empty (not nil) when the role holds no rights or the user does
// not exist.
func (r *Repository) RightsForUser(userID uint) ([]string, error) {
	rights := []string{}
	err := r.db.Table("users").
		Joins("JOIN role_rights ON role_rights.role_id = users.role_id").
		Joins("JOIN rights ON rights.id = role_rights.right_id").
		Where("users.id = ?", userID).
		Distinct().
		Order("rights.name ASC").
		Pluck("rights.name", &rights).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rights: %w", err)
	}
	return rights, nil
}

// HasRight reports whether the user's role currently grants right.
func (r *Repository) HasRight(userID uint, right string) (bool, error) {
	var count int64
	err := r.db.Table("users").
		Joins("JOIN role_rights ON role_rights.role_id = users.role_id").
		Joins("JOIN rights ON rights.id = role_rights.right_id").
		Where("users.id = ? AND rights.name = ?", userID, right).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check right: %w", err)
	}
	return count > 0, nil
}
