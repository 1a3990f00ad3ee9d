package library

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/accounts"
	"github.com/mrlokans/library/internal/entities"
)

var ErrCannotDeleteSelf = apperr.New(apperr.Conflict, "cannot_delete_self", "you cannot delete your own account")

// RegisterInput is a self-service sign-up request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInput creates or updates a user on behalf of an administrator. On
// update, empty fields are left unchanged and the password is re-hashed
// only when supplied.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   uint   `json:"role_id"`
}

// Register creates an account with the default role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*UserSummary, error) {
	user, err := s.auth.Register(in.Name, in.Email, in.Password, "")
	if err != nil {
		s.audit.LogAuth(ctx, 0, "register", err)
		return nil, err
	}
	s.audit.LogAuth(ctx, user.ID, "register", nil)

	summary := newUserSummary(*user)
	return &summary, nil
}

// Authenticate checks credentials and returns the identity to store in the
// caller's session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*SessionIdentity, error) {
	user, err := s.auth.Authenticate(email, password)
	if err != nil {
		s.audit.LogAuth(ctx, 0, "login", err)
		return nil, err
	}
	s.audit.LogAuth(ctx, user.ID, "login", nil)
	return &SessionIdentity{UserID: user.ID}, nil
}

// Logout runs end to drop the caller's session and records the outcome
// in the audit trail. Anonymous callers are not recorded.
func (s *Service) Logout(ctx context.Context, identity *SessionIdentity, end func() error) error {
	var err error
	if end != nil {
		err = end()
	}
	if identity != nil {
		s.audit.LogAuth(ctx, identity.UserID, "logout", err)
	}
	return err
}

// CurrentUser returns the caller's profile and right set.
func (s *Service) CurrentUser(ctx context.Context, identity *SessionIdentity) (*CurrentUser, error) {
	if identity == nil {
		return nil, auth.ErrAuthRequired
	}
	user, err := s.accounts.GetUserByID(identity.UserID)
	if err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			return nil, auth.ErrAuthRequired
		}
		return nil, err
	}
	rights, err := s.accounts.RightsForUser(user.ID)
	if err != nil {
		return nil, err
	}
	return &CurrentUser{
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role.Name,
		Rights: rights,
	}, nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context, identity *SessionIdentity) ([]UserSummary, error) {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return nil, err
	}
	users, err := s.accounts.ListUsers()
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u entities.User, _ int) UserSummary {
		return newUserSummary(u)
	}), nil
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, identity *SessionIdentity, id uint) (*UserSummary, error) {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return nil, err
	}
	user, err := s.accounts.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	summary := newUserSummary(*user)
	return &summary, nil
}

// CreateUser creates an account with an explicit role.
func (s *Service) CreateUser(ctx context.Context, identity *SessionIdentity, in UserInput) (*UserSummary, error) {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return nil, err
	}

	roleName := ""
	if in.RoleID != 0 {
		role, err := s.accounts.GetRole(in.RoleID)
		if err != nil {
			return nil, err
		}
		roleName = role.Name
	}

	user, err := s.auth.Register(in.Name, in.Email, in.Password, roleName)
	s.record(ctx, identity, entities.AuditEventAccount, "user_create", "user", userID(user), "Created user: "+auth.NormalizeEmail(in.Email), err)
	if err != nil {
		return nil, err
	}
	summary := newUserSummary(*user)
	return &summary, nil
}

// UpdateUser changes name, email, password or role of an account.
func (s *Service) UpdateUser(ctx context.Context, identity *SessionIdentity, id uint, in UserInput) (*UserSummary, error) {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetUserByID(id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
	}
	if in.Email != "" {
		email := auth.NormalizeEmail(in.Email)
		if err := auth.ValidateEmail(email); err != nil {
			return nil, err
		}
		taken, err := s.accounts.EmailExists(email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, accounts.ErrEmailTaken
		}
		updates["email"] = email
	}
	if in.Password != "" {
		hash, err := s.auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if in.RoleID != 0 {
		if _, err := s.accounts.GetRole(in.RoleID); err != nil {
			return nil, err
		}
		updates["role_id"] = in.RoleID
	}

	if len(updates) > 0 {
		err := s.accounts.UpdateUser(id, updates)
		s.record(ctx, identity, entities.AuditEventAccount, "user_update", "user", id, "", err)
		if err != nil {
			return nil, err
		}
	}

	user, err := s.accounts.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	summary := newUserSummary(*user)
	return &summary, nil
}

// DeleteUser removes an account. Users with books on loan cannot be
// deleted, and nobody can delete themselves.
func (s *Service) DeleteUser(ctx context.Context, identity *SessionIdentity, id uint) error {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return err
	}
	if id == identity.UserID {
		return ErrCannotDeleteSelf
	}

	err := s.accounts.DeleteUser(id)
	s.record(ctx, identity, entities.AuditEventAccount, "user_delete", "user", id, "", err)
	return err
}

// ListRoles returns every role with its rights.
func (s *Service) ListRoles(ctx context.Context, identity *SessionIdentity) ([]RoleView, error) {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return nil, err
	}
	roles, err := s.accounts.ListRoles()
	if err != nil {
		return nil, err
	}
	return lo.Map(roles, func(r entities.Role, _ int) RoleView {
		return newRoleView(r)
	}), nil
}

// GetRole returns one role with its rights.
func (s *Service) GetRole(ctx context.Context, identity *SessionIdentity, id uint) (*RoleView, error) {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return nil, err
	}
	role, err := s.accounts.GetRole(id)
	if err != nil {
		return nil, err
	}
	view := newRoleView(*role)
	return &view, nil
}

// ListRights returns the names of every known right.
func (s *Service) ListRights(ctx context.Context, identity *SessionIdentity) ([]string, error) {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return nil, err
	}
	rights, err := s.accounts.ListRights()
	if err != nil {
		return nil, err
	}
	return lo.Map(rights, func(r entities.Right, _ int) string {
		return r.Name
	}), nil
}

// GrantRight adds a right to a role. It takes effect on the next request
// of every user holding the role.
func (s *Service) GrantRight(ctx context.Context, identity *SessionIdentity, roleID uint, right string) error {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return err
	}
	err := s.accounts.GrantRight(roleID, right)
	s.record(ctx, identity, entities.AuditEventAccount, "right_grant", "role", roleID, "Granted "+right, err)
	return err
}

// RevokeRight removes a right from a role.
func (s *Service) RevokeRight(ctx context.Context, identity *SessionIdentity, roleID uint, right string) error {
	if err := s.authorize(identity, entities.RightManageUsers); err != nil {
		return err
	}
	err := s.accounts.RevokeRight(roleID, right)
	s.record(ctx, identity, entities.AuditEventAccount, "right_revoke", "role", roleID, "Revoked "+right, err)
	return err
}

func userID(user *entities.User) uint {
	if user == nil {
		return 0
	}
	return user.ID
}
