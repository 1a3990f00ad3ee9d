package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/library"
)

// UsersController manages accounts, roles and rights.
type UsersController struct {
	library *library.Service
}

func NewUsersController(svc *library.Service) *UsersController {
	return &UsersController{library: svc}
}

// List returns every account.
// GET /api/users
func (uc *UsersController) List(c *gin.Context) {
	users, err := uc.library.ListUsers(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get returns one account.
// GET /api/users/:id
func (uc *UsersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := uc.library.GetUser(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create adds an account with an explicit role.
// POST /api/users
func (uc *UsersController) Create(c *gin.Context) {
	var req library.UserInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.library.CreateUser(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, err, "create user")
		return
	}
	respondCreated(c, user)
}

// Update edits an account.
// PUT /api/users/:id
func (uc *UsersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req library.UserInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.library.UpdateUser(c.Request.Context(), identity(c), id, req)
	if err != nil {
		respondError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete removes an account.
// DELETE /api/users/:id
func (uc *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := uc.library.DeleteUser(c.Request.Context(), identity(c), id); err != nil {
		respondError(c, err, "delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRoles returns every role with its rights.
// GET /api/roles
func (uc *UsersController) ListRoles(c *gin.Context) {
	roles, err := uc.library.ListRoles(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "list roles")
		return
	}
	c.JSON(http.StatusOK, roles)
}

// GetRole returns one role.
// GET /api/roles/:id
func (uc *UsersController) GetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	role, err := uc.library.GetRole(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, err, "get role")
		return
	}
	c.JSON(http.StatusOK, role)
}

// ListRights returns every right name.
// GET /api/rights
func (uc *UsersController) ListRights(c *gin.Context) {
	rights, err := uc.library.ListRights(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "list rights")
		return
	}
	c.JSON(http.StatusOK, rights)
}

// GrantRight adds a right to a role.
// POST /api/roles/:id/rights/:right
func (uc *UsersController) GrantRight(c *gin.Context) {
	uc.changeRight(c, true)
}

// RevokeRight removes a right from a role.
// DELETE /api/roles/:id/rights/:right
func (uc *UsersController) RevokeRight(c *gin.Context) {
	uc.changeRight(c, false)
}

func (uc *UsersController) changeRight(c *gin.Context, grant bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	right := c.Param("right")
	ctx := c.Request.Context()

	var err error
	if grant {
		err = uc.library.GrantRight(ctx, identity(c), id, right)
	} else {
		err = uc.library.RevokeRight(ctx, identity(c), id, right)
	}
	if err != nil {
		respondError(c, err, "change right")
		return
	}

	role, err := uc.library.GetRole(ctx, identity(c), id)
	if err != nil {
		respondError(c, err, "get role")
		return
	}
	c.JSON(http.StatusOK, role)
}
