package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/library"
)

type AuditController struct {
	library *library.Service
}

func NewAuditController(svc *library.Service) *AuditController {
	return &AuditController{library: svc}
}

// List returns a page of the audit trail.
// GET /api/audit?type=borrow&user_id=3&page=2&limit=50
func (ac *AuditController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	limit = library.AuditPageSize(limit)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 32)

	result, err := ac.library.AuditEvents(c.Request.Context(), identity(c), auditrepo.Filter{
		UserID:    uint(userID),
		EventType: entities.AuditEventType(c.Query("type")),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		respondError(c, err, "audit events")
		return
	}
	c.JSON(http.StatusOK, result)
}
