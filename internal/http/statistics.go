package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/library"
)

type StatisticsController struct {
	library *library.Service
}

func NewStatisticsController(svc *library.Service) *StatisticsController {
	return &StatisticsController{library: svc}
}

// Summary returns the dashboard counters.
// GET /api/statistics
func (sc *StatisticsController) Summary(c *gin.Context) {
	summary, err := sc.library.Statistics(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "statistics")
		return
	}
	c.JSON(http.StatusOK, summary)
}
