package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// DashboardQuery bounds the statistics to a date range; both ends are optional
type DashboardQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// DashboardHandler serves the receiving statistics
type DashboardHandler struct {
	BaseHandler
	history HistoryAPI
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(history HistoryAPI) *DashboardHandler {
	return &DashboardHandler{history: history}
}

// Stats aggregates the conferences finished in the requested range
// @Summary      Dashboard statistics
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "First day (YYYY-MM-DD)"
// @Param        to query string false "Last day (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=conference.DashboardStatsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	var q DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		h.BadRequest(c, "from must not be after to")
		return
	}

	stats, err := h.history.DashboardStats(c.Request.Context(), q.From, q.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
