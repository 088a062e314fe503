package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
)

// Summary returns the analytics dashboard for ?timeframe=day|week|month.
func (h *Handler) Summary(c *gin.Context) {
	tf, err := analytics.ParseTimeframe(c.DefaultQuery("timeframe", string(h.deps.DefaultTimeframe)))
	if err != nil {
		h.respondError(c, err, "load dashboard")
		return
	}

	dash, err := h.deps.Dashboard.Summary(c.Request.Context(), currentSession(c), tf)
	if err != nil {
		h.respondError(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, dash)
}

// Remaining reports the free-tier allowance and whether to show the banner.
func (h *Handler) Remaining(c *gin.Context) {
	rem, err := h.deps.Dashboard.Remaining(c.Request.Context(), currentSession(c))
	if err != nil {
		h.respondError(c, err, "load remaining runs")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"is_paid_user":   rem.IsPaidUser,
		"remaining_runs": rem.RemainingRuns,
		"show_banner":    rem.ShowBanner(),
	})
}

// Jobs returns one page of the caller's jobs for ?page=.
func (h *Handler) Jobs(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a number"})
		return
	}

	view, err := h.deps.Dashboard.Jobs(c.Request.Context(), currentSession(c), page)
	if err != nil {
		h.respondError(c, err, "load jobs")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ToggleJob flips whether a job's runs are expanded.
func (h *Handler) ToggleJob(c *gin.Context) {
	id := c.Param("id")
	expanded := h.deps.Dashboard.ToggleJob(currentSession(c), id)
	c.JSON(http.StatusOK, gin.H{"job_id": id, "expanded": expanded})
}

// ErrorLogs lists the failures the caller can fix. ?refresh=true bypasses
// the list held back after a clear.
func (h *Handler) ErrorLogs(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	logs, err := h.deps.Dashboard.ErrorLogs(c.Request.Context(), currentSession(c), refresh)
	if err != nil {
		h.respondError(c, err, "load error logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": logs, "count": len(logs)})
}

// ClearErrorLogs deletes the caller's error logs and returns the emptied list.
func (h *Handler) ClearErrorLogs(c *gin.Context) {
	logs, err := h.deps.Dashboard.ClearErrorLogs(c.Request.Context(), currentSession(c))
	if err != nil {
		h.respondError(c, err, "clear errors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": logs, "count": len(logs)})
}

// Checkout returns a hosted checkout URL for upgrading.
func (h *Handler) Checkout(c *gin.Context) {
	checkout, err := h.deps.Dashboard.Checkout(c.Request.Context(), currentSession(c))
	if err != nil {
		h.respondError(c, err, "start checkout")
		return
	}
	c.JSON(http.StatusOK, checkout)
}

// Events streams notifications and job updates addressed to the caller.
func (h *Handler) Events(c *gin.Context) {
	sse.Handler(h.deps.Broker, h.log, sse.WithUser(currentSession(c).UserID))(c)
}
