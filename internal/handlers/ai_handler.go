package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	if h.Assistant == nil {
		unavailable(c, "AI assistant")
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message is required")
		return
	}

	// 1. Run the AI Agent against the current branch
	scope := scopeOf(c)
	response, err := h.Assistant.Ask(c.Request.Context(), scope.Actor, scope.CurrentBranchID, req.Message)
	if err != nil {
		fail(c, err)
		return
	}

	// 2. Return the Answer
	c.JSON(http.StatusOK, gin.H{"reply": response})
}

// ShowForecast returns the last AI forecast stored for the current branch.
func (h *Handler) ShowForecast(c *gin.Context) {
	if h.Forecasts == nil {
		unavailable(c, "AI forecast")
		return
	}
	sum, err := h.Forecasts.Show(c.Request.Context(), scopeOf(c).CurrentBranchID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GenerateForecast queues a refresh when a queue is configured, otherwise
// generates inline.
func (h *Handler) GenerateForecast(c *gin.Context) {
	branchID := scopeOf(c).CurrentBranchID
	if branchID == 0 {
		badRequest(c, "No active branch selected.")
		return
	}

	if h.Queue != nil {
		if err := h.Queue.RequestForecast(c.Request.Context(), branchID); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Forecast generation has been queued."})
		return
	}

	if h.Forecasts == nil {
		unavailable(c, "AI forecast")
		return
	}
	sum, err := h.Forecasts.Generate(c.Request.Context(), branchID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
