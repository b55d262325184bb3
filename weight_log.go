package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/calorie-dashboard-api/internal/diet"
)

type weightRequest struct {
	Weight *float64 `json:"weight" binding:"required,gt=0"`
}

// logWeight records the day's weight, replacing any earlier sample.
// PUT /api/logs/:date/weight
func (h *Handler) logWeight(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	var req weightRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.store.LogWeight(c.Request.Context(), date, *req.Weight); err != nil {
		if !domainError(c, err) {
			h.internalError(c, err, "failed to log weight")
		}
		return
	}
	h.respondWithDay(c, http.StatusOK, date, nil)
}

// getWeightLog returns every weight sample, oldest first.
// GET /api/weight-log
func (h *Handler) getWeightLog(c *gin.Context) {
	history, err := h.store.History(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to fetch history")
		return
	}
	c.JSON(http.StatusOK, diet.WeightSeries(history))
}
