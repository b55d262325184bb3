package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lg/calorie-dashboard-api/internal/diet"
)

const defaultTrendDays = 7

// historyResponse is one page of day reports, newest first.
type historyResponse struct {
	Days []diet.DayReport `json:"days"`
	diet.Page
}

// queryInt reads an optional integer query parameter. It writes a 400 and
// returns false when the value is present but not an integer.
func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		apiError(c, http.StatusBadRequest, key+" must be an integer")
		return 0, false
	}
	return n, true
}

// getHistory handles GET /api/history?date=&page=&page_size=.
// With date set, the result holds at most that one day.
func (h *Handler) getHistory(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "page_size", diet.DefaultPageSize)
	if !ok {
		return
	}

	history, err := h.store.History(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to fetch history")
		return
	}
	if date := c.Query("date"); date != "" {
		if _, err := diet.ParseDate(date); err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
		history = diet.FilterByDate(history, date)
	}

	p := diet.Paginate(diet.SortedDates(history), pageSize, page)
	days := diet.DayReports(history, p.Dates)
	for i := range days {
		days[i].Summary = displaySummary(days[i].Summary)
	}
	c.JSON(http.StatusOK, historyResponse{Days: days, Page: p})
}

// getTrend handles GET /api/reports/trend?days=N (default 7).
func (h *Handler) getTrend(c *gin.Context) {
	days, ok := queryInt(c, "days", defaultTrendDays)
	if !ok {
		return
	}
	if days < 1 {
		apiError(c, http.StatusBadRequest, "days must be at least 1")
		return
	}
	history, err := h.store.History(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to fetch history")
		return
	}
	c.JSON(http.StatusOK, diet.WeeklyTrend(history, days))
}

// getCalorieSources handles GET /api/reports/sources.
func (h *Handler) getCalorieSources(c *gin.Context) {
	history, err := h.store.History(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to fetch history")
		return
	}
	c.JSON(http.StatusOK, diet.CalorieSources(history))
}

// getProgress returns aggregate stats for a date range. Defaults to the
// seven days ending today.
// GET /api/reports/progress?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) getProgress(c *gin.Context) {
	today := h.store.Today()
	end := c.DefaultQuery("end", today)
	endDate, err := diet.ParseDate(end)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end date, expected YYYY-MM-DD")
		return
	}
	start := c.DefaultQuery("start", endDate.AddDate(0, 0, -(defaultTrendDays-1)).Format(diet.DateLayout))
	startDate, err := diet.ParseDate(start)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start date, expected YYYY-MM-DD")
		return
	}
	if startDate.After(endDate) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	history, err := h.store.History(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to fetch history")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start": start,
		"end":   end,
		"days":  int(endDate.Sub(startDate)/(24*time.Hour)) + 1,
		"stats": diet.StatsForRange(history, start, end),
	})
}
