package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/diet"
	"lg/calorie-dashboard-api/internal/realtime"
)

// settingsRequest is the complete profile; a save replaces every field.
type settingsRequest struct {
	Height        float64 `json:"height" binding:"required,gt=0"`
	Weight        float64 `json:"weight" binding:"required,gt=0"`
	Age           int     `json:"age" binding:"required,gt=0"`
	Gender        string  `json:"gender" binding:"required,oneof=male female"`
	ActivityLevel string  `json:"activity_level" binding:"required,oneof=sedentary light moderate active very-active"`
	Goal          string  `json:"goal" binding:"required,oneof=lose maintain gain"`
}

func (r settingsRequest) settings() diet.UserSettings {
	return diet.UserSettings{
		Height:        r.Height,
		Weight:        r.Weight,
		Age:           r.Age,
		Gender:        r.Gender,
		ActivityLevel: r.ActivityLevel,
		Goal:          r.Goal,
	}
}

// getUserSettings returns the profile, creating the default on first use.
// GET /api/settings
func (h *Handler) getUserSettings(c *gin.Context) {
	s, err := h.settings.Load(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to fetch settings")
		return
	}
	c.JSON(http.StatusOK, s)
}

// putUserSettings handles PUT /api/settings.
func (h *Handler) putUserSettings(c *gin.Context) {
	var req settingsRequest
	if !bindJSON(c, &req) {
		return
	}
	s := req.settings()
	if err := h.settings.Save(c.Request.Context(), s); err != nil {
		if !domainError(c, err) {
			h.internalError(c, err, "failed to save settings")
		}
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(realtime.Event{Kind: realtime.SettingsUpdated, Date: h.store.Today(), Data: s})
	}
	c.JSON(http.StatusOK, s)
}

// suggestCalorieTarget computes a daily target from the submitted profile.
// With ?apply=true the target is also set on today's log.
// POST /api/settings/suggest-target
func (h *Handler) suggestCalorieTarget(c *gin.Context) {
	var req settingsRequest
	if !bindJSON(c, &req) {
		return
	}

	suggestion, err := h.settings.SuggestTarget(c.Request.Context(), req.settings())
	if err != nil {
		if domainError(c, err) {
			return
		}
		h.log.Error("calorie target calculation failed", zap.Error(err))
		apiError(c, http.StatusBadGateway, "Failed to calculate calorie target. Please try again later.")
		return
	}

	if c.Query("apply") != "true" {
		c.JSON(http.StatusOK, suggestion)
		return
	}
	today := h.store.Today()
	if err := h.store.SetTarget(c.Request.Context(), today, suggestion.CalorieTarget); err != nil {
		h.internalError(c, err, "failed to apply target")
		return
	}
	day, err := h.publishDay(c.Request.Context(), today)
	if err != nil {
		h.internalError(c, err, "failed to reload log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion, "day": day})
}
