package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/ai"
	"lg/calorie-dashboard-api/internal/diet"
)

/* ─── Request types ──────────────────────────────────────────────────── */

type foodEstimateRequest struct {
	FoodName string `json:"food_name" binding:"required,max=200"`
}

type exerciseEstimateRequest struct {
	Description string `json:"description" binding:"required,max=200"`
}

// mealSuggestionRequest asks for advice on the next meal of date (default
// today).
type mealSuggestionRequest struct {
	Date         string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	NextMealType string `json:"next_meal_type" binding:"required,oneof=Breakfast Lunch Dinner Snack"`
}

// aiError writes the response for a failed estimation call. An
// unrecognized input is a normal answer, not a failure.
func (h *Handler) aiError(c *gin.Context, err error, message string) {
	if errors.Is(err, ai.ErrUnrecognized) {
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized"})
		return
	}
	h.log.Error("ai request failed", zap.Error(err), zap.String("path", c.FullPath()))
	apiError(c, http.StatusBadGateway, message)
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// estimateFood handles POST /api/estimate/food.
func (h *Handler) estimateFood(c *gin.Context) {
	var req foodEstimateRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.FoodName) == "" {
		apiError(c, http.StatusBadRequest, "Food name is required.")
		return
	}

	calories, err := h.ai.EstimateCalories(c.Request.Context(), req.FoodName)
	if err != nil {
		h.aiError(c, err, "Failed to get calorie estimate. Please try again later.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"calories": calories})
}

// estimateExercise handles POST /api/estimate/exercise. A complete saved
// profile personalizes the estimate.
func (h *Handler) estimateExercise(c *gin.Context) {
	var req exerciseEstimateRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		apiError(c, http.StatusBadRequest, "Exercise description is required.")
		return
	}

	var profile *diet.UserSettings
	if s, err := h.settings.Load(c.Request.Context()); err == nil {
		profile = &s
	} else {
		h.log.Warn("estimating without profile", zap.Error(err))
	}

	burned, err := h.ai.EstimateExerciseCalories(c.Request.Context(), req.Description, profile)
	if err != nil {
		h.aiError(c, err, "Failed to get exercise estimate. Please try again later.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"calories_burned": burned})
}

// suggestMeal handles POST /api/suggestions/meal. The day's meals and
// remaining calories come from the store.
func (h *Handler) suggestMeal(c *gin.Context) {
	var req mealSuggestionRequest
	if !bindJSON(c, &req) {
		return
	}
	date := req.Date
	if date == "" {
		date = h.store.Today()
	}

	l, err := h.store.Log(c.Request.Context(), date)
	if err != nil {
		if !domainError(c, err) {
			h.internalError(c, err, "failed to fetch log")
		}
		return
	}
	remaining := diet.Summarize(l).RemainingCalories

	suggestions, err := h.ai.SuggestMealAdjustments(c.Request.Context(), l.Meals, remaining, diet.MealType(req.NextMealType))
	if err != nil {
		h.aiError(c, err, "Failed to get meal suggestions. Please try again later.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "remaining_calories": remaining})
}
