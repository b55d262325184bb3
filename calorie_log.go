package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/diet"
)

// mealRequest is the body for POST /api/logs/:date/meals. Calories is a
// pointer so a missing value is told apart from zero.
type mealRequest struct {
	Type     string `json:"type" binding:"required,oneof=Breakfast Lunch Dinner Snack"`
	Name     string `json:"name" binding:"required,max=200"`
	Calories *int   `json:"calories" binding:"required,gte=0"`
}

type activityRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	CaloriesBurned *int   `json:"calories_burned" binding:"required,gte=0"`
}

type targetRequest struct {
	CalorieTarget *int `json:"calorie_target" binding:"required,gte=0"`
}

// getDailyLog returns one day's log with its summary.
// GET /api/logs/:date (date may be "today").
func (h *Handler) getDailyLog(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	l, err := h.store.Log(c.Request.Context(), date)
	if err != nil {
		if !domainError(c, err) {
			h.internalError(c, err, "failed to fetch log")
		}
		return
	}
	c.JSON(http.StatusOK, newDayResponse(l))
}

// createMeal handles POST /api/logs/:date/meals.
func (h *Handler) createMeal(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	var req mealRequest
	if !bindJSON(c, &req) {
		return
	}

	meal, err := h.store.AddMeal(c.Request.Context(), date, diet.Meal{
		Type:     diet.MealType(req.Type),
		Name:     req.Name,
		Calories: *req.Calories,
	})
	if err != nil {
		if !domainError(c, err) {
			h.internalError(c, err, "failed to add meal")
		}
		return
	}
	h.log.Debug("meal added", zap.String("date", date), zap.String("id", meal.ID))
	h.respondWithDay(c, http.StatusCreated, date, gin.H{"meal": meal})
}

// deleteMeal handles DELETE /api/meals/:id. Unknown ids succeed silently.
func (h *Handler) deleteMeal(c *gin.Context) {
	date, err := h.store.DeleteMeal(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, err, "failed to delete meal")
		return
	}
	if date != "" {
		if _, err := h.publishDay(c.Request.Context(), date); err != nil {
			h.log.Warn("publish after delete failed", zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

// createActivity handles POST /api/logs/:date/activities.
func (h *Handler) createActivity(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	var req activityRequest
	if !bindJSON(c, &req) {
		return
	}

	activity, err := h.store.AddActivity(c.Request.Context(), date, diet.Activity{
		Name:           req.Name,
		CaloriesBurned: *req.CaloriesBurned,
	})
	if err != nil {
		if !domainError(c, err) {
			h.internalError(c, err, "failed to add activity")
		}
		return
	}
	h.respondWithDay(c, http.StatusCreated, date, gin.H{"activity": activity})
}

// deleteActivity handles DELETE /api/activities/:id.
func (h *Handler) deleteActivity(c *gin.Context) {
	date, err := h.store.DeleteActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, err, "failed to delete activity")
		return
	}
	if date != "" {
		if _, err := h.publishDay(c.Request.Context(), date); err != nil {
			h.log.Warn("publish after delete failed", zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

// setCalorieTarget handles PUT /api/logs/:date/target.
func (h *Handler) setCalorieTarget(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	var req targetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.store.SetTarget(c.Request.Context(), date, *req.CalorieTarget); err != nil {
		if !domainError(c, err) {
			h.internalError(c, err, "failed to set target")
		}
		return
	}
	h.respondWithDay(c, http.StatusOK, date, nil)
}

// respondWithDay publishes the updated day and writes it, merged with
// extra, as the response.
func (h *Handler) respondWithDay(c *gin.Context, status int, date string, extra gin.H) {
	day, err := h.publishDay(c.Request.Context(), date)
	if err != nil {
		h.internalError(c, err, "failed to reload log")
		return
	}
	if extra == nil {
		c.JSON(status, day)
		return
	}
	extra["day"] = day
	c.JSON(status, extra)
}
