package main

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/apperror"
	"lg/calorie-dashboard-api/internal/diet"
	"lg/calorie-dashboard-api/internal/realtime"
)

// estimator is the AI estimation service as the handlers use it.
type estimator interface {
	EstimateCalories(ctx context.Context, food string) (int, error)
	EstimateExerciseCalories(ctx context.Context, description string, profile *diet.UserSettings) (int, error)
	SuggestMealAdjustments(ctx context.Context, meals []diet.Meal, remaining int, next diet.MealType) (string, error)
}

// Handler holds shared dependencies for all route handlers.
type Handler struct {
	store    *diet.Store
	settings *diet.SettingsResolver
	ai       estimator
	hub      *realtime.Hub
	log      *zap.Logger
	auth     authConfig
}

/* ─── Response helpers ───────────────────────────────────────────────── */

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// bindJSON decodes and validates the request body into dst. On failure it
// writes a 400 with per-field messages and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	if fields := apperror.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return false
	}
	apiError(c, http.StatusBadRequest, "invalid request body")
	return false
}

// domainError maps store and settings errors to a response. It returns
// false for errors it does not recognize.
func domainError(c *gin.Context, err error) bool {
	var se *diet.SettingsError
	switch {
	case errors.As(err, &se):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": map[string]string{se.Field: se.Message}})
	case errors.Is(err, diet.ErrInvalidDate), errors.Is(err, diet.ErrInvalidWeight):
		apiError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, diet.ErrLogNotFound):
		apiError(c, http.StatusNotFound, err.Error())
	default:
		return false
	}
	return true
}

// internalError logs err and writes a 500 carrying message.
func (h *Handler) internalError(c *gin.Context, err error, message string) {
	h.log.Error(message, zap.Error(err), zap.String("path", c.FullPath()))
	apiError(c, http.StatusInternalServerError, message)
}

// dateParam resolves the :date path parameter; "today" is an alias for the
// current date.
func (h *Handler) dateParam(c *gin.Context) (string, bool) {
	date := c.Param("date")
	if date == "today" {
		return h.store.Today(), true
	}
	if _, err := diet.ParseDate(date); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return "", false
	}
	return date, true
}

// dayResponse is a DailyLog with its derived totals.
type dayResponse struct {
	diet.DailyLog
	Summary        diet.Summary         `json:"summary"`
	MealTypeTotals []diet.MealTypeTotal `json:"meal_type_totals"`
}

func newDayResponse(l diet.DailyLog) dayResponse {
	return dayResponse{
		DailyLog:       l,
		Summary:        displaySummary(diet.Summarize(l)),
		MealTypeTotals: diet.MealTypeTotals(l.Meals),
	}
}

// displaySummary rounds progress to one decimal place.
func displaySummary(s diet.Summary) diet.Summary {
	s.ProgressPercent = math.Round(s.ProgressPercent*10) / 10
	return s
}

// publishDay reloads date's log and pushes it to websocket clients.
func (h *Handler) publishDay(ctx context.Context, date string) (dayResponse, error) {
	l, err := h.store.Log(ctx, date)
	if err != nil {
		return dayResponse{}, err
	}
	resp := newDayResponse(l)
	if h.hub != nil {
		h.hub.Broadcast(realtime.Event{Kind: realtime.DayUpdated, Date: date, Data: resp})
	}
	return resp, nil
}

/* ─── Server setup ────────────────────────────────────────────────────── */

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// newRouter builds the gin engine with every route registered.
func (h *Handler) newRouter() *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		apperror.UseJSONFieldNames(v)
	}
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	_ = router.SetTrustedProxies(nil)
	h.registerRoutes(router)
	return router
}

// requestLogger logs one line per request.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/healthz", h.healthz)
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/logs/:date", h.getDailyLog)
	api.POST("/logs/:date/meals", h.createMeal)
	api.POST("/logs/:date/activities", h.createActivity)
	api.PUT("/logs/:date/target", h.setCalorieTarget)
	api.PUT("/logs/:date/weight", h.logWeight)
	api.DELETE("/meals/:id", h.deleteMeal)
	api.DELETE("/activities/:id", h.deleteActivity)

	api.GET("/history", h.getHistory)
	api.GET("/reports/trend", h.getTrend)
	api.GET("/reports/sources", h.getCalorieSources)
	api.GET("/reports/progress", h.getProgress)
	api.GET("/weight-log", h.getWeightLog)

	api.GET("/settings", h.getUserSettings)
	api.PUT("/settings", h.putUserSettings)
	api.POST("/settings/suggest-target", h.suggestCalorieTarget)

	api.POST("/estimate/food", h.estimateFood)
	api.POST("/estimate/exercise", h.estimateExercise)
	api.POST("/suggestions/meal", h.suggestMeal)

	api.GET("/ws", gin.WrapF(h.hub.Serve))
}
