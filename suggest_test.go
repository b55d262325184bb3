package main

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lg/calorie-dashboard-api/internal/diet"
)

/* ─── Food estimates ─────────────────────────────────────────────────── */

func TestEstimateFood_Success(t *testing.T) {
	e := newTestEnv(t)
	e.setMock(http.StatusOK, openAIChatResponse(`{"calories":180}`))

	w := e.do(http.MethodPost, "/api/estimate/food", `{"food_name":"2 scrambled eggs"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 180, decode[map[string]int](t, w)["calories"])
}

// TestEstimateFood_Unrecognized verifies the model's "unrecognized" answer
// is passed through as a normal response rather than a failure.
func TestEstimateFood_Unrecognized(t *testing.T) {
	e := newTestEnv(t)
	e.setMock(http.StatusOK, openAIChatResponse(`{"error":"unrecognized"}`))

	w := e.do(http.MethodPost, "/api/estimate/food", `{"food_name":"qwerty"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unrecognized", decode[errorBody](t, w).Error)
}

func TestEstimateFood_UpstreamFailure(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   any
	}{
		{"server error", http.StatusInternalServerError, map[string]any{"error": "internal"}},
		{"malformed content", http.StatusOK, openAIChatResponse(`not json`)},
		{"missing calories", http.StatusOK, openAIChatResponse(`{"kcal":100}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.setMock(tc.status, tc.body)

			w := e.do(http.MethodPost, "/api/estimate/food", `{"food_name":"toast"}`)
			require.Equal(t, http.StatusBadGateway, w.Code)
			assert.Equal(t, "Failed to get calorie estimate. Please try again later.", decode[errorBody](t, w).Error)
		})
	}
}

func TestEstimateFood_Validation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/estimate/food", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "is required", decode[errorBody](t, w).Fields["food_name"])

	w = e.do(http.MethodPost, "/api/estimate/food", `{"food_name":"   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Food name is required.", decode[errorBody](t, w).Error)

	w = e.do(http.MethodPost, "/api/estimate/food", `{"food_name":"`+strings.Repeat("a", 201)+`"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be at most 200 characters long", decode[errorBody](t, w).Fields["food_name"])

	assert.Zero(t, e.aiCalls.Load())
}

/* ─── Exercise estimates ─────────────────────────────────────────────── */

func TestEstimateExercise_Success(t *testing.T) {
	e := newTestEnv(t)
	e.setMock(http.StatusOK, openAIChatResponse(`{"calories_burned":250}`))

	w := e.do(http.MethodPost, "/api/estimate/exercise", `{"description":"30 minute jog"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 250, decode[map[string]int](t, w)["calories_burned"])
	assert.EqualValues(t, 1, e.aiCalls.Load())
}

func TestEstimateExercise_Failure(t *testing.T) {
	e := newTestEnv(t)
	e.setMock(http.StatusOK, openAIChatResponse(`{"calories_burned":-40}`))

	w := e.do(http.MethodPost, "/api/estimate/exercise", `{"description":"30 minute jog"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to get exercise estimate. Please try again later.", decode[errorBody](t, w).Error)
}

/* ─── Meal suggestions ───────────────────────────────────────────────── */

type mealSuggestionBody struct {
	Suggestions       string `json:"suggestions"`
	RemainingCalories int    `json:"remaining_calories"`
}

// TestSuggestMeal_NoMeals verifies the first meal of the day is answered
// without calling the model.
func TestSuggestMeal_NoMeals(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/suggestions/meal", `{"next_meal_type":"Breakfast"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[mealSuggestionBody](t, w)
	assert.Equal(t, 2000, resp.RemainingCalories)
	assert.True(t, strings.HasPrefix(resp.Suggestions, "You have 2000 calories remaining. For Breakfast,"), resp.Suggestions)
	assert.Zero(t, e.aiCalls.Load())
}

func TestSuggestMeal_Exceeded(t *testing.T) {
	e := newTestEnv(t)
	e.addMeal(t, testToday, "Lunch", "Buffet", 2600)

	w := e.do(http.MethodPost, "/api/suggestions/meal", `{"next_meal_type":"Dinner"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[mealSuggestionBody](t, w)
	assert.Equal(t, -600, resp.RemainingCalories)
	assert.True(t, strings.HasPrefix(resp.Suggestions, "You've already exceeded your daily calorie target."), resp.Suggestions)
	assert.Zero(t, e.aiCalls.Load())
}

func TestSuggestMeal_CallsModel(t *testing.T) {
	e := newTestEnv(t)
	e.setMock(http.StatusOK, openAIChatResponse(`{"suggestions":"Grilled chicken with greens."}`))
	e.addMeal(t, "2026-10-17", "Breakfast", "Oats", 350)
	_, err := e.h.store.AddActivity(context.Background(), "2026-10-17", diet.Activity{Name: "Swim", CaloriesBurned: 150})
	require.NoError(t, err)

	w := e.do(http.MethodPost, "/api/suggestions/meal", `{"date":"2026-10-17","next_meal_type":"Lunch"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[mealSuggestionBody](t, w)
	assert.Equal(t, "Grilled chicken with greens.", resp.Suggestions)
	assert.Equal(t, 1800, resp.RemainingCalories)
	assert.EqualValues(t, 1, e.aiCalls.Load())
}

func TestSuggestMeal_Validation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/suggestions/meal", `{"next_meal_type":"Brunch"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Fields, "next_meal_type")

	w = e.do(http.MethodPost, "/api/suggestions/meal", `{"date":"17/10/2026","next_meal_type":"Lunch"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be a date in YYYY-MM-DD format", decode[errorBody](t, w).Fields["date"])

	w = e.do(http.MethodPost, "/api/suggestions/meal", `{"date":"2020-01-01","next_meal_type":"Lunch"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
