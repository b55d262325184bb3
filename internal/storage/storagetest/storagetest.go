// Package storagetest holds the behavior every diet.Repository adapter must
// share. Adapter tests call Run with a constructor for a fresh, empty
// repository.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lg/calorie-dashboard-api/internal/diet"
)

// Run exercises repo contracts against repositories built by newRepo.
func Run(t *testing.T, newRepo func(t *testing.T) diet.Repository) {
	t.Run("settings", func(t *testing.T) { testSettings(t, newRepo(t)) })
	t.Run("days", func(t *testing.T) { testDays(t, newRepo(t)) })
	t.Run("meals", func(t *testing.T) { testMeals(t, newRepo(t)) })
	t.Run("activities", func(t *testing.T) { testActivities(t, newRepo(t)) })
	t.Run("store round trip", func(t *testing.T) { testStoreRoundTrip(t, newRepo(t)) })
}

func testSettings(t *testing.T, repo diet.Repository) {
	ctx := context.Background()

	_, err := repo.GetSettings(ctx)
	require.ErrorIs(t, err, diet.ErrNotFound)

	s := diet.UserSettings{Height: 175, Weight: 70, Age: 30, Gender: diet.Male, ActivityLevel: "light", Goal: diet.GoalLose}
	require.NoError(t, repo.SaveSettings(ctx, s))
	got, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	s.Weight = 68.5
	require.NoError(t, repo.SaveSettings(ctx, s))
	got, err = repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 68.5, got.Weight)
}

func testDays(t *testing.T, repo diet.Repository) {
	ctx := context.Background()

	_, err := repo.GetDay(ctx, "2026-10-01")
	require.ErrorIs(t, err, diet.ErrNotFound)

	created, err := repo.InsertDay(ctx, diet.DayMetrics{Date: "2026-10-01", CalorieTarget: 2000})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.InsertDay(ctx, diet.DayMetrics{Date: "2026-10-01", CalorieTarget: 1500})
	require.NoError(t, err)
	assert.False(t, created)

	target := 1800
	require.NoError(t, repo.UpdateDay(ctx, "2026-10-01", diet.DayPatch{CalorieTarget: &target}))
	w := 71.3
	require.NoError(t, repo.UpdateDay(ctx, "2026-10-01", diet.DayPatch{Weight: &w}))

	d, err := repo.GetDay(ctx, "2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, 1800, d.CalorieTarget)
	require.NotNil(t, d.Weight)
	assert.InDelta(t, 71.3, *d.Weight, 1e-9)

	assert.ErrorIs(t, repo.UpdateDay(ctx, "2026-01-01", diet.DayPatch{CalorieTarget: &target}), diet.ErrNotFound)

	_, err = repo.InsertDay(ctx, diet.DayMetrics{Date: "2026-09-30", CalorieTarget: 2200})
	require.NoError(t, err)
	days, err := repo.ListDays(ctx)
	require.NoError(t, err)
	dates := make([]string, 0, len(days))
	for _, d := range days {
		dates = append(dates, d.Date)
	}
	assert.ElementsMatch(t, []string{"2026-09-30", "2026-10-01"}, dates)
}

func testMeals(t *testing.T, repo diet.Repository) {
	ctx := context.Background()
	for _, d := range []string{"2026-10-01", "2026-10-02"} {
		_, err := repo.InsertDay(ctx, diet.DayMetrics{Date: d, CalorieTarget: 2000})
		require.NoError(t, err)
	}

	records := []diet.MealRecord{
		{Date: "2026-10-01", Meal: diet.Meal{ID: diet.NewID(), Type: diet.Breakfast, Name: "Eggs", Calories: 300}},
		{Date: "2026-10-01", Meal: diet.Meal{ID: diet.NewID(), Type: diet.Lunch, Name: "Wrap", Calories: 550}},
		{Date: "2026-10-02", Meal: diet.Meal{ID: diet.NewID(), Type: diet.Snack, Name: "Yogurt", Calories: 120}},
	}
	for _, m := range records {
		require.NoError(t, repo.InsertMeal(ctx, m))
	}

	day, err := repo.ListMeals(ctx, "2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, records[:2], day, "insertion order within a date")

	all, err := repo.ListMeals(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	date, found, err := repo.DeleteMeal(ctx, records[0].ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2026-10-01", date)

	_, found, err = repo.DeleteMeal(ctx, records[0].ID)
	require.NoError(t, err)
	assert.False(t, found)

	day, err = repo.ListMeals(ctx, "2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, records[1:2], day)

	empty, err := repo.ListMeals(ctx, "2026-10-09")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testActivities(t *testing.T, repo diet.Repository) {
	ctx := context.Background()
	_, err := repo.InsertDay(ctx, diet.DayMetrics{Date: "2026-10-01", CalorieTarget: 2000})
	require.NoError(t, err)

	run := diet.ActivityRecord{Date: "2026-10-01", Activity: diet.Activity{ID: diet.NewID(), Name: "Run", CaloriesBurned: 400}}
	row := diet.ActivityRecord{Date: "2026-10-01", Activity: diet.Activity{ID: diet.NewID(), Name: "Row", CaloriesBurned: 250}}
	require.NoError(t, repo.InsertActivity(ctx, run))
	require.NoError(t, repo.InsertActivity(ctx, row))

	got, err := repo.ListActivities(ctx, "2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, []diet.ActivityRecord{run, row}, got)

	date, found, err := repo.DeleteActivity(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2026-10-01", date)

	got, err = repo.ListActivities(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []diet.ActivityRecord{row}, got)
}

// testStoreRoundTrip drives the adapter through diet.Store so the
// assembled History is checked end to end.
func testStoreRoundTrip(t *testing.T, repo diet.Repository) {
	ctx := context.Background()
	store := diet.NewStore(repo)
	today := store.Today()

	m, err := store.AddMeal(ctx, today, diet.Meal{Type: diet.Dinner, Name: "Stir fry", Calories: 640})
	require.NoError(t, err)
	_, err = store.AddActivity(ctx, today, diet.Activity{Name: "Cycle", CaloriesBurned: 240})
	require.NoError(t, err)
	require.NoError(t, store.SetTarget(ctx, today, 1900))

	h, err := store.History(ctx)
	require.NoError(t, err)
	l := h[today]
	assert.Equal(t, []diet.Meal{m}, l.Meals)
	assert.Equal(t, 1900, l.CalorieTarget)
	assert.Equal(t, 400, diet.Summarize(l).NetCalories)
	assert.Equal(t, 1500, diet.Summarize(l).RemainingCalories)
}
