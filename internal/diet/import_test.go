package diet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lg/calorie-dashboard-api/internal/diet"
	"lg/calorie-dashboard-api/internal/storage/memory"
)

func TestImport_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	h := sampleHistory()

	st, err := diet.Import(ctx, repo, h)
	require.NoError(t, err)
	assert.Equal(t, diet.ImportStats{Days: 3, Meals: 4, Activities: 1}, st)

	st, err = diet.Import(ctx, repo, h)
	require.NoError(t, err)
	assert.Equal(t, diet.ImportStats{Skipped: 5}, st)

	store := diet.NewStore(repo, diet.WithClock(fixedClock))
	got, err := store.Log(ctx, "2026-10-15")
	require.NoError(t, err)
	assert.Equal(t, h["2026-10-15"], got)
}

// TestImport_KeepsExistingDay verifies an import into a date that already
// has a log adds entries but leaves the stored target alone.
func TestImport_KeepsExistingDay(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	store := diet.NewStore(repo, diet.WithClock(fixedClock))
	require.NoError(t, store.SetTarget(ctx, "2026-10-15", 2500))

	st, err := diet.Import(ctx, repo, sampleHistory())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Days)

	got, err := store.Log(ctx, "2026-10-15")
	require.NoError(t, err)
	assert.Equal(t, 2500, got.CalorieTarget)
	assert.Len(t, got.Meals, 2)
}

// TestImport_IDUsedOnAnotherDate verifies a clash is caught before any
// write, leaving the repository untouched.
func TestImport_IDUsedOnAnotherDate(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	_, err := repo.InsertDay(ctx, diet.DayMetrics{Date: "2026-10-01", CalorieTarget: 2000})
	require.NoError(t, err)
	require.NoError(t, repo.InsertMeal(ctx, diet.MealRecord{
		Date: "2026-10-01",
		Meal: diet.Meal{ID: "m3", Type: diet.Lunch, Name: "Salad", Calories: 300},
	}))

	st, err := diet.Import(ctx, repo, sampleHistory())
	require.ErrorIs(t, err, diet.ErrIDConflict)
	assert.Equal(t, diet.ImportStats{}, st)

	days, err := repo.ListDays(ctx)
	require.NoError(t, err)
	assert.Len(t, days, 1)
	meals, err := repo.ListMeals(ctx, "")
	require.NoError(t, err)
	assert.Len(t, meals, 1)
}

func TestImport_IDRepeatedAcrossImportedDates(t *testing.T) {
	h := sampleHistory()
	d := h["2026-10-16"]
	d.Activities = []diet.Activity{{ID: "a1", Name: "Swim", CaloriesBurned: 250}}
	h["2026-10-16"] = d

	_, err := diet.Import(context.Background(), memory.New(), h)
	assert.ErrorIs(t, err, diet.ErrIDConflict)
}
