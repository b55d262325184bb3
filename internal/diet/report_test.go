package diet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lg/calorie-dashboard-api/internal/diet"
)

func weight(w float64) *float64 { return &w }

// sampleHistory holds three days: one under target, one over, one with a
// weight sample and no meals.
func sampleHistory() diet.History {
	d1 := diet.NewDailyLog("2026-10-14", 2000)
	d1.Meals = []diet.Meal{
		{ID: "m1", Type: diet.Breakfast, Name: "Oats", Calories: 400},
		{ID: "m2", Type: diet.Dinner, Name: "Curry", Calories: 900},
	}
	d1.Activities = []diet.Activity{{ID: "a1", Name: "Run", CaloriesBurned: 300}}

	d2 := diet.NewDailyLog("2026-10-15", 1800)
	d2.Meals = []diet.Meal{
		{ID: "m3", Type: diet.Lunch, Name: "Burger", Calories: 1200},
		{ID: "m4", Type: diet.Dinner, Name: "Pizza", Calories: 1000},
	}

	d3 := diet.NewDailyLog("2026-10-16", 2000)
	d3.Weight = weight(71.4)

	return diet.History{d1.Date: d1, d2.Date: d2, d3.Date: d3}
}

func TestSortedDates_NewestFirst(t *testing.T) {
	assert.Equal(t, []string{"2026-10-16", "2026-10-15", "2026-10-14"}, diet.SortedDates(sampleHistory()))
	assert.Empty(t, diet.SortedDates(diet.History{}))
}

func TestFilterByDate(t *testing.T) {
	h := sampleHistory()

	got := diet.FilterByDate(h, "2026-10-15")
	require.Len(t, got, 1)
	assert.Len(t, got["2026-10-15"].Meals, 2)

	assert.Empty(t, diet.FilterByDate(h, "1999-01-01"))
}

/* ─── Paginate ───────────────────────────────────────────────────────── */

func TestPaginate(t *testing.T) {
	dates := []string{"e", "d", "c", "b", "a"}

	cases := []struct {
		name      string
		size      int
		page      int
		wantDates []string
		wantPage  int
		wantTotal int
	}{
		{"first page", 2, 1, []string{"e", "d"}, 1, 3},
		{"last partial page", 2, 3, []string{"a"}, 3, 3},
		{"page above range clamps", 2, 9, []string{"a"}, 3, 3},
		{"page below range clamps", 2, 0, []string{"e", "d"}, 1, 3},
		{"zero size uses default", 0, 1, dates, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := diet.Paginate(dates, tc.size, tc.page)
			assert.Equal(t, tc.wantDates, p.Dates)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantTotal, p.TotalPages)
			assert.Equal(t, len(dates), p.TotalItems)
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := diet.Paginate(nil, 10, 3)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Dates)
	assert.NotNil(t, p.Dates)
}

func TestDayReports_FollowsDateOrder(t *testing.T) {
	h := sampleHistory()
	rows := diet.DayReports(h, []string{"2026-10-15", "missing", "2026-10-14"})

	require.Len(t, rows, 2)
	assert.Equal(t, "2026-10-15", rows[0].Date)
	assert.Equal(t, 2200, rows[0].Summary.TotalConsumed)
	assert.Equal(t, -400, rows[0].Summary.RemainingCalories)
	assert.Equal(t, "2026-10-14", rows[1].Date)
	assert.Equal(t, 1000, rows[1].Summary.NetCalories)
}

/* ─── Trends ─────────────────────────────────────────────────────────── */

func TestWeeklyTrend(t *testing.T) {
	got := diet.WeeklyTrend(sampleHistory(), 2)
	assert.Equal(t, []diet.TrendPoint{
		{Date: "2026-10-15", NetCalories: 2200, CalorieTarget: 1800},
		{Date: "2026-10-16", NetCalories: 0, CalorieTarget: 2000},
	}, got)

	assert.Len(t, diet.WeeklyTrend(sampleHistory(), 30), 3)
}

func TestCalorieSources_DropsEmptyTypes(t *testing.T) {
	assert.Equal(t, []diet.MealTypeTotal{
		{Type: diet.Breakfast, Calories: 400},
		{Type: diet.Lunch, Calories: 1200},
		{Type: diet.Dinner, Calories: 1900},
	}, diet.CalorieSources(sampleHistory()))

	assert.Empty(t, diet.CalorieSources(diet.History{}))
}

func TestWeightSeries(t *testing.T) {
	h := sampleHistory()
	d := h["2026-10-14"]
	d.Weight = weight(72.0)
	h[d.Date] = d

	assert.Equal(t, []diet.WeightPoint{
		{Date: "2026-10-14", Weight: 72.0},
		{Date: "2026-10-16", Weight: 71.4},
	}, diet.WeightSeries(h))
}

func TestStatsForRange(t *testing.T) {
	h := sampleHistory()

	st := diet.StatsForRange(h, "2026-10-14", "2026-10-15")
	assert.Equal(t, diet.RangeStats{
		DaysTracked:    2,
		DaysOnTarget:   1,
		AvgConsumed:    1750,
		AvgBurned:      150,
		AvgNetCalories: 1600,
		TotalRemaining: 600,
	}, st)

	assert.Equal(t, diet.RangeStats{}, diet.StatsForRange(h, "2025-01-01", "2025-01-31"))
}
