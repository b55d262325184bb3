package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"lg/calorie-dashboard-api/internal/diet"
)

// dateOnly scans a PostgreSQL date column (OID 1082) into a YYYY-MM-DD
// string.
type dateOnly string

func (d *dateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		*d = ""
		return nil
	}
	*d = dateOnly(v.Time.Format(diet.DateLayout))
	return nil
}

type settingsRow struct {
	ID            int     `db:"id"`
	Height        float64 `db:"height"`
	Weight        float64 `db:"weight"`
	Age           int     `db:"age"`
	Gender        string  `db:"gender"`
	ActivityLevel string  `db:"activity_level"`
	Goal          string  `db:"goal"`
}

func (r settingsRow) settings() diet.UserSettings {
	return diet.UserSettings{
		Height:        r.Height,
		Weight:        r.Weight,
		Age:           r.Age,
		Gender:        r.Gender,
		ActivityLevel: r.ActivityLevel,
		Goal:          r.Goal,
	}
}

type mealRow struct {
	ID        string     `db:"id"`
	Date      dateOnly   `db:"date"`
	Type      string     `db:"type"`
	Name      string     `db:"name"`
	Calories  int        `db:"calories"`
	CreatedAt *time.Time `db:"created_at"`
}

func (r mealRow) record() diet.MealRecord {
	return diet.MealRecord{
		Date: string(r.Date),
		Meal: diet.Meal{ID: r.ID, Type: diet.MealType(r.Type), Name: r.Name, Calories: r.Calories},
	}
}

type activityRow struct {
	ID             string     `db:"id"`
	Date           dateOnly   `db:"date"`
	Name           string     `db:"name"`
	CaloriesBurned int        `db:"calories_burned"`
	CreatedAt      *time.Time `db:"created_at"`
}

func (r activityRow) record() diet.ActivityRecord {
	return diet.ActivityRecord{
		Date:     string(r.Date),
		Activity: diet.Activity{ID: r.ID, Name: r.Name, CaloriesBurned: r.CaloriesBurned},
	}
}

// dayRow maps to daily_metrics. Weight is nullable.
type dayRow struct {
	Date          dateOnly `db:"date"`
	CalorieTarget int      `db:"calorie_target"`
	Weight        *float64 `db:"weight"`
}

func (r dayRow) metrics() diet.DayMetrics {
	return diet.DayMetrics{Date: string(r.Date), CalorieTarget: r.CalorieTarget, Weight: r.Weight}
}
