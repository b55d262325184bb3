package gormstore

import (
	"time"

	"lg/calorie-dashboard-api/internal/diet"
)

// Dates are stored as YYYY-MM-DD text so sqlite and postgres compare them
// the same way.

type settingsModel struct {
	ID            uint    `gorm:"primaryKey"`
	Height        float64 `gorm:"not null;default:0"`
	Weight        float64 `gorm:"not null;default:0"`
	Age           int     `gorm:"not null;default:0"`
	Gender        string  `gorm:"not null;default:male"`
	ActivityLevel string  `gorm:"not null;default:sedentary"`
	Goal          string  `gorm:"not null;default:maintain"`
}

func (settingsModel) TableName() string { return "user_settings" }

type mealModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Date      string `gorm:"size:10;not null;index:idx_meals_date"`
	Type      string `gorm:"size:16;not null"`
	Name      string `gorm:"not null"`
	Calories  int    `gorm:"not null"`
	CreatedAt time.Time
}

func (mealModel) TableName() string { return "meals" }

func (m mealModel) record() diet.MealRecord {
	return diet.MealRecord{
		Date: m.Date,
		Meal: diet.Meal{ID: m.ID, Type: diet.MealType(m.Type), Name: m.Name, Calories: m.Calories},
	}
}

type activityModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Date           string `gorm:"size:10;not null;index:idx_activities_date"`
	Name           string `gorm:"not null"`
	CaloriesBurned int    `gorm:"not null"`
	CreatedAt      time.Time
}

func (activityModel) TableName() string { return "activities" }

func (a activityModel) record() diet.ActivityRecord {
	return diet.ActivityRecord{
		Date:     a.Date,
		Activity: diet.Activity{ID: a.ID, Name: a.Name, CaloriesBurned: a.CaloriesBurned},
	}
}

type dayModel struct {
	Date          string `gorm:"primaryKey;size:10"`
	CalorieTarget int    `gorm:"not null"`
	Weight        *float64
}

func (dayModel) TableName() string { return "daily_metrics" }

func (d dayModel) metrics() diet.DayMetrics {
	return diet.DayMetrics{Date: d.Date, CalorieTarget: d.CalorieTarget, Weight: d.Weight}
}
