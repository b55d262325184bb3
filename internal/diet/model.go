// Package diet holds the calorie-tracking domain: entities, daily
// aggregation, the history store, settings, and report queries.
package diet

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date format used for every DailyLog key.
const DateLayout = "2006-01-02"

// DefaultTarget is the calorie target given to a newly created DailyLog.
const DefaultTarget = 2000

var (
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidWeight = errors.New("weight must be a positive number")
	ErrLogNotFound   = errors.New("no log for date")
	ErrNotFound      = errors.New("record not found")
)

// MealType is the meal slot a Meal was eaten in.
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Snack     MealType = "Snack"
)

// MealTypes lists every meal type in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

func (t MealType) Valid() bool {
	switch t {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// Meal is an immutable food entry. IDs are assigned by the Store.
type Meal struct {
	ID       string   `json:"id"`
	Type     MealType `json:"type"`
	Name     string   `json:"name"`
	Calories int      `json:"calories"`
}

// Activity is an immutable exercise entry.
type Activity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CaloriesBurned int    `json:"calories_burned"`
}

// DailyLog is everything recorded for one calendar date.
type DailyLog struct {
	Date          string     `json:"date"`
	Meals         []Meal     `json:"meals"`
	Activities    []Activity `json:"activities"`
	CalorieTarget int        `json:"calorie_target"`
	Weight        *float64   `json:"weight,omitempty"`
}

// NewDailyLog returns an empty log for date carrying target.
func NewDailyLog(date string, target int) DailyLog {
	return DailyLog{
		Date:          date,
		Meals:         []Meal{},
		Activities:    []Activity{},
		CalorieTarget: target,
	}
}

// normalize coalesces absent collections to empty slices. Older stored
// records can lack an activities list entirely.
func (l *DailyLog) normalize() {
	if l.Meals == nil {
		l.Meals = []Meal{}
	}
	if l.Activities == nil {
		l.Activities = []Activity{}
	}
}

// Clone returns a deep copy so callers never alias stored collections.
func (l DailyLog) Clone() DailyLog {
	out := l
	out.Meals = append([]Meal{}, l.Meals...)
	out.Activities = append([]Activity{}, l.Activities...)
	if l.Weight != nil {
		w := *l.Weight
		out.Weight = &w
	}
	return out
}

// History maps a calendar date to its DailyLog. Map order carries no
// meaning; reports sort by date.
type History map[string]DailyLog

// DayMetrics is the per-date record persisted alongside meals and
// activities: the target and the optional weight sample.
type DayMetrics struct {
	Date          string
	CalorieTarget int
	Weight        *float64
}

// DayPatch is a partial update of a DayMetrics record. Nil fields are left
// unchanged.
type DayPatch struct {
	CalorieTarget *int
	Weight        *float64
}

// Apply writes the non-nil patch fields onto m.
func (p DayPatch) Apply(m *DayMetrics) {
	if p.CalorieTarget != nil {
		m.CalorieTarget = *p.CalorieTarget
	}
	if p.Weight != nil {
		w := *p.Weight
		m.Weight = &w
	}
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Gender values accepted in UserSettings.
const (
	Male   = "male"
	Female = "female"
)

// Goal values accepted in UserSettings.
const (
	GoalLose     = "lose"
	GoalMaintain = "maintain"
	GoalGain     = "gain"
)

// UserSettings is the biometric profile used to suggest a calorie target.
// A single instance exists; it is replaced wholesale on save.
type UserSettings struct {
	Height        float64 `json:"height"`
	Weight        float64 `json:"weight"`
	Age           int     `json:"age"`
	Gender        string  `json:"gender"`
	ActivityLevel string  `json:"activity_level"`
	Goal          string  `json:"goal"`
}

// DefaultSettings is the zero-valued profile created on first load.
func DefaultSettings() UserSettings {
	return UserSettings{
		Gender:        Male,
		ActivityLevel: "sedentary",
		Goal:          GoalMaintain,
	}
}
