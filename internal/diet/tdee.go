package diet

import (
	"context"
	"fmt"
	"math"
)

// ActivityMultipliers maps activity level to its TDEE multiplier. It is the
// single source of truth for valid activity levels.
var ActivityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very-active": 1.9,
}

// goalAdjustments is the daily kcal delta applied to TDEE per goal
// (~1 lb/week).
var goalAdjustments = map[string]float64{
	GoalLose:     -500,
	GoalMaintain: 0,
	GoalGain:     500,
}

// TargetSuggestion is a suggested daily calorie target.
type TargetSuggestion struct {
	CalorieTarget int    `json:"calorie_target"`
	Explanation   string `json:"explanation"`
}

// TargetCalculator derives a calorie target from a biometric profile.
type TargetCalculator interface {
	CalculateCalorieTarget(ctx context.Context, s UserSettings) (TargetSuggestion, error)
}

// BMR computes basal metabolic rate with the Mifflin-St Jeor equation.
func BMR(s UserSettings) float64 {
	bmr := 10*s.Weight + 6.25*s.Height - 5*float64(s.Age)
	if s.Gender == Female {
		return bmr - 161
	}
	return bmr + 5
}

// FormulaTarget computes the target locally with the same method the AI
// prompt describes. It never fails on a valid profile.
type FormulaTarget struct{}

func (FormulaTarget) CalculateCalorieTarget(_ context.Context, s UserSettings) (TargetSuggestion, error) {
	if err := s.Validate(); err != nil {
		return TargetSuggestion{}, err
	}
	bmr := BMR(s)
	tdee := bmr * ActivityMultipliers[s.ActivityLevel]
	target := math.Round((tdee+goalAdjustments[s.Goal])/10) * 10

	return TargetSuggestion{
		CalorieTarget: int(target),
		Explanation: fmt.Sprintf(
			"BMR of %.0f kcal (Mifflin-St Jeor) times the %s activity factor %g gives a TDEE of %.0f kcal; %s, rounded to the nearest 10.",
			bmr, s.ActivityLevel, ActivityMultipliers[s.ActivityLevel], tdee, goalPhrase(s.Goal)),
	}, nil
}

func goalPhrase(goal string) string {
	switch goal {
	case GoalLose:
		return "minus 500 kcal to lose weight"
	case GoalGain:
		return "plus 500 kcal to gain weight"
	default:
		return "no adjustment to maintain weight"
	}
}
