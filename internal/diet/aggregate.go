package diet

// Summary holds the derived totals for one DailyLog.
type Summary struct {
	TotalConsumed     int     `json:"total_consumed"`
	TotalBurned       int     `json:"total_burned"`
	NetCalories       int     `json:"net_calories"`
	RemainingCalories int     `json:"remaining_calories"`
	ProgressPercent   float64 `json:"progress_percent"`
}

// Summarize computes the day's totals. Net = consumed minus burned and
// remaining = target minus net; remaining goes negative once the target is
// exceeded and is not clamped here. A zero target yields 0% progress.
func Summarize(log DailyLog) Summary {
	var s Summary
	for _, m := range log.Meals {
		s.TotalConsumed += m.Calories
	}
	for _, a := range log.Activities {
		s.TotalBurned += a.CaloriesBurned
	}
	s.NetCalories = s.TotalConsumed - s.TotalBurned
	s.RemainingCalories = log.CalorieTarget - s.NetCalories
	if log.CalorieTarget > 0 {
		s.ProgressPercent = float64(s.NetCalories) / float64(log.CalorieTarget) * 100
	}
	return s
}

// MealTypeTotal is the calorie total for one meal type.
type MealTypeTotal struct {
	Type     MealType `json:"type"`
	Calories int      `json:"calories"`
}

// MealTypeTotals buckets meals by type in display order. Every type is
// present, including empty ones.
func MealTypeTotals(meals []Meal) []MealTypeTotal {
	out := make([]MealTypeTotal, len(MealTypes))
	idx := make(map[MealType]int, len(MealTypes))
	for i, t := range MealTypes {
		out[i] = MealTypeTotal{Type: t}
		idx[t] = i
	}
	for _, m := range meals {
		if i, ok := idx[m.Type]; ok {
			out[i].Calories += m.Calories
		}
	}
	return out
}
