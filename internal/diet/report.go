package diet

import (
	"math"
	"sort"
)

// DefaultPageSize is used when a caller asks for a page size below 1.
const DefaultPageSize = 10

// SortedDates returns the History's dates newest first. ISO dates sort
// lexically in chronological order.
func SortedDates(h History) []string {
	dates := make([]string, 0, len(h))
	for d := range h {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// FilterByDate returns a History holding only date's log, or an empty
// History when date is not present.
func FilterByDate(h History, date string) History {
	l, ok := h[date]
	if !ok {
		return History{}
	}
	return History{date: l.Clone()}
}

// Page is one window of a paginated date list.
type Page struct {
	Dates      []string `json:"dates"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	TotalItems int      `json:"total_items"`
}

// Paginate returns the 1-indexed page of dates. page is clamped into
// [1, totalPages]; an empty list still has one (empty) page.
func Paginate(dates []string, pageSize, page int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := int(math.Ceil(float64(len(dates)) / float64(pageSize)))
	if total < 1 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(dates) {
		end = len(dates)
	}
	window := make([]string, 0, end-start)
	window = append(window, dates[start:end]...)
	return Page{Dates: window, Page: page, PageSize: pageSize, TotalPages: total, TotalItems: len(dates)}
}

// DayReport is one row of the history report.
type DayReport struct {
	DailyLog
	Summary Summary `json:"summary"`
}

// DayReports builds report rows for dates in the given order. Dates missing
// from h are skipped.
func DayReports(h History, dates []string) []DayReport {
	out := make([]DayReport, 0, len(dates))
	for _, d := range dates {
		l, ok := h[d]
		if !ok {
			continue
		}
		l = l.Clone()
		out = append(out, DayReport{DailyLog: l, Summary: Summarize(l)})
	}
	return out
}

// TrendPoint is net calories against target for one date.
type TrendPoint struct {
	Date          string `json:"date"`
	NetCalories   int    `json:"net_calories"`
	CalorieTarget int    `json:"calorie_target"`
}

// WeeklyTrend returns the n most recent dates, oldest first.
func WeeklyTrend(h History, n int) []TrendPoint {
	dates := SortedDates(h)
	if n >= 0 && len(dates) > n {
		dates = dates[:n]
	}
	out := make([]TrendPoint, len(dates))
	for i, d := range dates {
		l := h[d]
		out[len(dates)-1-i] = TrendPoint{Date: d, NetCalories: Summarize(l).NetCalories, CalorieTarget: l.CalorieTarget}
	}
	return out
}

// CalorieSources totals calories by meal type across every log, dropping
// types with no calories.
func CalorieSources(h History) []MealTypeTotal {
	var all []Meal
	for _, l := range h {
		all = append(all, l.Meals...)
	}
	out := []MealTypeTotal{}
	for _, t := range MealTypeTotals(all) {
		if t.Calories > 0 {
			out = append(out, t)
		}
	}
	return out
}

// WeightPoint is one weight sample.
type WeightPoint struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// WeightSeries lists logged weights oldest first.
func WeightSeries(h History) []WeightPoint {
	out := []WeightPoint{}
	for d, l := range h {
		if l.Weight != nil && *l.Weight > 0 {
			out = append(out, WeightPoint{Date: d, Weight: *l.Weight})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// RangeStats aggregates the logs dated within [start, end].
type RangeStats struct {
	DaysTracked    int `json:"days_tracked"`
	DaysOnTarget   int `json:"days_on_target"`
	AvgConsumed    int `json:"avg_consumed"`
	AvgBurned      int `json:"avg_burned"`
	AvgNetCalories int `json:"avg_net_calories"`
	TotalRemaining int `json:"total_remaining"`
}

// StatsForRange computes RangeStats over the logs in [start, end]. A day is
// on target when its net calories do not exceed its target.
func StatsForRange(h History, start, end string) RangeStats {
	var st RangeStats
	for d, l := range h {
		if d < start || d > end {
			continue
		}
		sum := Summarize(l)
		st.DaysTracked++
		if sum.NetCalories <= l.CalorieTarget {
			st.DaysOnTarget++
		}
		st.AvgConsumed += sum.TotalConsumed
		st.AvgBurned += sum.TotalBurned
		st.AvgNetCalories += sum.NetCalories
		st.TotalRemaining += sum.RemainingCalories
	}
	if st.DaysTracked > 0 {
		st.AvgConsumed /= st.DaysTracked
		st.AvgBurned /= st.DaysTracked
		st.AvgNetCalories /= st.DaysTracked
	}
	return st
}
