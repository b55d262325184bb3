// Package memory is an in-process diet.Repository backed by maps and
// slices. It is used in tests and when STORAGE=memory.
package memory

import (
	"context"
	"sync"

	"lg/calorie-dashboard-api/internal/diet"
)

type Repository struct {
	mu         sync.Mutex
	settings   *diet.UserSettings
	meals      []diet.MealRecord
	activities []diet.ActivityRecord
	days       map[string]diet.DayMetrics
}

func New() *Repository {
	return &Repository{days: make(map[string]diet.DayMetrics)}
}

func (r *Repository) GetSettings(_ context.Context) (diet.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		return diet.UserSettings{}, diet.ErrNotFound
	}
	return *r.settings, nil
}

func (r *Repository) SaveSettings(_ context.Context, s diet.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = &s
	return nil
}

func (r *Repository) ListMeals(_ context.Context, date string) ([]diet.MealRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []diet.MealRecord{}
	for _, m := range r.meals {
		if date == "" || m.Date == date {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Repository) InsertMeal(_ context.Context, m diet.MealRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meals = append(r.meals, m)
	return nil
}

func (r *Repository) DeleteMeal(_ context.Context, id string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.meals {
		if m.ID == id {
			r.meals = append(r.meals[:i:i], r.meals[i+1:]...)
			return m.Date, true, nil
		}
	}
	return "", false, nil
}

func (r *Repository) ListActivities(_ context.Context, date string) ([]diet.ActivityRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []diet.ActivityRecord{}
	for _, a := range r.activities {
		if date == "" || a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *Repository) InsertActivity(_ context.Context, a diet.ActivityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, a)
	return nil
}

func (r *Repository) DeleteActivity(_ context.Context, id string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.activities {
		if a.ID == id {
			r.activities = append(r.activities[:i:i], r.activities[i+1:]...)
			return a.Date, true, nil
		}
	}
	return "", false, nil
}

func (r *Repository) GetDay(_ context.Context, date string) (diet.DayMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.days[date]
	if !ok {
		return diet.DayMetrics{}, diet.ErrNotFound
	}
	return copyDay(d), nil
}

func (r *Repository) ListDays(_ context.Context) ([]diet.DayMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]diet.DayMetrics, 0, len(r.days))
	for _, d := range r.days {
		out = append(out, copyDay(d))
	}
	return out, nil
}

func (r *Repository) InsertDay(_ context.Context, d diet.DayMetrics) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.days[d.Date]; ok {
		return false, nil
	}
	r.days[d.Date] = copyDay(d)
	return true, nil
}

func (r *Repository) UpdateDay(_ context.Context, date string, p diet.DayPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.days[date]
	if !ok {
		return diet.ErrNotFound
	}
	p.Apply(&d)
	r.days[date] = d
	return nil
}

func copyDay(d diet.DayMetrics) diet.DayMetrics {
	if d.Weight != nil {
		w := *d.Weight
		d.Weight = &w
	}
	return d
}
