// Package docstore keeps the whole History as one JSON document in a blob
// backend (a local directory or an S3 bucket), the same shape the browser
// client stored. Opening a store migrates legacy flat keys once.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/diet"
)

// SettingsKey holds the UserSettings document.
const SettingsKey = "user-settings"

// ErrNoBlob is returned by a Backend for a missing key.
var ErrNoBlob = errors.New("blob not found")

// Backend stores opaque values by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Repository implements diet.Repository over a Backend. Every mutation is
// applied to a copy, written in full, and only then made visible.
type Repository struct {
	backend Backend
	log     *zap.Logger

	mu       sync.Mutex
	history  diet.History
	settings *diet.UserSettings
}

// Open loads the History from backend, running the legacy migration when
// the structured document is absent or unreadable. today is the date a
// migrated or seeded log is filed under.
func Open(ctx context.Context, backend Backend, today string, log *zap.Logger) (*Repository, error) {
	blobs, err := readBlobs(ctx, backend)
	if err != nil {
		return nil, err
	}

	decoded := diet.DecodeStored(blobs, today)
	if decoded.Err != nil {
		log.Warn("stored history unreadable, starting from seeded history",
			zap.String("source", decoded.Source.String()), zap.Error(decoded.Err))
	}

	r := &Repository{backend: backend, log: log, history: decoded.History}
	if decoded.NeedsRewrite() {
		if err := r.migrate(ctx, blobs); err != nil {
			return nil, err
		}
		log.Info("history migrated to structured storage",
			zap.String("source", decoded.Source.String()), zap.Int("days", len(decoded.History)))
	}

	if err := r.loadSettings(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func readBlobs(ctx context.Context, backend Backend) (diet.StoredBlobs, error) {
	var b diet.StoredBlobs
	for key, dst := range map[string]*[]byte{
		diet.HistoryKey:      &b.History,
		diet.LegacyMealsKey:  &b.LegacyMeals,
		diet.LegacyTargetKey: &b.LegacyTarget,
	} {
		data, err := backend.Get(ctx, key)
		if errors.Is(err, ErrNoBlob) {
			continue
		}
		if err != nil {
			return diet.StoredBlobs{}, fmt.Errorf("read %s: %w", key, err)
		}
		*dst = data
	}
	return b, nil
}

// migrate writes the structured document and drops the legacy keys. The
// structured write comes first so a crash in between re-opens on the
// structured branch.
func (r *Repository) migrate(ctx context.Context, blobs diet.StoredBlobs) error {
	if err := r.write(ctx, r.history); err != nil {
		return err
	}
	for _, key := range []string{diet.LegacyMealsKey, diet.LegacyTargetKey} {
		if err := r.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNoBlob) {
			r.log.Warn("could not remove legacy key", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (r *Repository) loadSettings(ctx context.Context) error {
	data, err := r.backend.Get(ctx, SettingsKey)
	if errors.Is(err, ErrNoBlob) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	var s diet.UserSettings
	if err := json.Unmarshal(data, &s); err != nil {
		r.log.Warn("stored settings unreadable, using defaults", zap.Error(err))
		return nil
	}
	r.settings = &s
	return nil
}

func (r *Repository) write(ctx context.Context, h diet.History) error {
	data, err := diet.EncodeHistory(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.backend.Put(ctx, diet.HistoryKey, data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// mutate runs fn on a copy of the History and commits it once written.
func (r *Repository) mutate(ctx context.Context, fn func(h diet.History) error) error {
	next := make(diet.History, len(r.history))
	for d, l := range r.history {
		next[d] = l.Clone()
	}
	if err := fn(next); err != nil {
		return err
	}
	if err := r.write(ctx, next); err != nil {
		return err
	}
	r.history = next
	return nil
}

func (r *Repository) sortedDates() []string {
	dates := make([]string, 0, len(r.history))
	for d := range r.history {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func (r *Repository) GetSettings(_ context.Context) (diet.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		return diet.UserSettings{}, diet.ErrNotFound
	}
	return *r.settings, nil
}

func (r *Repository) SaveSettings(ctx context.Context, s diet.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.backend.Put(ctx, SettingsKey, data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	r.settings = &s
	return nil
}

func (r *Repository) ListMeals(_ context.Context, date string) ([]diet.MealRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []diet.MealRecord{}
	for _, d := range r.sortedDates() {
		if date != "" && d != date {
			continue
		}
		for _, m := range r.history[d].Meals {
			out = append(out, diet.MealRecord{Date: d, Meal: m})
		}
	}
	return out, nil
}

func (r *Repository) InsertMeal(ctx context.Context, m diet.MealRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutate(ctx, func(h diet.History) error {
		l, ok := h[m.Date]
		if !ok {
			return fmt.Errorf("meal for %s: %w", m.Date, diet.ErrNotFound)
		}
		l.Meals = append(l.Meals, m.Meal)
		h[m.Date] = l
		return nil
	})
}

func (r *Repository) DeleteMeal(ctx context.Context, id string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for date, l := range r.history {
		for i, m := range l.Meals {
			if m.ID != id {
				continue
			}
			err := r.mutate(ctx, func(h diet.History) error {
				nl := h[date]
				nl.Meals = append(nl.Meals[:i:i], nl.Meals[i+1:]...)
				h[date] = nl
				return nil
			})
			if err != nil {
				return "", false, err
			}
			return date, true, nil
		}
	}
	return "", false, nil
}

func (r *Repository) ListActivities(_ context.Context, date string) ([]diet.ActivityRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []diet.ActivityRecord{}
	for _, d := range r.sortedDates() {
		if date != "" && d != date {
			continue
		}
		for _, a := range r.history[d].Activities {
			out = append(out, diet.ActivityRecord{Date: d, Activity: a})
		}
	}
	return out, nil
}

func (r *Repository) InsertActivity(ctx context.Context, a diet.ActivityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutate(ctx, func(h diet.History) error {
		l, ok := h[a.Date]
		if !ok {
			return fmt.Errorf("activity for %s: %w", a.Date, diet.ErrNotFound)
		}
		l.Activities = append(l.Activities, a.Activity)
		h[a.Date] = l
		return nil
	})
}

func (r *Repository) DeleteActivity(ctx context.Context, id string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for date, l := range r.history {
		for i, a := range l.Activities {
			if a.ID != id {
				continue
			}
			err := r.mutate(ctx, func(h diet.History) error {
				nl := h[date]
				nl.Activities = append(nl.Activities[:i:i], nl.Activities[i+1:]...)
				h[date] = nl
				return nil
			})
			if err != nil {
				return "", false, err
			}
			return date, true, nil
		}
	}
	return "", false, nil
}

func (r *Repository) GetDay(_ context.Context, date string) (diet.DayMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.history[date]
	if !ok {
		return diet.DayMetrics{}, diet.ErrNotFound
	}
	return metrics(l), nil
}

func (r *Repository) ListDays(_ context.Context) ([]diet.DayMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]diet.DayMetrics, 0, len(r.history))
	for _, d := range r.sortedDates() {
		out = append(out, metrics(r.history[d]))
	}
	return out, nil
}

func (r *Repository) InsertDay(ctx context.Context, d diet.DayMetrics) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.history[d.Date]; ok {
		return false, nil
	}
	err := r.mutate(ctx, func(h diet.History) error {
		l := diet.NewDailyLog(d.Date, d.CalorieTarget)
		l.Weight = d.Weight
		h[d.Date] = l
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) UpdateDay(ctx context.Context, date string, p diet.DayPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutate(ctx, func(h diet.History) error {
		l, ok := h[date]
		if !ok {
			return diet.ErrNotFound
		}
		m := metrics(l)
		p.Apply(&m)
		l.CalorieTarget = m.CalorieTarget
		l.Weight = m.Weight
		h[date] = l
		return nil
	})
}

func metrics(l diet.DailyLog) diet.DayMetrics {
	m := diet.DayMetrics{Date: l.Date, CalorieTarget: l.CalorieTarget}
	if l.Weight != nil {
		w := *l.Weight
		m.Weight = &w
	}
	return m
}
