package diet

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrIDConflict is returned by Import when an entry id is already used on
// another date.
var ErrIDConflict = errors.New("entry id already used on another date")

// ImportStats counts what Import wrote.
type ImportStats struct {
	Days       int `json:"days"`
	Meals      int `json:"meals"`
	Activities int `json:"activities"`
	Skipped    int `json:"skipped"`
}

// Import loads h into repo. Existing days keep their target and weight;
// entries whose id is already stored for the date are skipped, so
// importing the same export twice is a no-op. Ids are checked across every
// date before anything is written; a clash with another date fails the
// whole import with ErrIDConflict.
func Import(ctx context.Context, repo Repository, h History) (ImportStats, error) {
	var st ImportStats
	dates := make([]string, 0, len(h))
	for d := range h {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	mealOwner, actOwner, err := storedOwners(ctx, repo)
	if err != nil {
		return st, err
	}
	for _, date := range dates {
		for _, m := range h[date].Meals {
			if err := claim(mealOwner, "meal", m.ID, date); err != nil {
				return st, err
			}
		}
		for _, a := range h[date].Activities {
			if err := claim(actOwner, "activity", a.ID, date); err != nil {
				return st, err
			}
		}
	}

	for _, date := range dates {
		l := h[date]
		created, err := repo.InsertDay(ctx, DayMetrics{Date: date, CalorieTarget: l.CalorieTarget, Weight: l.Weight})
		if err != nil {
			return st, fmt.Errorf("import %s: %w", date, err)
		}
		if created {
			st.Days++
		}

		for _, m := range l.Meals {
			if mealOwner[m.ID].written {
				st.Skipped++
				continue
			}
			if err := repo.InsertMeal(ctx, MealRecord{Date: date, Meal: m}); err != nil {
				return st, fmt.Errorf("import meal %s: %w", m.ID, err)
			}
			mealOwner[m.ID] = owner{date: date, written: true}
			st.Meals++
		}

		for _, a := range l.Activities {
			if actOwner[a.ID].written {
				st.Skipped++
				continue
			}
			if err := repo.InsertActivity(ctx, ActivityRecord{Date: date, Activity: a}); err != nil {
				return st, fmt.Errorf("import activity %s: %w", a.ID, err)
			}
			actOwner[a.ID] = owner{date: date, written: true}
			st.Activities++
		}
	}
	return st, nil
}

// owner records which date an entry id belongs to and whether it is
// already in the repository.
type owner struct {
	date    string
	written bool
}

func storedOwners(ctx context.Context, repo Repository) (meals, acts map[string]owner, err error) {
	storedMeals, err := repo.ListMeals(ctx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("import: list meals: %w", err)
	}
	meals = make(map[string]owner, len(storedMeals))
	for _, m := range storedMeals {
		meals[m.ID] = owner{date: m.Date, written: true}
	}

	storedActs, err := repo.ListActivities(ctx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("import: list activities: %w", err)
	}
	acts = make(map[string]owner, len(storedActs))
	for _, a := range storedActs {
		acts[a.ID] = owner{date: a.Date, written: true}
	}
	return meals, acts, nil
}

func claim(owners map[string]owner, kind, id, date string) error {
	o, ok := owners[id]
	if ok && o.date != date {
		return fmt.Errorf("import %s %s on %s (stored on %s): %w", kind, id, date, o.date, ErrIDConflict)
	}
	if !ok {
		owners[id] = owner{date: date}
	}
	return nil
}
