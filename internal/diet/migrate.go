package diet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Keys used by the browser-storage layout. The structured History blob
// superseded the two legacy keys.
const (
	HistoryKey      = "calorie-history"
	LegacyMealsKey  = "meals"
	LegacyTargetKey = "calorie-target"
)

// StoredBlobs are the raw values found under the storage keys. A nil slice
// means the key is absent.
type StoredBlobs struct {
	History      []byte
	LegacyMeals  []byte
	LegacyTarget []byte
}

func (b StoredBlobs) hasLegacy() bool {
	return b.LegacyMeals != nil || b.LegacyTarget != nil
}

// Source tags which decoding branch produced a History.
type Source int

const (
	SourceEmpty Source = iota
	SourceStructured
	SourceLegacy
	SourceSeeded
)

func (s Source) String() string {
	switch s {
	case SourceStructured:
		return "structured"
	case SourceLegacy:
		return "legacy"
	case SourceSeeded:
		return "seeded"
	default:
		return "empty"
	}
}

// Decoded is the outcome of DecodeStored. Err is set only for
// SourceSeeded and is informational: the History is always usable.
type Decoded struct {
	History History
	Source  Source
	Err     error
}

// NeedsRewrite reports whether the caller should persist History in the
// structured format and drop the legacy keys.
func (d Decoded) NeedsRewrite() bool {
	return d.Source == SourceLegacy || d.Source == SourceSeeded
}

// DecodeStored turns whatever is in storage into a History. The structured
// blob wins when present; otherwise legacy keys are folded into a single
// log for today; otherwise the History is empty. A parse failure in the
// chosen branch yields an empty History seeded with an example log.
func DecodeStored(b StoredBlobs, today string) Decoded {
	switch {
	case b.History != nil:
		h, err := decodeStructured(b.History)
		if err != nil {
			return seeded(today, fmt.Errorf("structured history: %w", err))
		}
		return Decoded{History: h, Source: SourceStructured}
	case b.hasLegacy():
		h, err := decodeLegacy(b.LegacyMeals, b.LegacyTarget, today)
		if err != nil {
			return seeded(today, fmt.Errorf("legacy storage: %w", err))
		}
		return Decoded{History: h, Source: SourceLegacy}
	default:
		return Decoded{History: History{}, Source: SourceEmpty}
	}
}

// SeededLog is the example log placed in a History rebuilt after a storage
// parse failure.
func SeededLog(date string) DailyLog {
	l := NewDailyLog(date, DefaultTarget)
	l.Meals = []Meal{
		{ID: NewID(), Type: Breakfast, Name: "Oatmeal with berries", Calories: 350},
		{ID: NewID(), Type: Lunch, Name: "Grilled chicken salad", Calories: 450},
	}
	l.Activities = []Activity{
		{ID: NewID(), Name: "Brisk walk", CaloriesBurned: 200},
	}
	return l
}

func seeded(today string, err error) Decoded {
	return Decoded{History: History{today: SeededLog(today)}, Source: SourceSeeded, Err: err}
}

/* ─── Browser storage wire format ────────────────────────────────────── */

// storedID accepts string or numeric ids; early versions keyed entries by
// Date.now().
type storedID string

func (id *storedID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = storedID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number")
	}
	*id = storedID(n.String())
	return nil
}

type storedMeal struct {
	ID       storedID `json:"id"`
	Type     MealType `json:"type"`
	Name     string   `json:"name"`
	Calories float64  `json:"calories"`
}

type storedActivity struct {
	ID             storedID `json:"id"`
	Name           string   `json:"name"`
	CaloriesBurned float64  `json:"caloriesBurned"`
}

type storedLog struct {
	Meals         []storedMeal     `json:"meals"`
	Activities    []storedActivity `json:"activities,omitempty"`
	CalorieTarget *float64         `json:"calorieTarget"`
	Weight        *float64         `json:"weight,omitempty"`
}

func (m storedMeal) toMeal() (Meal, error) {
	if m.Name == "" {
		return Meal{}, errors.New("meal without a name")
	}
	kcal, err := storedKcal(m.Calories)
	if err != nil {
		return Meal{}, fmt.Errorf("meal %q calories: %w", m.Name, err)
	}
	t := m.Type
	if t == "" {
		t = Snack
	}
	if !t.Valid() {
		return Meal{}, fmt.Errorf("meal %q has unknown type %q", m.Name, m.Type)
	}
	id := string(m.ID)
	if id == "" {
		id = NewID()
	}
	return Meal{ID: id, Type: t, Name: m.Name, Calories: kcal}, nil
}

func (a storedActivity) toActivity() (Activity, error) {
	if a.Name == "" {
		return Activity{}, errors.New("activity without a name")
	}
	kcal, err := storedKcal(a.CaloriesBurned)
	if err != nil {
		return Activity{}, fmt.Errorf("activity %q calories: %w", a.Name, err)
	}
	id := string(a.ID)
	if id == "" {
		id = NewID()
	}
	return Activity{ID: id, Name: a.Name, CaloriesBurned: kcal}, nil
}

// storedKcal rounds a stored calorie figure, rejecting values that are
// negative, not finite, or too large to be real.
func storedKcal(f float64) (int, error) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, errors.New("not a number")
	case f < 0:
		return 0, fmt.Errorf("%g is negative", f)
	case f > math.MaxInt32:
		return 0, fmt.Errorf("%g is out of range", f)
	}
	return int(math.Round(f)), nil
}

func decodeMeals(stored []storedMeal) ([]Meal, error) {
	meals := make([]Meal, 0, len(stored))
	for _, sm := range stored {
		m, err := sm.toMeal()
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, nil
}

func decodeStructured(blob []byte) (History, error) {
	var raw map[string]storedLog
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, err
	}
	h := make(History, len(raw))
	for date, sl := range raw {
		if _, err := ParseDate(date); err != nil {
			return nil, fmt.Errorf("key %q: %w", date, err)
		}
		l := NewDailyLog(date, DefaultTarget)
		if sl.CalorieTarget != nil {
			target, err := storedKcal(*sl.CalorieTarget)
			if err != nil {
				return nil, fmt.Errorf("%s: target: %w", date, err)
			}
			l.CalorieTarget = target
		}
		if sl.Weight != nil && *sl.Weight > 0 {
			w := *sl.Weight
			l.Weight = &w
		}
		meals, err := decodeMeals(sl.Meals)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", date, err)
		}
		l.Meals = meals
		for _, sa := range sl.Activities {
			a, err := sa.toActivity()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", date, err)
			}
			l.Activities = append(l.Activities, a)
		}
		h[date] = l
	}
	return h, nil
}

func decodeLegacy(mealsBlob, targetBlob []byte, today string) (History, error) {
	l := NewDailyLog(today, DefaultTarget)
	if mealsBlob != nil {
		var stored []storedMeal
		if err := json.Unmarshal(mealsBlob, &stored); err != nil {
			return nil, fmt.Errorf("meals: %w", err)
		}
		meals, err := decodeMeals(stored)
		if err != nil {
			return nil, err
		}
		l.Meals = meals
	}
	if targetBlob != nil {
		target, err := parseLegacyTarget(targetBlob)
		if err != nil {
			return nil, err
		}
		l.CalorieTarget = target
	}
	return History{today: l}, nil
}

// parseLegacyTarget accepts a bare or quoted number.
func parseLegacyTarget(b []byte) (int, error) {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("target %q is not a number", s)
	}
	target, err := storedKcal(f)
	if err != nil {
		return 0, fmt.Errorf("target: %w", err)
	}
	return target, nil
}

// EncodeHistory renders h in the structured storage format.
func EncodeHistory(h History) ([]byte, error) {
	raw := make(map[string]storedLog, len(h))
	for date, l := range h {
		target := float64(l.CalorieTarget)
		sl := storedLog{
			Meals:         make([]storedMeal, 0, len(l.Meals)),
			Activities:    make([]storedActivity, 0, len(l.Activities)),
			CalorieTarget: &target,
			Weight:        l.Weight,
		}
		for _, m := range l.Meals {
			sl.Meals = append(sl.Meals, storedMeal{ID: storedID(m.ID), Type: m.Type, Name: m.Name, Calories: float64(m.Calories)})
		}
		for _, a := range l.Activities {
			sl.Activities = append(sl.Activities, storedActivity{ID: storedID(a.ID), Name: a.Name, CaloriesBurned: float64(a.CaloriesBurned)})
		}
		raw[date] = sl
	}
	return json.Marshal(raw)
}

// BlobsFromExport reads a browser storage dump: a JSON object mapping keys
// to their stored string values.
func BlobsFromExport(data []byte) (StoredBlobs, error) {
	var dump map[string]string
	if err := json.Unmarshal(data, &dump); err != nil {
		return StoredBlobs{}, fmt.Errorf("parse export: %w", err)
	}
	var b StoredBlobs
	if v, ok := dump[HistoryKey]; ok {
		b.History = []byte(v)
	}
	if v, ok := dump[LegacyMealsKey]; ok {
		b.LegacyMeals = []byte(v)
	}
	if v, ok := dump[LegacyTargetKey]; ok {
		b.LegacyTarget = []byte(v)
	}
	return b, nil
}
