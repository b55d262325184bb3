package diet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MealRecord is a Meal together with the date it was logged on.
type MealRecord struct {
	Date string
	Meal
}

// ActivityRecord is an Activity together with the date it was logged on.
type ActivityRecord struct {
	Date string
	Activity
}

// Repository is the persistence boundary the Store is written against.
// List methods return records in insertion order; an empty date lists
// every date. Implementations return ErrNotFound for missing records.
type Repository interface {
	GetSettings(ctx context.Context) (UserSettings, error)
	SaveSettings(ctx context.Context, s UserSettings) error

	ListMeals(ctx context.Context, date string) ([]MealRecord, error)
	InsertMeal(ctx context.Context, m MealRecord) error
	// DeleteMeal reports the date the meal was removed from, or found=false.
	DeleteMeal(ctx context.Context, id string) (date string, found bool, err error)

	ListActivities(ctx context.Context, date string) ([]ActivityRecord, error)
	InsertActivity(ctx context.Context, a ActivityRecord) error
	DeleteActivity(ctx context.Context, id string) (date string, found bool, err error)

	GetDay(ctx context.Context, date string) (DayMetrics, error)
	ListDays(ctx context.Context) ([]DayMetrics, error)
	// InsertDay creates the record unless one exists for the date and
	// reports whether it created one.
	InsertDay(ctx context.Context, d DayMetrics) (bool, error)
	UpdateDay(ctx context.Context, date string, p DayPatch) error
}

// Store owns the date -> DailyLog mapping. It guarantees a log exists for
// any date it mutates and for today on every read, and serializes its own
// read-modify-write sequences.
type Store struct {
	repo          Repository
	log           *zap.Logger
	now           func() time.Time
	loc           *time.Location
	defaultTarget int

	mu sync.RWMutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides time.Now, used to decide which date is "today".
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the time zone calendar dates are computed in (UTC by default).
func WithLocation(loc *time.Location) StoreOption {
	return func(s *Store) { s.loc = loc }
}

// WithDefaultTarget sets the target given to newly created logs.
func WithDefaultTarget(target int) StoreOption {
	return func(s *Store) { s.defaultTarget = target }
}

func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.log = l }
}

// NewStore wraps repo.
func NewStore(repo Repository, opts ...StoreOption) *Store {
	s := &Store{
		repo:          repo,
		log:           zap.NewNop(),
		now:           time.Now,
		loc:           time.UTC,
		defaultTarget: DefaultTarget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date in the store's location.
func (s *Store) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// DefaultTarget returns the target new logs are created with.
func (s *Store) DefaultTarget() int { return s.defaultTarget }

// NewID returns a fresh record id. UUIDv7 embeds the creation time, so ids
// sort in creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// EnsureLog creates an empty log with the default target for date if none
// exists. It never touches an existing log.
func (s *Store) EnsureLog(ctx context.Context, date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(ctx, date)
}

func (s *Store) ensure(ctx context.Context, date string) error {
	created, err := s.repo.InsertDay(ctx, DayMetrics{Date: date, CalorieTarget: s.defaultTarget})
	if err != nil {
		return fmt.Errorf("ensure log %s: %w", date, err)
	}
	if created {
		s.log.Debug("created daily log", zap.String("date", date), zap.Int("target", s.defaultTarget))
	}
	return nil
}

// AddMeal appends m to date's log under a fresh id and returns the stored meal.
func (s *Store) AddMeal(ctx context.Context, date string, m Meal) (Meal, error) {
	if _, err := ParseDate(date); err != nil {
		return Meal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensure(ctx, date); err != nil {
		return Meal{}, err
	}
	m.ID = NewID()
	if err := s.repo.InsertMeal(ctx, MealRecord{Date: date, Meal: m}); err != nil {
		return Meal{}, fmt.Errorf("insert meal: %w", err)
	}
	return m, nil
}

// DeleteMeal removes the meal with id from whichever date holds it and
// returns that date. An unknown id is not an error: the delete is a no-op
// and the returned date is empty.
func (s *Store) DeleteMeal(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date, found, err := s.repo.DeleteMeal(ctx, id)
	if err != nil {
		return "", fmt.Errorf("delete meal: %w", err)
	}
	if !found {
		s.log.Debug("delete of unknown meal ignored", zap.String("id", id))
		return "", nil
	}
	return date, nil
}

// AddActivity appends a to date's log under a fresh id.
func (s *Store) AddActivity(ctx context.Context, date string, a Activity) (Activity, error) {
	if _, err := ParseDate(date); err != nil {
		return Activity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensure(ctx, date); err != nil {
		return Activity{}, err
	}
	a.ID = NewID()
	if err := s.repo.InsertActivity(ctx, ActivityRecord{Date: date, Activity: a}); err != nil {
		return Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

// DeleteActivity mirrors DeleteMeal, including the silent no-op on an
// unknown id.
func (s *Store) DeleteActivity(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date, found, err := s.repo.DeleteActivity(ctx, id)
	if err != nil {
		return "", fmt.Errorf("delete activity: %w", err)
	}
	if !found {
		s.log.Debug("delete of unknown activity ignored", zap.String("id", id))
		return "", nil
	}
	return date, nil
}

// SetTarget overwrites date's calorie target. Callers validate the value.
func (s *Store) SetTarget(ctx context.Context, date string, target int) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensure(ctx, date); err != nil {
		return err
	}
	if err := s.repo.UpdateDay(ctx, date, DayPatch{CalorieTarget: &target}); err != nil {
		return fmt.Errorf("set target: %w", err)
	}
	return nil
}

// LogWeight records the weight sample for date, replacing any earlier one.
func (s *Store) LogWeight(ctx context.Context, date string, weight float64) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	if weight <= 0 {
		return ErrInvalidWeight
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensure(ctx, date); err != nil {
		return err
	}
	if err := s.repo.UpdateDay(ctx, date, DayPatch{Weight: &weight}); err != nil {
		return fmt.Errorf("log weight: %w", err)
	}
	return nil
}

// Log returns the log for date. Today's log is created on demand; any other
// missing date yields ErrLogNotFound.
func (s *Store) Log(ctx context.Context, date string) (DailyLog, error) {
	if _, err := ParseDate(date); err != nil {
		return DailyLog{}, err
	}
	if date == s.Today() {
		if err := s.EnsureLog(ctx, date); err != nil {
			return DailyLog{}, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	day, err := s.repo.GetDay(ctx, date)
	if errors.Is(err, ErrNotFound) {
		return DailyLog{}, ErrLogNotFound
	}
	if err != nil {
		return DailyLog{}, fmt.Errorf("get day: %w", err)
	}
	meals, err := s.repo.ListMeals(ctx, date)
	if err != nil {
		return DailyLog{}, fmt.Errorf("list meals: %w", err)
	}
	acts, err := s.repo.ListActivities(ctx, date)
	if err != nil {
		return DailyLog{}, fmt.Errorf("list activities: %w", err)
	}

	log := DailyLog{Date: date, CalorieTarget: day.CalorieTarget, Weight: day.Weight}
	for _, m := range meals {
		log.Meals = append(log.Meals, m.Meal)
	}
	for _, a := range acts {
		log.Activities = append(log.Activities, a.Activity)
	}
	log.normalize()
	return log, nil
}

// History assembles every stored log, creating today's first. Meals and
// activities are attached only to dates that have a metrics record.
func (s *Store) History(ctx context.Context) (History, error) {
	if err := s.EnsureLog(ctx, s.Today()); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	days, err := s.repo.ListDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	meals, err := s.repo.ListMeals(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	acts, err := s.repo.ListActivities(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return assemble(days, meals, acts, s.log), nil
}

func assemble(days []DayMetrics, meals []MealRecord, acts []ActivityRecord, log *zap.Logger) History {
	h := make(History, len(days))
	for _, d := range days {
		l := NewDailyLog(d.Date, d.CalorieTarget)
		l.Weight = d.Weight
		h[d.Date] = l
	}
	orphans := 0
	for _, m := range meals {
		l, ok := h[m.Date]
		if !ok {
			orphans++
			continue
		}
		l.Meals = append(l.Meals, m.Meal)
		h[m.Date] = l
	}
	for _, a := range acts {
		l, ok := h[a.Date]
		if !ok {
			orphans++
			continue
		}
		l.Activities = append(l.Activities, a.Activity)
		h[a.Date] = l
	}
	if orphans > 0 {
		log.Warn("entries without a daily log were skipped", zap.Int("count", orphans))
	}
	return h
}
