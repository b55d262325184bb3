package diet

import (
	"context"
	"errors"
	"fmt"
)

// SettingsError is a field-level validation failure on UserSettings.
type SettingsError struct {
	Field   string
	Message string
}

func (e *SettingsError) Error() string { return e.Field + " " + e.Message }

// Validate checks a complete profile: positive body measurements and known
// enum values.
func (s UserSettings) Validate() error {
	switch {
	case s.Height <= 0:
		return &SettingsError{"height", "must be a positive number"}
	case s.Weight <= 0:
		return &SettingsError{"weight", "must be a positive number"}
	case s.Age <= 0:
		return &SettingsError{"age", "must be a positive number"}
	case s.Gender != Male && s.Gender != Female:
		return &SettingsError{"gender", "must be one of: male, female"}
	}
	if _, ok := ActivityMultipliers[s.ActivityLevel]; !ok {
		return &SettingsError{"activity_level", "must be one of: sedentary, light, moderate, active, very-active"}
	}
	if _, ok := goalAdjustments[s.Goal]; !ok {
		return &SettingsError{"goal", "must be one of: lose, maintain, gain"}
	}
	return nil
}

// SettingsResolver loads and saves the single UserSettings record and
// forwards target suggestions to a calculator.
type SettingsResolver struct {
	repo Repository
	calc TargetCalculator
}

func NewSettingsResolver(repo Repository, calc TargetCalculator) *SettingsResolver {
	return &SettingsResolver{repo: repo, calc: calc}
}

// Load returns the stored settings, persisting DefaultSettings the first
// time none exist.
func (r *SettingsResolver) Load(ctx context.Context) (UserSettings, error) {
	s, err := r.repo.GetSettings(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return UserSettings{}, fmt.Errorf("load settings: %w", err)
	}
	s = DefaultSettings()
	if err := r.repo.SaveSettings(ctx, s); err != nil {
		return UserSettings{}, fmt.Errorf("create default settings: %w", err)
	}
	return s, nil
}

// Save replaces the stored settings with s. There is no field merge;
// callers send the complete record.
func (r *SettingsResolver) Save(ctx context.Context, s UserSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := r.repo.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SuggestTarget asks the calculator for a target. Validation failures and
// calculator errors are returned unchanged for the caller to surface.
func (r *SettingsResolver) SuggestTarget(ctx context.Context, s UserSettings) (TargetSuggestion, error) {
	if err := s.Validate(); err != nil {
		return TargetSuggestion{}, err
	}
	return r.calc.CalculateCalorieTarget(ctx, s)
}
