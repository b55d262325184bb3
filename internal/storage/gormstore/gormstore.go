// Package gormstore implements diet.Repository with gorm, on sqlite (the
// single-file deployment) or postgres. Tables are created by AutoMigrate.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"lg/calorie-dashboard-api/internal/diet"
)

const settingsID = 1

type Repository struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(path string) (*Repository, error) {
	return open(sqlite.Open(path))
}

// OpenPostgres connects with a DSN or URL.
func OpenPostgres(dsn string) (*Repository, error) {
	return open(postgres.Open(dsn))
}

func open(dialector gorm.Dialector) (*Repository, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&settingsModel{}, &mealModel{}, &activityModel{}, &dayModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) GetSettings(ctx context.Context) (diet.UserSettings, error) {
	var m settingsModel
	err := r.db.WithContext(ctx).First(&m, settingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return diet.UserSettings{}, diet.ErrNotFound
	}
	if err != nil {
		return diet.UserSettings{}, err
	}
	return diet.UserSettings{
		Height:        m.Height,
		Weight:        m.Weight,
		Age:           m.Age,
		Gender:        m.Gender,
		ActivityLevel: m.ActivityLevel,
		Goal:          m.Goal,
	}, nil
}

// SaveSettings upserts the single row; Save writes every column so zero
// values replace the stored ones.
func (r *Repository) SaveSettings(ctx context.Context, s diet.UserSettings) error {
	m := settingsModel{
		ID:            settingsID,
		Height:        s.Height,
		Weight:        s.Weight,
		Age:           s.Age,
		Gender:        s.Gender,
		ActivityLevel: s.ActivityLevel,
		Goal:          s.Goal,
	}
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *Repository) ListMeals(ctx context.Context, date string) ([]diet.MealRecord, error) {
	var rows []mealModel
	q := r.db.WithContext(ctx).Order("date").Order("created_at").Order("id")
	if date != "" {
		q = q.Where("date = ?", date)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]diet.MealRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.record())
	}
	return out, nil
}

func (r *Repository) InsertMeal(ctx context.Context, m diet.MealRecord) error {
	return r.db.WithContext(ctx).Create(&mealModel{
		ID:       m.ID,
		Date:     m.Date,
		Type:     string(m.Type),
		Name:     m.Name,
		Calories: m.Calories,
	}).Error
}

func (r *Repository) DeleteMeal(ctx context.Context, id string) (string, bool, error) {
	var m mealModel
	return deleteByID(ctx, r.db, id, &m, func() string { return m.Date })
}

func (r *Repository) ListActivities(ctx context.Context, date string) ([]diet.ActivityRecord, error) {
	var rows []activityModel
	q := r.db.WithContext(ctx).Order("date").Order("created_at").Order("id")
	if date != "" {
		q = q.Where("date = ?", date)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]diet.ActivityRecord, 0, len(rows))
	for _, a := range rows {
		out = append(out, a.record())
	}
	return out, nil
}

func (r *Repository) InsertActivity(ctx context.Context, a diet.ActivityRecord) error {
	return r.db.WithContext(ctx).Create(&activityModel{
		ID:             a.ID,
		Date:           a.Date,
		Name:           a.Name,
		CaloriesBurned: a.CaloriesBurned,
	}).Error
}

func (r *Repository) DeleteActivity(ctx context.Context, id string) (string, bool, error) {
	var a activityModel
	return deleteByID(ctx, r.db, id, &a, func() string { return a.Date })
}

// deleteByID loads the row to learn its date, then deletes it, in one
// transaction.
func deleteByID(ctx context.Context, db *gorm.DB, id string, row any, date func() string) (string, bool, error) {
	found := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).First(row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return tx.Delete(row).Error
	})
	if err != nil || !found {
		return "", false, err
	}
	return date(), true, nil
}

func (r *Repository) GetDay(ctx context.Context, date string) (diet.DayMetrics, error) {
	var d dayModel
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return diet.DayMetrics{}, diet.ErrNotFound
	}
	if err != nil {
		return diet.DayMetrics{}, err
	}
	return d.metrics(), nil
}

func (r *Repository) ListDays(ctx context.Context) ([]diet.DayMetrics, error) {
	var rows []dayModel
	if err := r.db.WithContext(ctx).Order("date").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]diet.DayMetrics, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.metrics())
	}
	return out, nil
}

func (r *Repository) InsertDay(ctx context.Context, d diet.DayMetrics) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dayModel{Date: d.Date, CalorieTarget: d.CalorieTarget, Weight: d.Weight})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) UpdateDay(ctx context.Context, date string, p diet.DayPatch) error {
	updates := map[string]any{}
	if p.CalorieTarget != nil {
		updates["calorie_target"] = *p.CalorieTarget
	}
	if p.Weight != nil {
		updates["weight"] = *p.Weight
	}
	if len(updates) == 0 {
		_, err := r.GetDay(ctx, date)
		return err
	}
	res := r.db.WithContext(ctx).Model(&dayModel{}).Where("date = ?", date).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return diet.ErrNotFound
	}
	return nil
}
