// Package postgres implements diet.Repository on PostgreSQL with pgx. The
// schema lives in db/ and is applied by cmd/migrate.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/diet"
)

type Repository struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(pool *pgxpool.Pool, log *zap.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Connect creates a connection pool for dbURL. The simple query protocol
// avoids "cached plan must not change result type" errors from poolers
// that cache server-side prepared statements across schema changes.
func Connect(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

/* ─── Query helpers ──────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using
// RowToStructByName. pgx.ErrNoRows is translated to diet.ErrNotFound.
func queryOne[T any](ctx context.Context, r *Repository, sql string, args pgx.NamedArgs) (T, error) {
	var zero T
	rows, err := r.pool.Query(ctx, sql, args)
	if err != nil {
		r.log.Error("query failed", zap.Error(err))
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, diet.ErrNotFound
	}
	if err != nil {
		r.log.Error("scan failed", zap.Error(err))
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T.
func queryMany[T any](ctx context.Context, r *Repository, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := r.pool.Query(ctx, sql, args)
	if err != nil {
		r.log.Error("query failed", zap.Error(err))
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		r.log.Error("scan failed", zap.Error(err))
	}
	return results, err
}

/* ─── Settings ───────────────────────────────────────────────────────── */

func (r *Repository) GetSettings(ctx context.Context) (diet.UserSettings, error) {
	row, err := queryOne[settingsRow](ctx, r, "SELECT * FROM user_settings WHERE id = 1", nil)
	if err != nil {
		return diet.UserSettings{}, err
	}
	return row.settings(), nil
}

func (r *Repository) SaveSettings(ctx context.Context, s diet.UserSettings) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_settings (id, height, weight, age, gender, activity_level, goal)
		 VALUES (1, @height, @weight, @age, @gender, @activityLevel, @goal)
		 ON CONFLICT (id) DO UPDATE SET
		   height = EXCLUDED.height,
		   weight = EXCLUDED.weight,
		   age = EXCLUDED.age,
		   gender = EXCLUDED.gender,
		   activity_level = EXCLUDED.activity_level,
		   goal = EXCLUDED.goal`,
		pgx.NamedArgs{
			"height":        s.Height,
			"weight":        s.Weight,
			"age":           s.Age,
			"gender":        s.Gender,
			"activityLevel": s.ActivityLevel,
			"goal":          s.Goal,
		})
	return err
}

/* ─── Meals ──────────────────────────────────────────────────────────── */

func (r *Repository) ListMeals(ctx context.Context, date string) ([]diet.MealRecord, error) {
	sql := "SELECT * FROM meals ORDER BY date, created_at, id"
	var args pgx.NamedArgs
	if date != "" {
		sql = "SELECT * FROM meals WHERE date = @date ORDER BY created_at, id"
		args = pgx.NamedArgs{"date": date}
	}
	rows, err := queryMany[mealRow](ctx, r, sql, args)
	if err != nil {
		return nil, err
	}
	out := make([]diet.MealRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

func (r *Repository) InsertMeal(ctx context.Context, m diet.MealRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO meals (id, date, type, name, calories)
		 VALUES (@id, @date, @type, @name, @calories)`,
		pgx.NamedArgs{
			"id":       m.ID,
			"date":     m.Date,
			"type":     string(m.Type),
			"name":     m.Name,
			"calories": m.Calories,
		})
	return err
}

func (r *Repository) DeleteMeal(ctx context.Context, id string) (string, bool, error) {
	return r.deleteReturningDate(ctx, "DELETE FROM meals WHERE id = @id RETURNING date", id)
}

/* ─── Activities ─────────────────────────────────────────────────────── */

func (r *Repository) ListActivities(ctx context.Context, date string) ([]diet.ActivityRecord, error) {
	sql := "SELECT * FROM activities ORDER BY date, created_at, id"
	var args pgx.NamedArgs
	if date != "" {
		sql = "SELECT * FROM activities WHERE date = @date ORDER BY created_at, id"
		args = pgx.NamedArgs{"date": date}
	}
	rows, err := queryMany[activityRow](ctx, r, sql, args)
	if err != nil {
		return nil, err
	}
	out := make([]diet.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

func (r *Repository) InsertActivity(ctx context.Context, a diet.ActivityRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activities (id, date, name, calories_burned)
		 VALUES (@id, @date, @name, @caloriesBurned)`,
		pgx.NamedArgs{
			"id":             a.ID,
			"date":           a.Date,
			"name":           a.Name,
			"caloriesBurned": a.CaloriesBurned,
		})
	return err
}

func (r *Repository) DeleteActivity(ctx context.Context, id string) (string, bool, error) {
	return r.deleteReturningDate(ctx, "DELETE FROM activities WHERE id = @id RETURNING date", id)
}

func (r *Repository) deleteReturningDate(ctx context.Context, sql, id string) (string, bool, error) {
	var date dateOnly
	err := r.pool.QueryRow(ctx, sql, pgx.NamedArgs{"id": id}).Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(date), true, nil
}

/* ─── Daily metrics ──────────────────────────────────────────────────── */

func (r *Repository) GetDay(ctx context.Context, date string) (diet.DayMetrics, error) {
	row, err := queryOne[dayRow](ctx, r,
		"SELECT * FROM daily_metrics WHERE date = @date",
		pgx.NamedArgs{"date": date})
	if err != nil {
		return diet.DayMetrics{}, err
	}
	return row.metrics(), nil
}

func (r *Repository) ListDays(ctx context.Context) ([]diet.DayMetrics, error) {
	rows, err := queryMany[dayRow](ctx, r, "SELECT * FROM daily_metrics ORDER BY date", nil)
	if err != nil {
		return nil, err
	}
	out := make([]diet.DayMetrics, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.metrics())
	}
	return out, nil
}

// InsertDay relies on the primary key so concurrent callers racing on the
// same date create exactly one row.
func (r *Repository) InsertDay(ctx context.Context, d diet.DayMetrics) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO daily_metrics (date, calorie_target, weight)
		 VALUES (@date, @target, @weight)
		 ON CONFLICT (date) DO NOTHING`,
		pgx.NamedArgs{"date": d.Date, "target": d.CalorieTarget, "weight": d.Weight})
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) UpdateDay(ctx context.Context, date string, p diet.DayPatch) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE daily_metrics SET
		   calorie_target = COALESCE(@target, calorie_target),
		   weight = COALESCE(@weight, weight)
		 WHERE date = @date`,
		pgx.NamedArgs{"date": date, "target": p.CalorieTarget, "weight": p.Weight})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return diet.ErrNotFound
	}
	return nil
}
