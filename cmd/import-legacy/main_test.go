package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lg/calorie-dashboard-api/internal/diet"
)

func TestDecodeExport(t *testing.T) {
	const today = "2026-10-18"

	t.Run("structured", func(t *testing.T) {
		data := []byte(`{"calorie-history":"{\"2026-10-17\":{\"meals\":[{\"id\":\"1\",\"type\":\"Lunch\",\"name\":\"Soup\",\"calories\":300}],\"calorieTarget\":1900}}"}`)
		d, err := decodeExport(data, today)
		require.NoError(t, err)
		assert.Equal(t, diet.SourceStructured, d.Source)
		assert.Equal(t, 1900, d.History["2026-10-17"].CalorieTarget)
	})

	t.Run("legacy", func(t *testing.T) {
		data := []byte(`{"meals":"[{\"id\":1,\"type\":\"Dinner\",\"name\":\"Rice\",\"calories\":400}]","calorie-target":"2200"}`)
		d, err := decodeExport(data, today)
		require.NoError(t, err)
		assert.Equal(t, diet.SourceLegacy, d.Source)
		assert.Equal(t, 2200, d.History[today].CalorieTarget)
		assert.Len(t, d.History[today].Meals, 1)
	})

	t.Run("unreadable", func(t *testing.T) {
		_, err := decodeExport([]byte(`{"calorie-history":"not json"}`), today)
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := decodeExport([]byte(`{"theme":"dark"}`), today)
		assert.Error(t, err)
	})

	t.Run("not an export", func(t *testing.T) {
		_, err := decodeExport([]byte(`[1,2,3]`), today)
		assert.Error(t, err)
	})
}
