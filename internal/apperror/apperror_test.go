package apperror

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type mealInput struct {
	Type     string `json:"type" validate:"required,oneof=Breakfast Lunch Dinner Snack"`
	Name     string `json:"name" validate:"required,max=200"`
	Calories *int   `json:"calories" validate:"required,gte=0"`
	Date     string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func TestFieldErrors_Validation(t *testing.T) {
	v := validator.New()
	UseJSONFieldNames(v)

	neg := -5
	tests := []struct {
		name   string
		input  mealInput
		expect map[string]string
	}{
		{
			name:   "missing everything",
			input:  mealInput{},
			expect: map[string]string{"type": "is required", "name": "is required", "calories": "is required"},
		},
		{
			name:   "bad enum and negative calories",
			input:  mealInput{Type: "Brunch", Name: "Eggs", Calories: &neg},
			expect: map[string]string{"type": "must be one of: Breakfast, Lunch, Dinner, Snack", "calories": "must not be negative"},
		},
		{
			name:   "bad date",
			input:  mealInput{Type: "Lunch", Name: "Soup", Calories: new(int), Date: "18/10/2026"},
			expect: map[string]string{"date": "must be a date in YYYY-MM-DD format"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			assert.Equal(t, tt.expect, FieldErrors(err))
		})
	}
}

func TestFieldErrors_JSON(t *testing.T) {
	var in mealInput
	err := json.Unmarshal([]byte(`{"calories":"lots"}`), &in)
	assert.Equal(t, map[string]string{"calories": "has the wrong type"}, FieldErrors(err))

	err = json.Unmarshal([]byte(`{"calories":`), &in)
	assert.Equal(t, map[string]string{"body": "must be a valid JSON object"}, FieldErrors(err))

	// A streaming decoder reports truncation and emptiness as io errors.
	for _, body := range []string{`{"calories":`, ``} {
		err = json.NewDecoder(strings.NewReader(body)).Decode(&in)
		assert.Equal(t, map[string]string{"body": "must be a valid JSON object"}, FieldErrors(err), body)
	}
}

func TestFieldErrors_Other(t *testing.T) {
	assert.Nil(t, FieldErrors(errors.New("boom")))
}
