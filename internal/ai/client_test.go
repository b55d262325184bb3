package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lg/calorie-dashboard-api/internal/diet"
)

// mockProvider is an httptest server standing in for the model API. Each
// request is answered by replies[n], repeating the last one.
type mockProvider struct {
	srv        *httptest.Server
	calls      atomic.Int32
	lastBody   atomic.Value
	lastURL    atomic.Value
	lastHeader atomic.Value
}

type reply struct {
	status int
	body   any
}

func newMockProvider(t *testing.T, replies ...reply) *mockProvider {
	t.Helper()
	m := &mockProvider{}
	m.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(m.calls.Add(1)) - 1
		if n >= len(replies) {
			n = len(replies) - 1
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		m.lastBody.Store(body)
		m.lastURL.Store(r.URL.String())
		m.lastHeader.Store(r.Header.Clone())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(replies[n].status)
		_ = json.NewEncoder(w).Encode(replies[n].body)
	}))
	t.Cleanup(m.srv.Close)
	return m
}

// openAIChatResponse wraps content in the chat completions response shape.
func openAIChatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func geminiResponseBody(content string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": content}}}},
		},
	}
}

func ok(content string) reply { return reply{http.StatusOK, openAIChatResponse(content)} }

func newTestClient(t *testing.T, m *mockProvider, opts ...Option) *Client {
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithTimeout(2 * time.Second)}, opts...)
	return NewOpenAI("test-key", m.srv.URL, "", opts...)
}

/* ─── EstimateCalories ───────────────────────────────────────────────── */

func TestEstimateCalories_Success(t *testing.T) {
	m := newMockProvider(t, ok(`{"calories": 95.4}`))
	c := newTestClient(t, m)

	kcal, err := c.EstimateCalories(context.Background(), "1 medium apple")
	require.NoError(t, err)
	assert.Equal(t, 95, kcal)

	body := m.lastBody.Load().(map[string]any)
	assert.Equal(t, DefaultOpenAIModel, body["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1 medium apple", msgs[1].(map[string]any)["content"])
}

func TestEstimateCalories_Unrecognized(t *testing.T) {
	m := newMockProvider(t, ok(`{"error": "unrecognized"}`))
	_, err := newTestClient(t, m).EstimateCalories(context.Background(), "asdfgh")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestEstimateCalories_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `calories: lots`,
		"missing field":     `{"kcal": 100}`,
		"negative":          `{"calories": -20}`,
		"wrong type":        `{"calories": "a hundred"}`,
		"other model error": `{"error": "rate limited"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			m := newMockProvider(t, ok(content))
			_, err := newTestClient(t, m).EstimateCalories(context.Background(), "soup")
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

// TestEstimateCalories_ZeroAllowed covers foods like water.
func TestEstimateCalories_ZeroAllowed(t *testing.T) {
	m := newMockProvider(t, ok(`{"calories": 0}`))
	kcal, err := newTestClient(t, m).EstimateCalories(context.Background(), "glass of water")
	require.NoError(t, err)
	assert.Zero(t, kcal)
}

/* ─── Retries ────────────────────────────────────────────────────────── */

func TestCall_RetriesServerErrors(t *testing.T) {
	m := newMockProvider(t,
		reply{http.StatusServiceUnavailable, map[string]any{"error": "overloaded"}},
		ok(`{"calories": 300}`),
	)
	kcal, err := newTestClient(t, m).EstimateCalories(context.Background(), "burrito")
	require.NoError(t, err)
	assert.Equal(t, 300, kcal)
	assert.EqualValues(t, 2, m.calls.Load())
}

func TestCall_GivesUpAfterMaxAttempts(t *testing.T) {
	m := newMockProvider(t, reply{http.StatusBadGateway, map[string]any{}})
	_, err := newTestClient(t, m, WithMaxAttempts(3)).EstimateCalories(context.Background(), "burrito")

	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.code)
	assert.EqualValues(t, 3, m.calls.Load())
}

func TestCall_DoesNotRetryClientErrors(t *testing.T) {
	m := newMockProvider(t, reply{http.StatusUnauthorized, map[string]any{"error": "bad key"}})
	_, err := newTestClient(t, m).EstimateCalories(context.Background(), "burrito")
	require.Error(t, err)
	assert.EqualValues(t, 1, m.calls.Load())
}

func TestCall_NotConfigured(t *testing.T) {
	m := newMockProvider(t, ok(`{"calories": 1}`))
	c := NewOpenAI("", m.srv.URL, "")

	_, err := c.EstimateCalories(context.Background(), "toast")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, m.calls.Load())
}

func TestCall_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewOpenAI("test-key", srv.URL, "", WithTimeout(50*time.Millisecond), WithMaxAttempts(1))
	_, err := c.EstimateCalories(context.Background(), "toast")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

/* ─── EstimateExerciseCalories ───────────────────────────────────────── */

func TestEstimateExerciseCalories_PersonalizedPrompt(t *testing.T) {
	m := newMockProvider(t, ok(`{"calories_burned": 310}`))
	profile := diet.UserSettings{Height: 180, Weight: 82, Age: 35, Gender: diet.Male, ActivityLevel: "moderate", Goal: diet.GoalMaintain}

	kcal, err := newTestClient(t, m).EstimateExerciseCalories(context.Background(), "30 minute jog", &profile)
	require.NoError(t, err)
	assert.Equal(t, 310, kcal)

	system := systemPrompt(t, m)
	assert.Contains(t, system, "82")
	assert.Contains(t, system, "35")
}

func TestEstimateExerciseCalories_FallbackPrompt(t *testing.T) {
	m := newMockProvider(t, ok(`{"calories_burned": 250}`))
	incomplete := diet.DefaultSettings()

	_, err := newTestClient(t, m).EstimateExerciseCalories(context.Background(), "30 minute jog", &incomplete)
	require.NoError(t, err)
	assert.Contains(t, systemPrompt(t, m), "No body stats are available")

	_, err = newTestClient(t, m).EstimateExerciseCalories(context.Background(), "30 minute jog", nil)
	require.NoError(t, err)
	assert.Contains(t, systemPrompt(t, m), "No body stats are available")
}

func systemPrompt(t *testing.T, m *mockProvider) string {
	t.Helper()
	body := m.lastBody.Load().(map[string]any)
	msgs := body["messages"].([]any)
	return msgs[0].(map[string]any)["content"].(string)
}

/* ─── SuggestMealAdjustments ─────────────────────────────────────────── */

func TestSuggestMealAdjustments_ExceededShortCircuits(t *testing.T) {
	m := newMockProvider(t, ok(`{"suggestions": "never used"}`))
	meals := []diet.Meal{{Type: diet.Lunch, Name: "Pizza", Calories: 2400}}

	got, err := newTestClient(t, m).SuggestMealAdjustments(context.Background(), meals, -400, diet.Dinner)
	require.NoError(t, err)
	assert.Equal(t, exceededAdvice, got)
	assert.Zero(t, m.calls.Load())
}

func TestSuggestMealAdjustments_NoMealsShortCircuits(t *testing.T) {
	m := newMockProvider(t, ok(`{"suggestions": "never used"}`))

	got, err := newTestClient(t, m).SuggestMealAdjustments(context.Background(), nil, 2000, diet.Breakfast)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "You have 2000 calories remaining. For Breakfast,"), got)
	assert.Zero(t, m.calls.Load())
}

func TestSuggestMealAdjustments_CallsModel(t *testing.T) {
	m := newMockProvider(t, ok(`{"suggestions": "Try a lean protein with greens."}`))
	meals := []diet.Meal{
		{Type: diet.Breakfast, Name: "Oats", Calories: 350},
		{Type: diet.Lunch, Name: "Salad", Calories: 450},
	}

	got, err := newTestClient(t, m).SuggestMealAdjustments(context.Background(), meals, 1200, diet.Dinner)
	require.NoError(t, err)
	assert.Equal(t, "Try a lean protein with greens.", got)

	body := m.lastBody.Load().(map[string]any)
	user := body["messages"].([]any)[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "Breakfast - Oats: 350 kcal; Lunch - Salad: 450 kcal")
	assert.Contains(t, user, "1200")
	assert.Contains(t, user, "Dinner")
}

func TestSuggestMealAdjustments_EmptyReply(t *testing.T) {
	m := newMockProvider(t, ok(`{"suggestions": "  "}`))
	meals := []diet.Meal{{Type: diet.Lunch, Name: "Soup", Calories: 300}}
	_, err := newTestClient(t, m).SuggestMealAdjustments(context.Background(), meals, 1700, diet.Dinner)
	assert.ErrorIs(t, err, ErrMalformed)
}

/* ─── CalculateCalorieTarget ─────────────────────────────────────────── */

func TestCalculateCalorieTarget(t *testing.T) {
	m := newMockProvider(t, ok(`{"calorie_target": 2080, "explanation": "BMR 1737 x 1.2"}`))
	s := diet.UserSettings{Height: 175, Weight: 70, Age: 30, Gender: diet.Male, ActivityLevel: "sedentary", Goal: diet.GoalMaintain}

	got, err := newTestClient(t, m).CalculateCalorieTarget(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, diet.TargetSuggestion{CalorieTarget: 2080, Explanation: "BMR 1737 x 1.2"}, got)
}

func TestCalculateCalorieTarget_ZeroIsMalformed(t *testing.T) {
	m := newMockProvider(t, ok(`{"calorie_target": 0, "explanation": ""}`))
	_, err := newTestClient(t, m).CalculateCalorieTarget(context.Background(), diet.UserSettings{})
	assert.ErrorIs(t, err, ErrMalformed)
}

/* ─── Gemini ─────────────────────────────────────────────────────────── */

func TestGemini_RequestShape(t *testing.T) {
	m := newMockProvider(t, reply{http.StatusOK, geminiResponseBody(`{"calories": 210}`)})
	c := NewGemini("g-key", m.srv.URL, "", WithLogger(zaptest.NewLogger(t)))

	kcal, err := c.EstimateCalories(context.Background(), "bagel")
	require.NoError(t, err)
	assert.Equal(t, 210, kcal)

	assert.Equal(t, "/v1beta/models/"+DefaultGeminiModel+":generateContent", m.lastURL.Load())
	assert.Equal(t, "g-key", m.lastHeader.Load().(http.Header).Get("x-goog-api-key"))
	body := m.lastBody.Load().(map[string]any)
	assert.Equal(t, "application/json", body["generationConfig"].(map[string]any)["responseMimeType"])
	assert.NotNil(t, body["systemInstruction"])
}

func TestGemini_TransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewGemini("SECRET-KEY-123", addr, "", WithMaxAttempts(1), WithTimeout(time.Second))
	_, err := c.EstimateCalories(context.Background(), "bagel")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestGemini_NoCandidates(t *testing.T) {
	m := newMockProvider(t, reply{http.StatusOK, map[string]any{"candidates": []any{}}})
	_, err := NewGemini("g-key", m.srv.URL, "").EstimateCalories(context.Background(), "bagel")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFormatMeals(t *testing.T) {
	assert.Empty(t, FormatMeals(nil))
	assert.Equal(t, "Snack - Apple: 95 kcal", FormatMeals([]diet.Meal{{Type: diet.Snack, Name: "Apple", Calories: 95}}))
}
