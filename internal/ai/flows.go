package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"lg/calorie-dashboard-api/internal/diet"
)

/* ─── Prompts ────────────────────────────────────────────────────────── */

const foodSystemPrompt = `You are a nutrition expert. Estimate the calories in a standard serving of the food the user names.
Return a JSON object with:
- "calories" (integer, kcal for one standard serving)

Always provide your best estimate, even for vague items. Only return {"error": "unrecognized"} if the input is not food at all.
Return only valid JSON, no explanation.`

const exerciseSystemPromptTemplate = `You are a fitness and exercise expert. The user is:
- Sex: %s
- Age: %d years
- Weight: %.0f kg
- Height: %.0f cm

Estimate the calories this user burns in a 30-minute session of the exercise they describe, unless the description states a duration or distance.
Return a JSON object with:
- "calories_burned" (integer, kcal)

Only return {"error": "unrecognized"} if the input is not an exercise at all.
Return only valid JSON, no explanation.`

const exerciseSystemPromptFallback = `You are a fitness and exercise expert. No body stats are available; assume an average adult of 70-80 kg.

Estimate the calories burned in a 30-minute session of the exercise the user describes, unless the description states a duration or distance.
Return a JSON object with:
- "calories_burned" (integer, kcal)

Only return {"error": "unrecognized"} if the input is not an exercise at all.
Return only valid JSON, no explanation.`

const mealSystemPrompt = `You are a nutritional advisor. Analyze the user's logged meals and remaining calorie target, and suggest adjustments to their next meal so they stay within their daily calorie goal. Focus on practical, actionable advice.
Return a JSON object with:
- "suggestions" (string, a short paragraph)
Return only valid JSON.`

const mealUserPromptTemplate = `Logged Meals: %s
Remaining Calories: %d
Next Meal Type: %s`

const targetSystemPrompt = `You are an expert nutritionist. Calculate a daily calorie target for the user.
1. BMR with the Mifflin-St Jeor equation: men 10*weight(kg) + 6.25*height(cm) - 5*age + 5; women 10*weight(kg) + 6.25*height(cm) - 5*age - 161.
2. TDEE = BMR times the activity factor: sedentary 1.2, light 1.375, moderate 1.55, active 1.725, very-active 1.9.
3. Goal: lose subtracts 500, maintain keeps TDEE, gain adds 500.
4. Round the target to the nearest 10.
Return a JSON object with:
- "calorie_target" (integer)
- "explanation" (string, one or two sentences mentioning BMR, TDEE and the goal adjustment)
Return only valid JSON.`

const targetUserPromptTemplate = `Height: %g cm
Weight: %g kg
Age: %d years
Gender: %s
Activity Level: %s
Goal: %s`

/* ─── Canned meal advice ─────────────────────────────────────────────── */

const exceededAdvice = "You've already exceeded your daily calorie target. For your next meal, consider something very light, like a simple salad with vinaigrette or a cup of broth-based soup to minimize exceeding your goal further."

const firstMealAdviceTemplate = "You have %d calories remaining. For %s, you could have a balanced meal. For example, a piece of grilled fish with roasted vegetables and a side of quinoa."

/* ─── Flows ──────────────────────────────────────────────────────────── */

// EstimateCalories returns the kcal in a standard serving of food.
func (c *Client) EstimateCalories(ctx context.Context, food string) (int, error) {
	var out struct {
		Calories *float64 `json:"calories"`
	}
	if err := c.callJSON(ctx, foodSystemPrompt, food, &out); err != nil {
		return 0, err
	}
	return nonNegative(out.Calories, "calories")
}

// EstimateExerciseCalories returns the kcal burned by the described
// exercise. A complete profile personalizes the estimate; otherwise an
// average adult is assumed.
func (c *Client) EstimateExerciseCalories(ctx context.Context, description string, profile *diet.UserSettings) (int, error) {
	system := exerciseSystemPromptFallback
	if profile != nil && profile.Validate() == nil {
		system = fmt.Sprintf(exerciseSystemPromptTemplate, profile.Gender, profile.Age, profile.Weight, profile.Height)
	}
	var out struct {
		CaloriesBurned *float64 `json:"calories_burned"`
	}
	if err := c.callJSON(ctx, system, description, &out); err != nil {
		return 0, err
	}
	return nonNegative(out.CaloriesBurned, "calories_burned")
}

// SuggestMealAdjustments advises on the next meal. Two cases are answered
// without calling the model: a target already exceeded, and a day with no
// meals logged yet.
func (c *Client) SuggestMealAdjustments(ctx context.Context, meals []diet.Meal, remaining int, nextMealType diet.MealType) (string, error) {
	if remaining < 0 {
		return exceededAdvice, nil
	}
	if len(meals) == 0 {
		return fmt.Sprintf(firstMealAdviceTemplate, remaining, nextMealType), nil
	}

	user := fmt.Sprintf(mealUserPromptTemplate, FormatMeals(meals), remaining, nextMealType)
	var out struct {
		Suggestions string `json:"suggestions"`
	}
	if err := c.callJSON(ctx, mealSystemPrompt, user, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Suggestions) == "" {
		return "", fmt.Errorf("empty suggestions: %w", ErrMalformed)
	}
	return out.Suggestions, nil
}

// CalculateCalorieTarget implements diet.TargetCalculator.
func (c *Client) CalculateCalorieTarget(ctx context.Context, s diet.UserSettings) (diet.TargetSuggestion, error) {
	user := fmt.Sprintf(targetUserPromptTemplate, s.Height, s.Weight, s.Age, s.Gender, s.ActivityLevel, s.Goal)
	var out struct {
		CalorieTarget *float64 `json:"calorie_target"`
		Explanation   string   `json:"explanation"`
	}
	if err := c.callJSON(ctx, targetSystemPrompt, user, &out); err != nil {
		return diet.TargetSuggestion{}, err
	}
	target, err := nonNegative(out.CalorieTarget, "calorie_target")
	if err != nil {
		return diet.TargetSuggestion{}, err
	}
	if target == 0 {
		return diet.TargetSuggestion{}, fmt.Errorf("zero calorie_target: %w", ErrMalformed)
	}
	return diet.TargetSuggestion{CalorieTarget: target, Explanation: out.Explanation}, nil
}

// FormatMeals renders meals as "Type - Name: N kcal" joined by "; ".
func FormatMeals(meals []diet.Meal) string {
	parts := make([]string, len(meals))
	for i, m := range meals {
		parts[i] = fmt.Sprintf("%s - %s: %d kcal", m.Type, m.Name, m.Calories)
	}
	return strings.Join(parts, "; ")
}

// callJSON runs a completion and decodes the reply into out, mapping the
// model's {"error": "unrecognized"} answer to ErrUnrecognized.
func (c *Client) callJSON(ctx context.Context, system, user string, out any) error {
	content, err := c.call(ctx, system, user)
	if err != nil {
		return err
	}

	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(content), &errorResp); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if errorResp.Error == "unrecognized" {
		return ErrUnrecognized
	}
	if errorResp.Error != "" {
		return fmt.Errorf("%w: model error %q", ErrMalformed, errorResp.Error)
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func nonNegative(v *float64, field string) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformed, field)
	}
	if *v < 0 || math.IsNaN(*v) {
		return 0, fmt.Errorf("%w: negative %s", ErrMalformed, field)
	}
	return int(math.Round(*v)), nil
}
