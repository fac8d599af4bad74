package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/prompt"
)

const unknownItemName = "Unknown"

// parseContent decodes the model's JSON answer and fills in defaults.
func parseContent(content string) (*domain.MealAnalysis, error) {
	var raw visionResult
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode content: %v", domain.ErrVisionInvalidResponse, err)
	}
	if raw.empty() {
		return nil, fmt.Errorf("%w: content has no known fields", domain.ErrVisionInvalidResponse)
	}
	return toDomain(raw), nil
}

func toDomain(r visionResult) *domain.MealAnalysis {
	a := &domain.MealAnalysis{
		Name:       strings.TrimSpace(str(r.Name, "")),
		Calories:   nonNegative(r.Calories),
		Items:      mapItems(r.Items),
		Confidence: clamp01(r.Confidence),
		Advice:     str(r.Advice, ""),
		Serving:    domain.Serving{Unit: domain.UnitGram},
	}
	if r.Macros != nil {
		a.Macros = domain.Macros{
			Carbs:   nonNegative(r.Macros.Carbs),
			Protein: nonNegative(r.Macros.Protein),
			Fat:     nonNegative(r.Macros.Fat),
		}
	}
	if r.Serving != nil {
		a.Serving = domain.Serving{
			Unit:   unit(r.Serving.Unit),
			Amount: nonNegative(r.Serving.Amount),
		}
	}
	if a.Name == "" {
		a.Name = nameFromItems(a.Items)
	}
	return a
}

func mapItems(items []resultItem) []domain.FoodItem {
	out := make([]domain.FoodItem, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(str(it.Name, ""))
		if name == "" {
			name = unknownItemName
		}
		out = append(out, domain.FoodItem{
			Name:     name,
			Amount:   nonNegative(it.Amount),
			Unit:     unit(it.Unit),
			Calories: nonNegative(it.Calories),
		})
	}
	return out
}

func nameFromItems(items []domain.FoodItem) string {
	names := make([]string, 0, prompt.MaxGeneratedNameItems)
	for _, it := range items {
		if len(names) == prompt.MaxGeneratedNameItems {
			break
		}
		names = append(names, it.Name)
	}
	return strings.Join(names, ", ")
}

// checkMeal rejects answers the model marked as not food.
func checkMeal(a *domain.MealAnalysis) error {
	if strings.TrimSpace(a.Advice) == "" || a.Advice == domain.NoMealAdvice {
		return domain.ErrNoMealDetected
	}
	return nil
}

func str(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func nonNegative(p *float64) float64 {
	if p == nil || *p < 0 {
		return 0
	}
	return *p
}

func clamp01(p *float64) float64 {
	v := nonNegative(p)
	if v > 1 {
		return 1
	}
	return v
}

func unit(p *string) string {
	if p != nil && strings.EqualFold(strings.TrimSpace(*p), domain.UnitMilliliter) {
		return domain.UnitMilliliter
	}
	return domain.UnitGram
}
