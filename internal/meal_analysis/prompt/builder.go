// Package prompt builds the instruction text sent to the vision provider.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
)

// MaxGeneratedNameItems caps how many detected items form a generated name.
const MaxGeneratedNameItems = 3

const basePrompt = `You are a nutrition analysis expert.

Goals:
- Analyze the meal photo and estimate calories and the three macronutrients (carbs, protein, fat) for one serving.
- Provide a confidence value between 0 and 1.
- Provide details for each individual food item (items).
- Provide one sentence of nutritional advice (advice).

Rules:
- If a brand or packaged product is identifiable, use its published nutrition data.
- If no quantity is given, assume a single serving.
- Item names are short common food names.
- If the image is not food, answer with advice set to "` + domain.NoMealAdvice + `" and all numbers set to 0.

Response format (output JSON only):
{
  "name": string,
  "calories": number,
  "macros": {
    "carbs": number,
    "protein": number,
    "fat": number
  },
  "serving": {
    "unit": "g" | "ml",
    "amount": number
  },
  "items": [
    {
      "name": string,
      "amount": number,
      "unit": "g" | "ml",
      "calories": number
    }
  ],
  "confidence": number,
  "advice": string
}`

// Build returns the prompt for req. It has no side effects.
func Build(req domain.AnalysisRequest) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nAdditional information:\n")

	if req.HasName() {
		name := strings.TrimSpace(req.Name)
		fmt.Fprintf(&b, "- Food name provided by the user: %s\n", name)
		fmt.Fprintf(&b, "- Use exactly \"%s\" as the name field. Do not rename or translate it.\n", name)
	} else {
		fmt.Fprintf(&b, "- No food name was provided. Set name by joining the names of up to %d main detected items with \", \".\n",
			MaxGeneratedNameItems)
	}

	if req.HasWeight() {
		fmt.Fprintf(&b, "- Weight/volume provided by the user: %sg\n", formatWeight(*req.Weight))
		b.WriteString("- Prioritize the provided weight over your own portion estimate.\n")
	} else {
		b.WriteString("- No weight was provided. Estimate a typical single serving.\n")
	}

	if req.HasNotes() {
		fmt.Fprintf(&b, "- Notes: %s\n", req.Notes)
	}

	return b.String()
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
