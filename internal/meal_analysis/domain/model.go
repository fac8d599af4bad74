package domain

import (
	"strings"
	"time"
)

// Serving units accepted from the provider.
const (
	UnitGram       = "g"
	UnitMilliliter = "ml"
)

// NoMealAdvice is the advice value a provider answers for non-food images.
const NoMealAdvice = "no meal"

// Image is an uploaded picture with its declared metadata.
type Image struct {
	Data        []byte
	ContentType string
	Size        int64
	Filename    string
}

// AnalysisRequest is one analysis call with optional user hints.
type AnalysisRequest struct {
	Image  Image
	Name   string
	Weight *float64
	Notes  string
}

func (r AnalysisRequest) HasName() bool {
	return strings.TrimSpace(r.Name) != ""
}

func (r AnalysisRequest) HasWeight() bool {
	return r.Weight != nil && *r.Weight > 0
}

func (r AnalysisRequest) HasNotes() bool {
	return strings.TrimSpace(r.Notes) != ""
}

func (r AnalysisRequest) HasHint() bool {
	return r.HasName() || r.HasWeight() || r.HasNotes()
}

type Macros struct {
	Carbs   float64 `json:"carbs"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
}

type Serving struct {
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

type FoodItem struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories"`
}

// MealAnalysis is the validated provider estimate for one image.
type MealAnalysis struct {
	Name       string     `json:"name"`
	Calories   float64    `json:"calories"`
	Macros     Macros     `json:"macros"`
	Serving    Serving    `json:"serving"`
	Items      []FoodItem `json:"items"`
	Confidence float64    `json:"confidence"`
	Advice     string     `json:"advice"`
}

// AnalyzeResult is what a successful pipeline run returns.
type AnalyzeResult struct {
	MealAnalysis
	TraceID   string `json:"traceId"`
	Remaining int    `json:"remaining"`
}

// MealRecord is the persisted projection of an analysis. Items are not stored.
type MealRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ImageURL        string    `json:"image_url"`
	Name            string    `json:"name"`
	Calories        float64   `json:"calories"`
	Macros          Macros    `json:"macros"`
	Serving         Serving   `json:"serving"`
	Confidence      float64   `json:"confidence"`
	Advice          string    `json:"advice"`
	UserInputName   string    `json:"user_input_name,omitempty"`
	UserInputWeight *float64  `json:"user_input_weight,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMealRecord builds the record for a finished analysis.
func NewMealRecord(id, userID, imageURL string, a MealAnalysis, req AnalysisRequest, now time.Time) MealRecord {
	rec := MealRecord{
		ID:         id,
		UserID:     userID,
		ImageURL:   imageURL,
		Name:       a.Name,
		Calories:   a.Calories,
		Macros:     a.Macros,
		Serving:    a.Serving,
		Confidence: a.Confidence,
		Advice:     a.Advice,
		Notes:      req.Notes,
		AnalyzedAt: DateOf(now),
		CreatedAt:  now,
	}
	if req.HasName() {
		rec.UserInputName = req.Name
	}
	if req.HasWeight() {
		w := *req.Weight
		rec.UserInputWeight = &w
	}
	return rec
}

// Analysis rebuilds the analysis view of a stored record; items are empty.
func (r MealRecord) Analysis() MealAnalysis {
	return MealAnalysis{
		Name:       r.Name,
		Calories:   r.Calories,
		Macros:     r.Macros,
		Serving:    r.Serving,
		Items:      []FoodItem{},
		Confidence: r.Confidence,
		Advice:     r.Advice,
	}
}

// QuotaStatus is the outcome of a quota check.
type QuotaStatus struct {
	Allowed    bool       `json:"allowed"`
	Membership Membership `json:"membership"`
	Limit      int        `json:"limit"`
	Used       int        `json:"used"`
	Remaining  int        `json:"remaining"`
}

// MonthlyStatistics counts stored analyses per day of a month.
type MonthlyStatistics struct {
	YearMonth   string           `json:"yearMonth"`
	DailyCounts map[string]int64 `json:"dailyCounts"`
	TotalCount  int64            `json:"totalCount"`
	TraceID     string           `json:"traceId"`
}
