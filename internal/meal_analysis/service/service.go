// Package service orchestrates the meal analysis pipeline and the meal history
// queries.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/quota"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/vision"
)

// ImageStorage stores uploaded images and returns their public URL.
type ImageStorage interface {
	Upload(ctx context.Context, data []byte, contentType, path string) (string, error)
	Delete(ctx context.Context, url string) error
}

// MealRecordStore persists finished analyses.
type MealRecordStore interface {
	Save(ctx context.Context, rec domain.MealRecord) error
	Delete(ctx context.Context, id string) error
	FindByUserAndDate(ctx context.Context, userID string, date time.Time) ([]domain.MealRecord, error)
	// FindByUserBetween returns records analyzed within [from, to], both inclusive.
	FindByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.MealRecord, error)
}

// ImageOptimizer never fails; it returns its input when it cannot improve it.
type ImageOptimizer interface {
	Optimize(ctx context.Context, img domain.Image) domain.Image
}

// MealAnalysisService runs meal analyses for users and serves their history.
type MealAnalysisService struct {
	gate      *quota.Gate
	optimizer ImageOptimizer
	storage   ImageStorage
	provider  vision.Provider
	records   MealRecordStore
	newID     func() string
}

// NewMealAnalysisService creates a new meal analysis service
func NewMealAnalysisService(gate *quota.Gate, optimizer ImageOptimizer, storage ImageStorage, provider vision.Provider, records MealRecordStore) *MealAnalysisService {
	return &MealAnalysisService{
		gate:      gate,
		optimizer: optimizer,
		storage:   storage,
		provider:  provider,
		records:   records,
		newID:     uuid.NewString,
	}
}
