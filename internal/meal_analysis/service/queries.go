package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloomi-app/bloomi-backend/internal/logger"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/trace"
)

const (
	dateLayout      = "2006-01-02"
	yearMonthLayout = "2006-01"
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", domain.ErrInvalidInput, s)
	}
	return d, nil
}

// ParseYearMonth parses a YYYY-MM month and returns its first day.
func ParseYearMonth(s string) (time.Time, error) {
	m, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month must be YYYY-MM, got %q", domain.ErrInvalidInput, s)
	}
	return m, nil
}

// DailyMeals lists the records a user analyzed on date.
func (s *MealAnalysisService) DailyMeals(ctx context.Context, userID string, date time.Time) ([]domain.MealRecord, error) {
	log := logger.New(ctx)
	day := domain.DateOf(date)

	records, err := s.records.FindByUserAndDate(ctx, userID, day)
	if err != nil {
		log.LogError("daily_meals", err)
		return nil, fmt.Errorf("find meals by date: %w", infra(err))
	}
	if records == nil {
		records = []domain.MealRecord{}
	}
	log.LogInfof("daily_meals", "user_id=%s date=%s count=%d", userID, day.Format(dateLayout), len(records))
	return records, nil
}

// MonthlyStatistics counts a user's records per day of the month starting at month.
func (s *MealAnalysisService) MonthlyStatistics(ctx context.Context, userID string, month time.Time) (*domain.MonthlyStatistics, error) {
	ctx, traceID := trace.Ensure(ctx)
	log := logger.WithTraceID(traceID)

	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	records, err := s.records.FindByUserBetween(ctx, userID, first, last)
	if err != nil {
		log.LogError("monthly_statistics", err)
		return nil, fmt.Errorf("find meals by month: %w", infra(err))
	}

	stats := &domain.MonthlyStatistics{
		YearMonth:   first.Format(yearMonthLayout),
		DailyCounts: make(map[string]int64),
		TotalCount:  int64(len(records)),
		TraceID:     traceID,
	}
	for _, r := range records {
		stats.DailyCounts[r.AnalyzedAt.Format(dateLayout)]++
	}
	log.LogInfof("monthly_statistics", "user_id=%s month=%s total=%d days=%d", userID, stats.YearMonth, stats.TotalCount, len(stats.DailyCounts))
	return stats, nil
}

// QuotaStatus reports the user's quota for today without consuming it.
func (s *MealAnalysisService) QuotaStatus(ctx context.Context, userID string) (domain.QuotaStatus, error) {
	status, _, err := s.gate.Check(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.QuotaStatus{}, err
	}
	if err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("check quota: %w", infra(err))
	}
	return status, nil
}
