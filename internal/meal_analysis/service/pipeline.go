package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloomi-app/bloomi-backend/internal/logger"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/prompt"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/quota"
	"github.com/bloomi-app/bloomi-backend/internal/trace"
)

// Pipeline step names, used in StepError and log lines.
const (
	StepRateCheck = "rate_check"
	StepOptimize  = "optimize"
	StepUpload    = "upload"
	StepAnalyze   = "analyze"
	StepValidate  = "validate"
	StepPersist   = "persist"
	StepCommit    = "commit"
)

// cleanupTimeout bounds each best-effort compensation call.
const cleanupTimeout = 10 * time.Second

// Analyze runs one meal analysis for userID.
//
// The quota is checked first and committed last, so a request that fails in
// any step leaves no record and consumes nothing. An image uploaded before a
// failure is deleted best effort.
func (s *MealAnalysisService) Analyze(ctx context.Context, userID string, req domain.AnalysisRequest) (*domain.AnalyzeResult, error) {
	ctx, traceID := trace.Ensure(ctx)
	// Steps run to completion once started; an abandoned caller drops the result.
	ctx = context.WithoutCancel(ctx)
	log := logger.WithTraceID(traceID)
	start := time.Now()

	log.LogInfof("analyze_meal", "start user_id=%s name=%q weight_given=%t notes_given=%t size=%d",
		userID, req.Name, req.HasWeight(), req.HasNotes(), req.Image.Size)

	// RATE_CHECK
	status, user, err := s.gate.Check(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			recordOutcome(outcomeRejected)
			return nil, err
		}
		return nil, s.fail(log, StepRateCheck, traceID, infra(err))
	}
	if !status.Allowed {
		recordOutcome(outcomeDenied)
		log.LogWarnf("analyze_meal", "daily limit exceeded user_id=%s membership=%s used=%d limit=%d",
			userID, status.Membership, status.Used, status.Limit)
		return nil, quota.Denied(*user, status)
	}

	// OPTIMIZE
	req.Image = s.optimizer.Optimize(ctx, req.Image)

	// UPLOAD
	key := UploadPath(userID, s.gate.Now(), s.newID(), req.Image.Filename)
	imageURL, err := s.storage.Upload(ctx, req.Image.Data, req.Image.ContentType, key)
	if err != nil {
		return nil, s.fail(log, StepUpload, traceID, infra(err))
	}
	log.LogInfof("analyze_meal", "image uploaded url=%s", imageURL)

	// ANALYZE
	analysis, err := s.provider.Analyze(ctx, req, prompt.Build(req))
	if err != nil {
		s.deleteImage(ctx, log, imageURL)
		if domain.IsBusiness(err) {
			recordOutcome(outcomeRejected)
			log.LogInfof("analyze_meal", "analysis rejected: %v", err)
			return nil, err
		}
		return nil, s.fail(log, StepAnalyze, traceID, err)
	}

	// VALIDATE
	if err := finalize(req, analysis); err != nil {
		s.deleteImage(ctx, log, imageURL)
		return nil, s.fail(log, StepValidate, traceID, err)
	}

	// PERSIST
	rec := domain.NewMealRecord(s.newID(), userID, imageURL, *analysis, req, s.gate.Now())
	if err := s.records.Save(ctx, rec); err != nil {
		s.deleteImage(ctx, log, imageURL)
		return nil, s.fail(log, StepPersist, traceID, infra(err))
	}

	// COMMIT_COUNTER
	updated, err := s.gate.Commit(ctx, *user)
	if err != nil {
		var exceeded *domain.QuotaExceededError
		if errors.As(err, &exceeded) {
			// Another request took the last slot between check and commit.
			s.deleteRecord(ctx, log, rec.ID)
			s.deleteImage(ctx, log, imageURL)
			recordOutcome(outcomeDenied)
			log.LogWarnf("analyze_meal", "daily limit reached concurrently user_id=%s limit=%d", userID, exceeded.Limit)
			return nil, err
		}
		return nil, s.fail(log, StepCommit, traceID, infra(err))
	}

	recordOutcome(outcomeSucceeded)
	remaining := s.gate.Remaining(*updated)
	log.LogInfof("analyze_meal", "done user_id=%s record_id=%s calories=%.1f remaining=%d duration=%s",
		userID, rec.ID, analysis.Calories, remaining, time.Since(start))

	return &domain.AnalyzeResult{
		MealAnalysis: *analysis,
		TraceID:      traceID,
		Remaining:    remaining,
	}, nil
}

// finalize applies the response checks that do not depend on the provider.
func finalize(req domain.AnalysisRequest, a *domain.MealAnalysis) error {
	if a == nil {
		return fmt.Errorf("%w: empty analysis", domain.ErrVisionInvalidResponse)
	}
	if a.Items == nil {
		a.Items = []domain.FoodItem{}
	}
	if req.HasName() {
		a.Name = req.Name
	}
	return nil
}

func (s *MealAnalysisService) fail(log *logger.Logger, step, traceID string, err error) error {
	recordOutcome(outcomeFailed)
	log.LogErrorf("analyze_meal", "step=%s error=%v", step, err)
	return &domain.StepError{Step: step, TraceID: traceID, Err: err}
}

func (s *MealAnalysisService) deleteImage(ctx context.Context, log *logger.Logger, url string) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()
	if err := s.storage.Delete(ctx, url); err != nil {
		log.LogWarnf("analyze_meal", "failed to delete orphan image url=%s error=%v", url, err)
	}
}

func (s *MealAnalysisService) deleteRecord(ctx context.Context, log *logger.Logger, id string) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()
	if err := s.records.Delete(ctx, id); err != nil {
		log.LogWarnf("analyze_meal", "failed to delete record id=%s error=%v", id, err)
	}
}

func infra(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrInfrastructure, err)
}
