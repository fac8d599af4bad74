package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bloomi-app/bloomi-backend/internal/api/http/response"
	"github.com/bloomi-app/bloomi-backend/internal/auth"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/service"
)

// MealService is what the handlers need from service.MealAnalysisService.
type MealService interface {
	Analyze(ctx context.Context, userID string, req domain.AnalysisRequest) (*domain.AnalyzeResult, error)
	DailyMeals(ctx context.Context, userID string, date time.Time) ([]domain.MealRecord, error)
	MonthlyStatistics(ctx context.Context, userID string, month time.Time) (*domain.MonthlyStatistics, error)
	QuotaStatus(ctx context.Context, userID string) (domain.QuotaStatus, error)
}

// DefaultMaxUploadBytes bounds the image part of an analyze request.
const DefaultMaxUploadBytes = 20 * 1024 * 1024

const formOverheadBytes = 1 << 20

type Handler struct {
	svc            MealService
	maxUploadBytes int64
}

func New(svc MealService, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// MealRecordResponse is one stored meal as returned to clients.
type MealRecordResponse struct {
	ID         string            `json:"id"`
	ImageURL   string            `json:"imageUrl"`
	Name       string            `json:"name"`
	Calories   float64           `json:"calories"`
	Macros     domain.Macros     `json:"macros"`
	Serving    domain.Serving    `json:"serving"`
	Items      []domain.FoodItem `json:"items"`
	Confidence float64           `json:"confidence"`
	Advice     string            `json:"advice"`
	Notes      string            `json:"notes,omitempty"`
	AnalyzedAt string            `json:"analyzedAt"`
	CreatedAt  time.Time         `json:"createdAt"`
}

func toRecordResponse(r domain.MealRecord) MealRecordResponse {
	a := r.Analysis()
	return MealRecordResponse{
		ID:         r.ID,
		ImageURL:   r.ImageURL,
		Name:       a.Name,
		Calories:   a.Calories,
		Macros:     a.Macros,
		Serving:    a.Serving,
		Items:      a.Items,
		Confidence: a.Confidence,
		Advice:     a.Advice,
		Notes:      r.Notes,
		AnalyzedAt: r.AnalyzedAt.Format("2006-01-02"),
		CreatedAt:  r.CreatedAt,
	}
}

// Analyze handles POST /meal/analyze (multipart: image, name, weight, notes).
func (h *Handler) Analyze(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		response.Error(c, http.StatusUnauthorized, CodeUnauthorized, "authentication required", "")
		return
	}

	req, err := h.parseAnalyzeRequest(c)
	if err != nil {
		writeError(c, "parse_analyze_request", err)
		return
	}

	res, err := h.svc.Analyze(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, "analyze_meal", err)
		return
	}
	response.Success(c, http.StatusOK, "Meal analysis completed", res)
}

func (h *Handler) parseAnalyzeRequest(c *gin.Context) (domain.AnalysisRequest, error) {
	var req domain.AnalysisRequest

	// The form fields travel with the image, so leave some room above the image limit.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverheadBytes)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, fmt.Errorf("%w: request exceeds %d bytes", domain.ErrImageTooLarge, tooLarge.Limit)
		}
		return req, fmt.Errorf("%w: %v", domain.ErrImageRequired, err)
	}
	if fh.Size == 0 {
		return req, domain.ErrImageRequired
	}
	if fh.Size > h.maxUploadBytes {
		return req, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrImageTooLarge, fh.Size, h.maxUploadBytes)
	}

	data, err := readFile(fh)
	if err != nil {
		return req, err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	req.Image = domain.Image{
		Data:        data,
		ContentType: contentType,
		Size:        int64(len(data)),
		Filename:    fh.Filename,
	}

	req.Name = strings.TrimSpace(c.PostForm("name"))
	req.Notes = strings.TrimSpace(c.PostForm("notes"))
	if raw := strings.TrimSpace(c.PostForm("weight")); raw != "" {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil || w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return req, fmt.Errorf("%w: weight must be a finite non-negative number, got %q", domain.ErrInvalidInput, raw)
		}
		req.Weight = &w
	}
	return req, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// DailyMeals handles GET /meal/:date.
func (h *Handler) DailyMeals(c *gin.Context) {
	date, err := service.ParseDate(c.Param("date"))
	if err != nil {
		writeError(c, "daily_meals", err)
		return
	}

	records, err := h.svc.DailyMeals(c.Request.Context(), auth.UserID(c), date)
	if err != nil {
		writeError(c, "daily_meals", err)
		return
	}

	out := make([]MealRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	response.Success(c, http.StatusOK, "Meal records retrieved successfully", out)
}

// MonthlyStatistics handles GET /meal/monthly/:yearMonth.
func (h *Handler) MonthlyStatistics(c *gin.Context) {
	month, err := service.ParseYearMonth(c.Param("yearMonth"))
	if err != nil {
		writeError(c, "monthly_statistics", err)
		return
	}

	stats, err := h.svc.MonthlyStatistics(c.Request.Context(), auth.UserID(c), month)
	if err != nil {
		writeError(c, "monthly_statistics", err)
		return
	}
	response.Success(c, http.StatusOK, "Monthly statistics retrieved successfully", stats)
}

// Quota handles GET /meal/quota.
func (h *Handler) Quota(c *gin.Context) {
	status, err := h.svc.QuotaStatus(c.Request.Context(), auth.UserID(c))
	if err != nil {
		writeError(c, "quota_status", err)
		return
	}
	response.Success(c, http.StatusOK, "Quota retrieved successfully", status)
}
