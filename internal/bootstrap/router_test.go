package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
)

type stubMeals struct{ userID string }

func (s *stubMeals) Analyze(context.Context, string, domain.AnalysisRequest) (*domain.AnalyzeResult, error) {
	return &domain.AnalyzeResult{}, nil
}

func (s *stubMeals) DailyMeals(context.Context, string, time.Time) ([]domain.MealRecord, error) {
	return nil, nil
}

func (s *stubMeals) MonthlyStatistics(context.Context, string, time.Time) (*domain.MonthlyStatistics, error) {
	return &domain.MonthlyStatistics{}, nil
}

func (s *stubMeals) QuotaStatus(_ context.Context, userID string) (domain.QuotaStatus, error) {
	s.userID = userID
	return domain.QuotaStatus{Allowed: true, Membership: domain.MembershipFree, Limit: 3, Remaining: 3}, nil
}

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, token string) (*fbauth.Token, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: "firebase-uid", Claims: map[string]interface{}{}}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBuildRouter_HealthIsPublic(t *testing.T) {
	r := BuildRouter(RouterDeps{ServiceName: "bloomi", Version: "test", Meals: &stubMeals{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
}

func TestBuildRouter_HeaderAuthWithoutFirebase(t *testing.T) {
	meals := &stubMeals{}
	r := BuildRouter(RouterDeps{Meals: meals})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/meal/quota", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meal/quota", nil)
	req.Header.Set("X-User-Id", "user-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", meals.userID)
}

func TestBuildRouter_FirebaseAuth(t *testing.T) {
	meals := &stubMeals{}
	r := BuildRouter(RouterDeps{Meals: meals, Verifier: stubVerifier{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meal/quota", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/meal/quota", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "firebase-uid", meals.userID)
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://app.bloomi.io"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://app.bloomi.io"}, cfg.AllowOrigins)
}
