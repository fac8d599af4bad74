package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembership_DailyLimit(t *testing.T) {
	assert.Equal(t, 3, MembershipFree.DailyLimit())
	assert.Equal(t, 5, MembershipTier1.DailyLimit())
	assert.Equal(t, 5, MembershipTier2.DailyLimit())
	assert.Equal(t, 30, MembershipTier3.DailyLimit())
	assert.Equal(t, 3, Membership("GOLD").DailyLimit(), "unknown tiers fall back to FREE")

	for _, m := range []Membership{MembershipFree, MembershipTier1, MembershipTier2, MembershipTier3} {
		assert.False(t, m.Unlimited(), "%s should be capped", m)
	}
}

func TestParseMembership(t *testing.T) {
	m, err := ParseMembership(" tier3 ")
	require.NoError(t, err)
	assert.Equal(t, MembershipTier3, m)

	_, err = ParseMembership("platinum")
	assert.ErrorIs(t, err, ErrUnknownMembership)
}

func TestUser_LazyRollover(t *testing.T) {
	today := time.Date(2025, 11, 3, 15, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	t.Run("never used", func(t *testing.T) {
		u := User{ID: "u1", Membership: MembershipFree, DailyRequestCount: 7}
		assert.Equal(t, 0, u.EffectiveCount(today))
	})

	t.Run("stale date resets count", func(t *testing.T) {
		u := User{ID: "u1", DailyRequestCount: 3, LastRequestDate: &yesterday}
		assert.Equal(t, 0, u.EffectiveCount(today))

		next := u.WithIncrementedCount(today)
		assert.Equal(t, 1, next.DailyRequestCount)
		assert.True(t, next.RequestedOn(today))
		assert.Equal(t, 3, u.DailyRequestCount, "snapshot must not be mutated")
	})

	t.Run("same day increments", func(t *testing.T) {
		morning := time.Date(2025, 11, 3, 1, 0, 0, 0, time.UTC)
		u := User{ID: "u1", DailyRequestCount: 2, LastRequestDate: &morning}
		assert.Equal(t, 2, u.EffectiveCount(today))
		assert.Equal(t, 3, u.WithIncrementedCount(today).DailyRequestCount)
	})

	t.Run("reset keeps date", func(t *testing.T) {
		u := User{ID: "u1", DailyRequestCount: 2, LastRequestDate: &today}
		r := u.WithReset()
		assert.Equal(t, 0, r.DailyRequestCount)
		assert.Equal(t, 0, r.EffectiveCount(today))
	})
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	// 23:30 UTC on Nov 2 is already Nov 3 in Seoul.
	instant := time.Date(2025, 11, 2, 23, 30, 0, 0, time.UTC).In(seoul)
	assert.Equal(t, time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), DateOf(instant))
}

func TestAnalysisRequest_Predicates(t *testing.T) {
	zero := 0.0
	w := 350.0

	assert.False(t, AnalysisRequest{}.HasHint())
	assert.False(t, AnalysisRequest{Name: "   "}.HasName())
	assert.False(t, AnalysisRequest{Weight: &zero}.HasWeight())
	assert.True(t, AnalysisRequest{Weight: &w}.HasWeight())
	assert.True(t, AnalysisRequest{Notes: "no dressing"}.HasHint())
}

func TestNewMealRecord_DropsItems(t *testing.T) {
	w := 200.0
	now := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	a := MealAnalysis{
		Name:     "chicken salad",
		Calories: 420,
		Items:    []FoodItem{{Name: "chicken", Amount: 150, Unit: UnitGram, Calories: 250}},
		Advice:   "Good protein ratio.",
	}

	rec := NewMealRecord("rec-1", "user-1", "https://cdn/x.jpg", a, AnalysisRequest{Name: "chicken salad", Weight: &w}, now)
	assert.Equal(t, "chicken salad", rec.UserInputName)
	require.NotNil(t, rec.UserInputWeight)
	assert.Equal(t, 200.0, *rec.UserInputWeight)
	assert.Equal(t, DateOf(now), rec.AnalyzedAt)

	back := rec.Analysis()
	assert.NotNil(t, back.Items)
	assert.Empty(t, back.Items)
	assert.Equal(t, 420.0, back.Calories)
}

func TestErrorClassification(t *testing.T) {
	quota := &QuotaExceededError{UserID: "u1", Membership: MembershipFree, Limit: 3, Used: 3}
	assert.ErrorIs(t, quota, ErrDailyLimitExceeded)
	assert.True(t, IsBusiness(quota))

	wrapped := fmt.Errorf("encode: %w", ErrImageTooLarge)
	assert.True(t, IsValidation(wrapped))

	step := &StepError{Step: "upload", TraceID: "t-1", Err: fmt.Errorf("put object: %w", ErrInfrastructure)}
	assert.ErrorIs(t, step, ErrInfrastructure)
	assert.False(t, IsBusiness(step))

	var se *StepError
	require.True(t, errors.As(fmt.Errorf("analyze: %w", step), &se))
	assert.Equal(t, "upload", se.Step)
}
