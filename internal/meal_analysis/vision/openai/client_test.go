package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
)

const mealContent = `{
  "name": "Bibimbap",
  "calories": 620,
  "macros": {"carbs": 85, "protein": 22, "fat": 18},
  "serving": {"unit": "g", "amount": 450},
  "items": [{"name": "rice", "amount": 210, "unit": "g", "calories": 300}],
  "confidence": 0.82,
  "advice": "Balanced meal, watch the sauce."
}`

func completion(content string) string {
	b, _ := json.Marshal(chatResponse{
		ID:      "chatcmpl-1",
		Model:   DefaultModel,
		Choices: []choice{{Message: responseMessage{Role: "assistant", Content: content}}},
	})
	return string(b)
}

func testRequest() domain.AnalysisRequest {
	data := []byte("fake-jpeg-bytes")
	return domain.AnalysisRequest{
		Image: domain.Image{Data: data, ContentType: "image/jpeg", Size: int64(len(data)), Filename: "meal.jpg"},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, Temperature: DefaultTemperature, Timeout: 2 * time.Second})
}

func TestAnalyze_Success(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion(mealContent)))
	})

	a, err := c.Analyze(context.Background(), testRequest(), "analyze this")
	require.NoError(t, err)

	assert.Equal(t, "Bibimbap", a.Name)
	assert.Equal(t, 620.0, a.Calories)
	assert.Equal(t, domain.Macros{Carbs: 85, Protein: 22, Fat: 18}, a.Macros)
	assert.Equal(t, domain.Serving{Unit: "g", Amount: 450}, a.Serving)
	require.Len(t, a.Items, 1)
	assert.Equal(t, "rice", a.Items[0].Name)
	assert.Equal(t, 0.82, a.Confidence)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, DefaultTemperature, got.Temperature)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "analyze this", got.Messages[0].Content[0].Text)
	require.NotNil(t, got.Messages[0].Content[1].ImageURL)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestAnalyze_SendsConfiguredTemperature(t *testing.T) {
	tests := []struct {
		name       string
		configured float64
		want       float64
	}{
		{"zero is kept", 0, 0},
		{"custom", 0.2, 0.2},
		{"negative falls back", -1, DefaultTemperature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				_, _ = w.Write([]byte(completion(mealContent)))
			}))
			defer srv.Close()

			c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, Temperature: tt.configured})
			_, err := c.Analyze(context.Background(), testRequest(), "p")
			require.NoError(t, err)

			require.Contains(t, body, "temperature")
			assert.Equal(t, tt.want, body["temperature"])
		})
	}
}

func TestAnalyze_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
		})
		_, err := c.Analyze(context.Background(), testRequest(), "p")
		assert.ErrorIs(t, err, domain.ErrVisionUpstream, "status %d", status)
		assert.Contains(t, err.Error(), "status")
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Analyze(context.Background(), testRequest(), "p")
	assert.ErrorIs(t, err, domain.ErrVisionTimeout)
}

func TestAnalyze_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: url, Timeout: time.Second})
	_, err := c.Analyze(context.Background(), testRequest(), "p")
	assert.ErrorIs(t, err, domain.ErrVisionTimeout)
}

func TestAnalyze_InvalidResponses(t *testing.T) {
	bodies := map[string]string{
		"no choices":    `{"id":"x","choices":[]}`,
		"empty content": completion(""),
		"blank content": completion("   "),
		"empty object":  completion("{}"),
		"spaced object": completion("{ }"),
		"null content":  completion("null"),
		"unknown keys":  completion(`{"dish":"rice"}`),
		"not json":      completion("a plate of rice"),
		"bad envelope":  `<html>`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.Analyze(context.Background(), testRequest(), "p")
			assert.ErrorIs(t, err, domain.ErrVisionInvalidResponse)
		})
	}
}

func TestAnalyze_NoMeal(t *testing.T) {
	for _, advice := range []string{`"no meal"`, `""`, `"  "`, `null`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(completion(`{"name":"desk","calories":0,"advice":` + advice + `}`)))
		})
		_, err := c.Analyze(context.Background(), testRequest(), "p")
		assert.ErrorIs(t, err, domain.ErrNoMealDetected, "advice %s", advice)
	}
}

func TestAnalyze_ValidatesImageWithoutCalling(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	cases := []struct {
		name string
		img  domain.Image
		want error
	}{
		{"empty", domain.Image{ContentType: "image/png"}, domain.ErrImageRequired},
		{"too large", domain.Image{Data: []byte{1}, Size: MaxImageSize + 1, ContentType: "image/png"}, domain.ErrImageTooLarge},
		{"not an image", domain.Image{Data: []byte("%PDF"), ContentType: "application/pdf"}, domain.ErrUnsupportedMediaType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Analyze(context.Background(), domain.AnalysisRequest{Image: tc.img}, "p")
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, domain.IsValidation(err))
		})
	}
	assert.False(t, called)
}

func TestIsAvailable(t *testing.T) {
	assert.False(t, NewClient(Config{}).IsAvailable())
	assert.True(t, NewClient(Config{APIKey: "sk"}).IsAvailable())
	assert.Equal(t, "openai", NewClient(Config{}).ID())
}
