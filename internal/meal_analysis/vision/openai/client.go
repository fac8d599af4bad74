// Package openai implements vision.Provider on the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bloomi-app/bloomi-backend/internal/logger"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/vision"
)

const (
	ProviderID = "openai"

	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
	DefaultTimeout     = 30 * time.Second

	// MaxImageSize is the largest image sent upstream.
	MaxImageSize = 20 * 1024 * 1024
)

// Config holds the settings of the OpenAI adapter. Zero values take defaults,
// except Temperature where only a negative value does.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// RequestsPerSecond bounds outbound calls; 0 disables the limiter.
	RequestsPerSecond float64
	Burst             int
}

// Client calls the chat completions endpoint with one image and one prompt.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

var _ vision.Provider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	// Zero is a valid temperature; only a negative value falls back.
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

func (c *Client) ID() string { return ProviderID }

func (c *Client) IsAvailable() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Analyze sends the image and prompt upstream and maps the answer.
func (c *Client) Analyze(ctx context.Context, req domain.AnalysisRequest, prompt string) (*domain.MealAnalysis, error) {
	log := logger.New(ctx)

	if err := validateImage(req.Image); err != nil {
		return nil, err
	}

	body, err := json.Marshal(c.buildRequest(req.Image, prompt))
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrVisionUpstream, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			vision.RecordTimeout()
			log.LogWarnf("vision_analyze", "rate limiter wait aborted: %v", err)
			return nil, fmt.Errorf("%w: waiting for rate limiter: %v", domain.ErrVisionTimeout, err)
		}
	}

	start := time.Now()
	content, err := c.complete(ctx, body)
	duration := time.Since(start)
	vision.RecordCall(duration, err)
	if err != nil {
		if errors.Is(err, domain.ErrVisionTimeout) {
			vision.RecordTimeout()
		}
		log.LogErrorf("vision_analyze", "provider=%s model=%s duration=%s error=%v", ProviderID, c.cfg.Model, duration, err)
		return nil, err
	}

	analysis, err := parseContent(content)
	if err != nil {
		log.LogError("vision_analyze", err)
		return nil, err
	}
	if err := checkMeal(analysis); err != nil {
		vision.RecordNoMeal()
		log.LogInfof("vision_analyze", "no meal detected: advice=%q", analysis.Advice)
		return nil, err
	}

	log.LogInfof("vision_analyze", "provider=%s model=%s duration=%s name=%q calories=%.1f confidence=%.2f",
		ProviderID, c.cfg.Model, duration, analysis.Name, analysis.Calories, analysis.Confidence)
	return analysis, nil
}

func (c *Client) buildRequest(img domain.Image, prompt string) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL(img)}},
			},
		}},
		MaxTokens:      c.cfg.MaxTokens,
		Temperature:    c.cfg.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
}

// complete performs the HTTP exchange and returns the first choice's content.
func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrVisionUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrVisionUpstream, resp.StatusCode, truncate(string(raw), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode envelope: %v", domain.ErrVisionInvalidResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", domain.ErrVisionInvalidResponse)
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" || content == "{}" {
		return "", fmt.Errorf("%w: empty content", domain.ErrVisionInvalidResponse)
	}
	return content, nil
}

// classifyTransportError maps deadline and connection failures to a timeout
// and everything else to an upstream error.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrVisionTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrVisionTimeout, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", domain.ErrVisionTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrVisionUpstream, err)
}

func validateImage(img domain.Image) error {
	size := img.Size
	if size <= 0 {
		size = int64(len(img.Data))
	}
	if len(img.Data) == 0 {
		return domain.ErrImageRequired
	}
	if size > MaxImageSize {
		return fmt.Errorf("%w: image size %d bytes exceeds limit %d bytes", domain.ErrImageTooLarge, size, MaxImageSize)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return fmt.Errorf("%w: got %q", domain.ErrUnsupportedMediaType, img.ContentType)
	}
	return nil
}

func dataURL(img domain.Image) string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
