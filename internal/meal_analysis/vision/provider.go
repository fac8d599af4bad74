// Package vision abstracts the upstream image-analysis services.
package vision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
)

var (
	ErrProviderNotFound    = errors.New("vision provider not registered")
	ErrProviderUnavailable = errors.New("vision provider is not configured")
)

// Provider analyzes one meal image with a prepared prompt.
type Provider interface {
	ID() string
	// IsAvailable reports whether credentials are configured. It does not call
	// the upstream service.
	IsAvailable() bool
	Analyze(ctx context.Context, req domain.AnalysisRequest, prompt string) (*domain.MealAnalysis, error)
}

// DefaultProviderID is used when no provider is configured.
const DefaultProviderID = "openai"

// Registry holds providers keyed by their id.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	defaultID string
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider), defaultID: DefaultProviderID}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same id.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return p, nil
}

// Select returns the provider for id and checks that it can be used.
func (r *Registry) Select(id string) (Provider, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable() {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, id)
	}
	return p, nil
}

// SetDefault changes the id Default resolves.
func (r *Registry) SetDefault(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		id = DefaultProviderID
	}
	r.defaultID = id
}

// Default returns the configured provider, which must be available.
func (r *Registry) Default() (Provider, error) {
	r.mu.RLock()
	id := r.defaultID
	r.mu.RUnlock()
	return r.Select(id)
}

// IDs lists registered provider ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
