package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/quota"
)

type fakeAccounts struct {
	mu        sync.Mutex
	users     map[string]domain.User
	findErr   error
	commitErr error
	commits   int
}

func newFakeAccounts(users ...domain.User) *fakeAccounts {
	a := &fakeAccounts{users: map[string]domain.User{}}
	for _, u := range users {
		a.users[u.ID] = u
	}
	return a
}

func (a *fakeAccounts) FindByID(_ context.Context, id string) (*domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.findErr != nil {
		return nil, a.findErr
	}
	u, ok := a.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (a *fakeAccounts) IncrementDailyCount(_ context.Context, id string, today time.Time, limit int) (*domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.commitErr != nil {
		return nil, a.commitErr
	}
	u := a.users[id]
	if limit >= 0 && u.EffectiveCount(today) >= limit {
		return nil, quota.ErrCommitRejected
	}
	u = u.WithIncrementedCount(today)
	a.users[id] = u
	a.commits++
	return &u, nil
}

func (a *fakeAccounts) ResetAllDailyCounts(context.Context) (int64, error) {
	return 0, nil
}

func (a *fakeAccounts) user(id string) domain.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.users[id]
}

type fakeOptimizer struct{ calls int }

func (o *fakeOptimizer) Optimize(_ context.Context, img domain.Image) domain.Image {
	o.calls++
	return img
}

type fakeStorage struct {
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: map[string][]byte{}}
}

func (s *fakeStorage) Upload(_ context.Context, data []byte, _ string, path string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads[path] = data
	return "https://cdn.test/" + path, nil
}

func (s *fakeStorage) Delete(_ context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.uploads, strings.TrimPrefix(url, "https://cdn.test/"))
	return nil
}

type fakeProvider struct {
	calls  int
	prompt string
	result *domain.MealAnalysis
	err    error
}

func (p *fakeProvider) ID() string        { return "fake" }
func (p *fakeProvider) IsAvailable() bool { return true }

func (p *fakeProvider) Analyze(_ context.Context, _ domain.AnalysisRequest, prompt string) (*domain.MealAnalysis, error) {
	p.calls++
	p.prompt = prompt
	if p.err != nil {
		return nil, p.err
	}
	a := *p.result
	return &a, nil
}

type fakeRecords struct {
	saved    map[string]domain.MealRecord
	deleted  []string
	saveErr  error
	findErr  error
	from, to time.Time
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{saved: map[string]domain.MealRecord{}}
}

func (r *fakeRecords) Save(_ context.Context, rec domain.MealRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[rec.ID] = rec
	return nil
}

func (r *fakeRecords) Delete(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	delete(r.saved, id)
	return nil
}

func (r *fakeRecords) FindByUserAndDate(_ context.Context, userID string, date time.Time) ([]domain.MealRecord, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []domain.MealRecord
	for _, rec := range r.saved {
		if rec.UserID == userID && rec.AnalyzedAt.Equal(date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecords) FindByUserBetween(_ context.Context, userID string, from, to time.Time) ([]domain.MealRecord, error) {
	r.from, r.to = from, to
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []domain.MealRecord
	for _, rec := range r.saved {
		if rec.UserID == userID && !rec.AnalyzedAt.Before(from) && !rec.AnalyzedAt.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

var errConnection = errors.New("connection refused")
