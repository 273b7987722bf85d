// Package quotes хранит выданные гостям ценовые предложения до их истечения.
package quotes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mmeshcher/rental-pricing/internal/model"
)

// ErrQuoteNotFound возвращается, если предложение не найдено или истекло.
var ErrQuoteNotFound = errors.New("quote not found or expired")

// Store описывает хранилище ценовых предложений.
type Store interface {
	Save(ctx context.Context, q model.Quote) error
	Get(ctx context.Context, id string) (*model.Quote, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore хранит предложения в памяти процесса.
type MemoryStore struct {
	mu     sync.Mutex
	quotes map[string]model.Quote
	now    func() time.Time
}

// NewMemoryStore создаёт хранилище в памяти.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		quotes: make(map[string]model.Quote),
		now:    now,
	}
}

// Save сохраняет предложение до ExpiresAt.
func (s *MemoryStore) Save(_ context.Context, q model.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()
	s.quotes[q.ID] = q
	return nil
}

// Get возвращает действующее предложение.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotes[id]
	if !ok || !s.now().Before(q.ExpiresAt) {
		delete(s.quotes, id)
		return nil, ErrQuoteNotFound
	}
	return &q, nil
}

// Delete удаляет предложение.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.quotes, id)
	return nil
}

func (s *MemoryStore) evictExpired() {
	now := s.now()
	for id, q := range s.quotes {
		if !now.Before(q.ExpiresAt) {
			delete(s.quotes, id)
		}
	}
}
