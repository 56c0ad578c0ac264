package otp

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/restaurant-service/internal/domain"
)

// MemoryStore is an in-process Store for development and tests. One mutex
// guards all state, which trivially serializes same-phone operations.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]*memoryRecord
	counters  map[string]int64
	cooldowns map[string]time.Time
	now       func() time.Time
}

type memoryRecord struct {
	record    domain.OtpRecord
	retainTil time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]*memoryRecord),
		counters:  make(map[string]int64),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, record *domain.OtpRecord, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.records[record.Phone] = &memoryRecord{record: copied, retainTil: s.now().Add(retention)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, phone string) (*domain.OtpRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[phone]
	if !ok || s.now().After(entry.retainTil) {
		delete(s.records, phone)
		return nil, ErrNoRecord
	}
	copied := entry.record
	return &copied, nil
}

func (s *MemoryStore) IncrementAttempts(_ context.Context, phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[phone]
	if !ok {
		return 0, ErrNoRecord
	}
	entry.record.Attempts++
	return entry.record.Attempts, nil
}

func (s *MemoryStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, phone)
	return nil
}

func (s *MemoryStore) NextCounter(_ context.Context, phone string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[phone]++
	return s.counters[phone], nil
}

func (s *MemoryStore) AcquireCooldown(_ context.Context, phone string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.cooldowns[phone]; ok && s.now().Before(until) {
		return false, nil
	}
	s.cooldowns[phone] = s.now().Add(window)
	return true, nil
}
