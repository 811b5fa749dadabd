package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ticketcheck/backend/internal/domain"
)

const defaultCleanupInterval = 10 * time.Minute

// reportItem is one stored report with its expiration
type reportItem struct {
	Data       []byte
	Expiration time.Time
}

// MemoryReportStore is a thread-safe in-memory domain.ReportRepository with
// TTL support. Reports are stored JSON-encoded so callers never share state
// with the store.
type MemoryReportStore struct {
	data  map[string]reportItem
	mutex sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryReportStore creates a new in-memory report store
func NewMemoryReportStore() *MemoryReportStore {
	return newMemoryReportStore(defaultCleanupInterval)
}

func newMemoryReportStore(cleanupInterval time.Duration) *MemoryReportStore {
	store := &MemoryReportStore{
		data: make(map[string]reportItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	// Remove expired reports periodically
	go store.cleanupExpired(cleanupInterval)

	return store
}

// Get retrieves a report by ID
func (s *MemoryReportStore) Get(ctx context.Context, id string) (*domain.Report, error) {
	s.mutex.RLock()
	item, exists := s.data[id]
	s.mutex.RUnlock()

	if !exists || s.now().After(item.Expiration) {
		return nil, domain.ErrReportNotFound
	}

	var report domain.Report
	if err := json.Unmarshal(item.Data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &report, nil
}

// Save stores a report under its ID with TTL
func (s *MemoryReportStore) Save(ctx context.Context, report *domain.Report, ttl time.Duration) error {
	if report == nil || report.ID == "" {
		return domain.ErrInvalidRequest
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", report.ID, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[report.ID] = reportItem{
		Data:       data,
		Expiration: s.now().Add(ttl),
	}
	return nil
}

// Delete removes a report; a missing or expired one is ErrReportNotFound
func (s *MemoryReportStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, exists := s.data[id]
	delete(s.data, id)
	if !exists || s.now().After(item.Expiration) {
		return domain.ErrReportNotFound
	}
	return nil
}

// Close stops the cleanup goroutine
func (s *MemoryReportStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryReportStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryReportStore) removeExpired() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for id, item := range s.data {
		if now.After(item.Expiration) {
			delete(s.data, id)
		}
	}
}

// Size returns the current number of stored reports, expired ones included
// until the next cleanup
func (s *MemoryReportStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
