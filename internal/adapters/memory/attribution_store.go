package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

// AttributionStore mirrors the redis adapter's semantics in memory: the
// visitor id and the attribution record expire on independent clocks.
type AttributionStore struct {
	mu       sync.Mutex
	nowFn    func() time.Time
	visitors map[string]time.Time
	records  map[string]domain.AttributionRecord
}

func NewAttributionStore(nowFn func() time.Time) *AttributionStore {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &AttributionStore{
		nowFn:    nowFn,
		visitors: map[string]time.Time{},
		records:  map[string]domain.AttributionRecord{},
	}
}

func (s *AttributionStore) EnsureVisitor(_ context.Context, visitorID string) error {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	if expiresAt, ok := s.visitors[visitorID]; ok && now.Before(expiresAt) {
		return nil
	}
	s.visitors[visitorID] = now.Add(domain.VisitorIDTTL)
	return nil
}

func (s *AttributionStore) RecordVisit(_ context.Context, visitorID, ambassadorRef string) error {
	visitorID = strings.TrimSpace(visitorID)
	ambassadorRef = strings.TrimSpace(ambassadorRef)
	if visitorID == "" || ambassadorRef == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[visitorID] = domain.AttributionRecord{
		VisitorID:     visitorID,
		AmbassadorRef: ambassadorRef,
		SetAt:         s.nowFn(),
	}
	return nil
}

func (s *AttributionStore) GetAttribution(_ context.Context, visitorID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.TrimSpace(visitorID)]
	if !ok {
		return "", domain.ErrNotFound
	}
	if record.Expired(s.nowFn()) {
		delete(s.records, record.VisitorID)
		return "", domain.ErrNotFound
	}
	return record.AmbassadorRef, nil
}
