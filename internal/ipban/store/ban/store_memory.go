package ban

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Aleksandr505/Confa/internal/ipban/models"
)

// MemoryStore keeps ban records in process memory. It mirrors the Postgres
// store's semantics for unit tests and postgres-less deployments, where a
// restart losing ban history is accepted.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records []models.BanRecord
	now     func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{nextID: 1, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) FindActiveBan(ctx context.Context, ip string, now time.Time) (*models.BanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *models.BanRecord
	for i := range s.records {
		rec := &s.records[i]
		if rec.IP != ip || !rec.ActiveAt(now) {
			continue
		}
		if best == nil || later(rec, best) {
			best = rec
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

func (s *MemoryStore) FindLatestByIP(ctx context.Context, ip string) (*models.BanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.BanRecord
	for i := range s.records {
		rec := &s.records[i]
		if rec.IP != ip {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (s *MemoryStore) FindAllActive(ctx context.Context, now time.Time) ([]models.BanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []models.BanRecord
	for i := range s.records {
		if s.records[i].ActiveAt(now) {
			active = append(active, s.records[i])
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

func (s *MemoryStore) Save(ctx context.Context, rec *models.BanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec.ID == 0 {
		rec.ID = s.nextID
		s.nextID++
		rec.CreatedAt = now
		rec.UpdatedAt = now
		s.records = append(s.records, *rec)
		return nil
	}

	for i := range s.records {
		if s.records[i].ID == rec.ID {
			rec.CreatedAt = s.records[i].CreatedAt
			rec.UpdatedAt = now
			s.records[i] = *rec
			return nil
		}
	}
	// Unknown ID: treat as insert to match RETURNING-based stores.
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records = append(s.records, *rec)
	return nil
}

// later orders bans the way the active-ban query does: permanent rows
// (no banned_until) first, then by banned_until descending.
func later(a, b *models.BanRecord) bool {
	if a.BannedUntil == nil {
		return true
	}
	if b.BannedUntil == nil {
		return false
	}
	return a.BannedUntil.After(*b.BannedUntil)
}
