package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-bulletin/internal/report"
	"github.com/i474232898/weather-bulletin/internal/weather"
)

var (
	// ErrNotFound is returned when no report is available for a given location.
	ErrNotFound = errors.New("no report for location")
)

// ReportHistory holds the reports of one location, oldest first.
type ReportHistory struct {
	Reports []report.Report
}

// MemoryStore is a concurrency-safe in-memory history of generated reports.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*ReportHistory
	// most recent report across every location
	last *report.Report

	// retention configuration
	maxHistory int           // max number of reports per location
	maxAge     time.Duration // optional max age for reports

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ReportHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save appends a report to its location's history and enforces retention.
func (s *MemoryStore) Save(r report.Report) {
	key := r.Location.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &ReportHistory{}
		s.data[key] = history
	}

	history.Reports = append(history.Reports, r)
	last := r

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Reports) > s.maxHistory {
		over := len(history.Reports) - s.maxHistory
		history.Reports = history.Reports[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Reports); i++ {
			if !history.Reports[i].GeneratedAt.Before(cutoff) {
				break
			}
		}
		history.Reports = history.Reports[i:]

		// A report already past the cutoff is not served as the latest either.
		if last.GeneratedAt.Before(cutoff) {
			if s.last != nil && s.last.GeneratedAt.Before(cutoff) {
				s.last = nil
			}
			return
		}
	}

	s.last = &last
}

// Latest returns the most recent report for a location.
func (s *MemoryStore) Latest(loc weather.Location) (report.Report, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Reports) == 0 {
		return report.Report{}, ErrNotFound
	}
	return history.Reports[len(history.Reports)-1], nil
}

// LatestAny returns the most recently saved report regardless of location.
func (s *MemoryStore) LatestAny() (report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return report.Report{}, ErrNotFound
	}
	return *s.last, nil
}

// Range returns all reports for a location generated between from and to (inclusive).
func (s *MemoryStore) Range(loc weather.Location, from, to time.Time) ([]report.Report, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Reports) == 0 {
		return nil, ErrNotFound
	}

	var result []report.Report
	for _, r := range history.Reports {
		if !r.GeneratedAt.Before(from) && !r.GeneratedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
