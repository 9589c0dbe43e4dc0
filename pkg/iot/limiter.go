package iot

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterStore manages per-meter ingestion limiters: meter_code -> rate limiter
type RateLimiterStore struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	return &RateLimiterStore{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

func (s *RateLimiterStore) GetLimiter(meterCode string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[meterCode]
	if !exists {
		limiter = rate.NewLimiter(s.defaultRate, s.defaultBurst)
		s.limiters[meterCode] = limiter
	}
	return limiter
}

func (s *RateLimiterStore) SetLimiter(meterCode string, meterRate rate.Limit, meterBurst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[meterCode] = rate.NewLimiter(meterRate, meterBurst)
}

// Allow reports whether meterCode may ingest one more reading now.
func (s *RateLimiterStore) Allow(meterCode string) bool {
	return s.GetLimiter(meterCode).Allow()
}
