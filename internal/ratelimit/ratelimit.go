// Package ratelimit keeps the pipeline inside its external-service budgets:
// a daily cap on LLM requests and polite pacing of image-search calls.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/futurumpress/newsgen/internal/logger"
)

// Limiter tracks request counts per external service within a daily window.
type Limiter struct {
	mu        sync.Mutex
	counts    map[string]int
	limits    map[string]int
	total     int
	maxTotal  int
	resetTime time.Time

	// pacing
	minInterval time.Duration
	lastCall    map[string]time.Time
}

// New creates a limiter. limits maps service name to its daily cap
// (0 = unlimited); maxTotal caps all services together; minInterval is the
// minimum spacing between calls to the same service.
func New(limits map[string]int, maxTotal int, minInterval time.Duration) *Limiter {
	l := &Limiter{
		counts:      make(map[string]int),
		limits:      make(map[string]int, len(limits)),
		maxTotal:    maxTotal,
		resetTime:   time.Now().Add(24 * time.Hour),
		minInterval: minInterval,
		lastCall:    make(map[string]time.Time),
	}
	for k, v := range limits {
		l.limits[k] = v
	}
	return l
}

// Allow reports whether a request to service fits the budget.
func (l *Limiter) Allow(service string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if max := l.limits[service]; max > 0 && l.counts[service] >= max {
		logger.Warn("rate limit reached", "service", service, "used", l.counts[service], "limit", max)
		return false
	}
	if l.maxTotal > 0 && l.total >= l.maxTotal {
		logger.Warn("total rate limit reached", "used", l.total, "limit", l.maxTotal)
		return false
	}
	return true
}

// Use reserves one request for service, blocking to honor the pacing
// interval. Returns an error when the budget is exhausted.
func (l *Limiter) Use(service string) error {
	l.mu.Lock()

	l.checkReset()

	if max := l.limits[service]; max > 0 && l.counts[service] >= max {
		l.mu.Unlock()
		return fmt.Errorf("%s rate limit exceeded", service)
	}
	if l.maxTotal > 0 && l.total >= l.maxTotal {
		l.mu.Unlock()
		return fmt.Errorf("total rate limit exceeded")
	}

	var wait time.Duration
	if l.minInterval > 0 {
		if last, ok := l.lastCall[service]; ok {
			if since := time.Since(last); since < l.minInterval {
				wait = l.minInterval - since
			}
		}
	}

	l.counts[service]++
	l.total++
	l.lastCall[service] = time.Now().Add(wait)
	l.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
	return nil
}

// GetStats returns current usage for the monitoring endpoint.
func (l *Limiter) GetStats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	used := make(map[string]int, len(l.counts))
	for k, v := range l.counts {
		used[k] = v
	}
	return map[string]interface{}{
		"used":        used,
		"total_used":  l.total,
		"total_limit": l.maxTotal,
		"reset_time":  l.resetTime,
	}
}

func (l *Limiter) checkReset() {
	if time.Now().After(l.resetTime) {
		logger.Info("resetting rate limiter counters")
		l.counts = make(map[string]int)
		l.total = 0
		l.resetTime = time.Now().Add(24 * time.Hour)
	}
}
