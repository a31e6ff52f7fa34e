package repository

import (
	"sync"
	"time"
)

// RateLimitLedger records request timestamps per client address and enforces
// a sliding window limit. The prune-check-append sequence for an address runs
// under a single lock, so concurrent requests cannot over-admit.
type RateLimitLedger struct {
	mu           sync.Mutex
	entries      map[string][]time.Time
	limit        int
	window       time.Duration
	maxAddresses int // 0 means unbounded
}

// NewRateLimitLedger creates a ledger admitting limit requests per window.
// Once maxAddresses distinct addresses are tracked, idle ones are dropped
// before a new address is added; active addresses keep their history even
// above the bound. 0 disables the check.
func NewRateLimitLedger(limit int, window time.Duration, maxAddresses int) *RateLimitLedger {
	return &RateLimitLedger{
		entries:      make(map[string][]time.Time),
		limit:        limit,
		window:       window,
		maxAddresses: maxAddresses,
	}
}

// CheckAndRecord prunes timestamps older than the window for address and
// reports whether another request is allowed. Allowed requests are recorded;
// rejected ones are not.
func (l *RateLimitLedger) CheckAndRecord(address string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, known := l.entries[address]
	recent := l.recent(history, now)

	if len(recent) >= l.limit {
		l.entries[address] = recent
		return false
	}

	if !known {
		l.makeRoom(now)
	}
	l.entries[address] = append(recent, now)
	return true
}

// Count returns how many requests from address fall inside the window
func (l *RateLimitLedger) Count(address string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(l.entries[address], now))
}

// Len returns the number of tracked addresses
func (l *RateLimitLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Prune drops addresses with no request inside the window and returns how
// many were removed
func (l *RateLimitLedger) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pruneIdle(now)
}

// recent returns the suffix of history that is still inside the window.
// Timestamps are appended in order, so the first fresh one ends the scan.
func (l *RateLimitLedger) recent(history []time.Time, now time.Time) []time.Time {
	for i, ts := range history {
		if now.Sub(ts) < l.window {
			return history[i:]
		}
	}
	return history[:0]
}

func (l *RateLimitLedger) pruneIdle(now time.Time) int {
	removed := 0
	for addr, history := range l.entries {
		if len(l.recent(history, now)) == 0 {
			delete(l.entries, addr)
			removed++
		}
	}
	return removed
}

// makeRoom drops idle addresses once the ledger holds maxAddresses.
// Addresses with requests inside the window are never evicted, so the
// bound is soft: while every tracked address is active the ledger grows
// past it until Prune or a later makeRoom finds idle entries.
func (l *RateLimitLedger) makeRoom(now time.Time) {
	if l.maxAddresses <= 0 || len(l.entries) < l.maxAddresses {
		return
	}
	l.pruneIdle(now)
}
