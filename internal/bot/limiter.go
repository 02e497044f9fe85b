package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 30 * time.Minute

// SenderLimiter applies a token bucket per sender identity and evicts
// buckets that have been idle past the TTL. A nil limiter allows
// everything.
type SenderLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	senders map[string]*limiterEntry
	hits    uint64
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSenderLimiter returns nil when rate limiting is disabled.
func NewSenderLimiter(rps float64, burst int) *SenderLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &SenderLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		senders: make(map[string]*limiterEntry),
	}
}

// Allow reports whether one command from sender may proceed at now.
func (l *SenderLimiter) Allow(sender string, now time.Time) bool {
	if l == nil || sender == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.senders[sender]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.senders[sender] = e
	}
	e.lastSeen = now

	l.hits++
	if l.hits%256 == 0 {
		l.evictIdle(now)
	}
	return e.limiter.AllowN(now, 1)
}

func (l *SenderLimiter) evictIdle(now time.Time) {
	for sender, e := range l.senders {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(l.senders, sender)
		}
	}
}
