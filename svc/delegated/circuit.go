package delegated

import (
	"sync"
	"time"
)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker stops calls to a verification host after repeated failures and
// lets probes through once the recovery timeout passes.
type breaker struct {
	mu  sync.Mutex
	now func() time.Time

	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration

	state       circuitState
	failures    int
	successes   int
	lastFailure time.Time
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case circuitOpen:
		if b.now().Sub(b.lastFailure) > b.recoveryTimeout {
			b.state = circuitHalfOpen
			b.successes = 0
			return true
		}
		return false
	default:
		return true
	}
}

func (b *breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case circuitClosed:
		b.failures = 0
	case circuitHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = circuitClosed
			b.failures = 0
			b.successes = 0
		}
	}
}

func (b *breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()
	switch b.state {
	case circuitClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = circuitOpen
		}
	case circuitHalfOpen:
		b.state = circuitOpen
		b.successes = 0
	}
}

func (b *breaker) current() circuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// breakers keeps one breaker per verification host.
type breakers struct {
	mu     sync.Mutex
	byHost map[string]*breaker
	cfg    Config
	now    func() time.Time
}

func newBreakers(cfg Config, now func() time.Time) *breakers {
	return &breakers{byHost: make(map[string]*breaker), cfg: cfg, now: now}
}

func (bs *breakers) get(host string) *breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	b, ok := bs.byHost[host]
	if !ok {
		b = &breaker{
			now:              bs.now,
			failureThreshold: max(bs.cfg.FailureThreshold, 1),
			successThreshold: max(bs.cfg.SuccessThreshold, 1),
			recoveryTimeout:  bs.cfg.RecoveryTimeout,
		}
		bs.byHost[host] = b
	}
	return b
}
