package service

import (
	"sync"
	"time"

	"unimind_backend/internal/config"
	"unimind_backend/internal/scheduler"
)

// Tunables holds the live scheduler and gate settings. Config reloads swap them
// atomically; in-flight requests keep the snapshot they started with.
type Tunables struct {
	mu    sync.RWMutex
	sched scheduler.Config
	gate  config.GateConfig
}

func NewTunables(sched scheduler.Config, gate config.GateConfig) *Tunables {
	t := &Tunables{}
	t.Update(sched, gate)
	return t
}

func (t *Tunables) Scheduler() scheduler.Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sched
}

func (t *Tunables) Gate() config.GateConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gate
}

func (t *Tunables) Update(sched scheduler.Config, gate config.GateConfig) {
	if gate.UnlockDuration <= 0 {
		gate.UnlockDuration = time.Hour
	}
	if gate.LockoutSeconds < 0 {
		gate.LockoutSeconds = 0
	}
	t.mu.Lock()
	t.sched = sched.Normalize()
	t.gate = gate
	t.mu.Unlock()
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}
