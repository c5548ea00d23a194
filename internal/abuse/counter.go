// Package abuse implements the submission attempt counter that slows down
// repeated registration attempts from one caller.
//
// The counter is advisory friction, not a security control. Its state lives in
// the caller's own scope (a browser-held identifier), so a caller can reset it
// by discarding that identifier. Real throttling belongs in the storage backend
// or an upstream proxy.
package abuse

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/workshops/internal/kvscope"
)

const (
	// StateKey is the scope key the counter state is stored under.
	StateKey = "workshop_registration_attempts"

	MaxAttempts     = 5
	Window          = 15 * time.Minute
	LockoutDuration = 60 * time.Minute

	warnBelow = 3
)

// State is the persisted counter state. Timestamps are Unix milliseconds.
type State struct {
	Attempts     []int64 `json:"attempts"`
	LockoutUntil *int64  `json:"lockoutUntil"`
}

// Decision is the outcome of CanSubmit.
type Decision struct {
	Allowed           bool   `json:"allowed"`
	RemainingAttempts int    `json:"remaining_attempts,omitempty"`
	Message           string `json:"message,omitempty"`
}

// Report describes a scope's counter without recording an attempt.
type Report struct {
	Locked            bool `json:"locked"`
	Attempts          int  `json:"attempts"`
	MaxAttempts       int  `json:"max_attempts"`
	RemainingAttempts int  `json:"remaining_attempts"`
	LockoutMinutes    int  `json:"lockout_minutes,omitempty"`
}

// Counter records attempts and decides lockouts.
type Counter struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewCounter creates a counter. A nil clock means time.Now.
func NewCounter(now func() time.Time, logger *zap.Logger) *Counter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{now: now, logger: logger}
}

// CanSubmit records an attempt in scope and reports whether it may proceed.
// While locked out no attempt is recorded.
func (c *Counter) CanSubmit(ctx context.Context, scope kvscope.Scope) Decision {
	now := c.now()
	nowMs := now.UnixMilli()
	st := c.load(ctx, scope)

	if st.LockoutUntil != nil {
		if nowMs < *st.LockoutUntil {
			return Decision{Allowed: false, Message: lockoutMessage(minutesUntil(*st.LockoutUntil, nowMs))}
		}
		st = State{}
	}

	st.Attempts = inWindow(st.Attempts, nowMs)
	st.Attempts = append(st.Attempts, nowMs)

	if len(st.Attempts) >= MaxAttempts {
		until := now.Add(LockoutDuration).UnixMilli()
		st.LockoutUntil = &until
		c.save(ctx, scope, st)
		c.logger.Info("registration attempts locked out", zap.Int("attempts", len(st.Attempts)))
		return Decision{Allowed: false, Message: lockoutMessage(int(LockoutDuration / time.Minute))}
	}

	c.save(ctx, scope, st)
	remaining := MaxAttempts - len(st.Attempts)
	d := Decision{Allowed: true, RemainingAttempts: remaining}
	if remaining < warnBelow {
		d.Message = fmt.Sprintf("Warning: %d attempt%s remaining.", remaining, plural(remaining))
	}
	return d
}

// Status reports the counter for scope without changing it.
func (c *Counter) Status(ctx context.Context, scope kvscope.Scope) Report {
	nowMs := c.now().UnixMilli()
	st := c.load(ctx, scope)
	if st.LockoutUntil != nil && nowMs < *st.LockoutUntil {
		return Report{
			Locked:         true,
			Attempts:       len(inWindow(st.Attempts, nowMs)),
			MaxAttempts:    MaxAttempts,
			LockoutMinutes: minutesUntil(*st.LockoutUntil, nowMs),
		}
	}
	if st.LockoutUntil != nil {
		st = State{}
	}
	n := len(inWindow(st.Attempts, nowMs))
	return Report{Attempts: n, MaxAttempts: MaxAttempts, RemainingAttempts: MaxAttempts - n}
}

// Reset clears scope's counter.
func (c *Counter) Reset(ctx context.Context, scope kvscope.Scope) error {
	raw, _ := json.Marshal(State{Attempts: []int64{}})
	return scope.Set(ctx, StateKey, raw)
}

// load treats missing, unreadable and corrupt state as empty.
func (c *Counter) load(ctx context.Context, scope kvscope.Scope) State {
	raw, ok, err := scope.Get(ctx, StateKey)
	if err != nil {
		c.logger.Warn("read attempt counter", zap.Error(err))
		return State{}
	}
	if !ok {
		return State{}
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		c.logger.Warn("discard corrupt attempt counter", zap.Error(err))
		return State{}
	}
	return st
}

func (c *Counter) save(ctx context.Context, scope kvscope.Scope, st State) {
	if st.Attempts == nil {
		st.Attempts = []int64{}
	}
	raw, err := json.Marshal(st)
	if err != nil {
		c.logger.Warn("encode attempt counter", zap.Error(err))
		return
	}
	if err := scope.Set(ctx, StateKey, raw); err != nil {
		c.logger.Warn("save attempt counter", zap.Error(err))
	}
}

func inWindow(attempts []int64, nowMs int64) []int64 {
	window := Window.Milliseconds()
	kept := make([]int64, 0, len(attempts)+1)
	for _, ts := range attempts {
		if nowMs-ts < window {
			kept = append(kept, ts)
		}
	}
	return kept
}

func minutesUntil(untilMs, nowMs int64) int {
	return int(math.Ceil(float64(untilMs-nowMs) / float64(time.Minute.Milliseconds())))
}

func lockoutMessage(minutes int) string {
	return fmt.Sprintf("Too many registration attempts. Please try again in %d minute%s.", minutes, plural(minutes))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
