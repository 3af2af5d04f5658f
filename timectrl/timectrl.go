// Package timectrl steps simulation time and notifies listeners on every
// tick. Stepping is synchronous: listeners run on the caller's goroutine.
package timectrl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/frame-kinematics/geometry"
)

// SimClock is an interface for accessing simulation time, so that components
// can depend on a clock abstraction rather than a concrete controller.
type SimClock interface {
	// Now returns the current simulation time.
	Now() geometry.Instant
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime waits one tick of wall-clock time between steps.
	RealTime Mode = iota
	// Accelerated advances as quickly as the listeners run while still
	// stepping by Tick.
	Accelerated
)

func (m Mode) String() string {
	if m == RealTime {
		return "realtime"
	}
	return "accelerated"
}

// Listener is invoked on every tick. An error stops the run.
type Listener func(ctx context.Context, t geometry.Instant) error

// TimeController drives simulation time and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime geometry.Instant
	Tick      geometry.Duration
	Mode      Mode

	currentTime geometry.Instant
	listeners   []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(start geometry.Instant, tick geometry.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() geometry.Instant {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime moves the current simulation time without notifying listeners.
func (tc *TimeController) SetTime(t geometry.Instant) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// AddListener registers a callback invoked on every tick, after the
// listeners registered before it.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Run notifies the listeners at StartTime and at each of the following
// steps-1 ticks. It stops early when ctx is done or a listener fails.
func (tc *TimeController) Run(ctx context.Context, steps int) error {
	if tc.Tick <= 0 {
		return fmt.Errorf("timectrl: tick must be positive, got %v s", tc.Tick.Seconds())
	}
	tc.mu.RLock()
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.RUnlock()

	wall := time.Duration(tc.Tick.Seconds() * float64(time.Second))
	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step > 0 && tc.Mode == RealTime {
			timer := time.NewTimer(wall)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		simTime := tc.StartTime.Add(geometry.Duration(float64(step) * tc.Tick.Seconds()))
		tc.SetTime(simTime)
		for _, fn := range listeners {
			if err := fn(ctx, simTime); err != nil {
				return fmt.Errorf("tick %d at t = %v: %w", step, simTime, err)
			}
		}
	}
	return nil
}
