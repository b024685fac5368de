// Package timer provides frame-driven stopwatches and count-up timers.
//
// Nothing here reads the wall clock; time only moves when Tick is called
// with the simulation step.
package timer

import "time"

// Stopwatch accumulates ticked time until paused.
type Stopwatch struct {
	elapsed time.Duration
	paused  bool
}

// Tick advances the stopwatch unless it is paused.
func (s *Stopwatch) Tick(delta time.Duration) {
	if !s.paused {
		s.elapsed += delta
	}
}

// Elapsed returns the accumulated time.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.elapsed
}

// Pause stops accumulation.
func (s *Stopwatch) Pause() {
	s.paused = true
}

// Unpause resumes accumulation.
func (s *Stopwatch) Unpause() {
	s.paused = false
}

// Paused reports whether the stopwatch is paused.
func (s *Stopwatch) Paused() bool {
	return s.paused
}

// Reset zeroes the elapsed time. The paused state is kept.
func (s *Stopwatch) Reset() {
	s.elapsed = 0
}
