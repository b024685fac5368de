package timer

import "time"

// CountupTimer tracks elapsed time against a target duration without
// stopping at it. Once elapsed reaches the duration the timer is finished
// for good (until Reset), and the time past the target stays readable
// through CountupElapsed so callers can carry it into the next timer.
type CountupTimer struct {
	stopwatch             Stopwatch
	duration              time.Duration
	finished              bool
	timesFinishedThisTick uint32
}

// New returns a timer targeting d.
func New(d time.Duration) CountupTimer {
	return CountupTimer{duration: d}
}

// FromSeconds returns a timer targeting the given number of seconds.
func FromSeconds(secs float32) CountupTimer {
	return New(secondsToDuration(secs))
}

// Tick advances the timer. A paused timer does not advance, and reports
// nothing finishing this tick.
func (t *CountupTimer) Tick(delta time.Duration) *CountupTimer {
	if t.Paused() {
		t.timesFinishedThisTick = 0
		return t
	}

	previouslyFinished := t.finished
	t.stopwatch.Tick(delta)
	t.finished = t.Elapsed() >= t.duration

	if t.finished && !previouslyFinished {
		t.timesFinishedThisTick = 1
	} else {
		t.timesFinishedThisTick = 0
	}
	return t
}

// Finished reports whether elapsed has ever reached the duration since the
// last Reset.
func (t *CountupTimer) Finished() bool {
	return t.finished
}

// JustFinished reports whether the last Tick crossed the duration.
func (t *CountupTimer) JustFinished() bool {
	return t.timesFinishedThisTick > 0
}

// TimesFinishedThisTick is 1 on the tick that crossed the duration, else 0.
func (t *CountupTimer) TimesFinishedThisTick() uint32 {
	return t.timesFinishedThisTick
}

// Elapsed returns the total ticked time.
func (t *CountupTimer) Elapsed() time.Duration {
	return t.stopwatch.Elapsed()
}

// ElapsedSecs returns Elapsed in seconds.
func (t *CountupTimer) ElapsedSecs() float32 {
	return float32(t.Elapsed().Seconds())
}

// Duration returns the target duration.
func (t *CountupTimer) Duration() time.Duration {
	return t.duration
}

// Pause stops the timer from advancing.
func (t *CountupTimer) Pause() {
	t.stopwatch.Pause()
}

// Unpause lets the timer advance again.
func (t *CountupTimer) Unpause() {
	t.stopwatch.Unpause()
}

// Paused reports whether the timer is paused.
func (t *CountupTimer) Paused() bool {
	return t.stopwatch.Paused()
}

// Reset zeroes elapsed time and clears both finished flags.
func (t *CountupTimer) Reset() {
	t.stopwatch.Reset()
	t.finished = false
	t.timesFinishedThisTick = 0
}

// Percent returns elapsed / duration. It exceeds 1 once the timer counts
// past its target. A zero-duration timer reports 1.
func (t *CountupTimer) Percent() float32 {
	if t.duration == 0 {
		return 1
	}
	return float32(t.Elapsed().Seconds() / t.duration.Seconds())
}

// PercentLeft returns 1 - Percent, floored at 0.
func (t *CountupTimer) PercentLeft() float32 {
	return max(1-t.Percent(), 0)
}

// Remaining returns the time left until the target, floored at 0.
func (t *CountupTimer) Remaining() time.Duration {
	return max(t.duration-t.Elapsed(), 0)
}

// RemainingSecs returns Remaining in seconds.
func (t *CountupTimer) RemainingSecs() float32 {
	return float32(t.Remaining().Seconds())
}

// CountupElapsed returns the time elapsed past the target, or 0.
func (t *CountupTimer) CountupElapsed() time.Duration {
	return max(t.Elapsed()-t.duration, 0)
}

// CountupElapsedSecs returns CountupElapsed in seconds.
func (t *CountupTimer) CountupElapsedSecs() float32 {
	return float32(t.CountupElapsed().Seconds())
}

func secondsToDuration(secs float32) time.Duration {
	return time.Duration(float64(secs) * float64(time.Second))
}
