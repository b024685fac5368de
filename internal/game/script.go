package game

import "github.com/Faultbox/topdown/pkg/math"

// Step holds one scripted input for a number of ticks.
type Step struct {
	Dir   math.Vec2
	Ticks int
	Jump  bool // on the step's first tick
}

// Script replays steps in a loop, standing in for a player at the keyboard.
type Script struct {
	steps []Step
	index int
	tick  int
}

// NewScript loops over steps. Steps with no ticks are skipped.
func NewScript(steps ...Step) *Script {
	var kept []Step
	for _, s := range steps {
		if s.Ticks > 0 {
			kept = append(kept, s)
		}
	}
	return &Script{steps: kept}
}

// DefaultScript walks a square a second per side, jumping as it turns west.
func DefaultScript() *Script {
	return NewScript(
		Step{Dir: math.Vec2{X: 1}, Ticks: 60},
		Step{Dir: math.Vec2{Y: 1}, Ticks: 60},
		Step{Dir: math.Vec2{X: -1}, Ticks: 60, Jump: true},
		Step{Dir: math.Vec2{Y: -1}, Ticks: 60},
	)
}

// Next returns the input for the coming tick.
func (s *Script) Next() (dir math.Vec2, jump bool) {
	if len(s.steps) == 0 {
		return math.Vec2{}, false
	}
	step := s.steps[s.index]
	jump = step.Jump && s.tick == 0
	s.tick++
	if s.tick >= step.Ticks {
		s.tick = 0
		s.index = (s.index + 1) % len(s.steps)
	}
	return step.Dir, jump
}
