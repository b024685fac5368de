// Package input turns SDL2 events into movement and viewer actions.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/topdown/pkg/math"
)

// Action is a one-shot command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionJump
	ActionScreenshot
	ActionNextMotion
	ActionToggleWalkboxes
	ActionToggleHitboxes
	ActionToggleOrigins
	ActionSlower
	ActionFaster
	ActionZoomIn
	ActionZoomOut
)

var bindings = map[sdl.Scancode]Action{
	sdl.SCANCODE_ESCAPE:   ActionQuit,
	sdl.SCANCODE_SPACE:    ActionJump,
	sdl.SCANCODE_F12:      ActionScreenshot,
	sdl.SCANCODE_M:        ActionNextMotion,
	sdl.SCANCODE_1:        ActionToggleWalkboxes,
	sdl.SCANCODE_2:        ActionToggleHitboxes,
	sdl.SCANCODE_3:        ActionToggleOrigins,
	sdl.SCANCODE_MINUS:    ActionSlower,
	sdl.SCANCODE_EQUALS:   ActionFaster,
	sdl.SCANCODE_PAGEUP:   ActionZoomIn,
	sdl.SCANCODE_PAGEDOWN: ActionZoomOut,
}

// Each direction answers to WASD and the arrow keys.
var (
	eastKeys  = []sdl.Scancode{sdl.SCANCODE_D, sdl.SCANCODE_RIGHT}
	westKeys  = []sdl.Scancode{sdl.SCANCODE_A, sdl.SCANCODE_LEFT}
	northKeys = []sdl.Scancode{sdl.SCANCODE_W, sdl.SCANCODE_UP}
	southKeys = []sdl.Scancode{sdl.SCANCODE_S, sdl.SCANCODE_DOWN}
)

// Input tracks held keys and collects the actions pressed since the last
// Update.
type Input struct {
	held    map[sdl.Scancode]bool
	actions []Action
}

// New creates an input handler.
func New() *Input {
	return &Input{
		held:    make(map[sdl.Scancode]bool),
		actions: make([]Action, 0, 8),
	}
}

// Update polls SDL events. It reports whether the window was closed.
func (i *Input) Update() bool {
	i.actions = i.actions[:0]
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			i.Key(e.Keysym.Scancode, e.Type == sdl.KEYDOWN, e.Repeat != 0)
		}
	}
	return quit
}

// Key records one key transition.
func (i *Input) Key(code sdl.Scancode, down, repeat bool) {
	i.held[code] = down
	if down && !repeat {
		if a, ok := bindings[code]; ok {
			i.actions = append(i.actions, a)
		}
	}
}

// Actions returns the actions pressed during the last Update.
func (i *Input) Actions() []Action {
	return i.actions
}

// Pressed reports whether a was pressed during the last Update.
func (i *Input) Pressed(a Action) bool {
	for _, got := range i.actions {
		if got == a {
			return true
		}
	}
	return false
}

// Direction is the movement the held keys ask for, y-up. Opposite keys
// cancel out.
func (i *Input) Direction() math.Vec2 {
	var d math.Vec2
	if i.anyHeld(eastKeys) {
		d.X++
	}
	if i.anyHeld(westKeys) {
		d.X--
	}
	if i.anyHeld(northKeys) {
		d.Y++
	}
	if i.anyHeld(southKeys) {
		d.Y--
	}
	return d
}

func (i *Input) anyHeld(keys []sdl.Scancode) bool {
	for _, k := range keys {
		if i.held[k] {
			return true
		}
	}
	return false
}
