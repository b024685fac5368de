package character

import (
	"time"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/timer"
	"github.com/Faultbox/topdown/pkg/math"
)

// Sprite is what a renderer needs to draw the current frame.
type Sprite struct {
	Index  int
	FlipX  bool
	Anchor math.Vec2
}

// AnimateResult reports what one Animate call did.
type AnimateResult struct {
	// FrameChanged is set when the frame index was (re)committed this tick,
	// including the first tick after a reset.
	FrameChanged bool
	// Finished counts how many times the last frame completed this tick.
	Finished int
	Sprite   Sprite
	// SpriteChanged is set when Sprite differs from the previous tick's.
	SpriteChanged bool
}

// playhead is the part of the state a transition rewrites.
type playhead struct {
	animation *CharAnimation
	variant   VariantName
	playback  Playback
	frame     int
	timer     timer.CountupTimer
	running   bool
	override  FrameTimeOverride
}

func (p playhead) reset() playhead {
	p.frame = 0
	p.timer = timer.CountupTimer{}
	p.running = false
	p.override = NoOverride()
	return p
}

// pendingTransition collects the change requests made between two ticks.
type pendingTransition struct {
	setAnimation bool
	animation    *CharAnimation
	playback     Playback

	setVariant bool
	variant    VariantName

	setOverride bool
	override    FrameTimeOverride
}

// applyTransition returns the playhead after the requested changes. Switching
// to a different animation or variant restarts from frame 0 with no timer and
// no override; an override requested alongside survives the restart.
func applyTransition(p playhead, t pendingTransition) playhead {
	if t.setAnimation && t.animation != p.animation {
		p.animation = t.animation
		p.playback = t.playback
		p = p.reset()
		if p.animation != nil && p.animation.Variant(p.variant) == nil && !t.setVariant {
			p.variant = p.animation.defaultVariant()
		}
	}
	if t.setVariant && t.variant != p.variant {
		p.variant = t.variant
		p = p.reset()
	}
	if t.setOverride {
		p.override = t.override
	}
	return p
}

// CharAnimationState is one entity's playback of a CharAnimation. Requested
// changes are queued and take effect at the start of the next Animate.
type CharAnimationState struct {
	playhead
	flipX bool

	pending pendingTransition
	queued  bool

	sprite        Sprite
	shown         bool
	spriteDirty   bool
	finishedCycle bool
}

// NewCharAnimationState starts anim on the given variant.
func NewCharAnimationState(anim *CharAnimation, variant VariantName, playback Playback) *CharAnimationState {
	return &CharAnimationState{
		playhead: playhead{
			animation: anim,
			variant:   variant,
			playback:  playback,
			override:  NoOverride(),
		},
	}
}

// Animation returns the animation currently playing.
func (s *CharAnimationState) Animation() *CharAnimation { return s.animation }

// Variant returns the variant currently playing.
func (s *CharAnimationState) Variant() VariantName { return s.variant }

// Frame returns the current frame index within the variant.
func (s *CharAnimationState) Frame() int { return s.frame }

// Playback returns the current playback mode.
func (s *CharAnimationState) Playback() Playback { return s.playback }

// Override returns the frame time override in effect.
func (s *CharAnimationState) Override() FrameTimeOverride { return s.override }

// FlipX reports the requested horizontal flip.
func (s *CharAnimationState) FlipX() bool { return s.flipX }

// Sprite returns the sprite shown after the last Animate.
func (s *CharAnimationState) Sprite() Sprite { return s.sprite }

// Pending reports whether a change is queued for the next tick.
func (s *CharAnimationState) Pending() bool { return s.queued }

// target returns the animation and variant the state is heading to once
// queued changes apply.
func (s *CharAnimationState) target() (*CharAnimation, VariantName) {
	next := applyTransition(s.playhead, s.pending)
	return next.animation, next.variant
}

// ChangeAnimation switches to a different animation. Requesting the
// animation already playing does nothing, playback mode included.
func (s *CharAnimationState) ChangeAnimation(anim *CharAnimation, playback Playback) {
	s.pending.setAnimation = true
	s.pending.animation = anim
	s.pending.playback = playback
	s.queued = true
}

// ChangeVariant switches direction. Requesting the current variant does
// nothing.
func (s *CharAnimationState) ChangeVariant(name VariantName) {
	s.pending.setVariant = true
	s.pending.variant = name
	s.queued = true
}

// SetFlipX sets the horizontal flip shown from the next frame change.
func (s *CharAnimationState) SetFlipX(flip bool) {
	s.flipX = flip
}

// SetFrameTimesTo gives every frame the same duration.
func (s *CharAnimationState) SetFrameTimesTo(millis uint64) {
	s.setOverride(FixedMs(millis))
}

// ScaleFrameTimesBy scales every frame's duration.
func (s *CharAnimationState) ScaleFrameTimesBy(factor float32) {
	s.setOverride(ScaledBy(factor))
}

// SetTotalRunTimeTo stretches the variant to run for millis in total.
func (s *CharAnimationState) SetTotalRunTimeTo(millis uint64) {
	s.setOverride(TotalMs(millis))
}

func (s *CharAnimationState) setOverride(o FrameTimeOverride) {
	s.pending.setOverride = true
	s.pending.override = o
	s.queued = true
}

// TimerJustFinished reports whether the current frame's timer crossed its
// duration on the last tick.
func (s *CharAnimationState) TimerJustFinished() bool {
	return s.running && s.timer.JustFinished()
}

// JustFinishedCycle reports whether the last frame completed on the last
// tick. A Once animation reports this exactly once.
func (s *CharAnimationState) JustFinishedCycle() bool {
	return s.finishedCycle
}

// CurrentFrame returns the frame data being shown, or nil.
func (s *CharAnimationState) CurrentFrame() *CharAnimationFrame {
	v := s.animation.Variant(s.variant)
	if v == nil || s.frame >= len(v.Frames) {
		return nil
	}
	return &v.Frames[s.frame]
}

// Rebind swaps in a reloaded copy of the same animation without restarting
// playback. Animations with a different ID are ignored.
func (s *CharAnimationState) Rebind(anim *CharAnimation) bool {
	if anim == nil || s.animation == nil || anim.ID != s.animation.ID || anim == s.animation {
		return false
	}
	s.animation = anim
	if s.pending.animation != nil && s.pending.animation.ID == anim.ID {
		s.pending.animation = anim
	}
	if v := anim.Variant(s.variant); v == nil || s.frame >= len(v.Frames) {
		s.playhead = s.playhead.reset()
		if v == nil {
			s.variant = anim.defaultVariant()
		}
	}
	s.spriteDirty = true
	return true
}

// Animate applies queued changes and advances playback by dt.
//
// The first tick after a reset starts the frame timer without advancing.
// Later ticks may pass through several frames; time past each frame's end
// carries into the next. A Once animation stops on its last frame while its
// timer keeps counting.
func (s *CharAnimationState) Animate(dt time.Duration) AnimateResult {
	if s.queued {
		s.playhead = applyTransition(s.playhead, s.pending)
		s.pending = pendingTransition{}
		s.queued = false
	}
	s.finishedCycle = false

	var res AnimateResult
	variant := s.animation.Variant(s.variant)
	if variant == nil || len(variant.Frames) == 0 {
		res.Sprite = s.sprite
		return res
	}
	if s.frame >= len(variant.Frames) {
		s.frame = 0
		s.running = false
	}

	if !s.running {
		s.timer = timer.New(variant.ResolvedFrameTime(s.frame, s.override))
		s.running = true
		res.FrameChanged = true
	} else {
		s.timer.Tick(dt)
		steps := 0
		for s.timer.JustFinished() {
			next := (s.frame + 1) % len(variant.Frames)
			if next == 0 {
				res.Finished++
				if s.playback == Once {
					break
				}
			}

			res.FrameChanged = true
			excess := s.timer.CountupElapsed()
			s.frame = next
			s.timer = timer.New(variant.ResolvedFrameTime(s.frame, s.override))
			s.timer.Tick(excess)

			// All-zero frame times would spin forever.
			steps++
			if steps >= len(variant.Frames) && s.timer.Duration() == 0 {
				break
			}
		}
	}
	s.finishedCycle = res.Finished > 0

	if res.FrameChanged {
		frame := &variant.Frames[s.frame]
		sprite := Sprite{Index: frame.Index, FlipX: s.flipX, Anchor: frame.Anchor}
		if s.flipX {
			sprite.Anchor.X = -sprite.Anchor.X
		}
		if !s.shown || sprite != s.sprite {
			res.SpriteChanged = true
			s.spriteDirty = true
		}
		s.sprite = sprite
		s.shown = true
	}
	res.Sprite = s.sprite
	return res
}

// Colliders returns the current frame's boxes, mirrored to match the sprite.
func (s *CharAnimationState) Colliders() Colliders {
	var c Colliders
	frame := s.CurrentFrame()
	if frame == nil {
		return c
	}
	flip := s.sprite.FlipX
	if frame.Walkbox != nil {
		c.Walkbox = mirrored(*frame.Walkbox, flip)
	}
	c.Hitbox = mirroredPtr(frame.Hitbox, flip)
	c.Hurtbox = mirroredPtr(frame.Hurtbox, flip)
	return c
}

func mirrored(r collision.Rect, flip bool) collision.Rect {
	if flip {
		return r.FlipX()
	}
	return r
}

func mirroredPtr(r *collision.Rect, flip bool) *collision.Rect {
	if r == nil {
		return nil
	}
	m := mirrored(*r, flip)
	return &m
}
