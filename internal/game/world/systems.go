package world

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/engine/character"
	"github.com/Faultbox/topdown/internal/engine/movement"
	"github.com/Faultbox/topdown/internal/engine/spatial"
	"github.com/Faultbox/topdown/internal/logger"
	"github.com/Faultbox/topdown/pkg/math"
)

// rebindAnimations swaps reloaded animations into playback states.
func (w *World) rebindAnimations(e *ecs.ECS) {
	if w.assets == nil {
		return
	}
	Animation.Each(e.World, func(entry *donburi.Entry) {
		a := Animation.Get(entry)
		for _, ref := range []AnimationRef{a.Idle, a.Move} {
			if ref.Handle.IsZero() {
				continue
			}
			anim, err := w.assets.Animation(ref.Handle)
			if err != nil {
				logger.Named(logger.World).Warn("animation unavailable",
					zap.String("path", ref.Handle.Path), zap.Error(err))
				continue
			}
			if a.State.Rebind(anim) {
				w.stats.Rebinds++
			}
		}
	})
}

// chasePlayers points chasers at the nearest player in range, following
// the level's tiles when one is loaded.
func (w *World) chasePlayers(e *ecs.ECS) {
	Chase.Each(e.World, func(entry *donburi.Entry) {
		pos := *Position.Get(entry)
		intent := Intent.Get(entry)
		intent.Dir = math.Vec2{}
		for _, other := range w.ActorsNear(pos, Chase.Get(entry).Radius) {
			target := e.World.Entry(other)
			if !target.HasComponent(Player) {
				continue
			}
			goal := *Position.Get(target)
			intent.Dir = goal.Sub(pos)
			if w.nav != nil {
				if dir, ok := w.nav.Steer(pos, goal); ok {
					intent.Dir = dir
				}
			}
			return
		}
	})
}

// planMotion turns intents into facing and planned velocity.
func (w *World) planMotion(e *ecs.ECS) {
	Intent.Each(e.World, func(entry *donburi.Entry) {
		intent := Intent.Get(entry)
		m := Motion.Get(entry)
		if entry.HasComponent(Height) {
			if h := Height.Get(entry); h.Z > 0 || h.Rise > 0 {
				h.Rise -= w.gravity * float32(w.dt.Seconds())
				m.ZVelocity = h.Rise
			}
		}
		m.Face(intent.Dir)
		if intent.Dir.Length() == 0 {
			m.Velocity = math.Vec2{}
			return
		}
		m.Velocity = intent.Dir.Normalize().Scale(intent.Speed)
	})
}

// faceAnimations picks idle or move animations and the variant for the
// current facing.
func (w *World) faceAnimations(e *ecs.ECS) {
	Animation.Each(e.World, func(entry *donburi.Entry) {
		a := Animation.Get(entry)
		m := Motion.Get(entry)
		moving := m.Velocity.Length() > 0

		ref := a.Idle
		if moving {
			ref = a.Move
		}
		target, err := w.current(ref)
		if err != nil {
			return
		}
		if moving != a.Moving || target != a.State.Animation() {
			a.State.ChangeAnimation(target, a.State.Playback())
			a.Moving = moving
		}

		name, _ := character.SelectDirection(target.Directionality, m.Facing, a.State.FlipX())
		restart := target != a.State.Animation() || name != a.State.Variant()
		character.ApplyFacing(a.State, m.Facing)
		if restart && w.timeScale != 1 {
			a.State.ScaleFrameTimesBy(w.timeScale)
		}
	})
}

func (w *World) animate(e *ecs.ECS) {
	Animation.Each(e.World, func(entry *donburi.Entry) {
		res := Animation.Get(entry).State.Animate(w.dt)
		if res.FrameChanged {
			w.stats.FrameChanges++
		}
		w.stats.Finished += res.Finished
	})
}

func (w *World) syncColliders(e *ecs.ECS) {
	Animation.Each(e.World, func(entry *donburi.Entry) {
		if !entry.HasComponent(Colliders) {
			return
		}
		if character.SyncColliders(Animation.Get(entry).State, Colliders.Get(entry)) {
			w.stats.ColliderSyncs++
		}
	})
}

func (w *World) resolveMovement(e *ecs.ECS) {
	Motion.Each(e.World, func(entry *donburi.Entry) {
		mover := movement.Mover{
			Position: Position.Get(entry),
			Walkbox:  Colliders.Get(entry).Walkbox,
			Motion:   Motion.Get(entry),
		}
		var h *HeightData
		if entry.HasComponent(Height) {
			h = Height.Get(entry)
			mover.Z = &h.Z
		}
		if res := w.resolver.Resolve(mover, w.solids, w.dt); res.Collided {
			w.stats.Collisions++
		}
		if movement.ResolveHeight(mover, w.dt) {
			w.stats.Landings++
		}
		// On the floor and not rising means grounded.
		if h != nil && h.Z <= 0 && h.Rise <= 0 {
			h.Rise = 0
		}
	})
}

// syncActors brings the actor index up to date with this tick's movement.
func (w *World) syncActors(e *ecs.ECS) {
	var current []spatial.Entry
	Actor.Each(e.World, func(entry *donburi.Entry) {
		current = append(current, spatial.Entry{ID: Actor.Get(entry).ID, Loc: *Position.Get(entry)})
	})
	rebuilt, err := w.actors.Sync(current)
	if err != nil {
		logger.Named(logger.World).Warn("actor index out of step", zap.Error(err))
	}
	w.stats.IndexRebuilt = rebuilt
}
