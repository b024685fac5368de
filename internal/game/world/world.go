// Package world hosts entities in a donburi world and advances them one
// fixed tick at a time: intent, facing, animation, colliders, movement.
package world

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/assets"
	"github.com/Faultbox/topdown/internal/engine/character"
	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/movement"
	"github.com/Faultbox/topdown/internal/engine/spatial"
	"github.com/Faultbox/topdown/internal/game/level"
	"github.com/Faultbox/topdown/internal/logger"
	"github.com/Faultbox/topdown/pkg/math"
)

const (
	// DefaultCellSize is the proximity index cell size in world units.
	DefaultCellSize = 16
	// DefaultGravity pulls airborne characters down, in units/s².
	DefaultGravity float32 = 400
)

var (
	ErrNoAnimation   = errors.New("character has no animation")
	ErrUnknownEntity = errors.New("unknown entity")
)

// Kind tells players from enemies.
type Kind string

const (
	KindPlayer Kind = "player"
	KindEnemy  Kind = "enemy"
)

// Options configures a World.
type Options struct {
	Bounds   collision.Rect
	CellSize int
	// Resolver moves characters; nil uses ray testing.
	Resolver movement.Resolver
	// Assets resolves animation handles and delivers reloads. Optional.
	Assets *assets.Manager
	// TimeScale multiplies every frame duration; 0 and 1 play as authored.
	TimeScale float32
	// Gravity for jumps; 0 uses DefaultGravity.
	Gravity float32
}

// TickStats summarizes one Step.
type TickStats struct {
	Tick          uint64
	Collisions    int
	Landings      int
	FrameChanges  int
	Finished      int
	ColliderSyncs int
	Rebinds       int
	IndexRebuilt  bool
}

// World owns the entities and the spatial stores they move through.
type World struct {
	ecs       *ecs.ECS
	solids    *spatial.Solids
	actors    *spatial.Index
	byActor   map[spatial.ID]donburi.Entity
	resolver  movement.Resolver
	assets    *assets.Manager
	timeScale float32
	gravity   float32
	nav       *Navigator

	dt     time.Duration
	tick   uint64
	nextID spatial.ID
	stats  TickStats
}

// New creates an empty world.
func New(opts Options) *World {
	cell := opts.CellSize
	if cell <= 0 {
		cell = DefaultCellSize
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = movement.RayTest{ScanRadius: movement.DefaultScanRadius}
	}
	scale := opts.TimeScale
	if scale <= 0 {
		scale = 1
	}
	gravity := opts.Gravity
	if gravity <= 0 {
		gravity = DefaultGravity
	}

	w := &World{
		ecs:       ecs.NewECS(donburi.NewWorld()),
		solids:    spatial.NewSolids(opts.Bounds, cell),
		actors:    spatial.NewIndex(opts.Bounds, cell),
		byActor:   make(map[spatial.ID]donburi.Entity),
		resolver:  resolver,
		assets:    opts.Assets,
		timeScale: scale,
		gravity:   gravity,
	}

	w.ecs.AddSystem(w.rebindAnimations)
	w.ecs.AddSystem(w.chasePlayers)
	w.ecs.AddSystem(w.planMotion)
	w.ecs.AddSystem(w.faceAnimations)
	w.ecs.AddSystem(w.animate)
	w.ecs.AddSystem(w.syncColliders)
	w.ecs.AddSystem(w.resolveMovement)
	w.ecs.AddSystem(w.syncActors)
	return w
}

// ECS exposes the underlying donburi ECS.
func (w *World) ECS() *ecs.ECS {
	return w.ecs
}

// Solids returns the solid set movement resolves against.
func (w *World) Solids() *spatial.Solids {
	return w.solids
}

// Tick returns the number of completed steps.
func (w *World) Tick() uint64 {
	return w.tick
}

// Navigator returns the level navigator, or nil before a level is loaded.
func (w *World) Navigator() *Navigator {
	return w.nav
}

// SetResolver switches the movement policy from the next step.
func (w *World) SetResolver(r movement.Resolver) {
	w.resolver = r
}

// TimeScale returns the frame time multiplier.
func (w *World) TimeScale() float32 {
	return w.timeScale
}

// SetTimeScale changes the frame time multiplier for playbacks started from
// now on; running ones keep their timing until they restart.
func (w *World) SetTimeScale(scale float32) {
	if scale <= 0 {
		scale = 1
	}
	w.timeScale = scale
}

// Step advances the world by dt.
func (w *World) Step(dt time.Duration) TickStats {
	w.dt = dt
	w.tick++
	w.stats = TickStats{Tick: w.tick}
	w.ecs.Update()
	return w.stats
}

func (w *World) newID() spatial.ID {
	w.nextID++
	return w.nextID
}

// AddSolid places a blocking rect at origin.
func (w *World) AddSolid(rect collision.Rect, origin math.Vec2) (donburi.Entity, error) {
	id := w.newID()
	if err := w.solids.Add(id, rect, origin); err != nil {
		return 0, err
	}
	world := w.ecs.World
	entity := world.Create(Wall, Position, Solid)
	entry := world.Entry(entity)
	Position.SetValue(entry, origin)
	Solid.SetValue(entry, SolidData{ID: id})
	return entity, nil
}

// LoadLevel adds every solid of l. Chasers path around its solid tiles from
// then on.
func (w *World) LoadLevel(l *level.Level) error {
	for i, s := range l.Solids {
		if _, err := w.AddSolid(s.Rect, s.Origin); err != nil {
			return fmt.Errorf("level %s solid %d: %w", l.Name, i, err)
		}
	}
	w.nav = NewNavigator(l)
	logger.Named(logger.World).Info("level loaded",
		zap.String("name", l.Name),
		zap.Int("solids", len(l.Solids)),
		zap.Int("spawns", len(l.Spawns)))
	return nil
}

// CharacterSpec describes a character to spawn.
type CharacterSpec struct {
	Kind     Kind
	Pos      math.Vec2
	Idle     AnimationRef
	Move     AnimationRef // zero reuses Idle
	Playback character.Playback
	Speed    float32
	// ChaseRadius makes the character walk toward players within it.
	ChaseRadius float32
}

// current resolves the animation a ref points at right now.
func (w *World) current(ref AnimationRef) (*character.CharAnimation, error) {
	if !ref.Handle.IsZero() && w.assets != nil {
		return w.assets.Animation(ref.Handle)
	}
	if ref.Animation == nil {
		return nil, ErrNoAnimation
	}
	return ref.Animation, nil
}

// SpawnCharacter creates a character facing east.
func (w *World) SpawnCharacter(spec CharacterSpec) (donburi.Entity, error) {
	if spec.Move == (AnimationRef{}) {
		spec.Move = spec.Idle
	}
	idle, err := w.current(spec.Idle)
	if err != nil {
		return 0, err
	}
	if _, err := w.current(spec.Move); err != nil {
		return 0, err
	}

	id := w.newID()
	if err := w.actors.Insert(id, spec.Pos); err != nil {
		return 0, err
	}

	motion := movement.NewMotion(math.Vec2{})
	variant, flip := character.SelectDirection(idle.Directionality, motion.Facing, false)
	state := character.NewCharAnimationState(idle, variant, spec.Playback)
	state.SetFlipX(flip)
	if w.timeScale != 1 {
		state.ScaleFrameTimesBy(w.timeScale)
	}

	tag := Player
	if spec.Kind == KindEnemy {
		tag = Enemy
	}
	components := []donburi.IComponentType{tag, Position, Height, Motion, Colliders, Intent, Animation, Actor}
	if spec.ChaseRadius > 0 {
		components = append(components, Chase)
	}

	world := w.ecs.World
	entity := world.Create(components...)
	entry := world.Entry(entity)
	Position.SetValue(entry, spec.Pos)
	Motion.SetValue(entry, motion)
	Intent.SetValue(entry, IntentData{Speed: spec.Speed})
	Animation.SetValue(entry, AnimationData{State: state, Idle: spec.Idle, Move: spec.Move})
	Actor.SetValue(entry, ActorData{ID: id})
	if spec.ChaseRadius > 0 {
		Chase.SetValue(entry, ChaseData{Radius: spec.ChaseRadius})
	}
	w.byActor[id] = entity

	logger.Named(logger.World).Debug("character spawned",
		zap.String("kind", string(spec.Kind)),
		zap.Float32("x", spec.Pos.X),
		zap.Float32("y", spec.Pos.Y))
	return entity, nil
}

// Despawn removes an entity and everything indexed for it.
func (w *World) Despawn(entity donburi.Entity) error {
	world := w.ecs.World
	if !world.Valid(entity) {
		return ErrUnknownEntity
	}
	entry := world.Entry(entity)
	if entry.HasComponent(Actor) {
		id := Actor.Get(entry).ID
		w.actors.Remove(id)
		delete(w.byActor, id)
	}
	if entry.HasComponent(Solid) {
		w.solids.Remove(Solid.Get(entry).ID)
	}
	world.Remove(entity)
	return nil
}

// SetIntent sets the direction a character wants to go. A zero direction
// stops it.
func (w *World) SetIntent(entity donburi.Entity, dir math.Vec2) error {
	world := w.ecs.World
	if !world.Valid(entity) {
		return ErrUnknownEntity
	}
	entry := world.Entry(entity)
	if !entry.HasComponent(Intent) {
		return fmt.Errorf("%w: entity has no intent", ErrUnknownEntity)
	}
	Intent.Get(entry).Dir = dir
	return nil
}

// Jump launches a character standing on the floor upward at speed.
// Gravity brings it back down. It reports whether the jump started.
func (w *World) Jump(entity donburi.Entity, speed float32) (bool, error) {
	world := w.ecs.World
	if !world.Valid(entity) {
		return false, ErrUnknownEntity
	}
	entry := world.Entry(entity)
	if !entry.HasComponent(Height) {
		return false, fmt.Errorf("%w: entity has no height", ErrUnknownEntity)
	}
	h := Height.Get(entry)
	if h.Z > 0 || h.Rise != 0 {
		return false, nil
	}
	h.Rise = speed
	return true, nil
}

// ActorsNear returns the characters within radius of p, nearest first.
func (w *World) ActorsNear(p math.Vec2, radius float32) []donburi.Entity {
	found := w.actors.WithinDistance(p, radius)
	sort.SliceStable(found, func(i, j int) bool {
		return p.DistanceSquared(found[i].Loc) < p.DistanceSquared(found[j].Loc)
	})
	out := make([]donburi.Entity, 0, len(found))
	for _, e := range found {
		if entity, ok := w.byActor[e.ID]; ok {
			out = append(out, entity)
		}
	}
	return out
}

// ActorView is a read-only snapshot of a character.
type ActorView struct {
	Entity    donburi.Entity
	Kind      Kind
	Pos       math.Vec2
	Z         float32
	Colliders character.Colliders
	Sprite    character.Sprite
	Variant   character.VariantName
	Frame     int
	Collided  bool
	Animation *character.CharAnimation
}

// Actors returns every character in spawn order.
func (w *World) Actors() []ActorView {
	var views []ActorView
	var ids []spatial.ID
	Actor.Each(w.ecs.World, func(entry *donburi.Entry) {
		views = append(views, w.view(entry))
		ids = append(ids, Actor.Get(entry).ID)
	})
	sort.Sort(byID{views, ids})
	return views
}

// Actor returns the view of one character.
func (w *World) Actor(entity donburi.Entity) (ActorView, bool) {
	world := w.ecs.World
	if !world.Valid(entity) {
		return ActorView{}, false
	}
	entry := world.Entry(entity)
	if !entry.HasComponent(Actor) {
		return ActorView{}, false
	}
	return w.view(entry), true
}

func (w *World) view(entry *donburi.Entry) ActorView {
	v := ActorView{
		Entity:    entry.Entity(),
		Kind:      KindPlayer,
		Pos:       *Position.Get(entry),
		Z:         Height.Get(entry).Z,
		Colliders: *Colliders.Get(entry),
	}
	if entry.HasComponent(Enemy) {
		v.Kind = KindEnemy
	}
	if m := Motion.Get(entry); m.Result != nil {
		v.Collided = m.Result.Collided
	}
	state := Animation.Get(entry).State
	v.Sprite = state.Sprite()
	v.Variant = state.Variant()
	v.Frame = state.Frame()
	v.Animation = state.Animation()
	return v
}

type byID struct {
	views []ActorView
	ids   []spatial.ID
}

func (b byID) Len() int           { return len(b.ids) }
func (b byID) Less(i, j int) bool { return b.ids[i] < b.ids[j] }
func (b byID) Swap(i, j int) {
	b.views[i], b.views[j] = b.views[j], b.views[i]
	b.ids[i], b.ids[j] = b.ids[j], b.ids[i]
}
