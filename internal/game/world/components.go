package world

import (
	"github.com/yohamta/donburi"

	"github.com/Faultbox/topdown/internal/assets"
	"github.com/Faultbox/topdown/internal/engine/character"
	"github.com/Faultbox/topdown/internal/engine/movement"
	"github.com/Faultbox/topdown/internal/engine/spatial"
	"github.com/Faultbox/topdown/pkg/math"
)

var (
	Player = donburi.NewTag().SetName("Player")
	Enemy  = donburi.NewTag().SetName("Enemy")
	Wall   = donburi.NewTag().SetName("Wall")
)

// Position is an entity's origin in world units.
var Position = donburi.NewComponentType[math.Vec2]()

// HeightData is how far an entity is above the floor and how fast that is
// changing.
type HeightData struct {
	Z    float32
	Rise float32 // vertical speed, kept between ticks
}

var Height = donburi.NewComponentType[HeightData]()

var Motion = donburi.NewComponentType[movement.Motion]()

var Colliders = donburi.NewComponentType[character.Colliders]()

// IntentData is what an entity wants to do this tick.
type IntentData struct {
	Dir   math.Vec2 // any length; zero stands still
	Speed float32
}

var Intent = donburi.NewComponentType[IntentData]()

// AnimationData drives an entity's sprite.
type AnimationData struct {
	State *character.CharAnimationState
	Idle  AnimationRef
	Move  AnimationRef
	// Moving records which of Idle and Move was last requested.
	Moving bool
}

// AnimationRef is an animation, either fixed or tracked through the asset
// manager so reloads reach it.
type AnimationRef struct {
	Handle    assets.Handle
	Animation *character.CharAnimation
}

var Animation = donburi.NewComponentType[AnimationData]()

// ChaseData makes an entity walk toward the nearest player in range.
type ChaseData struct {
	Radius float32
}

var Chase = donburi.NewComponentType[ChaseData]()

// ActorData links an entity to the actor index.
type ActorData struct {
	ID spatial.ID
}

var Actor = donburi.NewComponentType[ActorData]()

// SolidData links a wall entity to its solid.
type SolidData struct {
	ID spatial.ID
}

var Solid = donburi.NewComponentType[SolidData]()
