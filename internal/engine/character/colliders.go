package character

import "github.com/Faultbox/topdown/internal/engine/collision"

// Colliders are an entity's per-frame collision boxes, relative to its
// position. An entity with no walkbox on a frame gets a zero rect at its
// origin; hit and hurt boxes are nil when the frame has none.
type Colliders struct {
	Walkbox collision.Rect
	Hitbox  *collision.Rect
	Hurtbox *collision.Rect
}

// SyncColliders copies the current frame's boxes into c if the displayed
// sprite changed since the last sync. It reports whether it wrote anything.
func SyncColliders(s *CharAnimationState, c *Colliders) bool {
	if !s.spriteDirty {
		return false
	}
	*c = s.Colliders()
	s.spriteDirty = false
	return true
}
