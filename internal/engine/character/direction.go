package character

import "github.com/Faultbox/topdown/internal/engine/compass"

// SelectDirection picks the variant and flip for an entity facing the given
// angle (radians, y-up).
//
// A OneE animation always plays E and flips when facing anywhere west of
// vertical. Facing due north or south keeps the prior flip, so walking
// straight up or down does not flicker.
func SelectDirection(d Directionality, facing float32, priorFlip bool) (VariantName, bool) {
	switch d {
	case DirectionalityOneE:
		flip := priorFlip
		switch compass.OrdinalFromAngle(facing) {
		case compass.E, compass.NE, compass.SE:
			flip = false
		case compass.W, compass.NW, compass.SW:
			flip = true
		}
		return compass.E, flip
	case DirectionalityFour:
		return compass.CardinalFromAngle(facing), false
	default:
		return compass.Neutral, false
	}
}

// ApplyFacing queues the variant for facing and sets the flip. It does
// nothing until the state has an animation.
func ApplyFacing(s *CharAnimationState, facing float32) {
	anim, _ := s.target()
	if anim == nil {
		return
	}
	name, flip := SelectDirection(anim.Directionality, facing, s.FlipX())
	s.ChangeVariant(name)
	s.SetFlipX(flip)
}
