// Package compass maps vectors and angles onto discrete facing directions.
package compass

import (
	"errors"
	"fmt"
	gomath "math"
	"strings"

	"github.com/Faultbox/topdown/pkg/math"
)

// ErrUnknownDirection is returned when a name does not match any Dir.
var ErrUnknownDirection = errors.New("unknown compass direction")

// Dir is a discrete facing direction. Angles follow the y-up convention:
// east is 0 radians, north is Pi/2.
type Dir int

const (
	Neutral Dir = iota
	E
	N
	W
	S
	NE
	NW
	SW
	SE
)

var dirNames = [...]string{
	Neutral: "Neutral",
	E:       "E",
	N:       "N",
	W:       "W",
	S:       "S",
	NE:      "NE",
	NW:      "NW",
	SW:      "SW",
	SE:      "SE",
}

// String returns the canonical name of the direction.
func (d Dir) String() string {
	if d < 0 || int(d) >= len(dirNames) {
		return fmt.Sprintf("Dir(%d)", int(d))
	}
	return dirNames[d]
}

// ParseDir resolves a name such as " ne " or "Neutral" to a Dir.
// Matching ignores case and surrounding whitespace.
func ParseDir(name string) (Dir, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "e":
		return E, nil
	case "n":
		return N, nil
	case "w":
		return W, nil
	case "s":
		return S, nil
	case "ne":
		return NE, nil
	case "nw":
		return NW, nil
	case "sw":
		return SW, nil
	case "se":
		return SE, nil
	case "neutral":
		return Neutral, nil
	}
	return Neutral, fmt.Errorf("%w: %q", ErrUnknownDirection, name)
}

// Westward reports whether d has a west component.
func (d Dir) Westward() bool {
	return d == W || d == NW || d == SW
}

// Eastward reports whether d has an east component.
func (d Dir) Eastward() bool {
	return d == E || d == NE || d == SE
}

// Horizontal returns E, W or Neutral. Exactly vertical motion counts as E.
// Zero, NaN and infinite vectors are Neutral.
func Horizontal(motion math.Vec2) Dir {
	if !usable(motion) {
		return Neutral
	}
	if motion.X < 0 {
		return W
	}
	return E
}

// Vertical returns N, S or Neutral. Exactly horizontal motion counts as S.
func Vertical(motion math.Vec2) Dir {
	if !usable(motion) {
		return Neutral
	}
	if motion.Y > 0 {
		return N
	}
	return S
}

// Cardinal returns the nearest of E, N, W, S, or Neutral. Exact diagonals
// resolve to the horizontal direction.
func Cardinal(motion math.Vec2) Dir {
	if !usable(motion) {
		return Neutral
	}
	return CardinalFromAngle(motion.Angle())
}

// Ordinal returns the nearest of the eight directions, or Neutral.
func Ordinal(motion math.Vec2) Dir {
	if !usable(motion) {
		return Neutral
	}
	return OrdinalFromAngle(motion.Angle())
}

// Float32 machine epsilon, used to push diagonal boundaries toward the
// horizontal directions.
const epsilon32 = 1.1920929e-07

const (
	cardinalNE float32 = gomath.Pi/4 + epsilon32
	cardinalNW float32 = 3*gomath.Pi/4 - epsilon32
	cardinalSW float32 = -3*gomath.Pi/4 + epsilon32
	cardinalSE float32 = -gomath.Pi/4 - epsilon32
)

// CardinalFromAngle buckets an angle in [-Pi, Pi] into E, N, W or S.
func CardinalFromAngle(angle float32) Dir {
	switch {
	case angle >= cardinalSE && angle <= cardinalNE:
		return E
	case angle > cardinalNE && angle < cardinalNW:
		return N
	case angle >= cardinalNW || angle <= cardinalSW:
		return W
	case angle > cardinalSW && angle < cardinalSE:
		return S
	}
	// NaN.
	return Neutral
}

const (
	ordinalENE float32 = 1 * gomath.Pi / 8
	ordinalNNE float32 = 3 * gomath.Pi / 8
	ordinalNNW float32 = 5 * gomath.Pi / 8
	ordinalWNW float32 = 7 * gomath.Pi / 8
	ordinalWSW float32 = -7 * gomath.Pi / 8
	ordinalSSW float32 = -5 * gomath.Pi / 8
	ordinalSSE float32 = -3 * gomath.Pi / 8
	ordinalESE float32 = -1 * gomath.Pi / 8
)

// OrdinalFromAngle buckets an angle in [-Pi, Pi] into one of eight directions.
func OrdinalFromAngle(angle float32) Dir {
	switch {
	case angle > ordinalESE && angle <= ordinalENE:
		return E
	case angle > ordinalENE && angle <= ordinalNNE:
		return NE
	case angle > ordinalNNE && angle <= ordinalNNW:
		return N
	case angle > ordinalNNW && angle <= ordinalWNW:
		return NW
	case angle > ordinalWNW || angle <= ordinalWSW:
		return W
	case angle > ordinalWSW && angle <= ordinalSSW:
		return SW
	case angle > ordinalSSW && angle <= ordinalSSE:
		return S
	case angle > ordinalSSE && angle <= ordinalESE:
		return SE
	}
	return Neutral
}

func usable(v math.Vec2) bool {
	return v.IsFinite() && !v.IsZero()
}
