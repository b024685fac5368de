package spatial

import (
	"fmt"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

// Solid is an immovable box found near a query point.
type Solid struct {
	ID  ID
	Loc math.Vec2
	Box collision.AbsBBox
}

type solidShape struct {
	rect   collision.Rect
	origin math.Vec2
}

// Solids keeps the proximity index and the solid boxes in step: every call
// that changes one changes the other, so a query never sees an ID without
// a box.
type Solids struct {
	index  *Index
	shapes map[ID]solidShape
}

// NewSolids creates an empty store covering bounds.
func NewSolids(bounds collision.Rect, cellSize int) *Solids {
	return &Solids{
		index:  NewIndex(bounds, cellSize),
		shapes: make(map[ID]solidShape),
	}
}

// Add registers a solid with a local rect placed at origin.
func (s *Solids) Add(id ID, rect collision.Rect, origin math.Vec2) error {
	if err := s.index.Insert(id, origin); err != nil {
		return fmt.Errorf("adding solid %d: %w", id, err)
	}
	s.shapes[id] = solidShape{rect: rect, origin: origin}
	return nil
}

// Remove drops a solid. It reports whether it existed.
func (s *Solids) Remove(id ID) bool {
	if !s.index.Remove(id) {
		return false
	}
	delete(s.shapes, id)
	return true
}

// Move relocates a solid. Call it between ticks, never during a
// resolution pass.
func (s *Solids) Move(id ID, origin math.Vec2) error {
	shape, ok := s.shapes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	if _, err := s.index.Move(id, origin); err != nil {
		return err
	}
	shape.origin = origin
	s.shapes[id] = shape
	return nil
}

// Get returns one solid.
func (s *Solids) Get(id ID) (Solid, bool) {
	shape, ok := s.shapes[id]
	if !ok {
		return Solid{}, false
	}
	return Solid{ID: id, Loc: shape.origin, Box: collision.FromRect(shape.rect, shape.origin)}, true
}

// Near returns the solids whose indexed position is within radius of p.
// Boxes use the solid's exact origin, which may differ from the indexed
// location by less than MinMoved.
func (s *Solids) Near(p math.Vec2, radius float32) []Solid {
	entries := s.index.WithinDistance(p, radius)
	out := make([]Solid, 0, len(entries))
	for _, e := range entries {
		shape := s.shapes[e.ID]
		out = append(out, Solid{
			ID:  e.ID,
			Loc: e.Loc,
			Box: collision.FromRect(shape.rect, shape.origin),
		})
	}
	return out
}

// All returns every solid, ordered by ID.
func (s *Solids) All() []Solid {
	entries := s.index.Entries()
	out := make([]Solid, 0, len(entries))
	for _, e := range entries {
		sol, _ := s.Get(e.ID)
		out = append(out, sol)
	}
	return out
}

// Len returns the number of solids.
func (s *Solids) Len() int {
	return len(s.shapes)
}

// Index exposes the underlying proximity index.
func (s *Solids) Index() *Index {
	return s.index
}
