// Package spatial provides a proximity index over entity positions and the
// solid-box store that movement resolvers query.
package spatial

import (
	"errors"
	"fmt"
	"sort"

	"github.com/solarlune/resolv"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

// Index errors.
var (
	ErrOutOfBounds = errors.New("position outside index bounds")
	ErrUnknownID   = errors.New("id not in index")
)

const (
	// MinMoved is how far an entry must move before the index notices.
	MinMoved float32 = 1.0
	// RebuildAfter is the number of moves in one Sync that triggers a
	// full rebuild instead of per-entry updates.
	RebuildAfter = 100
)

const pointTag = "point"

// ID identifies an indexed entity.
type ID uint64

// Entry is an indexed entity and the position it was last indexed at.
type Entry struct {
	ID  ID
	Loc math.Vec2
}

// Index answers "what is within R of P" over a fixed region. It is not safe
// for concurrent use and must not be mutated while a query's results are
// still being consumed by a resolution pass.
type Index struct {
	space    *resolv.Space
	bounds   collision.Rect
	cellSize int
	objects  map[ID]*resolv.Object
}

// NewIndex creates an empty index covering bounds, bucketed into square
// cells of cellSize units.
func NewIndex(bounds collision.Rect, cellSize int) *Index {
	if cellSize <= 0 {
		cellSize = 16
	}
	idx := &Index{
		bounds:   bounds,
		cellSize: cellSize,
	}
	idx.reset()
	return idx
}

func (idx *Index) reset() {
	w := int(idx.bounds.Width()) + 1
	h := int(idx.bounds.Height()) + 1
	idx.space = resolv.NewSpace(w, h, idx.cellSize, idx.cellSize)
	idx.objects = make(map[ID]*resolv.Object)
}

// Bounds returns the indexed region.
func (idx *Index) Bounds() collision.Rect {
	return idx.bounds
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.objects)
}

func (idx *Index) contains(p math.Vec2) bool {
	b := idx.bounds
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// local converts a world position to space coordinates.
func (idx *Index) local(p math.Vec2) (float64, float64) {
	return float64(p.X - idx.bounds.Min.X), float64(p.Y - idx.bounds.Min.Y)
}

// Insert adds an entry, or moves it if the ID is already present.
func (idx *Index) Insert(id ID, pos math.Vec2) error {
	if !idx.contains(pos) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	if obj, ok := idx.objects[id]; ok {
		idx.place(obj, id, pos)
		return nil
	}
	x, y := idx.local(pos)
	obj := resolv.NewObject(x, y, 1, 1, pointTag)
	obj.Data = Entry{ID: id, Loc: pos}
	idx.space.Add(obj)
	idx.objects[id] = obj
	return nil
}

// Remove deletes an entry. It reports whether the ID was present.
func (idx *Index) Remove(id ID) bool {
	obj, ok := idx.objects[id]
	if !ok {
		return false
	}
	idx.space.Remove(obj)
	delete(idx.objects, id)
	return true
}

// Lookup returns the indexed entry for id.
func (idx *Index) Lookup(id ID) (Entry, bool) {
	obj, ok := idx.objects[id]
	if !ok {
		return Entry{}, false
	}
	return obj.Data.(Entry), true
}

// Move updates an entry's position. Moves shorter than MinMoved are
// ignored; it reports whether the index changed.
func (idx *Index) Move(id ID, pos math.Vec2) (bool, error) {
	obj, ok := idx.objects[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	if !idx.contains(pos) {
		return false, fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	last := obj.Data.(Entry).Loc
	if last.DistanceSquared(pos) < MinMoved*MinMoved {
		return false, nil
	}
	idx.place(obj, id, pos)
	return true, nil
}

func (idx *Index) place(obj *resolv.Object, id ID, pos math.Vec2) {
	obj.X, obj.Y = idx.local(pos)
	obj.Data = Entry{ID: id, Loc: pos}
	obj.Update()
}

// Rebuild replaces the whole index with entries. Entries outside the
// bounds are skipped and reported in the returned error.
func (idx *Index) Rebuild(entries []Entry) error {
	idx.reset()
	var skipped []ID
	for _, e := range entries {
		if err := idx.Insert(e.ID, e.Loc); err != nil {
			skipped = append(skipped, e.ID)
		}
	}
	if len(skipped) > 0 {
		return fmt.Errorf("%w: %d entries skipped", ErrOutOfBounds, len(skipped))
	}
	return nil
}

// Sync brings the index up to date with current positions. IDs not yet
// indexed are inserted; when that adds at least half the current size, or
// more than RebuildAfter entries moved, the index is rebuilt from
// current instead. IDs missing from current are left alone; use Remove.
func (idx *Index) Sync(current []Entry) (rebuilt bool, err error) {
	var added, moved []Entry
	for _, e := range current {
		obj, ok := idx.objects[e.ID]
		if !ok {
			added = append(added, e)
			continue
		}
		if obj.Data.(Entry).Loc.DistanceSquared(e.Loc) >= MinMoved*MinMoved {
			moved = append(moved, e)
		}
	}

	if len(added) > 0 && len(added) >= idx.Len()/2 || len(moved) > RebuildAfter {
		all := make([]Entry, 0, idx.Len()+len(added))
		seen := make(map[ID]bool, len(current))
		for _, e := range current {
			all = append(all, e)
			seen[e.ID] = true
		}
		for id, obj := range idx.objects {
			if !seen[id] {
				all = append(all, obj.Data.(Entry))
			}
		}
		return true, idx.Rebuild(all)
	}

	for _, e := range added {
		if ierr := idx.Insert(e.ID, e.Loc); ierr != nil {
			err = errors.Join(err, ierr)
		}
	}
	for _, e := range moved {
		if _, merr := idx.Move(e.ID, e.Loc); merr != nil {
			err = errors.Join(err, merr)
		}
	}
	return false, err
}

// WithinDistance returns every entry within radius of p, ordered by ID.
func (idx *Index) WithinDistance(p math.Vec2, radius float32) []Entry {
	if radius < 0 || idx.Len() == 0 {
		return nil
	}
	x, y := idx.local(p)
	r := float64(radius)
	query := resolv.NewObject(x-r, y-r, 2*r+1, 2*r+1)
	idx.space.Add(query)
	check := query.Check(0, 0, pointTag)
	idx.space.Remove(query)
	if check == nil {
		return nil
	}

	var out []Entry
	seen := make(map[ID]bool, len(check.Objects))
	for _, obj := range check.Objects {
		e, ok := obj.Data.(Entry)
		if !ok || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		if e.Loc.DistanceSquared(p) <= radius*radius {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Entries returns every indexed entry, ordered by ID.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, 0, len(idx.objects))
	for _, obj := range idx.objects {
		out = append(out, obj.Data.(Entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
