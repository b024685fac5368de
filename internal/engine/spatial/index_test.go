package spatial

import (
	"errors"
	"testing"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

var testBounds = collision.Rect{
	Min: math.Vec2{X: -500, Y: -500},
	Max: math.Vec2{X: 500, Y: 500},
}

func ids(entries []Entry) []ID {
	out := make([]ID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func sameIDs(a, b []ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIndexWithinDistance(t *testing.T) {
	idx := NewIndex(testBounds, 16)
	points := map[ID]math.Vec2{
		1: {X: 0, Y: 0},
		2: {X: 10, Y: 0},
		3: {X: 50, Y: 50},
		4: {X: -30, Y: 0},
		5: {X: 0, Y: -20},
	}
	for id, p := range points {
		if err := idx.Insert(id, p); err != nil {
			t.Fatalf("Insert(%d) failed: %v", id, err)
		}
	}
	if idx.Len() != 5 {
		t.Fatalf("expected 5 entries, got %d", idx.Len())
	}

	tests := []struct {
		name   string
		center math.Vec2
		radius float32
		want   []ID
	}{
		{"near origin", math.Vec2{}, 15, []ID{1, 2}},
		{"exact radius counts", math.Vec2{}, 20, []ID{1, 2, 5}},
		{"far corner", math.Vec2{X: 45, Y: 45}, 10, []ID{3}},
		{"empty space", math.Vec2{X: 300, Y: -300}, 40, nil},
		{"large radius", math.Vec2{}, 200, []ID{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(idx.WithinDistance(tt.center, tt.radius))
			if !sameIDs(got, tt.want) {
				t.Errorf("WithinDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndexReturnsIndexedLocation(t *testing.T) {
	idx := NewIndex(testBounds, 16)
	idx.Insert(7, math.Vec2{X: 3, Y: 4})

	got := idx.WithinDistance(math.Vec2{}, 10)
	if len(got) != 1 || got[0].Loc != (math.Vec2{X: 3, Y: 4}) {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestIndexOutOfBounds(t *testing.T) {
	idx := NewIndex(testBounds, 16)
	err := idx.Insert(1, math.Vec2{X: 501, Y: 0})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if idx.Len() != 0 {
		t.Error("rejected insert should not be indexed")
	}
}

func TestIndexMove(t *testing.T) {
	idx := NewIndex(testBounds, 16)
	idx.Insert(1, math.Vec2{})

	moved, err := idx.Move(1, math.Vec2{X: 0.5, Y: 0.5})
	if err != nil || moved {
		t.Errorf("sub-unit move should be ignored, got %v %v", moved, err)
	}
	if e, _ := idx.Lookup(1); e.Loc != (math.Vec2{}) {
		t.Errorf("ignored move changed location to %v", e.Loc)
	}

	moved, err = idx.Move(1, math.Vec2{X: 100, Y: 0})
	if err != nil || !moved {
		t.Fatalf("expected move, got %v %v", moved, err)
	}
	if got := idx.WithinDistance(math.Vec2{}, 50); len(got) != 0 {
		t.Errorf("entry still found at old location: %v", got)
	}
	if got := idx.WithinDistance(math.Vec2{X: 100}, 1); len(got) != 1 {
		t.Errorf("entry not found at new location")
	}

	if _, err := idx.Move(99, math.Vec2{}); !errors.Is(err, ErrUnknownID) {
		t.Errorf("expected ErrUnknownID, got %v", err)
	}
}

func TestIndexRemove(t *testing.T) {
	idx := NewIndex(testBounds, 16)
	idx.Insert(1, math.Vec2{})
	idx.Insert(2, math.Vec2{X: 1})

	if !idx.Remove(1) {
		t.Fatal("Remove should report an existing entry")
	}
	if idx.Remove(1) {
		t.Error("second Remove should report nothing removed")
	}
	if got := ids(idx.WithinDistance(math.Vec2{}, 5)); !sameIDs(got, []ID{2}) {
		t.Errorf("WithinDistance() = %v after remove", got)
	}
}

func TestIndexRebuild(t *testing.T) {
	idx := NewIndex(testBounds, 16)
	idx.Insert(1, math.Vec2{})

	err := idx.Rebuild([]Entry{
		{ID: 2, Loc: math.Vec2{X: 10}},
		{ID: 3, Loc: math.Vec2{X: 900}},
	})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected skipped entry to be reported, got %v", err)
	}
	if got := ids(idx.Entries()); !sameIDs(got, []ID{2}) {
		t.Errorf("Entries() = %v", got)
	}
}

func TestIndexSync(t *testing.T) {
	idx := NewIndex(testBounds, 16)
	var all []Entry
	for i := 0; i < 200; i++ {
		e := Entry{ID: ID(i), Loc: math.Vec2{X: float32(i%20) * 10, Y: float32(i/20) * 10}}
		all = append(all, e)
		idx.Insert(e.ID, e.Loc)
	}

	t.Run("few moves update in place", func(t *testing.T) {
		batch := []Entry{
			{ID: 0, Loc: math.Vec2{X: -100}},
			{ID: 1, Loc: math.Vec2{X: 10.2}},
		}
		rebuilt, err := idx.Sync(batch)
		if err != nil || rebuilt {
			t.Fatalf("Sync() = %v, %v", rebuilt, err)
		}
		if e, _ := idx.Lookup(0); e.Loc.X != -100 {
			t.Errorf("entry 0 not moved: %v", e.Loc)
		}
		if e, _ := idx.Lookup(1); e.Loc.X != 10 {
			t.Errorf("entry 1 moved by less than MinMoved: %v", e.Loc)
		}
	})

	t.Run("many moves rebuild", func(t *testing.T) {
		batch := make([]Entry, 0, RebuildAfter+1)
		for i := 0; i <= RebuildAfter; i++ {
			e := all[i]
			e.Loc.Y -= 200
			batch = append(batch, e)
		}
		rebuilt, err := idx.Sync(batch)
		if err != nil || !rebuilt {
			t.Fatalf("Sync() = %v, %v", rebuilt, err)
		}
		if idx.Len() != 200 {
			t.Errorf("rebuild lost entries: %d", idx.Len())
		}
		if e, _ := idx.Lookup(5); e.Loc.Y != -200 {
			t.Errorf("entry 5 not moved: %v", e.Loc)
		}
		if e, _ := idx.Lookup(150); e.Loc != all[150].Loc {
			t.Errorf("unsynced entry changed: %v", e.Loc)
		}
	})

	t.Run("bulk add rebuilds", func(t *testing.T) {
		var batch []Entry
		for i := 200; i < 300; i++ {
			batch = append(batch, Entry{ID: ID(i), Loc: math.Vec2{X: -300, Y: float32(i - 200)}})
		}
		rebuilt, err := idx.Sync(batch)
		if err != nil || !rebuilt {
			t.Fatalf("Sync() = %v, %v", rebuilt, err)
		}
		if idx.Len() != 300 {
			t.Errorf("expected 300 entries, got %d", idx.Len())
		}
	})
}
