package spatial

import (
	"errors"
	"testing"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

func TestSolidsNear(t *testing.T) {
	s := NewSolids(testBounds, 16)
	tile := collision.CenteredRect(16, 16)
	for i := 0; i < 5; i++ {
		if err := s.Add(ID(i), tile, math.Vec2{X: float32(i) * 16}); err != nil {
			t.Fatalf("Add(%d) failed: %v", i, err)
		}
	}

	near := s.Near(math.Vec2{}, 20)
	if len(near) != 2 {
		t.Fatalf("expected 2 solids, got %d", len(near))
	}
	want := collision.AbsBBox{Min: math.Vec2{X: 8, Y: -8}, Max: math.Vec2{X: 24, Y: 8}}
	if near[1].ID != 1 || near[1].Box != want {
		t.Errorf("unexpected solid %+v", near[1])
	}
}

func TestSolidsRemoveKeepsStoresInStep(t *testing.T) {
	s := NewSolids(testBounds, 16)
	s.Add(1, collision.CenteredRect(2, 2), math.Vec2{})

	if !s.Remove(1) {
		t.Fatal("Remove should report an existing solid")
	}
	if s.Len() != 0 || s.Index().Len() != 0 {
		t.Errorf("stores out of step: %d boxes, %d indexed", s.Len(), s.Index().Len())
	}
	if got := s.Near(math.Vec2{}, 10); len(got) != 0 {
		t.Errorf("removed solid still found: %v", got)
	}
}

func TestSolidsAddOutOfBounds(t *testing.T) {
	s := NewSolids(testBounds, 16)
	err := s.Add(1, collision.CenteredRect(2, 2), math.Vec2{X: 1000})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if _, ok := s.Get(1); ok {
		t.Error("failed add left a box behind")
	}
}

func TestSolidsMove(t *testing.T) {
	s := NewSolids(testBounds, 16)
	s.Add(1, collision.CenteredRect(2, 2), math.Vec2{})

	if err := s.Move(1, math.Vec2{X: 40}); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	sol, _ := s.Get(1)
	if sol.Box.Min.X != 39 || sol.Box.Max.X != 41 {
		t.Errorf("box not moved: %+v", sol.Box)
	}
	if got := s.Near(math.Vec2{X: 40}, 1); len(got) != 1 {
		t.Errorf("moved solid not found at new position")
	}

	if err := s.Move(2, math.Vec2{}); !errors.Is(err, ErrUnknownID) {
		t.Errorf("expected ErrUnknownID, got %v", err)
	}
}

func TestSolidsAll(t *testing.T) {
	s := NewSolids(testBounds, 16)
	s.Add(3, collision.CenteredRect(2, 2), math.Vec2{X: 100})
	s.Add(1, collision.CenteredRect(2, 2), math.Vec2{X: -100})

	all := s.All()
	if len(all) != 2 || all[0].ID != 1 || all[1].ID != 3 {
		t.Errorf("All() = %+v", all)
	}
}
