package ui

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Faultbox/topdown/internal/game/level"
	"github.com/Faultbox/topdown/internal/game/world"
	"github.com/Faultbox/topdown/pkg/math"
)

const boxTMX = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="4" height="3" tilewidth="16" tileheight="16" infinite="0" nextlayerid="2" nextobjectid="1">
 <tileset firstgid="1" name="walls" tilewidth="16" tileheight="16" tilecount="1" columns="1"/>
 <layer id="1" name="solid" width="4" height="3">
  <data encoding="csv">
1,1,1,1,
1,0,0,1,
1,1,1,1
</data>
 </layer>
</map>
`

func newSim(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	if err := sim.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sim.SetSize(80, 10)
	return sim
}

func cell(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func line(s tcell.Screen, y, n int) string {
	var b strings.Builder
	for x := 0; x < n; x++ {
		b.WriteRune(cell(s, x, y))
	}
	return b.String()
}

func TestDraw(t *testing.T) {
	l, err := level.Load(fstest.MapFS{"box.tmx": {Data: []byte(boxTMX)}}, "box.tmx")
	if err != nil {
		t.Fatalf("level.Load failed: %v", err)
	}
	sim := newSim(t)
	term := NewTerminalOn(sim)
	defer term.Close()

	term.Draw(Frame{
		Level: l,
		Actors: []world.ActorView{
			{Kind: world.KindPlayer, Pos: math.Vec2{X: 24, Y: -24}},
			{Kind: world.KindEnemy, Pos: math.Vec2{X: 40, Y: -24}},
			{Kind: world.KindEnemy, Pos: math.Vec2{X: 500, Y: 500}},
		},
		Stats:  world.TickStats{Tick: 7, Collisions: 1},
		Motion: "ray_test",
	})

	want := []string{"####", "#@e#", "####"}
	for y, row := range want {
		if got := line(sim, y, 4); got != row {
			t.Errorf("row %d = %q, want %q", y, got, row)
		}
	}
	if status := line(sim, 4, 30); !strings.HasPrefix(status, "tick 7  motion ray_test") {
		t.Errorf("unexpected status line %q", status)
	}
	if player := line(sim, 5, 6); player != "player" {
		t.Errorf("expected a player line, got %q", player)
	}
}

func TestDrawAirborne(t *testing.T) {
	l, _ := level.Load(fstest.MapFS{"box.tmx": {Data: []byte(boxTMX)}}, "box.tmx")
	sim := newSim(t)
	term := NewTerminalOn(sim)
	defer term.Close()

	term.Draw(Frame{Level: l, Actors: []world.ActorView{
		{Kind: world.KindPlayer, Pos: math.Vec2{X: 24, Y: -24}, Z: 3},
	}})
	if got := cell(sim, 1, 1); got != GlyphAirborne {
		t.Errorf("expected airborne glyph, got %q", got)
	}
}

func TestQuitKey(t *testing.T) {
	sim := newSim(t)
	term := NewTerminalOn(sim)
	defer term.Close()

	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case <-term.Quit():
	case <-time.After(time.Second):
		t.Fatal("q should close the quit channel")
	}
}
