// Package ui provides the sandbox's terminal debug view.
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/Faultbox/topdown/internal/game/level"
	"github.com/Faultbox/topdown/internal/game/world"
)

// Glyphs drawn for each tile and actor.
const (
	GlyphWall     = '#'
	GlyphFloor    = '.'
	GlyphPlayer   = '@'
	GlyphEnemy    = 'e'
	GlyphAirborne = '^'
)

var (
	wallStyle     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	floorStyle    = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	playerStyle   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	enemyStyle    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	collidedStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Reverse(true)
	statusStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// Frame is everything one draw shows.
type Frame struct {
	Level  *level.Level
	Actors []world.ActorView
	Stats  world.TickStats
	Motion string
}

// Terminal draws frames onto a tcell screen, one cell per tile, and reports
// quit keys.
type Terminal struct {
	screen tcell.Screen
	quit   chan struct{}
}

// NewTerminal opens the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return NewTerminalOn(screen), nil
}

// NewTerminalOn draws to an already initialized screen.
func NewTerminalOn(screen tcell.Screen) *Terminal {
	t := &Terminal{screen: screen, quit: make(chan struct{})}
	go t.listen()
	return t
}

// Quit is closed once the user presses q, Escape or Ctrl-C.
func (t *Terminal) Quit() <-chan struct{} {
	return t.quit
}

func (t *Terminal) listen() {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				close(t.quit)
				return
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// Draw replaces the screen contents with f.
func (t *Terminal) Draw(f Frame) {
	t.screen.Clear()
	w, h := 0, 0
	if f.Level != nil {
		w, h = f.Level.Size()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if f.Level.Solid(x, y) {
					t.screen.SetContent(x, y, GlyphWall, nil, wallStyle)
				} else {
					t.screen.SetContent(x, y, GlyphFloor, nil, floorStyle)
				}
			}
		}
	}

	for _, a := range f.Actors {
		if f.Level == nil {
			break
		}
		x, y := f.Level.TileAt(a.Pos)
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		glyph, style := GlyphPlayer, playerStyle
		if a.Kind == world.KindEnemy {
			glyph, style = GlyphEnemy, enemyStyle
		}
		if a.Z > 0 {
			glyph = GlyphAirborne
		}
		if a.Collided {
			style = collidedStyle
		}
		t.screen.SetContent(x, y, glyph, nil, style)
	}

	t.print(0, h+1, fmt.Sprintf("tick %d  motion %s  collisions %d  landings %d  frames %d",
		f.Stats.Tick, f.Motion, f.Stats.Collisions, f.Stats.Landings, f.Stats.FrameChanges))
	row := h + 2
	for _, a := range f.Actors {
		if a.Kind != world.KindPlayer {
			continue
		}
		tx, ty := 0, 0
		if f.Level != nil {
			tx, ty = f.Level.TileAt(a.Pos)
		}
		t.print(0, row, fmt.Sprintf("player %d  pos (%.1f, %.1f)  tile (%d, %d)  z %.1f  %s frame %d",
			row-h-2, a.Pos.X, a.Pos.Y, tx, ty, a.Z, a.Variant, a.Frame))
		row++
	}
	t.screen.Show()
}

func (t *Terminal) print(x, y int, s string) {
	for i, r := range []rune(s) {
		t.screen.SetContent(x+i, y, r, nil, statusStyle)
	}
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.screen.Fini()
}
