// Package game runs the sandbox: a level, its characters and a scripted
// player, stepped at a fixed tick rate.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/assets"
	"github.com/Faultbox/topdown/internal/config"
	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/movement"
	"github.com/Faultbox/topdown/internal/game/level"
	"github.com/Faultbox/topdown/internal/game/ui"
	"github.com/Faultbox/topdown/internal/game/world"
	"github.com/Faultbox/topdown/internal/logger"
	"github.com/Faultbox/topdown/pkg/math"
)

const (
	// JumpSpeed is the scripted player's launch speed, in units/s.
	JumpSpeed float32 = 100
	// ChaseRadius is how far enemies notice the player.
	ChaseRadius float32 = 80
)

// arena is used when no level is configured.
var arena = collision.Rect{
	Min: math.Vec2{X: -256, Y: -256},
	Max: math.Vec2{X: 256, Y: 256},
}

// ErrNoPlayer is returned when nothing could be spawned for the script to
// drive.
var ErrNoPlayer = errors.New("no player spawned")

// Summary totals the per-tick stats of a run.
type Summary struct {
	Ticks         uint64
	Collisions    int
	Landings      int
	FrameChanges  int
	Finished      int
	ColliderSyncs int
	Rebinds       int
	IndexRebuilds int
}

func (s *Summary) add(t world.TickStats) {
	s.Ticks = t.Tick
	s.Collisions += t.Collisions
	s.Landings += t.Landings
	s.FrameChanges += t.FrameChanges
	s.Finished += t.Finished
	s.ColliderSyncs += t.ColliderSyncs
	s.Rebinds += t.Rebinds
	if t.IndexRebuilt {
		s.IndexRebuilds++
	}
}

// Game is one sandbox session.
type Game struct {
	cfg     *config.Config
	assets  *assets.Manager
	watcher *assets.Watcher
	level   *level.Level
	world   *world.World
	player  donburi.Entity
	script  *Script
	term    *ui.Terminal
}

// New loads the configured level and animations and spawns its characters.
func New(cfg *config.Config) (*Game, error) {
	log := logger.Named(logger.Game)

	kind, err := cfg.MotionKind()
	if err != nil {
		return nil, err
	}
	resolver, err := movement.New(kind, cfg.Motion.ScanRadius)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:    cfg,
		assets: assets.NewManager(cfg.Assets.Dir),
		script: DefaultScript(),
	}

	bounds := arena
	if cfg.Simulation.Level != "" {
		g.level, err = level.LoadFile(cfg.Simulation.Level)
		if err != nil {
			return nil, err
		}
		bounds = g.level.Bounds()
	}

	g.world = world.New(world.Options{
		Bounds:    bounds,
		Resolver:  resolver,
		Assets:    g.assets,
		TimeScale: cfg.Animation.TimeScale,
	})
	if g.level != nil {
		if err := g.world.LoadLevel(g.level); err != nil {
			return nil, err
		}
	}
	if err := g.spawn(); err != nil {
		return nil, err
	}

	log.Info("sandbox ready",
		zap.String("motion", string(kind)),
		zap.String("level", cfg.Simulation.Level),
		zap.Int("actors", len(g.world.Actors())))
	return g, nil
}

// spawn places the level's characters, or a lone player at the origin.
func (g *Game) spawn() error {
	var spawns []level.Spawn
	if g.level != nil {
		spawns = g.level.Spawns
	}
	if len(spawns) == 0 {
		spawns = []level.Spawn{{Name: "player", Kind: string(world.KindPlayer)}}
	}

	players := 0
	for _, s := range spawns {
		spec := world.CharacterSpec{Pos: s.Pos}
		path := s.Animation
		switch world.Kind(s.Kind) {
		case world.KindPlayer:
			spec.Kind = world.KindPlayer
			spec.Speed = movement.SpeedRun
			if path == "" {
				path = g.cfg.Animation.Player
			}
		case world.KindEnemy:
			spec.Kind = world.KindEnemy
			spec.Speed = movement.SpeedEnemyRun
			spec.ChaseRadius = ChaseRadius
			if path == "" {
				path = g.cfg.Animation.Enemy
			}
			if path == "" {
				path = g.cfg.Animation.Player
			}
		default:
			logger.Named(logger.Game).Warn("skipping spawn of unknown kind",
				zap.String("name", s.Name), zap.String("kind", s.Kind))
			continue
		}

		h, err := g.assets.Load(path)
		if err != nil {
			return fmt.Errorf("spawn %s: %w", s.Name, err)
		}
		spec.Idle = world.AnimationRef{Handle: h}
		e, err := g.world.SpawnCharacter(spec)
		if err != nil {
			return fmt.Errorf("spawn %s: %w", s.Name, err)
		}
		if spec.Kind == world.KindPlayer && players == 0 {
			g.player = e
		}
		if spec.Kind == world.KindPlayer {
			players++
		}
	}
	if players == 0 {
		return ErrNoPlayer
	}
	return nil
}

// World exposes the simulated world.
func (g *Game) World() *world.World {
	return g.world
}

// Player returns the scripted player.
func (g *Game) Player() donburi.Entity {
	return g.player
}

// SetScript replaces the player's input script.
func (g *Game) SetScript(s *Script) {
	g.script = s
}

// AttachTerminal draws every tick to term and stops when it quits. Ticks
// are then paced in real time.
func (g *Game) AttachTerminal(term *ui.Terminal) {
	g.term = term
}

// Run steps the world until the configured tick count is reached, ctx is
// done or the terminal quits. Runs without a tick count, or with a
// terminal, are paced at the tick rate; others run flat out.
func (g *Game) Run(ctx context.Context) (Summary, error) {
	log := logger.Named(logger.Game)
	dt := g.cfg.TickDuration()
	limit := g.cfg.Simulation.Ticks

	if g.cfg.Assets.HotReload {
		w, err := g.assets.Watch(g.cfg.Assets.Debounce)
		if err != nil {
			log.Warn("hot reload unavailable", zap.Error(err))
		} else {
			g.watcher = w
			go func() {
				if err := g.assets.Run(ctx, w); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("hot reload stopped", zap.Error(err))
				}
			}()
		}
	}

	var pace <-chan time.Time
	if limit == 0 || g.term != nil {
		ticker := time.NewTicker(dt)
		defer ticker.Stop()
		pace = ticker.C
	}
	var quit <-chan struct{}
	if g.term != nil {
		quit = g.term.Quit()
	}

	var sum Summary
	for limit == 0 || int(sum.Ticks) < limit {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		case <-quit:
			return sum, nil
		default:
		}

		dir, jump := g.script.Next()
		if err := g.world.SetIntent(g.player, dir); err != nil {
			return sum, err
		}
		if jump {
			if _, err := g.world.Jump(g.player, JumpSpeed); err != nil {
				return sum, err
			}
		}
		stats := g.world.Step(dt)
		sum.add(stats)

		if g.term != nil {
			g.term.Draw(ui.Frame{
				Level:  g.level,
				Actors: g.world.Actors(),
				Stats:  stats,
				Motion: g.cfg.Motion.Kind,
			})
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-quit:
				return sum, nil
			case <-pace:
			}
		}
	}

	hits, misses := g.assets.CacheStats()
	log.Info("run finished",
		zap.Uint64("ticks", sum.Ticks),
		zap.Int("collisions", sum.Collisions),
		zap.Int("landings", sum.Landings),
		zap.Int("frame_changes", sum.FrameChanges),
		zap.Int("rebinds", sum.Rebinds),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses))
	return sum, nil
}

// Close releases the watcher and loaded assets.
func (g *Game) Close() {
	if g.watcher != nil {
		g.watcher.Close()
	}
	g.assets.Close()
}
