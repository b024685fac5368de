// viewer plays a character animation in a window. Walk with WASD or the
// arrows and jump with space. M cycles resolvers, 1-3 toggle overlays,
// -/= change the time scale, PageUp/PageDown zoom and F12 saves a screenshot.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/assets"
	"github.com/Faultbox/topdown/internal/config"
	"github.com/Faultbox/topdown/internal/engine/audio"
	"github.com/Faultbox/topdown/internal/engine/camera"
	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/debug"
	"github.com/Faultbox/topdown/internal/engine/input"
	"github.com/Faultbox/topdown/internal/engine/movement"
	"github.com/Faultbox/topdown/internal/engine/window"
	"github.com/Faultbox/topdown/internal/game/level"
	"github.com/Faultbox/topdown/internal/game/world"
	"github.com/Faultbox/topdown/internal/logger"
	"github.com/Faultbox/topdown/pkg/math"
)

const jumpSpeed float32 = 100

var arena = collision.Rect{
	Min: math.Vec2{X: -256, Y: -256},
	Max: math.Vec2{X: 256, Y: 256},
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	v, err := newViewer(cfg)
	if err != nil {
		logger.Error("failed to start viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

type viewer struct {
	cfg     *config.Config
	win     *window.Window
	camera  *camera.FollowCamera
	sound   *audio.Manager
	input   *input.Input
	assets  *assets.Manager
	watcher *assets.Watcher
	level   *level.Level
	grid    *debug.TileGridRenderer
	world   *world.World
	player  donburi.Entity
	bumped  bool
	motion  int
	layers  debug.Layers
	shots   *debug.ScreenshotCapture
	stop    context.CancelFunc
}

func newViewer(cfg *config.Config) (*viewer, error) {
	kind, err := cfg.MotionKind()
	if err != nil {
		return nil, err
	}
	resolver, err := movement.New(kind, cfg.Motion.ScanRadius)
	if err != nil {
		return nil, err
	}

	v := &viewer{
		cfg:    cfg,
		camera: camera.NewFollowCamera(float32(cfg.Viewer.Scale)),
		input:  input.New(),
		assets: assets.NewManager(cfg.Assets.Dir),
		layers: debug.Layers{
			Walkboxes: cfg.Debug.Walkboxes,
			Origins:   cfg.Debug.Origins,
			Hitboxes:  cfg.Debug.Hitboxes,
		},
		shots: debug.NewScreenshotCapture(cfg.Debug.ScreenshotDir, "viewer"),
	}
	for i, k := range movement.Kinds {
		if k == kind {
			v.motion = i
		}
	}

	bounds := arena
	if cfg.Simulation.Level != "" {
		if v.level, err = level.LoadFile(cfg.Simulation.Level); err != nil {
			return nil, err
		}
		bounds = v.level.Bounds()
		v.grid = debug.NewTileGridRenderer(v.level)
	}
	v.world = world.New(world.Options{
		Bounds:    bounds,
		Resolver:  resolver,
		Assets:    v.assets,
		TimeScale: cfg.Animation.TimeScale,
	})
	if v.level != nil {
		if err := v.world.LoadLevel(v.level); err != nil {
			return nil, err
		}
	}

	path := cfg.Animation.Player
	if args := config.Args(); len(args) > 0 {
		path = args[0]
	}
	h, err := v.assets.Load(path)
	if err != nil {
		return nil, err
	}
	var start math.Vec2
	if v.level != nil {
		if spawns := v.level.SpawnsOf(string(world.KindPlayer)); len(spawns) > 0 {
			start = spawns[0].Pos
		}
	}
	v.player, err = v.world.SpawnCharacter(world.CharacterSpec{
		Kind:  world.KindPlayer,
		Pos:   start,
		Idle:  world.AnimationRef{Handle: h},
		Speed: movement.SpeedRun,
	})
	if err != nil {
		return nil, err
	}

	v.camera.Snap(start)

	v.win, err = window.New(window.Config{
		Title:  "topdown viewer - " + path,
		Width:  cfg.Viewer.Width,
		Height: cfg.Viewer.Height,
		VSync:  cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Audio.Enabled {
		v.sound = loadSounds(cfg)
	}
	return v, nil
}

// loadSounds opens the speaker and loads whichever cues exist. Failures
// only log.
func loadSounds(cfg *config.Config) *audio.Manager {
	log := logger.Named(logger.Audio)
	m := audio.New()
	m.SetMasterVolume(cfg.Audio.Volume)
	if err := m.Init(); err != nil {
		log.Warn("audio unavailable", zap.Error(err))
		return nil
	}
	for name, path := range map[string]string{"land": cfg.Audio.Land, "bump": cfg.Audio.Bump} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(cfg.Assets.Dir, path))
		if err != nil {
			log.Debug("cue not found", zap.String("cue", name), zap.String("path", path))
			continue
		}
		if err := m.Load(name, data); err != nil {
			log.Warn("cue not loaded", zap.String("cue", name), zap.Error(err))
		}
	}
	return m
}

func (v *viewer) play(cue string) {
	if v.sound == nil || !v.sound.Has(cue) {
		return
	}
	if err := v.sound.Play(cue); err != nil {
		logger.Named(logger.Audio).Debug("cue failed", zap.String("cue", cue), zap.Error(err))
	}
}

// Run loops until the window closes, stepping the world at the configured
// tick rate however fast frames are drawn.
func (v *viewer) Run() error {
	log := logger.Named(logger.Viewer)
	ctx, stop := context.WithCancel(context.Background())
	v.stop = stop

	if v.cfg.Assets.HotReload {
		w, err := v.assets.Watch(v.cfg.Assets.Debounce)
		if err != nil {
			log.Warn("hot reload unavailable", zap.Error(err))
		} else {
			v.watcher = w
			go v.assets.Run(ctx, w)
		}
	}

	dt := v.cfg.TickDuration()
	last := time.Now()
	var lag time.Duration
	for {
		if v.input.Update() {
			return nil
		}
		for _, a := range v.input.Actions() {
			if a == input.ActionQuit {
				return nil
			}
			v.act(a)
		}
		if err := v.world.SetIntent(v.player, v.input.Direction()); err != nil {
			return err
		}

		now := time.Now()
		lag += now.Sub(last)
		last = now
		for lag >= dt {
			v.step(dt)
			lag -= dt
		}

		if err := v.win.Present(v.draw().Img); err != nil {
			return err
		}
		if !v.cfg.Viewer.VSync {
			time.Sleep(time.Millisecond)
		}
	}
}

// step advances the world one tick and reacts to what the player hit.
func (v *viewer) step(dt time.Duration) {
	stats := v.world.Step(dt)
	if stats.Landings > 0 {
		v.play("land")
	}
	p, ok := v.world.Actor(v.player)
	if !ok {
		return
	}
	if p.Collided && !v.bumped {
		v.play("bump")
	}
	v.bumped = p.Collided
	v.camera.Follow(p.Pos, dt)
	if v.level != nil {
		v.camera.Clamp(v.level.Bounds(), v.win.Size())
	}
}

func (v *viewer) act(a input.Action) {
	log := logger.Named(logger.Viewer)
	switch a {
	case input.ActionJump:
		if _, err := v.world.Jump(v.player, jumpSpeed); err != nil {
			log.Warn("jump failed", zap.Error(err))
		}
	case input.ActionSlower, input.ActionFaster:
		scale := v.world.TimeScale() * 2
		if a == input.ActionFaster {
			scale = v.world.TimeScale() / 2
		}
		v.world.SetTimeScale(scale)
		log.Info("time scale changed", zap.Float32("scale", v.world.TimeScale()))
	case input.ActionNextMotion:
		v.motion = (v.motion + 1) % len(movement.Kinds)
		kind := movement.Kinds[v.motion]
		r, err := movement.New(kind, v.cfg.Motion.ScanRadius)
		if err != nil {
			log.Warn("resolver unavailable", zap.Error(err))
			return
		}
		v.world.SetResolver(r)
		v.win.SetTitle("topdown viewer - " + string(kind))
		log.Info("motion changed", zap.String("kind", string(kind)))
	case input.ActionZoomIn:
		v.camera.HandleZoom(1)
	case input.ActionZoomOut:
		v.camera.HandleZoom(-1)
	case input.ActionToggleWalkboxes:
		v.layers.Walkboxes = !v.layers.Walkboxes
	case input.ActionToggleHitboxes:
		v.layers.Hitboxes = !v.layers.Hitboxes
	case input.ActionToggleOrigins:
		v.layers.Origins = !v.layers.Origins
	case input.ActionScreenshot:
		path, err := v.shots.CaptureFromImage(v.draw().Img)
		if err != nil {
			log.Warn("screenshot failed", zap.Error(err))
			return
		}
		log.Info("screenshot saved", zap.String("path", path))
	}
}

// draw renders the level, sprites and overlays from the camera.
func (v *viewer) draw() *debug.Canvas {
	c := debug.NewCanvas(v.win.Size(), v.camera.Center, v.camera.Scale)
	if v.grid != nil {
		v.grid.Draw(c)
	}
	for _, a := range v.world.Actors() {
		if a.Animation != nil {
			// Height lifts the sprite, not the walkbox.
			lifted := math.Vec2{X: a.Pos.X, Y: a.Pos.Y + a.Z}
			c.Sprite(lifted, a.Animation.Texture, a.Animation.Layout.Cell(a.Sprite.Index), a.Sprite)
		}
		c.Colliders(a.Pos, a.Colliders, v.layers)
	}
	return c
}

func (v *viewer) Close() {
	if v.stop != nil {
		v.stop()
	}
	if v.watcher != nil {
		v.watcher.Close()
	}
	if v.sound != nil {
		v.sound.Close()
	}
	if v.win != nil {
		v.win.Close()
	}
	v.assets.Close()
}
