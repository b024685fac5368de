// Package window opens an SDL2 window and presents software-rendered frames
// in it.
package window

import (
	"fmt"
	"image"
	"runtime"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/logger"
)

func init() {
	// SDL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
}

// Window wraps an SDL2 window, its renderer and one streaming texture the
// size of the window.
type Window struct {
	config   Config
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
}

// New creates a window.
func New(cfg Config) (*Window, error) {
	log := logger.Named(logger.Window)

	log.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	flags := uint32(sdl.WINDOW_SHOWN)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}

	w := &Window{config: cfg}
	var err error
	w.window, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	rflags := uint32(sdl.RENDERER_ACCELERATED)
	if cfg.VSync {
		rflags |= sdl.RENDERER_PRESENTVSYNC
	}
	w.renderer, err = sdl.CreateRenderer(w.window, -1, rflags)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("SDL_CreateRenderer failed: %w", err)
	}

	// image.NRGBA stores bytes R,G,B,A; ABGR8888 is that order on
	// little-endian machines.
	w.texture, err = w.renderer.CreateTexture(
		uint32(sdl.PIXELFORMAT_ABGR8888),
		sdl.TEXTUREACCESS_STREAMING,
		int32(cfg.Width),
		int32(cfg.Height),
	)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("SDL_CreateTexture failed: %w", err)
	}
	w.texture.SetBlendMode(sdl.BLENDMODE_BLEND)

	log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// Present uploads img and shows it stretched over the whole window. img
// must match the window's configured size.
func (w *Window) Present(img *image.NRGBA) error {
	b := img.Bounds()
	if b.Dx() != w.config.Width || b.Dy() != w.config.Height {
		return fmt.Errorf("frame is %dx%d, window is %dx%d", b.Dx(), b.Dy(), w.config.Width, w.config.Height)
	}
	if len(img.Pix) == 0 {
		return nil
	}
	if err := w.texture.Update(nil, unsafe.Pointer(&img.Pix[0]), img.Stride); err != nil {
		return fmt.Errorf("texture update: %w", err)
	}
	w.renderer.SetDrawColor(0, 0, 0, 255)
	w.renderer.Clear()
	if err := w.renderer.Copy(w.texture, nil, nil); err != nil {
		return fmt.Errorf("render copy: %w", err)
	}
	w.renderer.Present()
	return nil
}

// Size returns the configured frame size.
func (w *Window) Size() image.Point {
	return image.Pt(w.config.Width, w.config.Height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.window.SetTitle(title)
}

// Close destroys the window and shuts SDL2 down.
func (w *Window) Close() {
	logger.Named(logger.Window).Info("closing window")

	if w.texture != nil {
		w.texture.Destroy()
	}
	if w.renderer != nil {
		w.renderer.Destroy()
	}
	if w.window != nil {
		w.window.Destroy()
	}
	sdl.Quit()
}
