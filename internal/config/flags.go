package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging and collider overlays")
	flagMotion = flag.String("motion", "", "Movement resolver: no_collision, whole_pixel, ray_test, faceplant")
	flagAssets = flag.String("assets", "", "Asset directory")
	flagLevel  = flag.String("level", "", "Tiled level (.tmx) to load")
	flagTicks  = flag.Int("ticks", -1, "Ticks to simulate; 0 runs until interrupted")
	flagTUI    = flag.Bool("tui", false, "Show the terminal debug view")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Debug.Walkboxes = true
		cfg.Debug.Origins = true
	}
	if *flagMotion != "" {
		cfg.Motion.Kind = *flagMotion
	}
	if *flagAssets != "" {
		cfg.Assets.Dir = *flagAssets
	}
	if *flagLevel != "" {
		cfg.Simulation.Level = *flagLevel
	}
	if *flagTicks >= 0 {
		cfg.Simulation.Ticks = *flagTicks
	}
	if *flagTUI {
		cfg.Debug.TUI = true
	}
}
