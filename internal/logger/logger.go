// Package logger wires zap for the engine and its tools: a colored console
// core, an optional rotating file core, and one named child per subsystem.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Subsystem names for Named.
const (
	Assets    = "assets"
	Audio     = "audio"
	Collision = "collision"
	Game      = "game"
	Viewer    = "viewer"
	Window    = "window"
	World     = "world"
)

// Log is the root logger. It discards everything until Init is called.
var Log = zap.NewNop()

// FileConfig controls the rotating log file.
type FileConfig struct {
	Path       string // empty disables file output
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig suits sandbox runs: small files, a few kept, plain text
// so they can be tailed.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 14,
	}
}

// Init logs to the console and, when logFile is set, to a rotating file.
func Init(level string, logFile string) error {
	return InitWithFileConfig(level, DefaultFileConfig(logFile), true)
}

// InitWithFileConfig builds the root logger from the given outputs. With no
// console and no file path every entry is dropped.
func InitWithFileConfig(level string, fileCfg FileConfig, console bool) error {
	lvl := parseLevel(level)

	var cores []zapcore.Core
	if console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(true)),
			zapcore.Lock(os.Stdout),
			lvl,
		))
	}
	if fileCfg.Path != "" {
		w := &lumberjack.Logger{
			Filename:   fileCfg.Path,
			MaxSize:    fileCfg.MaxSizeMB,
			MaxBackups: fileCfg.MaxBackups,
			MaxAge:     fileCfg.MaxAgeDays,
			Compress:   fileCfg.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(false)),
			zapcore.AddSync(w),
			lvl,
		))
	}

	if len(cores) == 0 {
		InitNop()
		return nil
	}
	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}

// encoderConfig is shared by both outputs; only the console gets colors
// and a short clock.
func encoderConfig(console bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if console {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

// InitNop drops all logging. Tests call it to stay quiet.
func InitNop() {
	Log = zap.NewNop()
}

// Named returns a child of the root logger for a subsystem. Call it where
// you log rather than caching it, so it follows a later Init.
func Named(subsystem string) *zap.Logger {
	return Log.Named(subsystem)
}

// parseLevel accepts zap's level names in either case plus "warning".
// Anything else is info.
func parseLevel(level string) zapcore.Level {
	if level == "warning" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Sync flushes buffered entries.
func Sync() {
	_ = Log.Sync()
}

// Info logs on the root logger.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Error logs on the root logger.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
