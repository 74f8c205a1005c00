package logger

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger bundles a zap logger with the level it was built with, so the level
// can be changed while the process runs.
type Logger struct {
	*zap.Logger

	// Level is the live level of every core built from this logger.
	Level zap.AtomicLevel

	base zapcore.Level
}

// New creates a new zap logger based on the configuration.
func New(cfg *Config) (*Logger, error) {
	var config zap.Config

	if cfg.Level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	base := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := base.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}
	config.Level = zap.NewAtomicLevelAt(base)

	// Set format based on configuration
	if cfg.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	} else {
		config.Encoding = "json"
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"

	l, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: l, Level: config.Level, base: base}, nil
}

// SetDebug lowers the level to debug, or restores the configured level.
func (l *Logger) SetDebug(debug bool) {
	if debug {
		l.Level.SetLevel(zapcore.DebugLevel)
		return
	}
	l.Level.SetLevel(l.base)
}

// WithRayID returns a logger with the ray_id field set from the Fiber context.
func WithRayID(l *zap.Logger, c *fiber.Ctx) *zap.Logger {
	rid := c.Locals("ray_id")
	if str, ok := rid.(string); ok && str != "" {
		return l.With(zap.String("ray_id", str))
	}
	return l
}
