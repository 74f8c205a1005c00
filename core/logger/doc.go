// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework.
//
// # Runtime Level
//
// The returned Logger carries its zap.AtomicLevel. SetDebug switches every
// derived logger to debug and back without rebuilding anything, which is how
// the settings.debug flag takes effect on config reload.
//
// # Context Awareness
//
// The WithRayID helper extracts the RayID from a Fiber context and attaches it to the
// log entry, so all logs related to one request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Server started")
//	log.SetDebug(cfg.Settings.Debug)
//
//	// In a request handler:
//	l := logger.WithRayID(log.Logger, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
