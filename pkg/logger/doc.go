// Package logger provides structured logging for igharvest.
//
// It wraps zerolog behind a small Logger interface so components can take a
// logger as a dependency and tests can swap in a TestLogger that captures
// messages.
//
// Basic usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info", Console: true})
//	logger.Info("Run started")
//	logger.WithField("post_id", id).Warn("Overlay open timed out")
//
// Component loggers:
//
//	log := logger.GetLogger().WithField("component", "carousel")
//	log.DebugWithFields("Advanced", map[string]interface{}{
//	    "step":  3,
//	    "added": 1,
//	})
//
// Console output goes to stderr so it never mixes with result listings on
// stdout. When LoggingConfig.File is set, JSON lines are also appended there.
package logger
