package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogStage logs an orchestrator stage transition
func LogStage(l Logger, runID, from, to string) {
	l.InfoWithFields("Run stage changed", map[string]interface{}{
		"run_id": runID,
		"from":   from,
		"to":     to,
	})
}

// LogPostResult logs the outcome of one open, walk, close cycle
func LogPostResult(l Logger, postID string, index, total, added int, err error) {
	fields := map[string]interface{}{
		"post_id": postID,
		"index":   index,
		"total":   total,
		"added":   added,
	}
	if err != nil {
		l.WithError(err).WarnWithFields("Post failed", fields)
		return
	}
	l.InfoWithFields("Post processed", fields)
}

// LogCloseStrategy logs which dismissal strategy closed an overlay
func LogCloseStrategy(l Logger, strategy string, attempt int, closed bool) {
	fields := map[string]interface{}{
		"strategy": strategy,
		"attempt":  attempt,
		"closed":   closed,
	}
	if closed {
		l.DebugWithFields("Overlay closed", fields)
		return
	}
	l.DebugWithFields("Close strategy had no effect", fields)
}

// LogExportTally logs the per-item result of an export
func LogExportTally(l Logger, format string, succeeded, failed int, duration time.Duration) {
	fields := map[string]interface{}{
		"format":    format,
		"succeeded": succeeded,
		"failed":    failed,
		"duration":  duration,
	}
	if failed > 0 {
		l.WarnWithFields("Export finished with failures", fields)
		return
	}
	l.InfoWithFields("Export finished", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", config)
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.InfoWithFields("Component stopped", map[string]interface{}{
		"component": component,
		"reason":    reason,
	})
}

// OrDefault returns l, or the global logger when l is nil
func OrDefault(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string) {}
func (n *nopLogger) Info(msg string) {}
func (n *nopLogger) Warn(msg string) {}
func (n *nopLogger) Error(msg string) {}
func (n *nopLogger) Fatal(msg string) {}
func (n *nopLogger) WithField(key string, value interface{}) Logger { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (n *nopLogger) WithError(err error) Logger { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger { return nil }
