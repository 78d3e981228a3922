package ui

import "igharvest/pkg/models"

// Reporter receives progress from a collection run and its export.
// ExportProgress may be called from several goroutines.
type Reporter interface {
	StageChanged(stage models.Stage)
	PostsDiscovered(found, target int)
	PostStarted(ref models.PostReference, index, total int)
	PostFinished(ref models.PostReference, added, media int, err error)
	ExportProgress(format string, done, failed, total int)
	LogInfo(format string, args ...interface{})
	LogSuccess(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
}

// NopReporter discards everything
type NopReporter struct{}

func (NopReporter) StageChanged(models.Stage) {}
func (NopReporter) PostsDiscovered(int, int) {}
func (NopReporter) PostStarted(models.PostReference, int, int) {}
func (NopReporter) PostFinished(models.PostReference, int, int, error) {}
func (NopReporter) ExportProgress(string, int, int, int) {}
func (NopReporter) LogInfo(string, ...interface{}) {}
func (NopReporter) LogSuccess(string, ...interface{}) {}
func (NopReporter) LogWarning(string, ...interface{}) {}
func (NopReporter) LogError(string, ...interface{}) {}

var _ Reporter = NopReporter{}
