// Package export turns the ordered media list of a run into artifacts: a plain
// "i,url" text list or a zip archive of the fetched files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"igharvest/internal/downloader"
	"igharvest/pkg/config"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/storage"
	"igharvest/pkg/ui"
)

// Format selects the artifact kind
type Format string

const (
	FormatText    Format = "text"
	FormatArchive Format = "archive"
)

// ParseFormat accepts "text"/"txt" and "archive"/"zip"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return FormatText, nil
	case "archive", "zip":
		return FormatArchive, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ParseFormats parses a list, dropping duplicates
func ParseFormats(list []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, s := range list {
		f, err := ParseFormat(s)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Failure is one item that could not be exported
type Failure struct {
	Index int
	URL   string
	Err   error
}

// Outcome is the tally of one export
type Outcome struct {
	Format    Format
	NoItems   bool
	Path      string
	Total     int
	Succeeded int
	Failed    int
	Failures  []Failure
	Duration  time.Duration
}

// Exporter writes artifacts into a storage manager
type Exporter struct {
	store    *storage.Manager
	fetcher  downloader.Fetcher
	cfg      config.ExportConfig
	reporter ui.Reporter
	logger   logger.Logger
	now      func() time.Time
}

// New creates an exporter. fetcher is only used for archives.
func New(store *storage.Manager, fetcher downloader.Fetcher, cfg config.ExportConfig, log logger.Logger) *Exporter {
	return &Exporter{
		store:    store,
		fetcher:  fetcher,
		cfg:      cfg,
		reporter: ui.NopReporter{},
		logger:   logger.OrDefault(log).WithField("component", "export"),
		now:      time.Now,
	}
}

// NewFromConfig builds the storage manager and media client from cfg
func NewFromConfig(cfg config.ExportConfig, log logger.Logger) (*Exporter, error) {
	store, err := storage.NewManager(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	client := instagram.NewClient(instagram.ClientConfig{
		Timeout:           cfg.FetchTimeout,
		UserAgent:         cfg.UserAgent,
		Referer:           cfg.Referer,
		MaxAttempts:       cfg.MaxAttempts,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, log)
	return New(store, client, cfg, log), nil
}

// SetReporter sets where progress is reported
func (e *Exporter) SetReporter(r ui.Reporter) {
	if r == nil {
		r = ui.NopReporter{}
	}
	e.reporter = r
}

// Export writes urls in the given format. An empty list writes nothing.
func (e *Exporter) Export(ctx context.Context, urls []string, format Format) (*Outcome, error) {
	out := &Outcome{Format: format, Total: len(urls)}
	if len(urls) == 0 {
		out.NoItems = true
		e.reporter.LogWarning("Nothing to export")
		return out, nil
	}

	start := time.Now()
	var err error
	switch format {
	case FormatText:
		err = e.text(urls, out)
	case FormatArchive:
		err = e.archive(ctx, urls, out)
	default:
		err = errs.New(errs.ErrorTypeExportFailure, "unknown format %q", format)
	}
	out.Duration = time.Since(start)
	logger.LogExportTally(e.logger, string(format), out.Succeeded, out.Failed, out.Duration)
	return out, err
}

func (e *Exporter) name(ext string) string {
	prefix := e.cfg.NamePrefix
	if prefix == "" {
		prefix = "instagram-images"
	}
	return storage.ArtifactName(prefix, e.now(), ext)
}

func (e *Exporter) text(urls []string, out *Outcome) error {
	var buf bytes.Buffer
	for i, u := range urls {
		fmt.Fprintf(&buf, "%d,%s\n", i+1, u)
	}
	path, err := e.store.Save(e.name("txt"), &buf)
	if err != nil {
		out.Failed = len(urls)
		return errs.Wrap(errs.ErrorTypeExportFailure, err, "failed to write text list")
	}
	out.Path = path
	out.Succeeded = len(urls)
	e.reporter.ExportProgress(string(FormatText), len(urls), 0, len(urls))
	return nil
}
