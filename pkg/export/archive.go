package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	"igharvest/internal/downloader"
	errs "igharvest/pkg/errors"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// EntryName derives a zip entry name from the last path segment of u,
// falling back to ig-img-<index>.jpg
func EntryName(u string, index int) string {
	seg := ""
	if parsed, err := url.Parse(u); err == nil {
		seg = path.Base(parsed.Path)
	} else {
		seg = path.Base(strings.SplitN(u, "?", 2)[0])
	}
	if seg == "." || seg == "/" {
		seg = ""
	}
	seg = unsafeNameChars.ReplaceAllString(seg, "_")
	if strings.Trim(seg, "._") == "" {
		return fmt.Sprintf("ig-img-%d.jpg", index)
	}
	return seg
}

// EntryNames names every url, suffixing collisions as name-2.ext, name-3.ext
func EntryNames(urls []string) []string {
	names := make([]string, len(urls))
	used := make(map[string]bool)
	for i, u := range urls {
		name := EntryName(u, i+1)
		if used[name] {
			ext := path.Ext(name)
			stem := strings.TrimSuffix(name, ext)
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
				if !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// compressionMethod maps the configured compression onto a zip method
func compressionMethod(name string) uint16 {
	switch name {
	case "zstd":
		return zstd.ZipMethodWinZip
	case "store":
		return zip.Store
	default:
		return zip.Deflate
	}
}

func newZipWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor(zstd.WithEncoderLevel(zstd.SpeedDefault)))
	return zw
}

func (e *Exporter) archive(ctx context.Context, urls []string, out *Outcome) error {
	if e.fetcher == nil {
		return errs.New(errs.ErrorTypeExportFailure, "no media fetcher configured")
	}
	artifact, err := e.store.Create(e.name("zip"))
	if err != nil {
		out.Failed = len(urls)
		return errs.Wrap(errs.ErrorTypeExportFailure, err, "failed to create archive")
	}

	names := EntryNames(urls)
	jobs := make([]downloader.Job, len(urls))
	for i, u := range urls {
		jobs[i] = downloader.Job{Index: i + 1, URL: u}
	}

	method := compressionMethod(e.cfg.Compression)
	zw := newZipWriter(artifact)
	now := e.now()
	var writeErr error

	pool := downloader.NewWorkerPool(e.cfg.Concurrency, e.fetcher, e.logger)
	runErr := pool.Run(ctx, jobs, func(r downloader.Result) {
		if r.Error == nil && writeErr == nil {
			header := &zip.FileHeader{Name: names[r.Job.Index-1], Method: method, Modified: now}
			w, err := zw.CreateHeader(header)
			if err == nil {
				_, err = w.Write(r.Data)
			}
			if err != nil {
				writeErr = err
			}
		}
		if r.Error != nil || writeErr != nil {
			cause := r.Error
			if cause == nil {
				cause = writeErr
			}
			out.Failed++
			out.Failures = append(out.Failures, Failure{
				Index: r.Job.Index,
				URL:   r.Job.URL,
				Err:   errs.Wrap(errs.ErrorTypeExportFailure, cause, "item %d", r.Job.Index),
			})
			e.reporter.LogWarning("Failed to fetch item %d: %v", r.Job.Index, cause)
		} else {
			out.Succeeded++
		}
		e.reporter.ExportProgress(string(FormatArchive), out.Succeeded, out.Failed, len(urls))
	})

	if runErr != nil {
		artifact.Abort()
		return errs.Wrap(errs.ErrorTypeRunAborted, runErr, "archive export cancelled")
	}
	if writeErr != nil {
		artifact.Abort()
		return errs.Wrap(errs.ErrorTypeExportFailure, writeErr, "failed to write archive")
	}
	if out.Succeeded == 0 {
		artifact.Abort()
		return errs.New(errs.ErrorTypeExportFailure, "all %d items failed to download", len(urls))
	}
	if err := zw.Close(); err != nil {
		artifact.Abort()
		return errs.Wrap(errs.ErrorTypeExportFailure, err, "failed to finish archive")
	}
	p, err := artifact.Commit()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeExportFailure, err, "failed to save archive")
	}
	out.Path = p
	return nil
}
