package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"igharvest/pkg/browser"
	"igharvest/pkg/config"
	"igharvest/pkg/export"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/scraper"
	"igharvest/pkg/ui"
	"igharvest/pkg/ui/tui"
)

var (
	// Run command flags
	runMode     string
	assumeYes   bool
	exportList  []string
	useTUI      bool
	headless    bool
	controlURL  string
	outputDir   string
	maxPosts    int
	maxMedia    int
	compression string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [profile-url | username]",
	Short: "Collect media from an Instagram profile",
	Long: `Open an Instagram profile in a browser and collect its media.

Modes:
  smart  only multi-item (carousel) posts, single-image posts are skipped
  full   every post, carousels walked to the end
  quick  scroll the profile and take what the grid shows, no posts opened

When attached to a running browser with --control-url and no profile is given,
the tab already showing a profile page is used.`,
	Example: `  # Smart mode against a username, export the list and an archive
  igharvest run natgeo --export text,archive

  # Reuse your own logged-in Chrome started with --remote-debugging-port=9222
  igharvest run --control-url http://127.0.0.1:9222 --mode full

  # Unattended quick run
  igharvest run https://www.instagram.com/natgeo/ --mode quick --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runMode, "mode", "m", "", "collection mode: smart, full or quick (default from config: smart)")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	runCmd.Flags().StringSliceVarP(&exportList, "export", "e", nil, "export formats: text, archive")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "full-screen progress view")
	runCmd.Flags().BoolVar(&headless, "headless", false, "launch the browser headless")
	runCmd.Flags().StringVar(&controlURL, "control-url", "", "attach to a running browser (ws:// or http://host:port)")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "export directory")
	runCmd.Flags().IntVar(&maxPosts, "max-posts", 0, "maximum posts to open")
	runCmd.Flags().IntVar(&maxMedia, "max-media", 0, "stop once this many media were collected")
	runCmd.Flags().StringVar(&compression, "compression", "", "archive compression: deflate, zstd or store")
}

func runFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{
		"mode":        runMode,
		"control-url": controlURL,
		"max-posts":   maxPosts,
		"max-media":   maxMedia,
		"output":      outputDir,
		"export":      exportList,
		"compression": compression,
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	return flags
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(runFlags(cmd))
	if err != nil {
		return err
	}
	if useTUI {
		cfg.Logging.Console = false
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return err
		}
		log = logger.GetLogger()
	}

	mode, ok := models.ParseMode(cfg.Collection.Mode)
	if !ok {
		return fmt.Errorf("unknown mode %q", cfg.Collection.Mode)
	}
	formats, err := export.ParseFormats(cfg.Export.Formats)
	if err != nil {
		return err
	}

	profile := ""
	if len(args) == 1 {
		if profile, err = instagram.ResolveProfileURL(args[0]); err != nil {
			return err
		}
	} else if cfg.Browser.ControlURL == "" {
		return fmt.Errorf("a profile URL or username is required unless --control-url is set")
	}

	target := profile
	if target == "" {
		target = "the profile open in the attached browser"
	}
	if err := confirm(fmt.Sprintf("About to run a %s collection on %s.", mode, target), assumeYes); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := browser.Launch(ctx, cfg.Browser, log)
	if err != nil {
		return err
	}
	defer b.Close()

	page, err := openProfile(ctx, b, profile)
	if err != nil {
		return err
	}
	defer page.Close()
	if profile == "" {
		profile, _ = page.URL(ctx)
	}

	loc := instagram.NewLocator(page, log)
	s := scraper.New(page, loc, cfg, log)

	var (
		reporter ui.Reporter
		display  *ui.ProgressDisplay
		view     *tui.TUI
	)
	switch {
	case useTUI:
		view = tui.NewTUI(profile, mode, stop)
		view.Start()
		reporter = view
	case quiet:
		reporter = ui.NopReporter{}
	default:
		display = ui.NewProgressDisplay(profile, verbose)
		reporter = display
	}
	s.SetReporter(reporter)

	log.WithFields(map[string]interface{}{"profile": profile, "mode": string(mode)}).Info("Starting collection run")
	report, runErr := s.Run(ctx, mode)

	// a TUI still on screen shows the exports in its own panel
	var results []exportResult
	exported := false
	if runErr == nil && view != nil && view.Running() {
		results, exported = runExports(cfg, log, report.URLs(), formats, view), true
	}

	if view != nil {
		if err := view.Stop(); err != nil {
			log.WithError(err).Warn("TUI exited with an error")
		}
	}
	if display != nil {
		display.Complete(report)
	}
	fmt.Println()
	ui.PrintResults(os.Stdout, report)
	ui.NewNotifier(cfg.Notifications).RunFinished(report)

	if runErr != nil {
		return runErr
	}
	if !exported {
		results = runExports(cfg, log, report.URLs(), formats, exportReporter(reporter, view, profile))
	}
	return printExports(results)
}

// openProfile reuses a tab already on a profile when attached, otherwise opens one
func openProfile(ctx context.Context, b *browser.Browser, profile string) (*browser.Page, error) {
	if b.Attached() {
		page, ok := b.Active(func(u string) bool {
			if profile == "" {
				return instagram.IsProfileURL(u)
			}
			return strings.TrimSuffix(u, "/") == strings.TrimSuffix(profile, "/")
		})
		if ok {
			return page, nil
		}
		if profile == "" {
			return nil, fmt.Errorf("no tab in the attached browser shows a profile page")
		}
	}
	return b.Open(ctx, profile)
}

// exportReporter hands export progress to the line display once the TUI is
// gone, since a stopped program drops every message.
func exportReporter(current ui.Reporter, view *tui.TUI, profile string) ui.Reporter {
	if view == nil || view.Running() {
		return current
	}
	if quiet {
		return ui.NopReporter{}
	}
	return ui.NewProgressDisplay(profile, verbose)
}

type exportResult struct {
	format export.Format
	out    *export.Outcome
	err    error
}

// exportAll writes every requested format and prints the outcomes
func exportAll(cfg *config.Config, log logger.Logger, urls []string, formats []export.Format, reporter ui.Reporter) error {
	return printExports(runExports(cfg, log, urls, formats, reporter))
}

// runExports runs each format in turn. The run context may already be
// cancelled, so exports get their own interruptible context.
func runExports(cfg *config.Config, log logger.Logger, urls []string, formats []export.Format, reporter ui.Reporter) []exportResult {
	if len(formats) == 0 {
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp, err := export.NewFromConfig(cfg.Export, log)
	if err != nil {
		return []exportResult{{format: formats[0], err: err}}
	}
	exp.SetReporter(reporter)

	results := make([]exportResult, 0, len(formats))
	for _, f := range formats {
		out, err := exp.Export(ctx, urls, f)
		results = append(results, exportResult{format: f, out: out, err: err})
	}
	return results
}

// printExports prints every outcome and returns the first failure
func printExports(results []exportResult) error {
	var firstErr error
	for _, r := range results {
		printOutcome(r.out)
		if r.err != nil {
			ui.PrintError(fmt.Sprintf("Export %s failed", r.format), r.err)
			if firstErr == nil {
				firstErr = r.err
			}
		}
	}
	return firstErr
}

func printOutcome(out *export.Outcome) {
	if out == nil {
		return
	}
	if out.NoItems {
		ui.PrintWarning(fmt.Sprintf("Export %s: nothing to export", out.Format))
		return
	}
	if out.Path != "" {
		ui.PrintInfo(fmt.Sprintf("Export %s", out.Format), fmt.Sprintf("%s (%d/%d items in %s)", out.Path, out.Succeeded, out.Total, ui.FormatDuration(out.Duration)))
	}
	for _, f := range out.Failures {
		fmt.Printf("  %s %d. %s: %v\n", ui.Red("✗"), f.Index, f.URL, f.Err)
	}
}
