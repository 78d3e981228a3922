package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igharvest/pkg/export"
	"igharvest/pkg/ui"
)

var exportFormats []string

// exportCmd re-exports a saved list
var exportCmd = &cobra.Command{
	Use:   "export <list.txt>",
	Short: "Export a saved i,url list as text or an archive",
	Long: `Read a list written by a previous run ("i,url" per line, bare URLs are
accepted too) and export it again, typically to download the media into a zip
archive after the browser session has ended.`,
	Example: `  igharvest export exports/instagram-images-2024-03-09.txt --format archive
  igharvest export list.txt --format archive --compression zstd`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringSliceVarP(&exportFormats, "format", "f", []string{"archive"}, "export formats: text, archive")
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "export directory")
	exportCmd.Flags().StringVar(&compression, "compression", "", "archive compression: deflate, zstd or store")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(map[string]interface{}{
		"output":      outputDir,
		"compression": compression,
	})
	if err != nil {
		return err
	}
	formats, err := export.ParseFormats(exportFormats)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open list: %w", err)
	}
	urls, err := export.ReadText(f)
	f.Close()
	if err != nil {
		return err
	}
	ui.PrintInfo("Items", fmt.Sprintf("%d from %s", len(urls), args[0]))

	var reporter ui.Reporter = ui.NopReporter{}
	if !quiet {
		reporter = ui.NewProgressDisplay(args[0], verbose)
	}
	if err := exportAll(cfg, log, urls, formats, reporter); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
