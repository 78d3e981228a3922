package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"igharvest/pkg/browser"
	"igharvest/pkg/dom"
	"igharvest/pkg/dom/htmldoc"
	"igharvest/pkg/instagram"
	"igharvest/pkg/ui"
)

var selftestHTML string

// selftestCmd checks the selectors against a page
var selftestCmd = &cobra.Command{
	Use:   "selftest [profile-url]",
	Short: "Count selector candidates for every element role",
	Long: `Run every locator role against a live profile page, or a saved HTML
snapshot with --html, and print how many candidates each role finds.

Roles are scoped to the open post overlay when one is present, so saving a page
with a post open checks the carousel controls as well. A role with zero
candidates usually means the page markup changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
	selftestCmd.Flags().StringVar(&selftestHTML, "html", "", "saved HTML page to check instead of a live page")
	selftestCmd.Flags().StringVar(&controlURL, "control-url", "", "attach to a running browser")
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(map[string]interface{}{"control-url": controlURL})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var doc instagram.Querier
	source := selftestHTML
	if selftestHTML != "" {
		d, err := htmldoc.Open(selftestHTML)
		if err != nil {
			return err
		}
		doc = d
	} else {
		if len(args) == 0 {
			return fmt.Errorf("a profile URL or --html is required")
		}
		profile, err := instagram.ResolveProfileURL(args[0])
		if err != nil {
			return err
		}
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
		doc = page
		source = profile
	}

	counts := instagram.NewLocator(doc, log).Diagnose(ctx)
	ui.PrintInfo("Selector check", source)
	missing := 0
	for _, role := range dom.AllRoles {
		n := counts[role]
		switch {
		case n < 0:
			fmt.Printf("  %s %-22s error\n", ui.Red("✗"), role)
			missing++
		case n == 0:
			fmt.Printf("  %s %-22s 0\n", ui.Yellow("-"), role)
			missing++
		default:
			fmt.Printf("  %s %-22s %d\n", ui.Green("✓"), role, n)
		}
	}
	if missing > 0 {
		ui.PrintWarning(fmt.Sprintf("%d roles found nothing; overlay roles need a post to be open", missing))
	}
	return nil
}
