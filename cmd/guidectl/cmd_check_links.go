package main

import (
	"encoding/json"
	"fmt"
	"time"

	"parentguide-backend/app"
	"parentguide-backend/linkcheck"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	checkConcurrency int
	checkRate        float64
	checkTimeout     time.Duration
)

// checkLinksCmd probes every catalog URL
var checkLinksCmd = &cobra.Command{
	Use:   "check-links",
	Short: "Verify that every catalog URL still resolves",
	Long: `Issues a throttled HEAD request (GET when HEAD is refused) against every
resource URL in the catalog and reports the ones that fail.

Exits non-zero when any link is broken.`,
	Args: cobra.NoArgs,
	RunE: runCheckLinks,
}

func init() {
	checkLinksCmd.Flags().IntVar(&checkConcurrency, "concurrency", 8, "maximum requests in flight")
	checkLinksCmd.Flags().Float64Var(&checkRate, "rate", 5, "requests per second")
	checkLinksCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Second, "per-request timeout")
}

func runCheckLinks(cmd *cobra.Command, args []string) error {
	cat, err := app.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	checker := linkcheck.New(linkcheck.Options{
		Concurrency: checkConcurrency,
		Rate:        rate.Limit(checkRate),
		Timeout:     checkTimeout,
	})
	results, err := checker.Check(cmd.Context(), cat.AllResources())
	if err != nil {
		return err
	}

	var broken []linkcheck.Result
	for _, r := range results {
		if !r.OK() {
			broken = append(broken, r)
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range broken {
			if r.Error != "" {
				fmt.Fprintf(out, "FAIL  %s <%s>: %s\n", r.Name, r.URL, r.Error)
			} else {
				fmt.Fprintf(out, "FAIL  %s <%s>: HTTP %d\n", r.Name, r.URL, r.Status)
			}
		}
		fmt.Fprintf(out, "%d checked, %d broken\n", len(results), len(broken))
	}

	if len(broken) > 0 {
		return fmt.Errorf("%d broken links", len(broken))
	}
	return nil
}
