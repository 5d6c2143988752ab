package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"parentguide-backend/app"
	"parentguide-backend/catalog"
	"parentguide-backend/linker"

	"github.com/spf13/cobra"
)

var resourcesQuery string

// resourcesCmd lists the catalog matches for a location without calling a provider
var resourcesCmd = &cobra.Command{
	Use:   "resources [location]",
	Short: "List catalog resources for a location",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResources,
}

func init() {
	resourcesCmd.Flags().StringVarP(&resourcesQuery, "query", "q", "", "question text used for topic matching")
}

func runResources(cmd *cobra.Command, args []string) error {
	location := strings.Join(args, " ")
	if location == "" && resourcesQuery == "" {
		return fmt.Errorf("a location or --query is required")
	}

	cat, err := app.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	res := linker.New(cat).Match("", location, resourcesQuery)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"region":             res.Region,
			"county":             res.County,
			"total":              res.Total(),
			"resources_by_level": res.ByLevel,
			"emergency_contacts": cat.EmergencyContacts(res.Region),
		})
	}

	fmt.Fprintf(out, "Region: %s  County: %s  Total: %d\n", orNone(res.Region), orNone(res.County), res.Total())
	for _, level := range catalog.Levels {
		list := res.ByLevel[level]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n[%s]\n", level)
		for _, r := range list {
			fmt.Fprintf(out, "  - %s", r.Name)
			if r.URL != "" {
				fmt.Fprintf(out, " <%s>", r.URL)
			}
			if r.Phone != "" {
				fmt.Fprintf(out, " %s", r.Phone)
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
