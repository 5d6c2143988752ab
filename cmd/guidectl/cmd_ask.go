package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"parentguide-backend/app"
	"parentguide-backend/linker"
	"parentguide-backend/models"

	"github.com/spf13/cobra"
)

var (
	askLanguage string
	askLocation string
	askUrgency  string
	askContext  string
)

// askCmd runs one question through the full pipeline
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and print the enriched answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askLanguage, "lang", "l", "", "preferred language tag (en, es, ...)")
	askCmd.Flags().StringVar(&askLocation, "location", "", `where the family lives, e.g. "Eugene, OR"`)
	askCmd.Flags().StringVar(&askUrgency, "urgency", "", "normal, urgent or emergency")
	askCmd.Flags().StringVar(&askContext, "context", "", "extra background for the question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	env, err := a.Guidance.Ask(ctx, models.AskRequest{
		Question:     strings.Join(args, " "),
		Language:     askLanguage,
		UserLocation: models.Location{Raw: askLocation},
		Urgency:      models.ParseUrgency(askUrgency),
		Context:      askContext,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}
	printEnvelope(out, env)
	return nil
}

func printEnvelope(w io.Writer, env *models.Envelope) {
	if !env.Success {
		fmt.Fprintf(w, "No AI answer (%s)\n\n", env.Error)
		for name, msg := range env.Errors {
			fmt.Fprintf(w, "  %s: %s\n", name, msg)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, linker.PlainText(env.FallbackGuidance))
		return
	}

	r := env.Result
	fmt.Fprintf(w, "Answered by %s in %s", r.AIUsed, r.Language)
	if env.Cached {
		fmt.Fprint(w, " (cached)")
	}
	fmt.Fprintf(w, "\n\n%s\n", linker.PlainText(r.MegaResponse))

	if len(r.SuggestedResources) > 0 {
		fmt.Fprintln(w, "\nSuggested resources:")
		for _, s := range r.SuggestedResources {
			fmt.Fprintf(w, "  - %s <%s>\n", s.Title, s.URL)
		}
	}
	if len(r.RelatedReadings) > 0 {
		fmt.Fprintln(w, "\nRelated reading:")
		for _, rr := range r.RelatedReadings {
			fmt.Fprintf(w, "  - %s\n", rr.Prompt)
		}
	}
}
