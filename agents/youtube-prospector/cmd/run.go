package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	youtubeprospector "prospector/agents/youtube-prospector"
	"prospector/internal/models"
	"prospector/shared/config"

	"github.com/spf13/cobra"
)

var (
	runNiche   string
	runLang    string
	runMax     int
	runSubsMin int64
	runSubsMax int64
	runAPIKey  string
	runOutDir  string
	runNoCSV   bool
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Prospect a single niche and print the leads",
	Long:  "Search a niche, filter and score the candidates, print the qualified leads and rejections, then write the CSV table.",
	RunE:  runProspect,
}

func init() {
	runCommand.Flags().StringVarP(&runNiche, "niche", "n", "", "Search query describing the niche (required)")
	runCommand.Flags().StringVar(&runLang, "lang", "", "Prospecting message language: fr or en (defaults to config)")
	runCommand.Flags().IntVar(&runMax, "max", 0, "Maximum number of candidates to analyze (defaults to config)")
	runCommand.Flags().Int64Var(&runSubsMin, "subs-min", -1, "Minimum subscriber count (defaults to config)")
	runCommand.Flags().Int64Var(&runSubsMax, "subs-max", -1, "Maximum subscriber count (defaults to config)")
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API key (defaults to $GEMINI_API_KEY, config, then the secrets file)")
	runCommand.Flags().StringVarP(&runOutDir, "out", "o", "", "Directory for the CSV table (defaults to config)")
	runCommand.Flags().BoolVar(&runNoCSV, "no-csv", false, "Print results without writing the CSV table")

	_ = runCommand.MarkFlagRequired("niche")
	rootCmd.AddCommand(runCommand)
}

func runProspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runOutDir != "" {
		cfg.Export.Dir = runOutDir
	}

	out := cmd.OutOrStdout()
	agent := youtubeprospector.NewProspectorAgent(cfg).
		WithReporter(youtubeprospector.FuncReporter(func(msg string) {
			fmt.Fprintf(out, "  %s\n", msg)
		}))
	if err := agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	req := applyRunFlags(agent.RequestFor(runNiche), runLang, runMax, runSubsMin, runSubsMax, runAPIKey)
	fmt.Fprintf(out, "Prospecting %q (%s, up to %d videos)\n", req.Niche, req.Language, req.MaxAnalyze)

	result, err := agent.Prospect(ctx, req)
	if err != nil {
		if errors.Is(err, youtubeprospector.ErrMissingCredential) {
			return fmt.Errorf("%w: pass --api-key or set %s", err, config.GeminiKeyName)
		}
		return err
	}

	printResult(out, result)

	if runNoCSV {
		return nil
	}
	path, err := agent.Export(result)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nExported %d rows to %s\n", len(result.Evaluated), path)
	return nil
}

// applyRunFlags overrides the configured request with the flags that were set.
// Negative subscriber bounds and a zero max mean "not set".
func applyRunFlags(req youtubeprospector.RunRequest, lang string, maxAnalyze int, subsMin, subsMax int64, apiKey string) youtubeprospector.RunRequest {
	if lang != "" {
		req.Language = lang
	}
	if maxAnalyze > 0 {
		req.MaxAnalyze = maxAnalyze
	}
	if subsMin >= 0 {
		req.SubsMin = subsMin
	}
	if subsMax >= 0 {
		req.SubsMax = subsMax
	}
	if apiKey != "" {
		req.Credential = apiKey
	}
	return req
}

func printResult(w io.Writer, result *models.RunResult) {
	s := result.Summary
	fmt.Fprintf(w, "\nFound %d videos, analyzed %d, qualified %d\n", s.TotalFound, s.Analyzed, s.Qualified)

	qualified := result.Qualified()
	if len(qualified) > 0 {
		fmt.Fprintln(w, "\nQualified leads:")
	}
	for _, lead := range qualified {
		fmt.Fprintf(w, "  [%d/100] %s - %s\n", lead.Verdict.LeadScore, lead.Record.Channel, lead.Record.Title)
		fmt.Fprintf(w, "    %s\n", lead.SearchURL)
		if lead.Verdict.Reason != "" {
			fmt.Fprintf(w, "    %s\n", lead.Verdict.Reason)
		}
		if len(lead.Verdict.RedFlags) > 0 {
			fmt.Fprintf(w, "    flags: %s\n", strings.Join(lead.Verdict.RedFlags, ", "))
		}
	}

	if len(result.Rejections) > 0 {
		fmt.Fprintf(w, "\nRejected %d:\n", len(result.Rejections))
	}
	for _, r := range result.Rejections {
		fmt.Fprintf(w, "  %s: %s\n", r.Channel, r.Reason)
	}
}
