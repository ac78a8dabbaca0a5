package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	youtubeprospector "prospector/agents/youtube-prospector"
	"prospector/shared/scheduler"

	"github.com/spf13/cobra"
)

var scheduleOnce bool

var scheduleCommand = &cobra.Command{
	Use:   "schedule",
	Short: "Prospect every configured niche on the cron schedule",
	Long:  "Run the prospector on the configured cron schedule with a health endpoint, mailing a digest when leads are found.",
	RunE:  runSchedule,
}

func init() {
	scheduleCommand.Flags().BoolVar(&scheduleOnce, "once", false, "Run every niche once and exit")
	rootCmd.AddCommand(scheduleCommand)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := youtubeprospector.NewProspectorAgent(cfg)
	s := scheduler.New(cfg, agent)

	if scheduleOnce {
		fmt.Fprintln(cmd.OutOrStdout(), "Running once...")
		if err := agent.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize agent: %w", err)
		}
		if err := s.RunOnce(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.Monitor().GetStatusSummary())
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting scheduler (%s)...\n", cfg.Schedule)
	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler failed: %w", err)
	}
	return nil
}
