package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/bowl-monitor/internal/logging"
	"github.com/sweeney/bowl-monitor/internal/logic"
	"github.com/sweeney/bowl-monitor/internal/status"
	"github.com/sweeney/bowl-monitor/internal/store"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run wake cycles until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			m, err := buildMonitor(opts.cfg)
			if err != nil {
				return err
			}
			defer m.Close()

			log := logging.Named(logging.NameCycle)
			log.Info("started",
				zap.Float64("empty_threshold", opts.cfg.EmptyThreshold),
				zap.Int("debounce_streak", opts.cfg.DebounceStreak),
				zap.Int("reminder_period", opts.cfg.ReminderPeriod),
				zap.Duration("sleep", opts.cfg.SleepDuration),
				zap.Strings("notifiers", opts.cfg.Notifiers()),
			)
			return m.runner.Run(ctx)
		},
	}
}

func newOnceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single wake cycle and exit",
		Long:  "Runs one wake (and the cold-boot window when it applies), then exits. Use with a systemd timer or cron, where exiting is the sleep.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			m, err := buildMonitor(opts.cfg)
			if err != nil {
				return err
			}
			defer m.Close()

			out, delay, err := m.runner.Cycle(ctx)
			if err != nil && ctx.Err() == nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "boot=%d state=%s notification=%s next_wake_in=%s\n",
				out.Record.BootCount, out.State, notificationString(out.Notification), delay)
			return nil
		},
	}
}

func notificationString(n logic.Notification) string {
	if n == logic.NotifyNone {
		return "NONE"
	}
	return string(n)
}

// statusJSON is the output of "status --format json".
type statusJSON struct {
	State    string              `json:"state"`
	Phase    string              `json:"next_phase"`
	Counters status.CountersJSON `json:"counters"`
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the persisted counters and derived state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", format)
			}

			st, err := store.OpenSQLite(opts.cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Load(cmd.Context())
			if err != nil {
				return err
			}

			// The next wake is what the scheduler will see.
			next := logic.Plan(rec.Woken())
			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(statusJSON{
					State: string(logic.Classify(rec)),
					Phase: string(next),
					Counters: status.CountersJSON{
						Boot:        rec.BootCount,
						NoWater:     rec.NoWaterCount,
						Reminder:    rec.ReminderCount,
						HaveAlerted: rec.HaveAlerted,
					},
				})
			}
			fmt.Fprintf(out, "state:       %s\n", logic.Classify(rec))
			fmt.Fprintf(out, "boot:        %d\n", rec.BootCount)
			fmt.Fprintf(out, "no_water:    %d\n", rec.NoWaterCount)
			fmt.Fprintf(out, "reminder:    %d\n", rec.ReminderCount)
			fmt.Fprintf(out, "alerted:     %t\n", rec.HaveAlerted)
			fmt.Fprintf(out, "next_phase:  %s\n", next)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json)")
	return cmd
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the persisted counters, as a full power-off would",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.OpenSQLite(opts.cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Clear(cmd.Context()); err != nil {
				return err
			}
			logging.Named(logging.NameStore).Info("counters cleared", zap.String("path", opts.cfg.DBPath))
			fmt.Fprintln(cmd.OutOrStdout(), "counters cleared")
			return nil
		},
	}
}
