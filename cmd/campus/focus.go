package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/example/campus-planner/internal/client"
	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/focustimer"
)

func focusCmd(opts *rootOptions) *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Drive the focus timer",
		Long: `Drive the focus timer.

The timer state is kept in a snapshot file, so a countdown started in one
invocation can be paused, resumed or stopped from another. Completed focus
runs are sent to the API using the token stored by "campus login".`,
	}
	cmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "timer state file (default from focus.snapshot_path)")

	open := func(cmd *cobra.Command, onChange func(focustimer.View)) (*focusSession, error) {
		return openFocusSession(cmd.Context(), opts, snapshotPath, onChange)
	}

	cmd.AddCommand(focusStartCmd(open, "start", "Start a focus countdown"))
	cmd.AddCommand(focusStartCmd(open, "resume", "Resume a paused countdown"))
	cmd.AddCommand(&cobra.Command{
		Use:   "pause",
		Short: "Pause the running countdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := open(cmd, nil)
			if err != nil {
				return err
			}
			defer session.timer.Close()
			view, err := session.timer.Pause()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "paused %s with %s left\n", view.Mode, formatRemaining(view.Remaining))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Finish the running countdown and record the elapsed minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := open(cmd, nil)
			if err != nil {
				return err
			}
			defer session.timer.Close()
			before := session.timer.View()
			view, err := session.timer.Stop(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped %s; next up: %s (%s)\n", before.Mode, view.Mode, formatRemaining(view.Remaining))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Abandon the current countdown without recording it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := open(cmd, nil)
			if err != nil {
				return err
			}
			defer session.timer.Close()
			view := session.timer.Reset()
			fmt.Fprintf(cmd.OutOrStdout(), "reset to %s (%s)\n", view.Mode, formatRemaining(view.Remaining))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the timer and today's focus total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := open(cmd, nil)
			if err != nil {
				return err
			}
			defer session.timer.Close()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, describeView(session.timer.View()))

			today, err := session.api.FocusToday(cmd.Context())
			switch {
			case errors.Is(err, client.ErrNotLoggedIn):
				fmt.Fprintln(out, `today: unavailable, run "campus login" first`)
			case err != nil:
				session.logger.Warn("focus total unavailable", "error", err)
				fmt.Fprintln(out, "today: unavailable")
			default:
				fmt.Fprintf(out, "today: %d of %d minutes\n", today.TotalMinutes, today.DailyGoal)
			}
			return nil
		},
	})
	return cmd
}

func focusStartCmd(open func(*cobra.Command, func(focustimer.View)) (*focusSession, error), use, short string) *cobra.Command {
	var (
		task    string
		minutes int
		detach  bool
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Without --detach the countdown is shown until it completes or the command is
interrupted. An interrupted countdown keeps running and can be checked with
"campus focus status".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views := make(chan focustimer.View, 1)
			onChange := func(view focustimer.View) {
				select {
				case views <- view:
				default:
					// Drop a stale view in favour of the latest one.
					select {
					case <-views:
					default:
					}
					views <- view
				}
			}

			session, err := open(cmd, onChange)
			if err != nil {
				return err
			}
			defer session.timer.Close()
			if minutes > 0 {
				if err := session.timer.SetDurations(minutes, session.breakMinutes); err != nil {
					return err
				}
			}

			var taskRef *string
			if task != "" {
				taskRef = &task
			}
			view, err := session.timer.Start(taskRef)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, describeView(view))
			if detach {
				return nil
			}
			return follow(cmd.Context(), views, out)
		},
	}
	cmd.Flags().StringVar(&task, "task", "", "task id to attach to the focus session")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "focus length in minutes for this countdown")
	cmd.Flags().BoolVar(&detach, "detach", false, "return immediately and leave the countdown running")
	return cmd
}

// follow prints countdown updates until the timer goes idle or ctx is done.
// The timer also goes idle when another invocation pauses, stops or resets it.
func follow(ctx context.Context, views <-chan focustimer.View, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\ncountdown left running")
			return nil
		case view := <-views:
			if !view.Running {
				fmt.Fprintf(out, "\ncountdown ended; next up: %s (%s)\n", view.Mode, formatRemaining(view.Remaining))
				return nil
			}
			fmt.Fprintf(out, "\r%s %s ", view.Mode, formatRemaining(view.Remaining))
		}
	}
}

type focusSession struct {
	timer        *focustimer.Controller
	api          *client.Client
	breakMinutes int
	logger       *slog.Logger
}

func openFocusSession(ctx context.Context, opts *rootOptions, snapshotPath string, onChange func(focustimer.View)) (*focusSession, error) {
	cfg, logger, err := opts.load(false)
	if err != nil {
		return nil, err
	}
	if snapshotPath == "" {
		snapshotPath = cfg.Focus.SnapshotPath
	}

	api, err := newAPIClient(cfg.API.BaseURL, cfg.API.Token, opts.tokenPath())
	if err != nil {
		return nil, err
	}

	timer := focustimer.NewController(focustimer.Options{
		FocusMinutes: cfg.Focus.Minutes,
		BreakMinutes: cfg.Focus.BreakMinutes,
		Snapshots:    focustimer.NewFileSnapshotStore(snapshotPath),
		Recorder:     api,
		Logger:       logger,
		OnChange:     onChange,
	})
	if _, err := timer.Restore(ctx); err != nil {
		return nil, err
	}
	return &focusSession{timer: timer, api: api, breakMinutes: cfg.Focus.BreakMinutes, logger: logger}, nil
}

// newAPIClient prefers an explicitly configured token over the one saved by
// login. Without either the client still works but cannot record sessions.
func newAPIClient(baseURL, configured, tokenPath string) (*client.Client, error) {
	var token *oauth2.Token
	if configured != "" {
		token = &oauth2.Token{AccessToken: configured, TokenType: "Bearer"}
	} else {
		saved, err := client.LoadToken(tokenPath)
		switch {
		case err == nil:
			token = saved
		case !errors.Is(err, client.ErrNotLoggedIn):
			return nil, err
		}
	}

	if token == nil {
		return client.New(baseURL)
	}
	return client.New(baseURL, client.WithToken(token))
}

func describeView(view focustimer.View) string {
	state := "paused"
	if view.Running {
		state = "running"
	} else if view.Remaining == time.Duration(view.DurationMinutes)*time.Minute {
		state = "ready"
	}
	line := fmt.Sprintf("%s %s, %s left", view.Mode, state, formatRemaining(view.Remaining))
	if view.Mode == domain.SessionFocus && view.TaskRef != nil {
		line += " (task " + *view.TaskRef + ")"
	}
	return line
}

func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
