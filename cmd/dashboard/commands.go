package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alexivanou/weather-dashboard/internal/client"
	"github.com/alexivanou/weather-dashboard/internal/config"
	"github.com/alexivanou/weather-dashboard/internal/dashboard"
	"github.com/alexivanou/weather-dashboard/internal/localstore"
	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is shared by all subcommands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	renderer *dashboard.TextRenderer
	ctrl     *dashboard.Controller
	in       *bufio.Reader
	out      io.Writer

	apiURL    string
	stateFile string
	verbose   bool
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Terminal weather and time dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.show(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "dashboard server URL (default $DASHBOARD_API_URL)")
	root.PersistentFlags().StringVar(&a.stateFile, "state-file", "", "local state file (default $DASHBOARD_STATE_FILE)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "search <city>",
			Short: "Find a city and show its weather",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.search(cmd.Context(), strings.Join(args, " "))
			},
		},
		newHistoryCmd(a),
		&cobra.Command{
			Use:   "show",
			Short: "Show the weather for the stored city",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.show(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Show the stored city and refresh it periodically",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.watch(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the selected city",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.ctrl.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Selected city cleared.")
				return nil
			},
		},
	)

	return root, a
}

func newHistoryCmd(a *app) *cobra.Command {
	var pick int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously selected cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.history(cmd.Context(), pick)
		},
	}
	cmd.Flags().IntVar(&pick, "select", 0, "show the weather for entry N of the list")
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.Dashboard.APIURL = a.apiURL
	}
	if a.stateFile != "" {
		cfg.Dashboard.StateFile = a.stateFile
	}
	a.cfg = cfg

	a.logger = zap.NewNop()
	if a.verbose {
		if a.logger, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
	}

	a.in = bufio.NewReader(cmd.InOrStdin())
	a.out = cmd.OutOrStdout()
	a.renderer = dashboard.NewTextRenderer(a.out)

	a.ctrl, err = dashboard.NewController(
		client.New(cfg.Dashboard.APIURL, cfg.Dashboard.HTTPTimeout),
		localstore.New(cfg.Dashboard.StateFile),
		a.renderer,
		clockwork.NewRealClock(),
		a.logger,
	)
	if err != nil {
		return err
	}
	a.logger.Debug("Dashboard ready",
		zap.String("api_url", cfg.Dashboard.APIURL),
		zap.String("device_id", a.ctrl.DeviceID()),
	)
	return nil
}

// close waits for background history saves and flushes the logger.
func (a *app) close() {
	if a.ctrl != nil {
		a.ctrl.Wait()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) search(ctx context.Context, query string) error {
	_, err := a.ctrl.Submit(ctx, query)
	if err != nil {
		return errShown
	}
	if a.ctrl.State() != dashboard.StateDisambiguating {
		return nil
	}

	n := len(a.ctrl.Candidates())
	for {
		fmt.Fprintf(a.out, "Choose 1-%d: ", n)
		line, err := a.in.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return errors.New("no choice made")
		}
		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil || choice < 1 || choice > n {
			fmt.Fprintln(a.out, "Please enter a number from the list.")
			continue
		}
		if _, err := a.ctrl.Pick(ctx, choice-1); err != nil {
			return errShown
		}
		return nil
	}
}

func (a *app) history(ctx context.Context, pick int) error {
	records, err := a.ctrl.History(ctx)
	if err != nil {
		return errShown
	}
	if pick == 0 {
		a.renderer.ShowHistory(records)
		return nil
	}
	if pick < 1 || pick > len(records) {
		return fmt.Errorf("--select must be between 1 and %d", len(records))
	}
	if _, err := a.ctrl.SelectFromHistory(ctx, records[pick-1]); err != nil {
		return errShown
	}
	return nil
}

func (a *app) show(ctx context.Context) error {
	view, err := a.ctrl.Restore(ctx)
	if err != nil {
		return errShown
	}
	if view == nil {
		fmt.Fprintln(a.out, "No city selected yet. Try: dashboard search <city>")
	}
	return nil
}

func (a *app) watch(ctx context.Context) error {
	view, err := a.ctrl.Restore(ctx)
	if err != nil {
		return errShown
	}
	if view == nil {
		return errors.New("no city selected; run search first")
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err = s.Every(a.cfg.Dashboard.RefreshInterval).WaitForSchedule().Do(func() {
		if _, err := a.ctrl.Refresh(ctx); err != nil {
			a.logger.Warn("Refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	s.StartAsync()
	defer s.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	}
	return nil
}

// errShown signals a failure already rendered by the controller.
var errShown = errors.New("request failed")
