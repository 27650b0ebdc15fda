package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"enrollment_notifier/internal/infra/config"
	"enrollment_notifier/internal/infra/logger"
	"enrollment_notifier/internal/infra/scheduler"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfg *config.AppConfig

	root := &cobra.Command{
		Use:           "notifier",
		Short:         "Emails instructors when students enroll in their upcoming classes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			cfg = loaded
			logger.Init(cfg)
			return nil
		},
	}
	cfgFn := func() *config.AppConfig { return cfg }

	serve := newServeCmd(cfgFn)
	root.RunE = serve.RunE
	root.AddCommand(serve, newOnceCmd(cfgFn), newNotifiedCmd(cfgFn), newNextCmd(cfgFn))
	return root
}

func newServeCmd(cfg func() *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the polling scheduler until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := buildServices(ctx, cfg())
			if err != nil {
				return err
			}
			defer svc.Close()

			target, err := scheduler.NewTargetFromConfig(cfg().Schedule)
			if err != nil {
				return err
			}
			s := scheduler.NewCycleScheduler(svc.cycle.Run, target, cfg().Schedule.RunOnStart, logger.Component("scheduler"))
			s.Run(ctx)
			logger.Log.Info("Shutdown complete")
			return nil
		},
	}
}

func newOnceCmd(cfg func() *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := buildServices(ctx, cfg())
			if err != nil {
				return err
			}
			defer svc.Close()
			return svc.cycle.Run(ctx)
		},
	}
}

func newNotifiedCmd(cfg func() *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notified",
		Short: "Inspect or seed the set of already notified classes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "has <classId>",
		Short: "Report whether a class was already notified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), cfg(), func(ctx context.Context, store notifiedStore) error {
				ok, err := store.Contains(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <classId>...",
		Short: "Mark classes as notified without sending anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), cfg(), func(ctx context.Context, store notifiedStore) error {
				for _, id := range args {
					if err := store.Add(ctx, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", id)
				}
				return nil
			})
		},
	})
	return cmd
}

func newNextCmd(cfg func() *config.AppConfig) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the upcoming fire times of the configured schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := scheduler.NewTargetFromConfig(cfg().Schedule)
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(cfg().Schedule.TimeZone)
			if err != nil {
				return err
			}
			for _, at := range scheduler.Upcoming(target, time.Now(), count) {
				fmt.Fprintln(cmd.OutOrStdout(), at.In(loc).Format(time.RFC1123))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of fire times to print")
	return cmd
}
