package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yettensyvus/InternshipFinder/internal/app"
	"github.com/yettensyvus/InternshipFinder/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:           "otpctl",
		Short:         "Operator tasks for the OTP and notification stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&driver, "driver", "", "Store driver (dynamo|postgres); defaults to STORE_DRIVER")

	load := func() *config.Config {
		cfg := config.Load()
		if driver != "" {
			cfg.StoreDriver = driver
		}
		return cfg
	}

	cmd.AddCommand(newMigrateCommand(load))
	cmd.AddCommand(newReapCommand(load))
	cmd.AddCommand(newOutboxCommand(load))
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newMigrateCommand(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create DynamoDB tables or apply Postgres migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			stores, err := app.OpenStores(commandContext(cmd), cfg, true)
			if err != nil {
				return err
			}
			defer stores.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "%s store ready\n", cfg.StoreDriver)
			return nil
		},
	}
}

func newReapCommand(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Delete consumed and expired OTP tokens once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := app.New(ctx, load(), false)
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.Reaper.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reaped %d tokens\n", n)
			return nil
		},
	}
}

func newOutboxCommand(load func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Outbox event operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "drain",
		Short: "Dispatch one batch of pending outbox events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := app.New(ctx, load(), false)
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.Dispatcher.DrainOnce(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "dispatched %d events\n", n)
			return err
		},
	})
	return cmd
}
