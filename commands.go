package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/or73/Async-API-Pizza-Delivery/internal/app"
	"github.com/or73/Async-API-Pizza-Delivery/internal/config"
	"github.com/or73/Async-API-Pizza-Delivery/internal/logger"
	"github.com/or73/Async-API-Pizza-Delivery/internal/repositories"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pizza",
		Short:         "Pizza delivery shop API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().String("config", "", "config file (overrides CONFIG_FILE)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})
	root.AddCommand(recordsCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.Set("CONFIG_FILE", path)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger.SetupWriter(cmd.ErrOrStderr(), cfg.AppEnv, cfg.LogLevel)
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	go func() {
		if err := a.ConsumeReceipts(ctx); err != nil {
			slog.Error("receipt consumer stopped", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.AppPort, "env", cfg.AppEnv)
		errCh <- a.Listen()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", "error", err)
		}
	}

	if err := a.Shutdown(shutdownTimeout); err != nil {
		return err
	}
	slog.Info("server gracefully stopped")
	return nil
}

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect the record store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "keys <collection>",
		Short: "List the keys of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, args[0], func(store *repositories.RecordStore) error {
				keys, err := store.ListKeys(cmd.Context())
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dump <collection> [key]",
		Short: "Print one record, or every record with sensitive fields removed",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, args[0], func(store *repositories.RecordStore) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				if len(args) == 2 {
					raw, err := store.ReadRaw(cmd.Context(), args[1])
					if err != nil {
						return err
					}
					return enc.Encode(raw)
				}
				records, err := store.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				return enc.Encode(records)
			})
		},
	})
	return cmd
}

// withStore opens the configured backend and runs fn on the named
// collection.
func withStore(cmd *cobra.Command, collection string, fn func(*repositories.RecordStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	backend, err := repositories.OpenBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	db := repositories.NewDB(backend, nil)
	defer db.Close()

	store, err := db.Collection(collection)
	if err != nil {
		return err
	}
	return fn(store)
}
