package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/drakos74/cv-scratch/internal/config"
	"github.com/drakos74/cv-scratch/internal/lab"
	"github.com/drakos74/cv-scratch/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "cvlab",
		Short: "Interactive computer vision guide",
		Long: `cvlab serves the sandboxes of the computer vision guide:
a knn classifier, a step-by-step k-means, a pixel grid, a pipeline demo and a quiz.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "yaml config file path")

	load := func() (config.Config, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return cfg, err
		}
		level, err := cfg.LogLevel()
		if err != nil {
			return cfg, fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
		}
		zerolog.SetGlobalLevel(level)
		return cfg, nil
	}

	rootCmd.AddCommand(
		serveCmd(load),
		classifyCmd(load),
		kmeansCmd(load),
	)
	return rootCmd
}

func serveCmd(load func() (config.Config, error)) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the http api",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			registry := lab.NewRegistry(cfg, nil)
			service := lab.NewService(registry, metrics.New(), cfg.Server.Debug)
			log.Info().
				Str("name", cfg.Server.Name).
				Int("port", cfg.Server.Port).
				Bool("debug", cfg.Server.Debug).
				Msg("starting cvlab")
			return service.Server(cfg.Server.Name, cfg.Server.Port).Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "http port, overrides the config")
	return cmd
}
