package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/ev-prover/config"
	"github.com/celestiaorg/ev-prover/prover"
)

// Version is set at build time.
var Version = "dev"

// Exit codes: 0 graceful shutdown, 1 configuration error, 2 unrecoverable
// continuity violation, 3 signer failure.
const (
	exitOK          = 0
	exitConfig      = 1
	exitContinuity  = 2
	exitSignerError = 3
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitConfig)
	}
}

func newRootCmd() *cobra.Command {
	var home string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "ev-prover",
		Short: "zk-proof orchestrator for a Celestia DA / EVM rollup bridge",
		Long: `ev-prover watches the DA layer and the rollup for finalized blocks,
assembles execution and inclusion witnesses, drives a zk-VM backend to
produce proofs and publishes them to the zkISM verifier module.`,
		SilenceUsage: true,
	}

	defaultHome := config.AppHome
	if homeDir, err := os.UserHomeDir(); err == nil {
		defaultHome = filepath.Join(homeDir, config.AppHome)
	}
	rootCmd.PersistentFlags().StringVar(&home, "home", defaultHome, "application home directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(newStartCmd(&home, &logLevel))
	rootCmd.AddCommand(newInitCmd(&home))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newStartCmd(home, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the proving service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(*logLevel)
			if err != nil {
				return err
			}

			cfgPath := filepath.Join(*home, config.ConfigDir, config.ConfigFile)
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Error("failed to load configuration", "path", cfgPath, "err", err)
				os.Exit(exitConfig)
			}
			if err := cfg.Validate(); err != nil {
				logger.Error("invalid configuration", "err", err)
				os.Exit(exitConfig)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := prover.New(ctx, cfg, *home, logger)
			if err != nil {
				logger.Error("failed to start", "err", err)
				os.Exit(exitConfig)
			}
			if err := svc.Bootstrap(ctx); err != nil {
				logger.Error("failed to bootstrap trusted checkpoint", "err", err)
				os.Exit(exitConfig)
			}

			logger.Info("ev-prover starting", "version", Version, "backend", cfg.Backend)
			err = svc.Run(ctx)
			switch {
			case err == nil:
				logger.Info("shutdown complete")
				os.Exit(exitOK)
			case errors.Is(err, prover.ErrContinuityHalt):
				logger.Error("continuity violation, human intervention required", "err", err)
				os.Exit(exitContinuity)
			case errors.Is(err, prover.ErrSignerFailure):
				logger.Error("signer failure", "err", err)
				os.Exit(exitSignerError)
			default:
				logger.Error("service failed", "err", err)
				os.Exit(exitConfig)
			}
			return nil
		},
	}
}

func newInitCmd(home *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := filepath.Join(*home, config.ConfigDir)
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := os.MkdirAll(filepath.Join(*home, config.DataDir), 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			cfgPath := filepath.Join(cfgDir, config.ConfigFile)
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := os.WriteFile(cfgPath, []byte(config.DefaultYAML), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Wrote default configuration to %s\n", cfgPath)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}
}

func buildLogger(level string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return log.NewLogger(os.Stderr, log.LevelOption(lvl)), nil
}
