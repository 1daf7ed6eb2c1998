package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var debug bool

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd().ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "barbot",
		Short: "Make cocktails with relay-controlled pumps",
		Long: `barbot runs peristaltic pumps through a relay board to pour cocktails from a recipe file.
Configuration is read from environment variables or a .env file in the working directory.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		serveCmd(),
		panelCmd(),
		prepareCmd(),
		dispenseCmd(),
		stopCmd(),
		recipesCmd(),
		portsCmd(),
	)

	return cmd
}

func newLogger(extra ...zapcore.Core) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("error creating logger: %w", err)
	}

	if len(extra) > 0 {
		logger = logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(append([]zapcore.Core{c}, extra...)...)
		}))
	}

	return logger, nil
}
