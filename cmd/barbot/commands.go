package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/calvinmclean/barbot/api"
	"github.com/calvinmclean/barbot/controller"
	"github.com/calvinmclean/barbot/recipe"
	"github.com/calvinmclean/barbot/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			cfg, err := controller.ConfigFromEnv()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			s, err := controller.NewFromConfig(cfg, logger)
			if err != nil {
				logger.Error("error starting barbot", zap.Error(err))
				return err
			}
			defer s.Close()

			s.SignalWaiting(cmd.Context())

			return api.New(s, logger.Named("api")).Serve(cmd.Context(), cfg.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address. Overrides LISTEN_ADDR")

	return cmd
}

func panelCmd() *cobra.Command {
	var configure bool

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Open the operator panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			panel := ui.NewPanel()

			encoderCfg := zap.NewDevelopmentEncoderConfig()
			encoderCfg.TimeKey = ""
			panelCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(panel), zapcore.InfoLevel)

			logger, err := newLogger(panelCore)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			cfg, err := controller.ConfigFromEnv()
			if err != nil {
				return err
			}

			var s *controller.Scheduler
			start := func(cfg controller.Config) {
				s, err = controller.NewFromConfig(cfg, logger)
				if err != nil {
					logger.Error("error starting barbot", zap.Error(err))
					panel.ShowError(err)
					return
				}
				s.SignalWaiting(cmd.Context())
				panel.Show(cmd.Context(), s)
			}

			if configure {
				panel.ShowConfig(cfg, start)
			} else {
				start(cfg)
			}

			panel.Run()

			if s != nil {
				return s.Close()
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&configure, "configure", false, "show the configuration window before starting")

	return cmd
}

func prepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare RECIPE",
		Short: "Prepare a cocktail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *controller.Scheduler) error {
				result, err := s.PrepareRecipe(cmd.Context(), args[0])
				printResult(result)
				return err
			})
		},
	}
}

func dispenseCmd() *cobra.Command {
	var (
		pump   int
		all    bool
		volume float64
	)

	cmd := &cobra.Command{
		Use:   "dispense",
		Short: "Run one pump or all pumps for a volume",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all == (pump != 0) {
				return errors.New("exactly one of --pump or --all is required")
			}

			return withScheduler(func(s *controller.Scheduler) error {
				var (
					result *controller.Result
					err    error
				)
				if all {
					result, err = s.DispenseAll(cmd.Context(), volume)
				} else {
					result, err = s.DispenseSingle(cmd.Context(), pump, volume)
				}
				printResult(result)
				return err
			})
		},
	}

	cmd.Flags().IntVar(&pump, "pump", 0, "pump number, starting at 1")
	cmd.Flags().BoolVar(&all, "all", false, "run all pumps")
	cmd.Flags().Float64Var(&volume, "volume", 25, "volume in mL")

	return cmd
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Turn off all pumps and the LEDs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withScheduler(func(s *controller.Scheduler) error {
				err := s.StopAll()
				s.SignalAllOff(cmd.Context())
				return err
			})
		},
	}
}

func recipesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "List recipes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := controller.ConfigFromEnv()
			if err != nil {
				return err
			}

			catalog, err := recipe.Load(cfg.RecipesFile)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, r := range catalog.All() {
				fmt.Fprintf(w, "%s\t%g mL\n", r.Name, r.TotalVolume())
				for _, i := range r.Ingredients {
					fmt.Fprintf(w, "  Motor %d\t%s\t%g mL\n", i.Motor, i.Name, i.Quantity)
				}
			}
			return w.Flush()
		},
	}
}

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List USB serial ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := controller.GetSerialPorts()
			if err != nil {
				return err
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

// withScheduler creates a Scheduler from the environment and closes it after fn
func withScheduler(fn func(*controller.Scheduler) error) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	s, err := controller.NewFromEnv(logger)
	if err != nil {
		logger.Error("error starting barbot", zap.Error(err))
		return err
	}

	return errors.Join(fn(s), s.Close())
}

func printResult(result *controller.Result) {
	if result == nil {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	for _, j := range result.Jobs {
		state := "done"
		switch {
		case j.Err != nil:
			state = "error: " + j.Err.Error()
		case j.Stopped:
			state = "stopped"
		}
		fmt.Fprintf(w, "Motor %d\t%g mL\t%s\t%s\n", j.Pump.Number, j.Volume, j.Elapsed().Round(time.Millisecond), state)
	}
	fmt.Fprintf(w, "Total\t\t%s\t\n", result.Elapsed().Round(time.Millisecond))
}
