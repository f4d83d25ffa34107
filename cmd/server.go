package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inputbridge/clipboard"
	"inputbridge/config"
	"inputbridge/host"
	"inputbridge/inject"
	"inputbridge/metrics"
	"inputbridge/server"
	"inputbridge/util"
)

var clipboardFallback bool

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the listener server",
	Long:  fmt.Sprintf(`Starts the listener server and the injection service. It will use the --port flag if provided, otherwise the %s environment variable, otherwise the config file or default port.`, util.EnvVarPort),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("clipboard-fallback") {
			cfg.Server.ClipboardFallback = clipboardFallback
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		device, err := host.New(cfg.Host, logger)
		if err != nil {
			return fmt.Errorf("could not set up %s host: %w", cfg.Host.Kind, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m := metrics.New()
		opts := []inject.Option{
			inject.WithMetrics(m),
			inject.WithQueueSize(cfg.Server.QueueSize),
		}
		if cfg.Server.ClipboardFallback {
			if err := clipboard.Init(logger); err != nil {
				logger.Warn("clipboard unavailable, keeping text in memory", "err", err)
				clipboard.UseInMemoryClipboard()
			}
			opts = append(opts, inject.WithFallback(clipboard.Sink{}))
		}

		service := inject.NewService(inject.NewInjector(device, logger), logger, opts...)
		service.Start(ctx)
		defer service.Stop()

		dir, err := config.Dir()
		if err != nil {
			return err
		}
		logger.Info("starting bridge", "host", cfg.Host.Kind, "serial", cfg.Host.Serial, "input_method", cfg.Host.InputMethod)
		return server.Serve(ctx, server.Options{
			Port:      cfg.Server.Port,
			ConfigDir: dir,
			Calls:     server.NewCallHandler(device, service, m, logger),
			Metrics:   m,
			Log:       logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	addHostFlags(serverCmd)
	serverCmd.Flags().BoolVar(&clipboardFallback, "clipboard-fallback", false, "copy text that could not be typed to this machine's clipboard.")
}
