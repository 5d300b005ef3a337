// Package capture implements the capture subcommand: run the companion app
// that records the microphone and publishes audio into shared memory.
package capture

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rightmic/rightmic-go/internal/capture"
	"github.com/rightmic/rightmic-go/internal/conf"
	"github.com/rightmic/rightmic-go/internal/diag"
	"github.com/rightmic/rightmic-go/internal/logging"
)

// Command creates the capture command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture microphone audio into the shared memory ring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCapture(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVar(&settings.Capture.Source, "source", settings.Capture.Source, "Capture device name or ID, empty for system default")
	cmd.Flags().BoolVar(&settings.Diag.Enabled, "diag", settings.Diag.Enabled, "Enable the diagnostics HTTP endpoint")
	cmd.Flags().StringVar(&settings.Diag.Listen, "diag-listen", settings.Diag.Listen, "Diagnostics endpoint listen address")

	return cmd
}

func runCapture(ctx context.Context, settings *conf.Settings) error {
	log := logging.ForService("capture")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	metrics, err := capture.NewMetrics(registry)
	if err != nil {
		return err
	}

	pipeline, err := capture.New(settings, log, metrics)
	if err != nil {
		return err
	}
	defer pipeline.Close() //nolint:errcheck

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pipeline.Run(ctx)
	})

	if settings.Diag.Enabled {
		server := diag.New(settings.Diag.Listen, registry, func() any { return pipeline.Status() }, log)
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	return g.Wait()
}
