package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	dali "github.com/maginawin/go-dali-gateway"
)

func discoverCmd() *cobra.Command {
	var (
		timeout time.Duration
		serial  string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover DALI gateways on the local network",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDiscover(timeout, serial)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", dali.DiscoveryTimeout, "how long to listen for replies (at most 180s, dali.DiscoveryTimeout)")
	cmd.Flags().StringVar(&serial, "serial", "", "only print the gateway with this serial number, if found")

	return cmd
}

func runDiscover(timeout time.Duration, serial string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	discoverer, err := dali.NewDiscoverer(logger)
	if err != nil {
		return fmt.Errorf("create discoverer: %w", err)
	}

	fmt.Fprintf(os.Stderr, "discovering gateways for up to %s...\n", timeout)

	gateways, err := discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	if serial != "" {
		var match []dali.GatewayDescriptor
		for _, gw := range gateways {
			if gw.GwSN == serial {
				match = []dali.GatewayDescriptor{gw}
				break
			}
		}
		gateways = match
	}

	return formatGateways(os.Stdout, gateways)
}
