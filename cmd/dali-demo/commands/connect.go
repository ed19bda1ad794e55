package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	dali "github.com/maginawin/go-dali-gateway"
	"github.com/maginawin/go-dali-gateway/internal/config"
	danlimetrics "github.com/maginawin/go-dali-gateway/internal/metrics"
)

// allEventKinds lists every event kind a logging listener cares about; the
// Registry has no kind wildcard, only a target wildcard, so each kind is
// subscribed individually.
var allEventKinds = []dali.EventKind{
	dali.EventOnlineStatus,
	dali.EventLightStatus,
	dali.EventMotionStatus,
	dali.EventIlluminance,
	dali.EventPanelStatus,
	dali.EventEnergyReport,
	dali.EventDevParam,
	dali.EventSensorParam,
}

func connectCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to every gateway in a config file and log inbound events",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if configPath == "" {
				return errors.New("--config is required")
			}
			return runConnect(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to configuration file (YAML)")

	return cmd
}

func runConnect(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log)

	reg := prometheus.NewRegistry()
	collector := danlimetrics.NewCollector(reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	metricsSrv := newMetricsServer(cfg.Metrics, reg)
	g.Go(func() error {
		logger.Info("metrics server listening", slog.String("addr", cfg.Metrics.Addr))
		return listenAndServe(gCtx, metricsSrv, cfg.Metrics.Addr)
	})

	sessions := make([]*dali.Session, 0, len(cfg.Gateways))
	for _, gwCfg := range cfg.Gateways {
		gw := dali.GatewayDescriptor{
			GwSN:         gwCfg.GwSN,
			GwIP:         gwCfg.GwIP,
			Port:         gwCfg.Port,
			IsTLS:        gwCfg.IsTLS,
			Username:     gwCfg.Username,
			Passwd:       gwCfg.Passwd,
			ChannelTotal: gwCfg.ChannelTotal,
		}

		session := dali.NewSession(gw,
			dali.WithMetrics(collector),
			dali.WithLogger(logger),
		)

		logListener := func(ev dali.Event) {
			logger.Info("event",
				slog.String("gw_sn", gw.GwSN),
				slog.String("kind", string(ev.Kind)),
				slog.String("target_id", ev.TargetID),
			)
		}
		for _, kind := range allEventKinds {
			session.Registry().Subscribe(kind, "", logListener)
		}

		if err := session.Connect(gCtx); err != nil {
			logger.Error("connect failed", slog.String("gw_sn", gw.GwSN), slog.Any("error", err))
			continue
		}
		logger.Info("connected", slog.String("gw_sn", gw.GwSN))
		sessions = append(sessions, session)
	}

	if len(sessions) == 0 {
		stop()
		return errors.New("no gateway connected")
	}

	g.Go(func() error {
		<-gCtx.Done()
		return shutdown(metricsSrv, sessions, logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func shutdown(srv *http.Server, sessions []*dali.Session, logger *slog.Logger) error {
	logger.Info("shutting down")

	for _, s := range sessions {
		if err := s.Disconnect(); err != nil {
			logger.Warn("disconnect failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func listenAndServe(ctx context.Context, srv *http.Server, addr string) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := config.ParseLogLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
