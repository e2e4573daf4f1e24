// Command readerbridge runs the native request layer of the reader on a
// loopback port. The UI posts command invocations to it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kroma-labs/readerbridge/command"
	"github.com/kroma-labs/readerbridge/fetch"
	"github.com/kroma-labs/readerbridge/httpclient"
	"github.com/kroma-labs/readerbridge/httpserver"
	"github.com/kroma-labs/readerbridge/internal/config"
	"github.com/kroma-labs/readerbridge/internal/logger"
	"github.com/kroma-labs/readerbridge/internal/telemetry"
)

const serviceName = "readerbridge"

// version is set at build time with -ldflags "-X main.version=…".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to readerbridge.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "readerbridge:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, serviceName, version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	clients := httpclient.NewManager(clientOptions(cfg.Network,
		httpclient.WithServiceName(serviceName),
		httpclient.WithLogger(log.With().Str("component", "httpclient").Logger()),
		httpclient.WithTracerProvider(providers.TracerProvider),
		httpclient.WithMeterProvider(providers.MeterProvider),
	)...)

	executor := fetch.NewExecutor(
		fetch.WithClientSource(clients),
		fetch.WithLogger(log.With().Str("component", "fetch").Logger()),
	)

	registry := command.NewRegistry(log.With().Str("component", "command").Logger())
	if err := errors.Join(
		command.RegisterCore(registry, executor),
		command.RegisterSpeech(registry, command.NewSpeech(clients, "", log.With().Str("component", "speech").Logger())),
		command.RegisterOpener(registry, command.SystemOpener),
	); err != nil {
		return err
	}

	health := httpserver.NewHealthHandler(
		httpserver.WithHealthServiceName(serviceName),
		httpserver.WithVersion(version),
	)
	health.AddReadinessCheck("http_client", func(context.Context) error {
		if !clients.Ready() {
			return errors.New("shared client not constructed")
		}
		return nil
	})

	routes := httpserver.RouterConfig{
		Commands: registry,
		Token:    cfg.Server.Token,
		Health:   health,
	}
	if providers.Gatherer != nil {
		routes.Metrics = httpserver.PrometheusHandlerFor(providers.Gatherer)
	}

	probes := []string{"/ping", "/livez", "/readyz", "/metrics"}
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Addr = cfg.Server.Addr
	serverCfg.ServiceName = serviceName

	server := httpserver.New(
		httpserver.WithConfig(serverCfg),
		httpserver.WithLogger(log.With().Str("component", "httpserver").Logger()),
		httpserver.WithTracing(httpserver.TracingConfig{TracerProvider: providers.TracerProvider, SkipPaths: probes}),
		httpserver.WithMetrics(httpserver.MetricsConfig{MeterProvider: providers.MeterProvider, SkipPaths: probes}),
		httpserver.WithLogging(httpserver.LoggerConfig{Logger: log.Logger, SkipPaths: probes}),
		httpserver.WithMiddleware(httpserver.DefaultMiddleware(log.Logger, cfg.Server.AllowedOrigins...)),
		httpserver.WithHandler(httpserver.NewRouter(routes)),
	)

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("version", version).
		Strs("commands", registry.Names()).
		Bool("token_generated", cfg.Server.TokenGenerated).
		Msg("readerbridge starting")

	// The UI reads the session token from the first stdout line.
	if cfg.Server.TokenGenerated {
		fmt.Fprintf(os.Stdout, "READERBRIDGE_TOKEN=%s\n", cfg.Server.Token)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})

	// Build the shared client in the background so /readyz turns green
	// without waiting for the first fetch.
	g.Go(func() error {
		if _, err := clients.Client(); err != nil {
			log.Error().Err(err).Msg("shared HTTP client unavailable, fetch commands will fail")
		}
		return nil
	})

	return g.Wait()
}

// clientOptions appends the configured proxy and network trace settings.
func clientOptions(network config.NetworkConfig, opts ...httpclient.Option) []httpclient.Option {
	if network.ProxyURL != nil {
		opts = append(opts, httpclient.WithProxyURL(network.ProxyURL))
	} else {
		opts = append(opts, httpclient.WithProxyFromEnvironment(network.ProxyFromEnvironment))
	}
	if !network.Trace {
		opts = append(opts, httpclient.WithDisableNetworkTrace())
	}
	return opts
}
