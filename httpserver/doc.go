// Package httpserver is the loopback surface of the bridge: the UI posts
// command invocations to it and reads back a JSON envelope.
//
// # Routes
//
//	POST /invoke/{command}   X-Bridge-Token required
//	GET  /ping /livez /readyz
//	GET  /metrics
//
// A command result is written as {"data": result}; a command failure as
// {"error": "text"} with status 200. Unknown commands answer 404 and
// malformed arguments 400.
//
// # Wiring
//
//	health := httpserver.NewHealthHandler(httpserver.WithVersion(version))
//	health.AddReadinessCheck("http_client", clientReady)
//
//	server := httpserver.New(
//	    httpserver.WithConfig(cfg),
//	    httpserver.WithLogger(logger),
//	    httpserver.WithTracing(httpserver.TracingConfig{SkipPaths: probes}),
//	    httpserver.WithMetrics(httpserver.MetricsConfig{SkipPaths: probes}),
//	    httpserver.WithLogging(httpserver.LoggerConfig{Logger: logger, SkipPaths: probes}),
//	    httpserver.WithMiddleware(httpserver.DefaultMiddleware(logger, origins...)),
//	    httpserver.WithHandler(httpserver.NewRouter(httpserver.RouterConfig{
//	        Commands: registry,
//	        Token:    token,
//	        Health:   health,
//	        Metrics:  httpserver.PrometheusHandlerFor(gatherer),
//	    })),
//	)
//
//	err := server.ListenAndServe(ctx)
package httpserver
