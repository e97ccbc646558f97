// Package server provides the videogate HTTP server.
//
// It builds the route table from the configuration and the injected
// collaborators, applies the global middleware chain and manages the
// listener lifecycle including TLS with certificate reloading and graceful
// shutdown.
//
// # Routes
//
//	POST /api/v1/upload-video      upload (rate limited, authenticated)
//	GET  /api/v1/retention/runs    recent sweeps (authenticated)
//	     /api/...                  JSON 404
//	GET  /videos/<name>            stored videos
//	GET  /health, /ready, /version health
//	GET  /metrics                  Prometheus, when enabled
//
// # Basic Usage
//
//	srv, err := server.New(cfg, server.Dependencies{
//	    Store:   store,
//	    History: ledger,
//	    Health:  checker,
//	    Metrics: collector,
//	    Logger:  logger,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
package server
