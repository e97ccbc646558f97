// Package health provides the gateway's probe endpoints.
//
//   - /health: liveness, always 200 while the process serves HTTP
//   - /ready: readiness, 200 when every component check passes, 503 otherwise
//   - /version: build information
//
// Components register checks (storage directory writable, ledger reachable)
// and optional details (retention schedule state) on a Checker:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("storage", func(ctx context.Context) error {
//	    return store.CheckWritable()
//	})
//	checker.RegisterCheck("ledger", health.PingCheck(ledger))
//	health.Register(mux, checker, health.NewVersionInfo(version, commit, date))
package health
