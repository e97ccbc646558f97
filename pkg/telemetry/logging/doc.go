// Package logging builds the gateway's log/slog logger.
//
// Output goes to stdout and, when enabled, to a size-rotated file managed by
// lumberjack. Records logged with a context carry the request_id and user_id
// stored there by the HTTP middleware. Credentials in attribute values
// (bearer tokens, JWTs, API keys) are masked before they are written.
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.InfoContext(ctx, "upload stored", "file", name)
package logging
