// Package certs serves the HTTPS certificate and reloads it when the
// certificate or key file is replaced, so renewals take effect without a
// restart.
//
//	reloader, err := certs.NewReloader(certFile, keyFile, logger)
//	if err != nil {
//	    return err
//	}
//	srv.TLSConfig = reloader.TLSConfig()
//	go reloader.Watch(ctx)
package certs
