package certs

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay is the quiet period after a file event before the pair
// is reloaded. Renewal tools usually replace the key and certificate in two
// separate writes.
const DefaultReloadDelay = 500 * time.Millisecond

// Reloader serves a certificate pair and reloads it when either file
// changes on disk. A failed reload keeps the previous certificate.
type Reloader struct {
	certFile string
	keyFile  string
	delay    time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewReloader loads the pair and fails when it is missing, mismatched or
// outside its validity period.
func NewReloader(certFile, keyFile string, logger *slog.Logger) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		delay:    DefaultReloadDelay,
		now:      time.Now,
		logger:   logger.With("component", "tls"),
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// TLSConfig returns a TLS 1.3 server configuration backed by the reloader.
func (r *Reloader) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS13,
		GetCertificate: r.GetCertificate,
	}
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// Watch reloads the pair after changes to either file until ctx is
// cancelled. The parent directories are watched so that replacement by
// rename, as done by most renewal tools, is seen.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create certificate watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	for _, file := range []string{r.certFile, r.keyFile} {
		dir := filepath.Dir(file)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
		watched[dir] = true
	}

	targets := map[string]bool{
		filepath.Clean(r.certFile): true,
		filepath.Clean(r.keyFile):  true,
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("certificate watcher closed")
			}
			if !targets[filepath.Clean(event.Name)] || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(r.delay, r.reloadAndLog)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("certificate watcher closed")
			}
			r.logger.Error("certificate watcher error", "error", err)
		}
	}
}

func (r *Reloader) reloadAndLog() {
	if err := r.reload(); err != nil {
		r.logger.Error("failed to reload certificate, keeping the previous one",
			"error", err,
			"cert_file", r.certFile,
		)
		return
	}
	r.logger.Info("certificate reloaded", "cert_file", r.certFile)
}

func (r *Reloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate pair: %w", err)
	}

	now := r.now()
	if err := ValidateCertificate(&cert, now); err != nil {
		return err
	}

	x509Cert, err := leaf(&cert)
	if err != nil {
		return err
	}
	cert.Leaf = x509Cert

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	attrs := []any{
		"subject", x509Cert.Subject.CommonName,
		"expires_at", x509Cert.NotAfter.Format(time.RFC3339),
	}
	if ExpiresSoon(x509Cert, now) {
		r.logger.Warn("certificate expiring soon", attrs...)
	} else {
		r.logger.Debug("certificate loaded", attrs...)
	}
	return nil
}
