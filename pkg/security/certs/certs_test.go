package certs

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"primeia/videogate/pkg/telemetry/logging"
)

// writePair writes a self-signed certificate and key valid from notBefore to
// notAfter. The files are replaced by rename.
func writePair(t *testing.T, dir, commonName string, notBefore, notAfter time.Time) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		DNSNames:     []string{"localhost"},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	replace(t, keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	replace(t, certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	return certFile, keyFile
}

func replace(t *testing.T, path string, data []byte) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func subject(t *testing.T, r *Reloader) string {
	t.Helper()
	cert, err := r.GetCertificate(&tls.ClientHelloInfo{})
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	return cert.Leaf.Subject.CommonName
}

func TestValidateCertificate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		notBefore time.Time
		notAfter  time.Time
		wantErr   bool
	}{
		{"valid", now.Add(-time.Hour), now.Add(90 * 24 * time.Hour), false},
		{"expired", now.Add(-48 * time.Hour), now.Add(-time.Hour), true},
		{"not yet valid", now.Add(time.Hour), now.Add(48 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certFile, keyFile := writePair(t, t.TempDir(), "videogate", tt.notBefore, tt.notAfter)
			pair, err := tls.LoadX509KeyPair(certFile, keyFile)
			if err != nil {
				t.Fatal(err)
			}
			if err := ValidateCertificate(&pair, now); (err != nil) != tt.wantErr {
				t.Errorf("ValidateCertificate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateCertificate(nil, now); err == nil {
		t.Error("nil certificate accepted")
	}
	if err := ValidateCertificate(&tls.Certificate{}, now); err == nil {
		t.Error("empty chain accepted")
	}
}

func TestExpiresSoon(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		notAfter time.Time
		want     bool
	}{
		{"far", now.Add(90 * 24 * time.Hour), false},
		{"near", now.Add(10 * 24 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert := &x509.Certificate{NotAfter: tt.notAfter}
			if got := ExpiresSoon(cert, now); got != tt.want {
				t.Errorf("ExpiresSoon() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewReloader(t *testing.T) {
	now := time.Now()
	dir := t.TempDir()
	certFile, keyFile := writePair(t, dir, "first", now.Add(-time.Hour), now.Add(90*24*time.Hour))

	r, err := NewReloader(certFile, keyFile, logging.Discard())
	if err != nil {
		t.Fatalf("NewReloader() error = %v", err)
	}
	if got := subject(t, r); got != "first" {
		t.Errorf("subject = %q, want first", got)
	}

	cfg := r.TLSConfig()
	if cfg.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %x, want TLS 1.3", cfg.MinVersion)
	}
	if cfg.GetCertificate == nil {
		t.Error("GetCertificate not set")
	}
}

func TestNewReloader_Errors(t *testing.T) {
	now := time.Now()

	t.Run("missing files", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := NewReloader(filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key"), nil); err == nil {
			t.Error("expected error for missing files")
		}
	})

	t.Run("expired", func(t *testing.T) {
		certFile, keyFile := writePair(t, t.TempDir(), "old", now.Add(-48*time.Hour), now.Add(-time.Hour))
		if _, err := NewReloader(certFile, keyFile, nil); err == nil {
			t.Error("expected error for expired certificate")
		}
	})

	t.Run("mismatched key", func(t *testing.T) {
		certFile, _ := writePair(t, t.TempDir(), "a", now.Add(-time.Hour), now.Add(time.Hour*48))
		_, otherKey := writePair(t, t.TempDir(), "b", now.Add(-time.Hour), now.Add(time.Hour*48))
		if _, err := NewReloader(certFile, otherKey, nil); err == nil {
			t.Error("expected error for mismatched key")
		}
	})
}

func TestReloader_Watch(t *testing.T) {
	now := time.Now()
	dir := t.TempDir()
	certFile, keyFile := writePair(t, dir, "first", now.Add(-time.Hour), now.Add(90*24*time.Hour))

	r, err := NewReloader(certFile, keyFile, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	r.delay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// Give the watcher time to register before replacing the files.
	time.Sleep(100 * time.Millisecond)
	writePair(t, dir, "renewed", now.Add(-time.Hour), now.Add(90*24*time.Hour))

	deadline := time.Now().Add(5 * time.Second)
	for subject(t, r) != "renewed" {
		if time.Now().After(deadline) {
			t.Fatal("certificate was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}

	// A broken replacement keeps the current certificate.
	replace(t, certFile, []byte("not a certificate"))
	time.Sleep(200 * time.Millisecond)
	if got := subject(t, r); got != "renewed" {
		t.Errorf("subject = %q after a bad reload, want renewed", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
