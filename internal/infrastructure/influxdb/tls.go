package influxdb

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// LoadTrustStore reads a PEM bundle of CA certificates into a new pool.
// The system roots are not included.
func LoadTrustStore(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrustStore, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("%w: no certificates found in %s", ErrTrustStore, path)
	}

	return pool, nil
}

// PinnedTLSConfig returns a client TLS configuration that trusts only pool.
func PinnedTLSConfig(pool *x509.CertPool) *tls.Config {
	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
}
