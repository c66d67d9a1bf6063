package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a CA bundle holds no certificates.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in CA bundle")

// ClientConfig returns a TLS config for talking to the auth API. It trusts
// the system roots plus every certificate in caFile. An empty caFile yields
// nil, meaning the transport's defaults.
func ClientConfig(caFile string) (*tls.Config, error) {
	if caFile == "" {
		return nil, nil
	}
	roots, err := LoadBundle(caFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{RootCAs: roots, MinVersion: tls.VersionTLS12}, nil
}

// LoadBundle reads a PEM CA bundle and returns the system pool extended
// with its certificates.
func LoadBundle(caFile string) (*x509.CertPool, error) {
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: read CA bundle: %w", err)
	}
	roots, err := x509.SystemCertPool()
	if err != nil {
		roots = x509.NewCertPool()
	}
	n, err := appendPEM(roots, data)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: %s: %w", caFile, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCertsFound, caFile)
	}
	return roots, nil
}

// appendPEM adds every CERTIFICATE block in data to roots and reports how
// many were added. Other block types, such as keys, are skipped.
func appendPEM(roots *x509.CertPool, data []byte) (int, error) {
	n := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return n, nil
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return n, fmt.Errorf("parse certificate %d: %w", n+1, err)
		}
		roots.AddCert(cert)
		n++
	}
}
