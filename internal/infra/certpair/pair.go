package certpair

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when the certificate file has no CERTIFICATE block.
	ErrNoCertsFound = errors.New("certpair: no certificates found in PEM file")

	// ErrInvalidPair is returned when key and certificate cannot be used together.
	ErrInvalidPair = errors.New("certpair: invalid key pair")
)

// Pair names a private key file and a certificate file.
type Pair struct {
	KeyFile  string
	CertFile string
}

// Status is the result of Probe.
type Status struct {
	// Missing lists the files that are absent, not regular or unreadable.
	Missing []string
}

// Complete reports whether both files are usable.
func (s Status) Complete() bool {
	return len(s.Missing) == 0
}

// Probe checks that both files exist, are regular files and can be opened.
func (p Pair) Probe() Status {
	var st Status
	for _, path := range []string{p.KeyFile, p.CertFile} {
		if !readable(path) {
			st.Missing = append(st.Missing, path)
		}
	}
	return st
}

// Load reads both files and parses them into a certificate.
func (p Pair) Load() (tls.Certificate, error) {
	keyPEM, err := os.ReadFile(p.KeyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certpair: read key %s: %w", p.KeyFile, err)
	}
	certPEM, err := os.ReadFile(p.CertFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certpair: read cert %s: %w", p.CertFile, err)
	}
	return Parse(certPEM, keyPEM)
}

// Parse builds a certificate from PEM data.
func Parse(certPEM, keyPEM []byte) (tls.Certificate, error) {
	if !hasCertificate(certPEM) {
		return tls.Certificate{}, ErrNoCertsFound
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %v", ErrInvalidPair, err)
	}
	return cert, nil
}

// ServerTLSConfig returns a server TLS config presenting cert.
func ServerTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}

func readable(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func hasCertificate(data []byte) bool {
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return false
		}
		if block.Type == "CERTIFICATE" {
			return true
		}
	}
	return false
}
