// Package credentials loads the operator-supplied TLS certificate and RSA
// private key used to terminate incoming connections. There is no CA, no
// on-demand issuance, and no disk cache: the pair is read once at startup
// and held for the lifetime of the process.
package credentials

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Credentials holds the loaded keypair and the server-side TLS config built
// from it.
type Credentials struct {
	Certificate tls.Certificate
	Config      *tls.Config
}

// Load reads a PEM certificate and PEM RSA private key from disk and builds
// a server-side tls.Config restricted to TLS 1.2+.
func Load(certFile, keyFile string) (*Credentials, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}

	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if err := requireRSAKey(keyPEM); err != nil {
		return nil, err
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS keypair: %w", err)
	}

	return &Credentials{
		Certificate: cert,
		Config: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
			ClientAuth:   tls.NoClientCert,
		},
	}, nil
}

// requireRSAKey rejects any private key PEM block that doesn't decode to an
// RSA key, matching the original program's "RSA private key" constraint.
func requireRSAKey(keyPEM []byte) error {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return fmt.Errorf("key file does not contain a PEM block")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
			return fmt.Errorf("failed to parse RSA private key: %w", err)
		}
		return nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return fmt.Errorf("failed to parse PKCS8 private key: %w", err)
		}
		if _, ok := key.(*rsa.PrivateKey); !ok {
			return fmt.Errorf("private key is not RSA")
		}
		return nil
	default:
		return fmt.Errorf("unsupported private key PEM type %q, want RSA", block.Type)
	}
}
