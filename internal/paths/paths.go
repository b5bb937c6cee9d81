// Package paths resolves the on-disk locations sslproxy reads credentials
// from and writes daemon state to.
package paths

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultPEMDir   = "/etc/symbion"
	defaultCertFile = "cert.pem"
	defaultKeyFile  = "key.pem"
	defaultRunDir   = "/var/run"
	defaultPIDFile  = "ssl_proxy.pid"
	defaultLogFile  = "ssl_proxy.log"
)

// Paths holds all resolved paths for the daemon.
type Paths struct {
	// CertFile is the default certificate file path, overridable by -C.
	CertFile string

	// KeyFile is the default private key file path, overridable by -K.
	KeyFile string

	// PIDFile is the path to the daemon PID file.
	PIDFile string

	// LogFile is the path to the daemon log file, used when daemonized.
	LogFile string
}

var (
	defaultPaths *Paths
	pathsOnce    sync.Once
)

// Default returns the default paths for the current system. Honors
// SSLPROXY_PEM_DIR and SSLPROXY_RUN_DIR environment overrides, which exist
// primarily so tests don't need to touch /etc or /var/run. The result is
// cached after the first call.
func Default() *Paths {
	pathsOnce.Do(func() {
		defaultPaths = resolve()
	})
	return defaultPaths
}

func resolve() *Paths {
	pemDir := defaultPEMDir
	if dir := os.Getenv("SSLPROXY_PEM_DIR"); dir != "" {
		pemDir = dir
	}

	runDir := defaultRunDir
	if dir := os.Getenv("SSLPROXY_RUN_DIR"); dir != "" {
		runDir = dir
	}

	return &Paths{
		CertFile: filepath.Join(pemDir, defaultCertFile),
		KeyFile:  filepath.Join(pemDir, defaultKeyFile),
		PIDFile:  filepath.Join(runDir, defaultPIDFile),
		LogFile:  filepath.Join(runDir, defaultLogFile),
	}
}

// Reset clears the cached default paths. Useful for testing with different
// environment variables.
func Reset() {
	defaultPaths = nil
	pathsOnce = sync.Once{}
}

// Convenience functions for common path access.

// CertFile returns the default certificate file path.
func CertFile() string {
	return Default().CertFile
}

// KeyFile returns the default private key file path.
func KeyFile() string {
	return Default().KeyFile
}

// PIDFile returns the daemon PID file path.
func PIDFile() string {
	return Default().PIDFile
}

// LogFile returns the daemon log file path.
func LogFile() string {
	return Default().LogFile
}
