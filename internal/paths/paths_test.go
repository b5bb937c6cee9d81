package paths

import (
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	Reset()
	defer Reset()

	p := Default()

	if p.CertFile == "" {
		t.Error("CertFile is empty")
	}
	if p.KeyFile == "" {
		t.Error("KeyFile is empty")
	}
	if p.PIDFile == "" {
		t.Error("PIDFile is empty")
	}
	if p.LogFile == "" {
		t.Error("LogFile is empty")
	}

	if p.CertFile != "/etc/symbion/cert.pem" {
		t.Errorf("CertFile = %q, want %q", p.CertFile, "/etc/symbion/cert.pem")
	}
	if p.KeyFile != "/etc/symbion/key.pem" {
		t.Errorf("KeyFile = %q, want %q", p.KeyFile, "/etc/symbion/key.pem")
	}
	if p.PIDFile != "/var/run/ssl_proxy.pid" {
		t.Errorf("PIDFile = %q, want %q", p.PIDFile, "/var/run/ssl_proxy.pid")
	}
}

func TestDefaultCaching(t *testing.T) {
	Reset()
	defer Reset()

	p1 := Default()
	p2 := Default()

	if p1 != p2 {
		t.Error("Default() should return cached instance")
	}
}

func TestPEMDirOverride(t *testing.T) {
	Reset()
	defer Reset()

	tmpDir := t.TempDir()
	t.Setenv("SSLPROXY_PEM_DIR", tmpDir)

	p := Default()

	if p.CertFile != filepath.Join(tmpDir, "cert.pem") {
		t.Errorf("CertFile = %q, want under %q", p.CertFile, tmpDir)
	}
	if p.KeyFile != filepath.Join(tmpDir, "key.pem") {
		t.Errorf("KeyFile = %q, want under %q", p.KeyFile, tmpDir)
	}
}

func TestRunDirOverride(t *testing.T) {
	Reset()
	defer Reset()

	tmpDir := t.TempDir()
	t.Setenv("SSLPROXY_RUN_DIR", tmpDir)

	p := Default()

	if p.PIDFile != filepath.Join(tmpDir, "ssl_proxy.pid") {
		t.Errorf("PIDFile = %q, want under %q", p.PIDFile, tmpDir)
	}
	if p.LogFile != filepath.Join(tmpDir, "ssl_proxy.log") {
		t.Errorf("LogFile = %q, want under %q", p.LogFile, tmpDir)
	}
}

func TestConvenienceFunctions(t *testing.T) {
	Reset()
	defer Reset()

	p := Default()

	if CertFile() != p.CertFile {
		t.Errorf("CertFile() = %q, want %q", CertFile(), p.CertFile)
	}
	if KeyFile() != p.KeyFile {
		t.Errorf("KeyFile() = %q, want %q", KeyFile(), p.KeyFile)
	}
	if PIDFile() != p.PIDFile {
		t.Errorf("PIDFile() = %q, want %q", PIDFile(), p.PIDFile)
	}
	if LogFile() != p.LogFile {
		t.Errorf("LogFile() = %q, want %q", LogFile(), p.LogFile)
	}
}

func TestReset(t *testing.T) {
	Reset()

	tmpDir1 := t.TempDir()
	t.Setenv("SSLPROXY_PEM_DIR", tmpDir1)
	p1 := Default()

	Reset()
	tmpDir2 := t.TempDir()
	t.Setenv("SSLPROXY_PEM_DIR", tmpDir2)
	p2 := Default()

	if p1.CertFile == p2.CertFile {
		t.Error("Reset() should allow paths to be recalculated")
	}

	Reset()
}
