package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "no-such.yaml"))

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if c.ListenAddr != ":8005" {
		t.Errorf("ListenAddr = %q", c.ListenAddr)
	}
	if c.MetaDSN != "memory://" {
		t.Errorf("MetaDSN = %q", c.MetaDSN)
	}
	if c.MaxChunkBytes != 4<<20 {
		t.Errorf("MaxChunkBytes = %d", c.MaxChunkBytes)
	}
	if c.GCTTLHours != 24 || c.GCIntervalMin != 30 {
		t.Errorf("GC defaults = %d/%d", c.GCTTLHours, c.GCIntervalMin)
	}
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("listen_addr: \":9000\"\nupload_dir: /tmp/up\nauth_token: from-file\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("AUTH_TOKEN", "from-env")
	t.Setenv("GC_TTL_HOURS", "48")

	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if c.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want :9000", c.ListenAddr)
	}
	if c.UploadDir != "/tmp/up" {
		t.Errorf("UploadDir = %q", c.UploadDir)
	}
	if c.AuthToken != "from-env" {
		t.Errorf("AuthToken = %q, env must win", c.AuthToken)
	}
	if c.GCTTLHours != 48 {
		t.Errorf("GCTTLHours = %d", c.GCTTLHours)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
