package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/manholectl/internal/manhole"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServiceConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
node = "manhole.test"
addr = "127.0.0.1:9999"
socket_path = "/tmp/test.sock"
banner = "hi\n"
prompt = "-> "
prompt_continuation = ".. "
namespace_mode = "shared"
threaded = true
workers = 2
command_timeout = "250ms"
admin_addr = "127.0.0.1:7070"
cors_origins = ["http://localhost:3000"]
`)

	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Node != "manhole.test" {
		t.Fatalf("unexpected node: %q", cfg.Server.Node)
	}
	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.Server.SocketPath != "/tmp/test.sock" {
		t.Fatalf("unexpected socket path: %q", cfg.Server.SocketPath)
	}
	if cfg.Server.Session.Banner != "hi\n" {
		t.Fatalf("unexpected banner: %q", cfg.Server.Session.Banner)
	}
	if cfg.Server.Session.PromptPrimary != "-> " {
		t.Fatalf("unexpected prompt: %q", cfg.Server.Session.PromptPrimary)
	}
	if cfg.Server.Session.PromptContinuation != ".. " {
		t.Fatalf("unexpected continuation prompt: %q", cfg.Server.Session.PromptContinuation)
	}
	if cfg.Server.Mode != manhole.ModeShared {
		t.Fatalf("unexpected mode: %q", cfg.Server.Mode)
	}
	if !cfg.Server.Threaded {
		t.Fatalf("expected threaded execution")
	}
	if cfg.Server.Workers != 2 {
		t.Fatalf("unexpected workers: %d", cfg.Server.Workers)
	}
	if cfg.Server.Timeout != 250*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", cfg.Server.Timeout)
	}
	if cfg.AdminListenAddr != "127.0.0.1:7070" {
		t.Fatalf("unexpected admin addr: %q", cfg.AdminListenAddr)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", cfg.CorsOrigins)
	}
}

func TestLoadServiceConfigDefaultsWhenUnset(t *testing.T) {
	path := writeConfig(t, `node = "manhole.test"`)

	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := manhole.DefaultServiceConfig()
	if cfg.Server.Addr != def.Server.Addr {
		t.Fatalf("addr changed without override: %q", cfg.Server.Addr)
	}
	if cfg.Server.Mode != def.Server.Mode {
		t.Fatalf("mode changed without override: %q", cfg.Server.Mode)
	}
	if cfg.Server.Timeout != def.Server.Timeout {
		t.Fatalf("timeout changed without override: %v", cfg.Server.Timeout)
	}
	if cfg.Server.Threaded {
		t.Fatalf("threaded changed without override")
	}
}

func TestLoadServiceConfigBadTimeout(t *testing.T) {
	path := writeConfig(t, `command_timeout = "not-a-duration"`)

	if _, err := loadServiceConfig(path); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestDemoSeedIsValid(t *testing.T) {
	seed := demoSeed()
	if _, err := manhole.NewFactory(manhole.ModeIsolated, seed); err != nil {
		t.Fatalf("demo seed rejected: %v", err)
	}
}
