package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/manholectl/internal/manhole"
)

type fileConfig struct {
	Node               string   `toml:"node"`
	Addr               string   `toml:"addr"`
	SocketPath         string   `toml:"socket_path"`
	Banner             string   `toml:"banner"`
	Prompt             string   `toml:"prompt"`
	PromptContinuation string   `toml:"prompt_continuation"`
	NamespaceMode      string   `toml:"namespace_mode"`
	Threaded           bool     `toml:"threaded"`
	Workers            int      `toml:"workers"`
	CommandTimeout     string   `toml:"command_timeout"`
	AdminAddr          string   `toml:"admin_addr"`
	CorsOrigins        []string `toml:"cors_origins"`
}

func loadServiceConfig(path string) (manhole.ServiceConfig, error) {
	cfg := manhole.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return manhole.ServiceConfig{}, fmt.Errorf("load manhole config: %w", err)
	}

	if meta.IsDefined("node") {
		if node := strings.TrimSpace(raw.Node); node != "" {
			cfg.Server.Node = node
		}
	}

	if meta.IsDefined("addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Addr)
	}

	if meta.IsDefined("socket_path") {
		cfg.Server.SocketPath = strings.TrimSpace(raw.SocketPath)
	}

	if meta.IsDefined("banner") {
		cfg.Server.Session.Banner = raw.Banner
	}

	if meta.IsDefined("prompt") {
		cfg.Server.Session.PromptPrimary = raw.Prompt
	}

	if meta.IsDefined("prompt_continuation") {
		cfg.Server.Session.PromptContinuation = raw.PromptContinuation
	}

	if meta.IsDefined("namespace_mode") {
		cfg.Server.Mode = manhole.NamespaceMode(strings.TrimSpace(raw.NamespaceMode))
	}

	if meta.IsDefined("threaded") {
		cfg.Server.Threaded = raw.Threaded
	}

	if meta.IsDefined("workers") {
		cfg.Server.Workers = raw.Workers
	}

	if meta.IsDefined("command_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CommandTimeout))
		if err != nil {
			return manhole.ServiceConfig{}, fmt.Errorf("parse command_timeout: %w", err)
		}
		cfg.Server.Timeout = d
	}

	if meta.IsDefined("admin_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminAddr)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}

	return cfg, nil
}
