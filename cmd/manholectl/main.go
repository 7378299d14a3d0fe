package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/danmuck/manholectl/internal/kvstate"
	"github.com/danmuck/manholectl/internal/logging"
	"github.com/danmuck/manholectl/internal/manhole"
)

func main() {
	logging.ConfigureRuntime()

	var configPath string
	flag.StringVar(&configPath, "config", "", "path to TOML config file")
	flag.Parse()

	cfg := manhole.DefaultServiceConfig()
	if configPath != "" {
		loaded, err := loadServiceConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "manholectl: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	svc := manhole.NewService(cfg, demoSeed())
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "manholectl: %v\n", err)
		os.Exit(1)
	}
}

// demoSeed gives the standalone daemon something worth inspecting. Embedders
// seed their own live state instead.
func demoSeed() map[string]any {
	started := time.Now()
	hostname, _ := os.Hostname()
	return map[string]any{
		"Store":      kvstate.New(),
		"Hostname":   hostname,
		"Pid":        os.Getpid(),
		"StartedAt":  started,
		"Uptime":     func() time.Duration { return time.Since(started) },
		"Goroutines": runtime.NumGoroutine,
	}
}
