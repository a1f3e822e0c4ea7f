// Command paprintd runs a printer application system: it loads a YAML
// configuration naming one or more driver-backed printers and serves IPP
// over HTTP, optionally advertising each printer over DNS-SD.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/paprintd/paprintd/drivers/lxd02"
	_ "github.com/paprintd/paprintd/drivers/pwgraster"

	"github.com/paprintd/paprintd"
)

func main() {
	var (
		configPath = flag.String("config", "paprintd.yaml", "path to the system configuration file")
		addr       = flag.String("addr", "localhost:6310", "HTTP listen address")
		verbose    = flag.Bool("v", os.Getenv("DEBUG") == "1", "enable verbose logging")
	)
	flag.Parse()

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := run(*configPath, *addr); err != nil {
		slog.Error("paprintd exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := pa.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sys, err := pa.NewSystem(cfg)
	if err != nil {
		return fmt.Errorf("build system: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting paprintd", "addr", addr, "printers", len(cfg.Printers))
	if err := sys.Run(ctx, addr); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
