// Command shoeboxd runs the shoebox daemon in the foreground. It is the
// systemd-friendly entrypoint; `shoebox start` launches the same runtime
// through the CLI instead.
package main

import (
	"context"
	"flag"
	"log"

	"shoebox/internal/config"
	"shoebox/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		log.Fatalf("daemon exited: %v", err)
	}
}
