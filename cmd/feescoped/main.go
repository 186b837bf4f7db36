package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/b0ase/path402/apps/feescope/internal/config"
	"github.com/b0ase/path402/apps/feescope/internal/daemon"
	"github.com/b0ase/path402/apps/feescope/internal/mcpserver"
)

var Version = "0.1.0"

func main() {
	cfgPath := flag.String("config", "", "path to feescope.yaml")
	mcpMode := flag.Bool("mcp", false, "serve MCP tools on stdio instead of waiting for a signal")
	importPath := flag.String("import", "", "load a JSON fee record file and exit")
	importHeight := flag.Int("height", -1, "block height of the -import file")
	importHash := flag.String("hash", "", "block hash of the -import file")
	list := flag.Int("list", 0, "print the newest N stored fee sets and exit")
	flag.Parse()

	// Resolve config path
	if *cfgPath == "" {
		home, _ := os.UserHomeDir()
		*cfgPath = filepath.Join(home, ".feescope", "feescope.yaml")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}
	if err := cfg.Log.Apply(log.Default(), os.Stderr); err != nil {
		log.Fatalf("[main] Bad log config: %v", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		log.Fatalf("[main] Failed to create data dir %s: %v", cfg.DataDir, err)
	}

	if *list > 0 {
		if err := listFeeSets(cfg, *list, os.Stdout); err != nil {
			log.Fatalf("[main] %v", err)
		}
		return
	}

	if *importPath != "" {
		if *importHeight < 0 {
			log.Fatal("[main] -import needs -height")
		}
		n, err := daemon.ImportFile(cfg, *importPath, *importHeight, *importHash)
		if err != nil {
			log.Fatalf("[main] Import failed: %v", err)
		}
		fmt.Printf("imported %d records for block %d\n", n, *importHeight)
		return
	}

	// stdout belongs to the MCP transport in -mcp mode.
	if !*mcpMode {
		fmt.Printf("\n  feescope  v%s\n  block fee console\n\n", Version)
	}
	log.Printf("[main] Data dir: %s", cfg.DataDir)

	d, err := daemon.New(cfg)
	if err != nil {
		log.Fatalf("[main] Failed to create daemon: %v", err)
	}

	if err := d.Start(); err != nil {
		log.Fatalf("[main] Failed to start daemon: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *mcpMode {
		log.Println("[mcp] Serving tools on stdio")
		if err := mcpserver.New(Version, d, d.Console()).Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[mcp] Server ended: %v", err)
		}
	} else {
		<-ctx.Done()
		log.Println("[main] Received signal, shutting down...")
	}

	d.Stop()
	log.Println("[main] Goodbye.")
}
