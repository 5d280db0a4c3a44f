// Package main is FluxGraph's entry point: an interactive dataflow
// execution engine that accepts a topology upload, wires arithmetic
// agents to pub/sub topics, and accepts value injections over HTTP.
//
// Configuration loading strategy, mirrored from the teacher's
// orchestrator main:
//  1. Command line argument: uses the specified config file path.
//  2. Default file: attempts to load engine.yaml from the config directory.
//  3. Hardcoded defaults: falls back to config.Default().
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tenzoki/fluxgraph/internal/config"
	"github.com/tenzoki/fluxgraph/internal/dispatcher"
	"github.com/tenzoki/fluxgraph/internal/handlers"
	"github.com/tenzoki/fluxgraph/internal/staticfiles"
	"github.com/tenzoki/fluxgraph/internal/topology"
)

func main() {
	var cfg *config.Config
	var configSource string

	if len(os.Args) >= 2 {
		configFile := os.Args[1]
		loadedCfg, err := config.Load(configFile)
		if err != nil {
			log.Fatalf("Failed to load config from %s: %v", configFile, err)
		}
		cfg = loadedCfg
		configSource = fmt.Sprintf("config file: %s", configFile)
	} else if _, err := os.Stat("config/engine.yaml"); err == nil {
		loadedCfg, err := config.Load("config/engine.yaml")
		if err != nil {
			log.Printf("Warning: config/engine.yaml exists but failed to load: %v", err)
			log.Printf("Using hardcoded defaults instead")
			cfg = config.Default()
			configSource = "hardcoded defaults (config/engine.yaml failed to parse)"
		} else {
			cfg = loadedCfg
			configSource = "config/engine.yaml (default)"
		}
	} else {
		log.Printf("No config file specified and config/engine.yaml not found")
		cfg = config.Default()
		configSource = "hardcoded defaults"
	}

	log.Printf("Starting FluxGraph using %s", configSource)
	if cfg.Debug {
		log.Printf("Debug enabled")
	}

	engine := handlers.NewEngine(cfg.InboxCapacity)

	if cfg.PreloadTopology != "" {
		data, err := os.ReadFile(cfg.PreloadTopology)
		if err != nil {
			log.Fatalf("Failed to read preload topology %s: %v", cfg.PreloadTopology, err)
		}
		loader, err := topology.Load(string(data), engine.Registry, cfg.InboxCapacity)
		if err != nil {
			log.Fatalf("Failed to build preload topology: %v", err)
		}
		engine.SetLoader(loader)
		log.Printf("Preloaded topology from %s", cfg.PreloadTopology)
	}

	d := dispatcher.New(cfg.DispatcherPoolSize, cfg.Debug)
	d.AddHandler(http.MethodGet, "/publish", engine.Publish)
	d.AddHandler(http.MethodPost, "/publish", engine.Publish)
	d.AddHandler(http.MethodPost, "/upload", engine.Upload)
	d.AddHandler(http.MethodGet, "/render", engine.Render)

	static := staticfiles.New(cfg.StaticDir, "/app")
	d.AddHandler(http.MethodGet, "/app", static.ServeHTTP)
	d.AddHandler(http.MethodGet, "/favicon.ico", static.ServeHTTP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := d.Serve(ctx, cfg.Port); err != nil {
			log.Printf("Dispatcher error: %v", err)
		}
	}()

	log.Printf("FluxGraph engine listening on %s", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %s, shutting down...", sig)
	case <-ctx.Done():
		log.Printf("Context cancelled, shutting down...")
	}

	cancel()

	select {
	case <-serveDone:
		log.Println("Dispatcher shut down successfully")
	case <-time.After(10 * time.Second):
		log.Println("Dispatcher shutdown timeout exceeded")
	}

	engine.Close()
	log.Println("FluxGraph engine stopped")
}
