// Package main provides the MCP entry point for the FPD risk server.
// It speaks the Model Context Protocol over stdio and requires no external
// databases - uses in-memory caching and SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fpd-risk-server/internal/config"
	"github.com/fpd-risk-server/internal/mcpserver"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	log.Printf("Starting FPD Risk MCP Server")
	log.Printf("Data directory: %s", cfg.DataDir)

	// Create MCP server
	server, err := mcpserver.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start MCP server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("FPD Risk MCP Server stopped")
}
