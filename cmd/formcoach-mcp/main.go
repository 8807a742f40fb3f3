package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/formcoach/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "formcoach server URL (e.g. http://localhost:3001)")
	apiKey := flag.String("api-key", os.Getenv("FORMCOACH_AUTH_API_KEY"), "API key for the control endpoints")
	verbose := flag.Bool("v", false, "debug logging")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("formcoach-mcp", Version)
		return
	}

	// stdout carries the protocol
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: formcoach-mcp -server <URL> [-api-key KEY]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	backend := mcp.NewHTTPClient(*serverURL, *apiKey)
	log.Info("formcoach-mcp starting", "version", Version, "server", *serverURL)

	if err := server.ServeStdio(mcp.New(backend, Version, log)); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
