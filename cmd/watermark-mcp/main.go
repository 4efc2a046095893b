package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sealmark/watermark-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("watermark-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("watermark-mcp - MCP server for provenance watermarks")
			fmt.Println()
			fmt.Println("Usage: watermark-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  WATERMARK_MCP_DATA_DIR=path    Artifact and log directory (default ./data)")
			fmt.Println("  WATERMARK_MCP_LOG_LEVEL=debug  Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	dataDir := os.Getenv("WATERMARK_MCP_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	if os.Getenv("WATERMARK_MCP_LOG_LEVEL") == "debug" {
		log.Printf("Watermark MCP Server v%s (built %s, commit %s), data dir %s", Version, BuildTime, GitCommit, dataDir)
	}

	srv, err := server.New(dataDir)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
