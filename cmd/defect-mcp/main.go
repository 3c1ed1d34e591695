package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ironsheep/defect-tools-mcp/internal/config"
	"github.com/ironsheep/defect-tools-mcp/internal/logging"
	"github.com/ironsheep/defect-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// envConfigPath names a config file when --config is not given.
const envConfigPath = "DEFECT_MCP_CONFIG"

func usage() {
	fmt.Println("defect-mcp - MCP server for bright/dark spot defect detection")
	fmt.Println()
	fmt.Println("Usage: defect-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH    Read settings from a TOML file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  DEFECT_MCP_CONFIG=path             Config file when --config is absent")
	fmt.Println("  DEFECT_MCP_LOG_LEVEL=debug         Log level (debug, info, warn, error)")
	fmt.Println("  DEFECT_MCP_LOG_FORMAT=json         Log format (console, json)")
	fmt.Println("  DEFECT_MCP_MIN_SPOT_SIZE=40        Default minimum defect size in pixels")
	fmt.Println("  DEFECT_MCP_MIN_CONTRAST=12         Default minimum contrast in percent")
	fmt.Println("  DEFECT_MCP_MAX_EDGE_POINTS=20000   Border points kept per defect")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	configPath := os.Getenv(envConfigPath)

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--version" || arg == "-v" || arg == "version":
			fmt.Printf("defect-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case arg == "--help" || arg == "-h" || arg == "help":
			usage()
			return
		case arg == "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q\n\n", arg)
			usage()
			os.Exit(2)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "defect-mcp: %v\n", err)
		os.Exit(1)
	}

	// stdout is reserved for MCP protocol traffic
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "defect-mcp: %v\n", err)
		os.Exit(1)
	}

	logger.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Str("config", configPath).
		Int("min_spot_size_px", cfg.Detection.MinSpotSizePx).
		Float64("min_contrast_percent", cfg.Detection.MinContrastPercent).
		Msg("starting defect MCP server")

	srv := server.New(cfg, logger)
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
