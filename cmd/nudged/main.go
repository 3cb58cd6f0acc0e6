package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/nudgekit-dev/nudgekit"
	"github.com/nudgekit-dev/nudgekit/pkg/observability"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	// Command line flags
	configFile = flag.String("config", getEnv("CONFIG_FILE", "config/nudgekit.yaml"), "Daemon configuration file")
	httpPort   = flag.Int("http-port", getEnvInt("PORT", 8080), "HTTP server port for metrics and health")
)

func main() {
	flag.Parse()

	log.Printf("Starting nudgekit daemon v%s", Version)
	log.Printf("Config: %s, HTTP Port: %d", *configFile, *httpPort)

	// Initialize observability
	observability.InitMetrics()
	observability.InitHealthChecker()

	// Start observability server
	obsServer := observability.NewServer(*httpPort)
	errChan := make(chan error, 2)
	go func() {
		log.Printf("Starting HTTP server on :%d", *httpPort)
		if err := obsServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	go func() {
		// Run blocks until a shutdown signal arrives.
		errChan <- nudgekit.Run(*configFile, nil)
	}()

	err := <-errChan
	if err != nil {
		log.Printf("Error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if serr := obsServer.Shutdown(ctx); serr != nil {
		log.Printf("HTTP server shutdown error: %v", serr)
	}

	if err != nil {
		os.Exit(1)
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
