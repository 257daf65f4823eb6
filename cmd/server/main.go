//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/himanishpuri/chromadna/pkg/chromadna"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
	"github.com/himanishpuri/chromadna/pkg/chromadna/storage"
	"github.com/himanishpuri/chromadna/pkg/logger"
)

var (
	port           int
	dbPath         string
	tempDir        string
	allowedOrigins string
	threshold      float64
	maxCandidates  int
	fpcalcPath     string
	fpcalcLength   int
	logRequests    bool
)

func init() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	flag.IntVar(&port, "port", getEnvInt("PORT", 8080), "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault(storage.DBPathEnv, storage.DefaultDBFile), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("CHROMADNA_TEMP_DIR", os.TempDir()), "Directory for uploaded audio")
	flag.StringVar(&allowedOrigins, "origins", getEnvOrDefault("CORS_ORIGINS", "*"), "Comma-separated list of allowed CORS origins (use * for all)")
	flag.Float64Var(&threshold, "threshold", fingerprint.DefaultMatchThreshold, "Match threshold in differing bits per frame")
	flag.IntVar(&maxCandidates, "candidates", chromadna.DefaultMaxCandidates, "Stored tracks compared in full per query")
	flag.StringVar(&fpcalcPath, "fpcalc", getEnvOrDefault("FPCALC_PATH", "fpcalc"), "Path to the fpcalc binary")
	flag.IntVar(&fpcalcLength, "length", getEnvInt("FPCALC_LENGTH", 120), "Seconds of audio to fingerprint")
	flag.BoolVar(&logRequests, "log-requests", true, "Log every HTTP request")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func parseOrigins(s string) []string {
	if strings.TrimSpace(s) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	service, err := chromadna.NewService(
		chromadna.WithDBPath(dbPath),
		chromadna.WithThreshold(threshold),
		chromadna.WithMaxCandidates(maxCandidates),
		chromadna.WithFpcalc(fpcalcPath, fpcalcLength),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		AllowedOrigins: parseOrigins(allowedOrigins),
		LogRequests:    logRequests,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewServer(service, config).Start(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		service.Close()
		os.Exit(1)
	}
}
