package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/himanishpuri/chromadna/pkg/chromadna"
	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
	"github.com/himanishpuri/chromadna/pkg/chromadna/storage"
	"github.com/himanishpuri/chromadna/pkg/logger"
)

// Global flags
var (
	dbPath       string
	threshold    float64
	fpcalcPath   string
	fpcalcLength int
	logLevel     string
)

var errUsage = errors.New("invalid usage")

func init() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	flag.StringVar(&dbPath, "db", getEnvOrDefault(storage.DBPathEnv, storage.DefaultDBFile), "Path to the SQLite database file")
	flag.Float64Var(&threshold, "threshold", getEnvFloat("CHROMADNA_THRESHOLD", fingerprint.DefaultMatchThreshold), "Match threshold in differing bits per frame")
	flag.StringVar(&fpcalcPath, "fpcalc", getEnvOrDefault("FPCALC_PATH", "fpcalc"), "Path to the fpcalc binary")
	flag.IntVar(&fpcalcLength, "length", getEnvInt("FPCALC_LENGTH", 120), "Seconds of audio to fingerprint (0 = fpcalc default)")
	flag.StringVar(&logLevel, "log-level", getEnvOrDefault(logger.LevelEnv, "WARN"), "Log level: DEBUG, INFO, WARN, ERROR")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// createService creates a chromadna service with the configured options
func createService() (chromadna.Service, error) {
	return chromadna.NewService(
		chromadna.WithDBPath(dbPath),
		chromadna.WithThreshold(threshold),
		chromadna.WithFpcalc(fpcalcPath, fpcalcLength),
	)
}

type command struct {
	run   func(w io.Writer, args []string) error
	usage string
}

var commands = map[string]command{
	"decode":  {runDecode, "decode [--json] <fingerprint>"},
	"encode":  {runEncode, "encode [--algorithm N] <v1,v2,...>"},
	"compare": {runCompare, "compare <fingerprint1> <fingerprint2>"},
	"calc":    {runCalc, "calc <audio_file>"},
	"add":     {runAdd, "add <audio_file|--fingerprint fp> [--title T] [--artist A] [--duration S]"},
	"match":   {runMatch, "match <audio_file|--fingerprint fp>"},
	"list":    {runList, "list"},
	"delete":  {runDelete, "delete <track_id>"},
	"stats":   {runStats, "stats"},
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if level, ok := logger.ParseLevel(logLevel); ok {
		logger.SetLevel(level)
	}
	log := logger.GetLogger()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Printf("Unknown command: %s\n", name)
		printUsage()
		os.Exit(1)
	}

	log.Debugf("Executing command: %s", name)
	if err := cmd.run(os.Stdout, flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Usage: chromadna %s\n", cmd.usage)
		} else {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			log.Errorf("%s failed: %v", name, err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("chromadna - chromaprint fingerprint toolkit")
	fmt.Println("\nGlobal Options:")
	fmt.Printf("  --db <path>          Path to SQLite database (env: %s, default: %s)\n", storage.DBPathEnv, storage.DefaultDBFile)
	fmt.Println("  --threshold <bits>   Match threshold (env: CHROMADNA_THRESHOLD, default: 10)")
	fmt.Println("  --fpcalc <path>      fpcalc binary (env: FPCALC_PATH, default: fpcalc)")
	fmt.Println("  --length <sec>       Seconds of audio to fingerprint (env: FPCALC_LENGTH, default: 120)")
	fmt.Println("  --log-level <level>  Log level (env: LOG_LEVEL, default: WARN)")
	fmt.Println("\nCommands:")
	for _, name := range []string{"decode", "encode", "compare", "calc", "add", "match", "list", "delete", "stats"} {
		fmt.Printf("  %s\n", commands[name].usage)
	}
}
