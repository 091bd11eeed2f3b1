package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultSegmentPath = "./bk_0.data"
	DefaultFileID      = 0
	DefaultLogLevel    = "warn"
	DefaultEnvFile     = ".env"
)

// ErrUsage marks a Load failure caused by bad flags. The flag set has already
// printed the problem and usage text.
var ErrUsage = errors.New("invalid usage")

// Environment variables read by Load.
const (
	EnvSegmentPath = "BITCASK_SEGMENT_PATH"
	EnvFileID      = "BITCASK_FILE_ID"
	EnvLogLevel    = "BITCASK_LOG_LEVEL"
)

type Config struct {
	SegmentPath string
	FileID      uint32
	LogLevel    string
}

func DefaultConfig() Config {
	return Config{
		SegmentPath: DefaultSegmentPath,
		FileID:      DefaultFileID,
		LogLevel:    DefaultLogLevel,
	}
}

// Load resolves the configuration for the program called name. Values come
// from, in increasing priority: defaults, the env file, the process
// environment, then args. A missing env file is not an error. extra may
// register program-specific flags on the same flag set.
func Load(name string, args []string, envFile string, extra ...func(*flag.FlagSet)) (Config, error) {
	cfg := DefaultConfig()

	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		v, ok := dotenv[key]
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := lookup(EnvSegmentPath); ok {
		cfg.SegmentPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvFileID); ok {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvFileID, v, err)
		}
		cfg.FileID = uint32(id)
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&cfg.SegmentPath, "path", cfg.SegmentPath, "Segment file to operate on")
	fileID := flags.Uint64("file-id", uint64(cfg.FileID), "File ID recorded in keydir entries for this segment")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	for _, register := range extra {
		register(flags)
	}

	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if *fileID > uint64(^uint32(0)) {
		return Config{}, fmt.Errorf("invalid -file-id %d: exceeds 32 bits", *fileID)
	}
	cfg.FileID = uint32(*fileID)

	if cfg.SegmentPath == "" {
		return Config{}, errors.New("segment path cannot be empty")
	}

	return cfg, nil
}

// ReportLoadError writes a Load error to w, unless the flag set already
// reported it, and returns the exit code the program should use.
func ReportLoadError(w io.Writer, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if !errors.Is(err, ErrUsage) {
		fmt.Fprintln(w, "Error while loading configuration:", err)
	}
	return 2
}
