// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Library    LibraryConfig
	Server     ServerConfig
	Transcribe TranscribeConfig
	Pipeline   PipelineConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds storage configuration for the job store and search index.
type DataConfig struct {
	BasePath string
}

// LibraryConfig holds recording library configuration.
type LibraryConfig struct {
	// InboxPath is watched for new recordings; empty disables the watcher.
	InboxPath string
	Watch     bool
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	// RateLimit is requests per second allowed per client (default: 10)
	RateLimit float64
	RateBurst int
}

// TranscribeConfig holds speech-to-text service configuration.
type TranscribeConfig struct {
	// BaseURL of the transcription service (default: http://localhost:9000)
	BaseURL string
	// Token for bearer auth, if the service requires it
	Token string
	// Model name passed to the service (default: small)
	Model string
	// Timeout per transcription request (default: 30m, long recordings)
	Timeout time.Duration
	// Retries on transient failures (default: 3)
	Retries int
}

// PipelineConfig holds chapterization pipeline configuration.
type PipelineConfig struct {
	// Workers is the maximum simultaneous chapterization jobs (default: 2)
	Workers int
	// DefaultLanguage for marker detection when a job doesn't set one (default: en)
	DefaultLanguage string
	// WriteSidecar makes runs persist cue sidecars by default (default: false)
	WriteSidecar bool
	// FFmpegPath overrides auto-detection of ffmpeg location (default: auto-detect)
	FFmpegPath string
	// FFprobePath overrides auto-detection of ffprobe location (default: auto-detect)
	FFprobePath string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for the job store and search index")
	inboxPath := flag.String("inbox-path", "", "Directory watched for new recordings")
	watch := flag.String("watch", "", "Watch the inbox for new recordings (default: true)")
	serverName := flag.String("server-name", "", "Name for the server")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	rateLimit := flag.String("rate-limit", "", "Requests per second per client (default: 10)")
	rateBurst := flag.String("rate-burst", "", "Request burst per client (default: 20)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Transcription flags
	whisperURL := flag.String("whisper-url", "", "Transcription service base URL")
	whisperToken := flag.String("whisper-token", "", "Transcription service bearer token")
	whisperModel := flag.String("whisper-model", "", "Transcription model (default: small)")
	whisperTimeout := flag.String("whisper-timeout", "", "Per-request transcription timeout (default: 30m)")
	whisperRetries := flag.String("whisper-retries", "", "Transcription retries on transient failures (default: 3)")

	// Pipeline flags
	pipelineWorkers := flag.String("workers", "", "Max concurrent chapterization jobs (default: 2)")
	defaultLanguage := flag.String("language", "", "Default marker language (default: en)")
	writeSidecar := flag.String("write-sidecar", "", "Write cue sidecars by default (default: false)")
	ffmpegPath := flag.String("ffmpeg-path", "", "Path to ffmpeg binary (default: auto-detect)")
	ffprobePath := flag.String("ffprobe-path", "", "Path to ffprobe binary (default: auto-detect)")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},

		Library: LibraryConfig{
			InboxPath: getConfigValue(*inboxPath, "INBOX_PATH", ""),
			Watch:     getBoolConfigValue(*watch, "INBOX_WATCH", true),
		},

		Server: ServerConfig{
			Name:      getConfigValue(*serverName, "SERVER_NAME", "chapterd"),
			Port:      getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			RateLimit: getFloatConfigValue(*rateLimit, "SERVER_RATE_LIMIT", 10),
			RateBurst: getIntConfigValue(*rateBurst, "SERVER_RATE_BURST", 20),
		},

		Transcribe: TranscribeConfig{
			BaseURL: getConfigValue(*whisperURL, "WHISPER_URL", "http://localhost:9000"),
			Token:   getConfigValue(*whisperToken, "WHISPER_TOKEN", ""),
			Model:   getConfigValue(*whisperModel, "WHISPER_MODEL", "small"),
			Retries: getIntConfigValue(*whisperRetries, "WHISPER_RETRIES", 3),
		},

		Pipeline: PipelineConfig{
			Workers:         getIntConfigValue(*pipelineWorkers, "PIPELINE_WORKERS", 2),
			DefaultLanguage: getConfigValue(*defaultLanguage, "PIPELINE_LANGUAGE", "en"),
			WriteSidecar:    getBoolConfigValue(*writeSidecar, "PIPELINE_WRITE_SIDECAR", false),
			FFmpegPath:      getConfigValue(*ffmpegPath, "FFMPEG_PATH", ""),
			FFprobePath:     getConfigValue(*ffprobePath, "FFPROBE_PATH", ""),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Parse transcription timeout.
	whisperTimeoutStr := getConfigValue(*whisperTimeout, "WHISPER_TIMEOUT", "30m")
	whisperTimeoutDuration, err := time.ParseDuration(whisperTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid transcription timeout %q: %w", whisperTimeoutStr, err)
	}
	cfg.Transcribe.Timeout = whisperTimeoutDuration

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand and validate inbox path.
	if err := cfg.expandInboxPath(); err != nil {
		return nil, fmt.Errorf("invalid inbox path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d (must be at least 1)", c.Pipeline.Workers)
	}

	// InboxPath can be empty - jobs can still be submitted via the API.

	return nil
}

// StorePath returns the directory for the badger job store.
func (c *Config) StorePath() string {
	return filepath.Join(c.Data.BasePath, "store")
}

// SearchPath returns the directory for the bleve segment index.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Data.BasePath, "search")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".chapterd")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandInboxPath expands ~ and makes the path absolute.
// If empty, leaves it empty to disable the watcher.
func (c *Config) expandInboxPath() error {
	if c.Library.InboxPath == "" {
		return nil
	}

	expanded, err := expandPath(c.Library.InboxPath, "")
	if err != nil {
		return err
	}
	c.Library.InboxPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
