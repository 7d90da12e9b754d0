// Package config handles loading the bhashavaani configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration shared by the daemon and the CLI.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	Translator TranslatorConfig `mapstructure:"translator"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts"`
	History    HistoryConfig    `mapstructure:"history"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health and metrics server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// HTTPConfig configures the web transport.
type HTTPConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Port        int  `mapstructure:"port"`
	MaxUploadMB int  `mapstructure:"max_upload_mb"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// IngestConfig controls audio transcoding.
type IngestConfig struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	FFmpegArgs string `mapstructure:"ffmpeg_args"` // extra output args, shell-quoted
	TempDir    string `mapstructure:"temp_dir"`    // empty = os.TempDir()
	SampleRate int    `mapstructure:"sample_rate"`
}

// RecognizerConfig selects and configures the speech-to-text backend.
type RecognizerConfig struct {
	Backend string        `mapstructure:"backend"` // "google" or "whisper"
	Google  GoogleConfig  `mapstructure:"google"`
	Whisper WhisperConfig `mapstructure:"whisper"`
}

// GoogleConfig holds Cloud Speech-to-Text v2 settings.
type GoogleConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	Location        string `mapstructure:"location"`
	Model           string `mapstructure:"model"`
}

// WhisperConfig holds self-hosted Whisper settings.
type WhisperConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Type     string `mapstructure:"type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
}

// TranslatorConfig selects and configures the translation backend.
type TranslatorConfig struct {
	Backend string             `mapstructure:"backend"` // "openai" or "local"
	OpenAI  OpenAIConfig       `mapstructure:"openai"`
	Local   LocalTranslatorCfg `mapstructure:"local"`
}

// OpenAIConfig holds OpenAI (or compatible) API settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// LocalTranslatorCfg holds self-hosted LLM settings.
type LocalTranslatorCfg struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"` // Ollama model name (e.g., "llama3.1:8b")
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Backend string      `mapstructure:"backend"` // "piper" or "exec"
	Piper   PiperConfig `mapstructure:"piper"`
	Exec    ExecConfig  `mapstructure:"exec"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. Endpoints takes precedence.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`
	Endpoints map[string]string `mapstructure:"endpoints"`
	Voices    map[string]string `mapstructure:"voices"`
}

// ExecConfig runs a command-line synthesizer. The command may use the
// placeholders {text}, {lang} and {out}.
type ExecConfig struct {
	Command string `mapstructure:"command"`
	Format  string `mapstructure:"format"` // file extension of the produced audio
}

// ArtifactsConfig controls synthesized audio storage.
type ArtifactsConfig struct {
	Dir string        `mapstructure:"dir"`
	TTL time.Duration `mapstructure:"ttl"`
}

// HistoryConfig controls session-scoped history.
type HistoryConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./bhashavaani.yaml, ./configs/bhashavaani.yaml, /etc/bhashavaani/bhashavaani.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.max_upload_mb", 25)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("ingest.ffmpeg_path", "ffmpeg")
	v.SetDefault("ingest.ffmpeg_args", "")
	v.SetDefault("ingest.temp_dir", "")
	v.SetDefault("ingest.sample_rate", 16000)
	v.SetDefault("recognizer.backend", "google")
	v.SetDefault("recognizer.google.project_id", "")
	v.SetDefault("recognizer.google.credentials_json", "")
	v.SetDefault("recognizer.google.location", "global")
	v.SetDefault("recognizer.google.model", "long")
	v.SetDefault("recognizer.whisper.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("recognizer.whisper.type", "openai")
	v.SetDefault("translator.backend", "openai")
	v.SetDefault("translator.openai.api_key", "")
	v.SetDefault("translator.openai.model", "gpt-4o-mini")
	v.SetDefault("translator.openai.base_url", "")
	v.SetDefault("translator.local.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("translator.local.model", "llama3.1")
	v.SetDefault("tts.backend", "exec")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("tts.exec.command", "gtts-cli --lang {lang} --output {out} {text}")
	v.SetDefault("tts.exec.format", "mp3")
	v.SetDefault("artifacts.dir", "")
	v.SetDefault("artifacts.ttl", "15m")
	v.SetDefault("history.idle_timeout", "2h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("bhashavaani")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/bhashavaani")
	}

	// Environment variables: BHASHAVAANI_TRANSPORTS_HTTP_PORT, BHASHAVAANI_TTS_BACKEND, etc.
	v.SetEnvPrefix("BHASHAVAANI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}").
	cfg.Translator.OpenAI.APIKey = resolveEnvRef(cfg.Translator.OpenAI.APIKey)
	cfg.Recognizer.Google.CredentialsJSON = resolveEnvRef(cfg.Recognizer.Google.CredentialsJSON)
	cfg.Recognizer.Google.ProjectID = resolveEnvRef(cfg.Recognizer.Google.ProjectID)

	return &cfg, nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	SetupLoggingTo(os.Stdout, cfg)
}

// SetupLoggingTo is SetupLogging with an explicit destination.
func SetupLoggingTo(w io.Writer, cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
