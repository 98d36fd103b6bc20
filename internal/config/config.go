package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	TempDir  string `toml:"temp_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Transcription contains pipeline-wide transcription settings.
type Transcription struct {
	Provider        string `toml:"provider"`
	MaxCharsPerLine int    `toml:"max_chars_per_line"`
	GroupLines      bool   `toml:"group_lines"`
	WordTimestamps  bool   `toml:"word_timestamps"`
	Workers         int    `toml:"workers"`
	CacheEnabled    bool   `toml:"cache_enabled"`
}

// Bijian contains the chunked-upload provider settings.
type Bijian struct {
	Cookie              string `toml:"cookie"`
	BaseURL             string `toml:"base_url"`
	PollAttempts        int    `toml:"poll_attempts"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// JianYing contains the signed-upload provider settings.
type JianYing struct {
	SignMode            string `toml:"sign_mode"`
	SignURL             string `toml:"sign_url"`
	PollAttempts        int    `toml:"poll_attempts"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	RetryAttempts       int    `toml:"retry_attempts"`
	RetryDelaySeconds   int    `toml:"retry_delay_seconds"`
	WordsPerLine        int    `toml:"words_per_line"`
	MaxLines            int    `toml:"max_lines"`
	AdjustEndtime       int    `toml:"adjust_endtime"`
}

// ElevenLabs contains the multipart provider settings.
type ElevenLabs struct {
	LanguageCode   string `toml:"language_code"`
	TagAudioEvents bool   `toml:"tag_audio_events"`
}

// Synthesis contains text-to-speech settings.
type Synthesis struct {
	Provider         string `toml:"provider"`
	APIKey           string `toml:"api_key"`
	Model            string `toml:"model"`
	Voice            string `toml:"voice"`
	LanguageType     string `toml:"language_type"`
	Instructions     string `toml:"instructions"`
	InstructionsFile string `toml:"instructions_file"`
	SampleRate       int    `toml:"sample_rate"`
	Channels         int    `toml:"channels"`
	MinGapMs         int64  `toml:"min_gap_ms"`
	MaxGapMs         int64  `toml:"max_gap_ms"`
}

// Media contains the external toolchain and discovery settings.
type Media struct {
	FFmpegBinary    string   `toml:"ffmpeg_binary"`
	FFprobeBinary   string   `toml:"ffprobe_binary"`
	VideoExtensions []string `toml:"video_extensions"`
	DefaultDir      string   `toml:"default_dir"`
}

// Metrics contains the Prometheus endpoint settings.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Config encapsulates all configuration values for subcue.
//
// Configuration sections by subsystem:
//   - Paths: cache and scratch directories
//   - Logging: log format and level
//   - Transcription: provider choice and caption shaping
//   - Bijian, JianYing, ElevenLabs: per-provider budgets and options
//   - Synthesis: TTS provider, voice and timeline gaps
//   - Media: ffmpeg/ffprobe binaries and media discovery
//   - Metrics: optional /metrics listener
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Transcription Transcription `toml:"transcription"`
	Bijian        Bijian        `toml:"bijian"`
	JianYing      JianYing      `toml:"jianying"`
	ElevenLabs    ElevenLabs    `toml:"elevenlabs"`
	Synthesis     Synthesis     `toml:"synthesis"`
	Media         Media         `toml:"media"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subcue/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. It returns the config, the resolved path and whether
// the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// EnsureDirectories creates the cache and scratch directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CachePath is the transcript cache database.
func (c *Config) CachePath() string {
	return filepath.Join(c.Paths.CacheDir, "transcripts.db")
}

// BijianPollInterval returns the poll interval as a duration.
func (c *Config) BijianPollInterval() time.Duration {
	return time.Duration(c.Bijian.PollIntervalSeconds) * time.Second
}

// JianYingPollInterval returns the poll interval as a duration.
func (c *Config) JianYingPollInterval() time.Duration {
	return time.Duration(c.JianYing.PollIntervalSeconds) * time.Second
}

// JianYingRetryDelay returns the store retry delay as a duration.
func (c *Config) JianYingRetryDelay() time.Duration {
	return time.Duration(c.JianYing.RetryDelaySeconds) * time.Second
}

// IsVideo reports whether path has one of the configured media extensions.
func (c *Config) IsVideo(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range c.Media.VideoExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
