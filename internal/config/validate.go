package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	validProviders  = []string{"bijian", "jianying", "elevenlabs"}
	validLogFormats = []string{"auto", "console", "json"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validSignModes  = []string{"remote", "local"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateBudgets(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", validLogFormats, c.Logging.Format)
	}
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", validLogLevels, c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !slices.Contains(validProviders, c.Transcription.Provider) {
		return fmt.Errorf("transcription.provider must be one of %v, got %q", validProviders, c.Transcription.Provider)
	}
	if c.Transcription.MaxCharsPerLine < 1 {
		return errors.New("transcription.max_chars_per_line must be positive")
	}
	if c.Transcription.Workers < 1 {
		return errors.New("transcription.workers must be positive")
	}
	return nil
}

func (c *Config) validateBudgets() error {
	checks := []struct {
		name  string
		value int
		min   int
	}{
		{"bijian.poll_attempts", c.Bijian.PollAttempts, 1},
		{"bijian.poll_interval_seconds", c.Bijian.PollIntervalSeconds, 0},
		{"jianying.poll_attempts", c.JianYing.PollAttempts, 1},
		{"jianying.poll_interval_seconds", c.JianYing.PollIntervalSeconds, 0},
		{"jianying.retry_attempts", c.JianYing.RetryAttempts, 1},
		{"jianying.retry_delay_seconds", c.JianYing.RetryDelaySeconds, 0},
	}
	for _, check := range checks {
		if check.value < check.min {
			return fmt.Errorf("%s must be at least %d, got %d", check.name, check.min, check.value)
		}
	}
	if !slices.Contains(validSignModes, c.JianYing.SignMode) {
		return fmt.Errorf("jianying.sign_mode must be one of %v, got %q", validSignModes, c.JianYing.SignMode)
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	s := c.Synthesis
	if s.SampleRate < 8000 {
		return fmt.Errorf("synthesis.sample_rate must be at least 8000, got %d", s.SampleRate)
	}
	if s.Channels < 1 || s.Channels > 2 {
		return fmt.Errorf("synthesis.channels must be 1 or 2, got %d", s.Channels)
	}
	if s.MinGapMs < 0 || s.MaxGapMs < 0 {
		return errors.New("synthesis gap bounds must not be negative")
	}
	if s.MaxGapMs > 0 && s.MinGapMs > s.MaxGapMs {
		return fmt.Errorf("synthesis.min_gap_ms (%d) exceeds synthesis.max_gap_ms (%d)", s.MinGapMs, s.MaxGapMs)
	}
	return nil
}

// RequireSynthesisKey reports a missing TTS credential. It is checked only
// by commands that synthesize.
func (c *Config) RequireSynthesisKey() error {
	if c.Synthesis.APIKey == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			path = "~/.config/subcue/config.toml"
		}
		return fmt.Errorf("synthesis.api_key is required. Set DASHSCOPE_API_KEY env var or edit %s", path)
	}
	return nil
}
