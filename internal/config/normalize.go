package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeTranscription()
	c.normalizeProviders()
	if err := c.normalizeSynthesis(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
	return nil
}

func (c *Config) normalizePaths() error {
	defaults := Default()
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaults.Paths.CacheDir
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaults.Paths.TempDir
	}
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "auto"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = defaultProvider
	}
	if c.Transcription.MaxCharsPerLine == 0 {
		c.Transcription.MaxCharsPerLine = defaultMaxCharsPerLine
	}
	if c.Transcription.Workers == 0 {
		c.Transcription.Workers = 1
	}
}

func (c *Config) normalizeProviders() {
	c.Bijian.Cookie = strings.TrimSpace(c.Bijian.Cookie)
	if c.Bijian.Cookie == "" {
		if value, ok := os.LookupEnv("BILIBILI_COOKIE"); ok {
			c.Bijian.Cookie = strings.TrimSpace(value)
		}
	}
	c.Bijian.BaseURL = strings.TrimSpace(c.Bijian.BaseURL)

	c.JianYing.SignMode = strings.ToLower(strings.TrimSpace(c.JianYing.SignMode))
	if c.JianYing.SignMode == "" {
		c.JianYing.SignMode = defaultSignMode
	}
	c.JianYing.SignURL = strings.TrimSpace(c.JianYing.SignURL)

	c.ElevenLabs.LanguageCode = strings.TrimSpace(c.ElevenLabs.LanguageCode)
	if c.ElevenLabs.LanguageCode == "" {
		c.ElevenLabs.LanguageCode = "auto"
	}
}

func (c *Config) normalizeSynthesis() error {
	s := &c.Synthesis
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		s.Provider = defaultSynthesisProvider
	}
	s.APIKey = strings.TrimSpace(s.APIKey)
	if s.APIKey == "" {
		if value, ok := os.LookupEnv("DASHSCOPE_API_KEY"); ok {
			s.APIKey = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(s.Model) == "" {
		s.Model = defaultSynthesisModel
	}
	if strings.TrimSpace(s.Voice) == "" {
		s.Voice = defaultVoice
	}
	if strings.TrimSpace(s.LanguageType) == "" {
		s.LanguageType = defaultLanguageType
	}
	if s.SampleRate == 0 {
		s.SampleRate = defaultSampleRate
	}
	if s.Channels == 0 {
		s.Channels = defaultChannels
	}
	if strings.TrimSpace(s.InstructionsFile) != "" {
		expanded, err := expandPath(strings.TrimSpace(s.InstructionsFile))
		if err != nil {
			return fmt.Errorf("synthesis.instructions_file: %w", err)
		}
		s.InstructionsFile = expanded
	}
	return nil
}

func (c *Config) normalizeMedia() {
	if strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		c.Media.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		c.Media.FFprobeBinary = "ffprobe"
	}
	if len(c.Media.VideoExtensions) == 0 {
		c.Media.VideoExtensions = append([]string(nil), defaultVideoExtensions...)
	}
	for i, ext := range c.Media.VideoExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Media.VideoExtensions[i] = ext
	}
	if strings.TrimSpace(c.Media.DefaultDir) == "" {
		c.Media.DefaultDir = defaultMediaDir
	}
}
