package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/xifan2333/subcue/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("DASHSCOPE_API_KEY", "env-key")
	t.Setenv("BILIBILI_COOKIE", " SESSDATA=abc ")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "subcue", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "subcue") {
		t.Fatalf("unexpected cache dir %q", cfg.Paths.CacheDir)
	}
	if cfg.Transcription.Provider != "bijian" || cfg.Transcription.MaxCharsPerLine != 42 {
		t.Fatalf("unexpected transcription defaults %+v", cfg.Transcription)
	}
	if cfg.Bijian.PollAttempts != 500 || cfg.BijianPollInterval() != time.Second {
		t.Fatalf("unexpected bijian budget %+v", cfg.Bijian)
	}
	if cfg.JianYing.PollAttempts != 60 || cfg.JianYingPollInterval() != 2*time.Second || cfg.JianYingRetryDelay() != 2*time.Second {
		t.Fatalf("unexpected jianying budget %+v", cfg.JianYing)
	}
	if cfg.Synthesis.APIKey != "env-key" || cfg.Bijian.Cookie != "SESSDATA=abc" {
		t.Fatalf("env fallbacks not applied: %q %q", cfg.Synthesis.APIKey, cfg.Bijian.Cookie)
	}
	if cfg.Synthesis.SampleRate != 24000 || cfg.Synthesis.Channels != 1 || cfg.Synthesis.MinGapMs != 100 || cfg.Synthesis.MaxGapMs != 1000 {
		t.Fatalf("unexpected synthesis defaults %+v", cfg.Synthesis)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.CacheDir); err != nil || !info.IsDir() {
		t.Fatalf("cache dir not created: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "subcue.toml")

	type payload struct {
		Transcription struct {
			Provider string `toml:"provider"`
			Workers  int    `toml:"workers"`
		} `toml:"transcription"`
		JianYing struct {
			SignMode     string `toml:"sign_mode"`
			PollAttempts int    `toml:"poll_attempts"`
		} `toml:"jianying"`
		Media struct {
			VideoExtensions []string `toml:"video_extensions"`
		} `toml:"media"`
		Paths struct {
			CacheDir string `toml:"cache_dir"`
		} `toml:"paths"`
	}
	custom := payload{}
	custom.Transcription.Provider = "JianYing"
	custom.Transcription.Workers = 4
	custom.JianYing.SignMode = "local"
	custom.JianYing.PollAttempts = 10
	custom.Media.VideoExtensions = []string{"MP4", ".mkv"}
	custom.Paths.CacheDir = filepath.Join(dir, "cache")
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution %q %v", resolved, exists)
	}
	if cfg.Transcription.Provider != "jianying" || cfg.Transcription.Workers != 4 {
		t.Fatalf("unexpected transcription %+v", cfg.Transcription)
	}
	if cfg.JianYing.SignMode != "local" || cfg.JianYing.PollAttempts != 10 || cfg.JianYing.RetryAttempts != 3 {
		t.Fatalf("unexpected jianying %+v", cfg.JianYing)
	}
	if !cfg.IsVideo("/x/clip.MP4") || !cfg.IsVideo("a.mkv") || cfg.IsVideo("a.mov") {
		t.Fatalf("unexpected extensions %v", cfg.Media.VideoExtensions)
	}
	if cfg.CachePath() != filepath.Join(dir, "cache", "transcripts.db") {
		t.Fatalf("unexpected cache path %q", cfg.CachePath())
	}
	if err := cfg.RequireSynthesisKey(); err == nil {
		t.Fatal("expected missing synthesis key error")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"provider":   "[transcription]\nprovider = \"whisper\"\n",
		"sign mode":  "[jianying]\nsign_mode = \"magic\"\n",
		"poll":       "[bijian]\npoll_attempts = -1\n",
		"log level":  "[logging]\nlevel = \"trace\"\n",
		"gap bounds": "[synthesis]\nmin_gap_ms = 2000\nmax_gap_ms = 1000\n",
		"channels":   "[synthesis]\nchannels = 6\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected validation error for %q", body)
			}
		})
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[transcription\nprovider="), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil || !exists {
		t.Fatalf("sample config did not load: %v", err)
	}
	def := config.Default()
	if cfg.Transcription != def.Transcription || cfg.JianYing != def.JianYing {
		t.Fatalf("sample config drifted from defaults:\n%+v\n%+v", cfg.Transcription, def.Transcription)
	}
}
