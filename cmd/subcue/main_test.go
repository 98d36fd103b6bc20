package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xifan2333/subcue/pkgs/caption"
)

type cliTestEnv struct {
	configPath string
	mediaDir   string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("DASHSCOPE_API_KEY", "")
	t.Setenv("BILIBILI_COOKIE", "")

	base := t.TempDir()
	mediaDir := filepath.Join(base, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
cache_dir = %q
temp_dir = %q

[logging]
level = "error"
format = "json"

[media]
default_dir = %q
`, filepath.Join(base, "cache"), filepath.Join(base, "tmp"), mediaDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{configPath: configPath, mediaDir: mediaDir, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	fullArgs := args
	if configPath != "" {
		fullArgs = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(fullArgs)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Transcription provider: bijian")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestShowPrintsCaptions(t *testing.T) {
	env := setupCLITestEnv(t)

	media := filepath.Join(env.mediaDir, "clip.mp4")
	captions := []caption.Caption{
		{Text: "hello", StartMs: 0, EndMs: 1500},
		{Text: "world", StartMs: 1500, EndMs: 3200},
	}
	if err := caption.WriteFile(caption.OutputPath(media, ".json"), captions); err != nil {
		t.Fatalf("write captions: %v", err)
	}

	out, _, err := runCLI(t, []string{"show", media}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "2 captions")
	requireContains(t, out, "hello")
	requireContains(t, out, "00:01.500")
	requireContains(t, out, "00:03.200")
}

func TestShowMissingCaptions(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"show", filepath.Join(env.mediaDir, "none.mp4")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no captions found") {
		t.Fatalf("expected missing captions error, got %v", err)
	}
}

func TestProvidersListsRegistered(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"providers"}, env.configPath)
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	for _, name := range []string{"bijian", "jianying", "elevenlabs", "dashscope"} {
		requireContains(t, out, name)
	}
	requireContains(t, out, "transcription")
	requireContains(t, out, "synthesis")
}

func TestTranscribeRejectsUnknownProvider(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"transcribe", "--provider", "nope", env.mediaDir}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "transcription.provider") {
		t.Fatalf("expected provider validation error, got %v", err)
	}
}

func TestTranscribeEmptyDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"transcribe"}, env.configPath)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	requireContains(t, out, "No media files found")
}

func TestTranscribeSkipsCaptionedMedia(t *testing.T) {
	env := setupCLITestEnv(t)

	media := filepath.Join(env.mediaDir, "done.mp4")
	if err := os.WriteFile(media, []byte("video"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	if err := caption.WriteFile(caption.OutputPath(media, ".json"), nil); err != nil {
		t.Fatalf("write captions: %v", err)
	}

	out, _, err := runCLI(t, []string{"transcribe", env.mediaDir}, env.configPath)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	requireContains(t, out, "done.mp4")
	requireContains(t, out, "skipped")
}

func TestSynthesizeRequiresKey(t *testing.T) {
	env := setupCLITestEnv(t)

	input := filepath.Join(env.mediaDir, "clip.json")
	_, _, err := runCLI(t, []string{"synthesize", input}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "synthesis.api_key is required") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestFormatMs(t *testing.T) {
	cases := map[int64]string{
		0:       "00:00.000",
		1500:    "00:01.500",
		61_001:  "01:01.001",
		3723004: "1:02:03.004",
	}
	for in, want := range cases {
		if got := formatMs(in); got != want {
			t.Errorf("formatMs(%d) = %q, want %q", in, got, want)
		}
	}
}
