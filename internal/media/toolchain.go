package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xifan2333/subcue/pkgs/timeline"
)

// ErrNoDuration is returned when ffprobe reports no usable duration.
var ErrNoDuration = errors.New("media: duration unavailable")

// Runner executes a binary and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Format is the sample layout of synthesized audio.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is 24 kHz mono.
var DefaultFormat = Format{SampleRate: 24000, Channels: 1}

func (f Format) layout() string {
	if f.Channels == 2 {
		return "stereo"
	}
	return "mono"
}

func (f Format) withDefaults() Format {
	if f.SampleRate <= 0 {
		f.SampleRate = DefaultFormat.SampleRate
	}
	if f.Channels <= 0 {
		f.Channels = DefaultFormat.Channels
	}
	return f
}

// Toolchain runs ffmpeg and ffprobe.
type Toolchain struct {
	ffmpeg  string
	ffprobe string
	run     Runner
}

// Option configures a Toolchain.
type Option func(*Toolchain)

// WithBinaries overrides the binary names. Empty values keep the defaults.
func WithBinaries(ffmpeg, ffprobe string) Option {
	return func(t *Toolchain) {
		if s := strings.TrimSpace(ffmpeg); s != "" {
			t.ffmpeg = s
		}
		if s := strings.TrimSpace(ffprobe); s != "" {
			t.ffprobe = s
		}
	}
}

// WithRunner replaces process execution, mainly for tests.
func WithRunner(r Runner) Option {
	return func(t *Toolchain) {
		if r != nil {
			t.run = r
		}
	}
}

// New returns a Toolchain using "ffmpeg" and "ffprobe" from PATH unless
// overridden.
func New(opts ...Option) *Toolchain {
	t := &Toolchain{ffmpeg: "ffmpeg", ffprobe: "ffprobe", run: execRunner}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// ExtractAudio writes the first audio stream of source to dest as 16 kHz
// mono. The container follows dest's extension.
func (t *Toolchain) ExtractAudio(ctx context.Context, source, dest string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return errors.New("extract audio: source and destination required")
	}
	zerolog.Ctx(ctx).Debug().Str("source", source).Str("dest", dest).Msg("extracting audio")
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-b:a", "128k",
		dest,
	}
	if _, err := t.run(ctx, t.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}

// ProbeDuration returns the container duration of path in milliseconds,
// rounded up.
func (t *Toolchain) ProbeDuration(ctx context.Context, path string) (int64, error) {
	if strings.TrimSpace(path) == "" {
		return 0, errors.New("ffprobe duration: empty path")
	}
	output, err := t.run(ctx, t.ffprobe, "-v", "error", "-show_entries", "format=duration", "-of", "csv=p=0", "--", path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	return parseDuration(string(output))
}

func parseDuration(output string) (int64, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	value := strings.TrimSpace(lines[len(lines)-1])
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoDuration, value)
	}
	return int64(math.Ceil(seconds * 1000)), nil
}

// Normalize resamples source into dest with the given format.
func (t *Toolchain) Normalize(ctx context.Context, source, dest string, format Format) error {
	format = format.withDefaults()
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		dest,
	}
	if _, err := t.run(ctx, t.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg normalize: %w", err)
	}
	return nil
}

// Silence writes durationMs of digital silence to dest.
func (t *Toolchain) Silence(ctx context.Context, dest string, durationMs int64, format Format) error {
	if durationMs <= 0 {
		return fmt.Errorf("ffmpeg silence: invalid duration %dms", durationMs)
	}
	format = format.withDefaults()
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=%s", format.SampleRate, format.layout()),
		"-t", formatSeconds(durationMs),
		dest,
	}
	if _, err := t.run(ctx, t.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg silence: %w", err)
	}
	return nil
}

// Assemble renders plan into dest. Silence steps are generated inside
// workDir, which also receives the concat list.
func (t *Toolchain) Assemble(ctx context.Context, plan []timeline.Instruction, workDir, dest string, format Format) error {
	if len(plan) == 0 {
		return errors.New("assemble: empty plan")
	}
	format = format.withDefaults()
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("assemble: create work dir: %w", err)
	}

	var list strings.Builder
	for i, step := range plan {
		path := step.AudioPath
		if step.Kind == timeline.Silence {
			path = filepath.Join(workDir, fmt.Sprintf("silence_%04d.wav", i))
			if err := t.Silence(ctx, path, step.DurationMs, format); err != nil {
				return err
			}
		}
		if path == "" {
			return fmt.Errorf("assemble: step %d has no audio", i)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("assemble: %w", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", quoteConcatPath(abs))
	}

	listPath := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("assemble: write concat list: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("assemble: create output dir: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("steps", len(plan)).Str("dest", dest).Msg("concatenating audio")
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		dest,
	}
	if _, err := t.run(ctx, t.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// quoteConcatPath escapes a path for a single-quoted concat list entry.
func quoteConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

func formatSeconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 3, 64)
}
