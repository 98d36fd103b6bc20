package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xifan2333/subcue/internal/config"
	"github.com/xifan2333/subcue/internal/logging"
	"github.com/xifan2333/subcue/internal/media"
	"github.com/xifan2333/subcue/internal/metrics"
	"github.com/xifan2333/subcue/pkgs/caption"
	"github.com/xifan2333/subcue/pkgs/prompt"
	"github.com/xifan2333/subcue/pkgs/timeline"
	"github.com/xifan2333/subcue/pkgs/transport"
	"github.com/xifan2333/subcue/pkgs/tts"
)

// ErrNothingSynthesized is returned when every cue failed to synthesize.
var ErrNothingSynthesized = errors.New("no caption could be synthesized")

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithSynthesisRegistry replaces the global TTS registry.
func WithSynthesisRegistry(r *tts.Registry) SynthesizerOption {
	return func(s *Synthesizer) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithSynthesisMetrics records per-cue outcomes.
func WithSynthesisMetrics(m *metrics.Metrics) SynthesizerOption {
	return func(s *Synthesizer) { s.metrics = m }
}

// WithSynthesisClient sets the HTTP client handed to the TTS provider.
func WithSynthesisClient(c *transport.Client) SynthesizerOption {
	return func(s *Synthesizer) { s.client = c }
}

// Synthesizer voices a caption file and rebuilds its timeline around the
// measured audio.
type Synthesizer struct {
	cfg      *config.Config
	tools    MediaTools
	registry *tts.Registry
	prompts  *prompt.Manager
	metrics  *metrics.Metrics
	client   *transport.Client
}

// NewSynthesizer builds a Synthesizer over cfg.
func NewSynthesizer(cfg *config.Config, tools MediaTools, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{cfg: cfg, tools: tools, registry: tts.Default(), prompts: prompt.NewManager()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SynthesisOutcome describes one synthesized track.
type SynthesisOutcome struct {
	Input    string
	Captions string
	Audio    string
	Segments int
	Skipped  int
	TotalMs  int64
}

// AudioPath names the assembled track for a caption file:
// "talk.json" becomes "talk-tts.wav".
func AudioPath(inputPath string) string {
	return strings.TrimSuffix(caption.SynthesisPath(inputPath), ".json") + ".wav"
}

// Synthesize voices every cue of inputPath, lays the measured clips out on a
// new timeline and writes both the assembled track and its captions. Cues
// that fail to synthesize are logged and left out. An empty outPath selects
// AudioPath(inputPath).
func (s *Synthesizer) Synthesize(ctx context.Context, inputPath, outPath string) (SynthesisOutcome, error) {
	ctx, _ = logging.WithJob(ctx, s.cfg.Synthesis.Provider, inputPath)
	logger := zerolog.Ctx(ctx)

	if outPath == "" {
		outPath = AudioPath(inputPath)
	}
	out := SynthesisOutcome{Input: inputPath, Audio: outPath, Captions: caption.SynthesisPath(inputPath)}

	captions, err := caption.ReadFile(inputPath)
	if err != nil {
		return out, fmt.Errorf("read captions: %w", err)
	}
	if len(captions) == 0 {
		return out, fmt.Errorf("%s contains no captions", filepath.Base(inputPath))
	}

	instructions, err := s.instructions()
	if err != nil {
		return out, err
	}

	if err := os.MkdirAll(s.cfg.Paths.TempDir, 0o755); err != nil {
		return out, fmt.Errorf("create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(s.cfg.Paths.TempDir, "tts-")
	if err != nil {
		return out, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	format := media.Format{SampleRate: s.cfg.Synthesis.SampleRate, Channels: s.cfg.Synthesis.Channels}
	segments := make([]timeline.Segment, 0, len(captions))
	for i, seg := range timeline.SegmentsFromCaptions(captions) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		clip, durationMs, err := s.voice(ctx, workDir, i, seg.Text, instructions, format)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			logger.Warn().Err(err).Int("cue", i+1).Str("text", seg.Text).Msg("cue synthesis failed, skipping")
			out.Skipped++
			s.recordSegment(metrics.OutcomeSkipped)
			continue
		}
		seg.AudioPath = clip
		seg.ActualDurationMs = durationMs
		segments = append(segments, seg)
		s.recordSegment(metrics.OutcomeSuccess)
		logger.Debug().Int("cue", i+1).Int("total", len(captions)).Int64("duration_ms", durationMs).Msg("cue synthesized")
	}
	if len(segments) == 0 {
		return out, ErrNothingSynthesized
	}

	rebuilt, err := timeline.Rebuild(segments, timeline.Options{
		MinGapMs: s.cfg.Synthesis.MinGapMs,
		MaxGapMs: s.cfg.Synthesis.MaxGapMs,
	})
	if err != nil {
		return out, err
	}
	if err := s.tools.Assemble(ctx, rebuilt.Plan, workDir, outPath, format); err != nil {
		return out, err
	}
	if err := caption.WriteFile(out.Captions, rebuilt.Captions); err != nil {
		return out, fmt.Errorf("write captions: %w", err)
	}

	out.Segments = len(segments)
	out.TotalMs = rebuilt.TotalMs
	logger.Info().
		Str("audio", outPath).
		Str("captions", out.Captions).
		Int("segments", out.Segments).
		Int("skipped", out.Skipped).
		Int64("total_ms", out.TotalMs).
		Msg("synthesis complete")
	return out, nil
}

// voice synthesizes one cue, normalizes it to the track format and measures
// the result.
func (s *Synthesizer) voice(ctx context.Context, workDir string, index int, text, instructions string, format media.Format) (string, int64, error) {
	result, err := s.registry.Synthesize(ctx, s.cfg.Synthesis.Provider, text, &tts.Options{
		APIKey:       s.cfg.Synthesis.APIKey,
		Model:        s.cfg.Synthesis.Model,
		Voice:        s.cfg.Synthesis.Voice,
		LanguageType: s.cfg.Synthesis.LanguageType,
		Instructions: instructions,
		Client:       s.client,
	})
	if err != nil {
		return "", 0, err
	}
	if len(result.Audio) == 0 {
		return "", 0, errors.New("provider returned no audio")
	}

	raw := filepath.Join(workDir, fmt.Sprintf("raw_%04d%s", index, clipExt(result.URL)))
	if err := os.WriteFile(raw, result.Audio, 0o644); err != nil {
		return "", 0, fmt.Errorf("write clip: %w", err)
	}
	clip := filepath.Join(workDir, fmt.Sprintf("seg_%04d.wav", index))
	if err := s.tools.Normalize(ctx, raw, clip, format); err != nil {
		return "", 0, err
	}
	durationMs, err := s.tools.ProbeDuration(ctx, clip)
	if err != nil {
		return "", 0, err
	}
	return clip, durationMs, nil
}

func (s *Synthesizer) instructions() (string, error) {
	tmpl, err := s.prompts.Resolve(s.cfg.Synthesis.InstructionsFile, s.cfg.Synthesis.Instructions)
	if err != nil {
		return "", fmt.Errorf("load instructions: %w", err)
	}
	text, err := prompt.Render(tmpl, nil)
	if err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (s *Synthesizer) recordSegment(outcome string) {
	if s.metrics != nil {
		s.metrics.SynthesizedSegments.WithLabelValues(outcome).Inc()
	}
}

// clipExt keeps the extension of the published audio URL, defaulting to WAV.
func clipExt(audioURL string) string {
	if u, err := url.Parse(audioURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return ext
		}
	}
	return ".wav"
}
