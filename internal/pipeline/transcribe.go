package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xifan2333/subcue/internal/cache"
	"github.com/xifan2333/subcue/internal/config"
	"github.com/xifan2333/subcue/internal/logging"
	"github.com/xifan2333/subcue/internal/metrics"
	"github.com/xifan2333/subcue/pkgs/asr"
	"github.com/xifan2333/subcue/pkgs/asr/providers/bijian"
	"github.com/xifan2333/subcue/pkgs/asr/providers/elevenlabs"
	"github.com/xifan2333/subcue/pkgs/asr/providers/jianying"
	"github.com/xifan2333/subcue/pkgs/caption"
	"github.com/xifan2333/subcue/pkgs/checksum"
	"github.com/xifan2333/subcue/pkgs/poll"
	"github.com/xifan2333/subcue/pkgs/transport"
)

// TranscriberOption configures a Transcriber.
type TranscriberOption func(*Transcriber)

// WithCache enables result reuse across runs.
func WithCache(store *cache.Store) TranscriberOption {
	return func(t *Transcriber) { t.cache = store }
}

// WithMetrics records job and protocol counters.
func WithMetrics(m *metrics.Metrics) TranscriberOption {
	return func(t *Transcriber) { t.metrics = m }
}

// WithRegistry replaces the global provider registry.
func WithRegistry(r *asr.Registry) TranscriberOption {
	return func(t *Transcriber) {
		if r != nil {
			t.registry = r
		}
	}
}

// WithClient sets the HTTP client handed to providers.
func WithClient(c *transport.Client) TranscriberOption {
	return func(t *Transcriber) { t.client = c }
}

// Transcriber turns a media file into a caption file.
type Transcriber struct {
	cfg      *config.Config
	tools    MediaTools
	registry *asr.Registry
	cache    *cache.Store
	metrics  *metrics.Metrics
	client   *transport.Client
}

// NewTranscriber builds a Transcriber over cfg.
func NewTranscriber(cfg *config.Config, tools MediaTools, opts ...TranscriberOption) *Transcriber {
	t := &Transcriber{cfg: cfg, tools: tools, registry: asr.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Outcome describes one finished transcription.
type Outcome struct {
	JobID    string
	Media    string
	Output   string
	Provider string
	Captions int
	Cached   bool
	Elapsed  time.Duration
}

// Transcribe extracts the audio of mediaPath, runs it through the configured
// provider and writes the normalized captions next to the media file. The
// caption file is only written once the provider job completed.
func (t *Transcriber) Transcribe(ctx context.Context, mediaPath string) (Outcome, error) {
	provider := t.cfg.Transcription.Provider
	ctx, jobID := logging.WithJob(ctx, provider, mediaPath)
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	out := Outcome{JobID: jobID, Media: mediaPath, Provider: provider}
	if t.metrics != nil {
		t.metrics.JobsActive.Inc()
		defer t.metrics.JobsActive.Dec()
	}

	result, cached, err := t.recognize(ctx, mediaPath)
	out.Cached = cached
	out.Elapsed = time.Since(start)
	if err != nil {
		t.recordJob(provider, metrics.OutcomeFailure, out.Elapsed)
		return out, err
	}

	captions := t.shape(result)
	out.Output = caption.OutputPath(mediaPath, ".json")
	if err := caption.WriteFile(out.Output, captions); err != nil {
		t.recordJob(provider, metrics.OutcomeFailure, out.Elapsed)
		return out, fmt.Errorf("write captions: %w", err)
	}
	out.Captions = len(captions)
	out.Elapsed = time.Since(start)

	outcome := metrics.OutcomeSuccess
	if cached {
		outcome = metrics.OutcomeCached
	}
	t.recordJob(provider, outcome, out.Elapsed)
	logger.Info().
		Str("output", out.Output).
		Int("captions", out.Captions).
		Bool("cached", cached).
		Dur("elapsed", out.Elapsed).
		Msg("captions written")
	return out, nil
}

// recognize returns the provider result for mediaPath, from the cache when
// the same audio was seen before.
func (t *Transcriber) recognize(ctx context.Context, mediaPath string) (*asr.StandardResult, bool, error) {
	logger := zerolog.Ctx(ctx)
	provider := t.cfg.Transcription.Provider

	if err := os.MkdirAll(t.cfg.Paths.TempDir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(t.cfg.Paths.TempDir, "extract-")
	if err != nil {
		return nil, false, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	audioPath := filepath.Join(workDir, base+audioExt(provider))
	logger.Info().Msg("extracting audio")
	if err := t.tools.ExtractAudio(ctx, mediaPath, audioPath); err != nil {
		return nil, false, err
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, false, fmt.Errorf("read extracted audio: %w", err)
	}

	key := cache.Key{Provider: provider, Checksum: checksum.CRC32Hex(audio), Size: int64(len(audio))}
	if t.cfg.Transcription.CacheEnabled {
		if result, ok, err := t.cache.Lookup(ctx, key); err != nil {
			logger.Warn().Err(err).Msg("transcript cache lookup failed")
		} else if ok {
			logger.Info().Str("checksum", key.Checksum).Msg("using cached transcript")
			return result, true, nil
		}
	}

	p, err := t.registry.Get(provider)
	if err != nil {
		return nil, false, err
	}
	job, err := p.NewJob(t.fetchOptions(ctx, provider, mediaPath, audioPath))
	if err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}

	runner := asr.Runner{OnAttempt: func(state poll.State[asr.RawResult]) {
		if t.metrics != nil {
			t.metrics.PollAttempts.WithLabelValues(provider).Inc()
		}
		logger.Debug().Int("attempt", state.Attempt).Bool("terminal", state.Terminal).Msg("polled result")
	}}
	logger.Info().Int("bytes", len(audio)).Msg("transcribing")
	result, err := runner.Run(ctx, job, audio)
	if t.metrics != nil {
		t.metrics.UploadedBytes.WithLabelValues(provider).Add(float64(len(audio)))
	}
	if err != nil {
		return nil, false, err
	}

	if t.cfg.Transcription.CacheEnabled {
		if err := t.cache.Store(ctx, key, result); err != nil {
			logger.Warn().Err(err).Msg("transcript cache store failed")
		}
	}
	return result, false, nil
}

// shape flattens the result and applies line grouping. Word-level output is
// left one word per caption unless grouping is asked for; results without
// sentences are always grouped.
func (t *Transcriber) shape(result *asr.StandardResult) []caption.Caption {
	wordLevel := t.cfg.Transcription.WordTimestamps
	group := t.cfg.Transcription.GroupLines || (!wordLevel && !result.Segmented())
	return caption.Normalize(result.Captions(wordLevel), caption.Options{
		MaxCharsPerLine: t.cfg.Transcription.MaxCharsPerLine,
		Group:           group,
	})
}

// fetchOptions maps configuration onto the provider's option type. Unknown
// providers get their own defaults.
func (t *Transcriber) fetchOptions(ctx context.Context, provider, mediaPath, audioPath string) asr.FetchOptions {
	cfg := t.cfg
	switch provider {
	case "bijian":
		return &bijian.Options{
			Cookie:  cfg.Bijian.Cookie,
			BaseURL: cfg.Bijian.BaseURL,
			Poll:    poll.Config{MaxAttempts: cfg.Bijian.PollAttempts, Interval: cfg.BijianPollInterval()},
			Client:  t.client,
		}
	case "jianying":
		opts := &jianying.Options{
			EndTimeMs:     t.endTime(ctx, mediaPath),
			WordsPerLine:  cfg.JianYing.WordsPerLine,
			MaxLines:      cfg.JianYing.MaxLines,
			AdjustEndtime: cfg.JianYing.AdjustEndtime,
			Poll:          poll.Config{MaxAttempts: cfg.JianYing.PollAttempts, Interval: cfg.JianYingPollInterval()},
			Retry: transport.RetryPolicy{
				MaxAttempts: cfg.JianYing.RetryAttempts,
				Delay:       cfg.JianYingRetryDelay(),
				OnRetry: func(int, error) {
					if t.metrics != nil {
						t.metrics.TransportRetries.WithLabelValues(provider).Inc()
					}
				},
			},
			Client: t.client,
		}
		if cfg.JianYing.SignMode == "local" {
			opts.Signer = &jianying.LocalSigner{}
		} else {
			opts.Signer = &jianying.RemoteSigner{URL: cfg.JianYing.SignURL, Client: t.client}
		}
		return opts
	case "elevenlabs":
		return &elevenlabs.Options{
			LanguageCode:   cfg.ElevenLabs.LanguageCode,
			TagAudioEvents: cfg.ElevenLabs.TagAudioEvents,
			FileName:       filepath.Base(audioPath),
			Client:         t.client,
		}
	default:
		return nil
	}
}

// endTime is the probed media length, or the provider default when the
// probe fails.
func (t *Transcriber) endTime(ctx context.Context, mediaPath string) int64 {
	ms, err := t.tools.ProbeDuration(ctx, mediaPath)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("fallback_ms", jianying.DefaultEndTimeMs).Msg("duration probe failed")
		return jianying.DefaultEndTimeMs
	}
	return ms
}

func (t *Transcriber) recordJob(provider, outcome string, elapsed time.Duration) {
	if t.metrics == nil {
		return
	}
	t.metrics.JobsTotal.WithLabelValues(provider, outcome).Inc()
	t.metrics.JobDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// audioExt picks the upload container. JianYing takes WAV, the others MP3.
func audioExt(provider string) string {
	if provider == "jianying" {
		return ".wav"
	}
	return ".mp3"
}
