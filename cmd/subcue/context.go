package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xifan2333/subcue/internal/cache"
	"github.com/xifan2333/subcue/internal/config"
	"github.com/xifan2333/subcue/internal/logging"
	"github.com/xifan2333/subcue/internal/media"
	"github.com/xifan2333/subcue/internal/metrics"
)

type globalFlags struct {
	config        string
	logLevel      string
	logFormat     string
	metricsListen string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	metricsOnce sync.Once
	metrics     *metrics.Metrics
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(c.flags.logLevel); v != "" {
			cfg.Logging.Level = strings.ToLower(v)
		}
		if v := strings.TrimSpace(c.flags.logFormat); v != "" {
			cfg.Logging.Format = strings.ToLower(v)
		}
		if v := strings.TrimSpace(c.flags.metricsListen); v != "" {
			cfg.Metrics.Listen = v
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) metricsValue() *metrics.Metrics {
	c.metricsOnce.Do(func() {
		c.metrics = metrics.New()
	})
	return c.metrics
}

// runContext returns the command context carrying the configured logger.
func (c *commandContext) runContext(cmd *cobra.Command, component string) (context.Context, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	logger = logging.WithComponent(logger, component)
	return logger.WithContext(cmd.Context()), nil
}

// startMetrics serves /metrics when a listen address is configured. The
// returned stop function is always safe to call.
func (c *commandContext) startMetrics(ctx context.Context) (func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Metrics.Listen == "" {
		return func() {}, nil
	}
	server := metrics.NewServer(cfg.Metrics.Listen, c.metricsValue())
	addr, err := server.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("start metrics server: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("addr", addr).Msg("metrics endpoint listening")
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}

func (c *commandContext) toolchain() *media.Toolchain {
	cfg := c.config
	return media.New(media.WithBinaries(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary))
}

// openCache opens the transcript cache when it is enabled. A nil store is a
// valid, disabled cache.
func (c *commandContext) openCache(ctx context.Context) (*cache.Store, func()) {
	cfg := c.config
	if !cfg.Transcription.CacheEnabled {
		return nil, func() {}
	}
	store, err := cache.Open(cfg.CachePath())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", cfg.CachePath()).Msg("transcript cache unavailable")
		return nil, func() {}
	}
	return store, func() { _ = store.Close() }
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	rest := int(d % time.Second / time.Millisecond)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, rest)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, s, rest)
}
