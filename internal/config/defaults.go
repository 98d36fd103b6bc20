package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xifan2333/subcue/pkgs/asr/providers/bijian"
	"github.com/xifan2333/subcue/pkgs/asr/providers/jianying"
	"github.com/xifan2333/subcue/pkgs/timeline"
)

const (
	defaultProvider          = "bijian"
	defaultSynthesisProvider = "dashscope"
	defaultSynthesisModel    = "qwen3-tts-instruct-flash"
	defaultVoice             = "Ethan"
	defaultLanguageType      = "Auto"
	defaultMaxCharsPerLine   = 42
	defaultSampleRate        = 24000
	defaultChannels          = 1
	defaultSignMode          = "remote"
	defaultMediaDir          = "public"
)

var defaultVideoExtensions = []string{".mp4", ".webm", ".mkv", ".mov", ".avi", ".flv", ".wmv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			TempDir:  filepath.Join(os.TempDir(), "subcue"),
		},
		Logging: Logging{
			Format: "auto",
			Level:  "info",
		},
		Transcription: Transcription{
			Provider:        defaultProvider,
			MaxCharsPerLine: defaultMaxCharsPerLine,
			Workers:         2,
			CacheEnabled:    true,
		},
		Bijian: Bijian{
			BaseURL:             bijian.DefaultBaseURL,
			PollAttempts:        bijian.DefaultPollAttempts,
			PollIntervalSeconds: int(bijian.DefaultPollInterval.Seconds()),
		},
		JianYing: JianYing{
			SignMode:            defaultSignMode,
			SignURL:             jianying.DefaultSignURL,
			PollAttempts:        jianying.DefaultPollAttempts,
			PollIntervalSeconds: int(jianying.DefaultPollInterval.Seconds()),
			RetryAttempts:       3,
			RetryDelaySeconds:   2,
			WordsPerLine:        jianying.DefaultWordsPerLine,
			MaxLines:            jianying.DefaultMaxLines,
			AdjustEndtime:       jianying.DefaultAdjustEndtime,
		},
		ElevenLabs: ElevenLabs{
			LanguageCode: "auto",
		},
		Synthesis: Synthesis{
			Provider:     defaultSynthesisProvider,
			Model:        defaultSynthesisModel,
			Voice:        defaultVoice,
			LanguageType: defaultLanguageType,
			SampleRate:   defaultSampleRate,
			Channels:     defaultChannels,
			MinGapMs:     timeline.DefaultMinGapMs,
			MaxGapMs:     timeline.DefaultMaxGapMs,
		},
		Media: Media{
			FFmpegBinary:    "ffmpeg",
			FFprobeBinary:   "ffprobe",
			VideoExtensions: append([]string(nil), defaultVideoExtensions...),
			DefaultDir:      defaultMediaDir,
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "subcue")
	}
	return "~/.cache/subcue"
}
