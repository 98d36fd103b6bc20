// Package elevenlabs provides an ASR provider implementation for ElevenLabs,
// an advanced speech-to-text API with speaker diarization support.
//
// Features:
//   - Word-level timestamps with character granularity
//   - Speaker diarization (identifies different speakers)
//   - Punctuation in transcription text
//   - Multi-language support
//   - Audio event tagging (optional)
//
// The service answers synchronously: the upload request carries the
// transcript, so the job's single query is terminal straight away.
//
// Example usage:
//
//	import (
//	    "github.com/xifan2333/subcue/pkgs/asr"
//	    "github.com/xifan2333/subcue/pkgs/asr/providers/elevenlabs"
//	)
//
//	opts := &elevenlabs.Options{
//	    LanguageCode:   "zh",
//	    TagAudioEvents: false,
//	}
//	result, err := asr.Transcribe(ctx, "elevenlabs", audio, opts)
package elevenlabs

import (
	"github.com/xifan2333/subcue/pkgs/asr"
)

// Provider implements the ASR provider interface for ElevenLabs.
//
// ElevenLabs provides advanced ASR capabilities including speaker diarization
// and support for multiple languages.
type Provider struct{}

// Ensure Provider implements asr.Provider interface at compile time.
var _ asr.Provider = (*Provider)(nil)

func init() {
	// Register the provider on package initialization.
	// This allows the provider to be used via asr.Get("elevenlabs")
	// or asr.Transcribe(ctx, "elevenlabs", ...).
	asr.Register(&Provider{})
}

// Name returns the provider's unique identifier.
//
// Returns "elevenlabs".
func (p *Provider) Name() string {
	return "elevenlabs"
}

// NewJob validates opts and returns a job. A nil opts uses the defaults.
func (p *Provider) NewJob(opts asr.FetchOptions) (asr.Job, error) {
	elevenlabsOpts, ok := opts.(*Options)
	if !ok || elevenlabsOpts == nil {
		elevenlabsOpts = &Options{}
	}
	if err := elevenlabsOpts.Validate(); err != nil {
		return nil, err
	}
	return &Job{opts: elevenlabsOpts}, nil
}
