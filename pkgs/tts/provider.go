// Package tts provides a unified interface for the speech synthesis services
// used to voice captions.
//
// Example usage:
//
//	import (
//	    "github.com/xifan2333/subcue/pkgs/tts"
//	    _ "github.com/xifan2333/subcue/pkgs/tts/providers/dashscope"
//	)
//
//	opts := &tts.Options{APIKey: os.Getenv("DASHSCOPE_API_KEY"), Voice: "Ethan"}
//	result, err := tts.Synthesize(ctx, "dashscope", "大家好", opts)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("line.wav", result.Audio, 0o644)
package tts

import (
	"context"
	"strings"

	"github.com/xifan2333/subcue/pkgs/transport"
)

// Provider defines the interface that all TTS providers must implement.
type Provider interface {
	// Name returns the provider's unique identifier.
	Name() string

	// Synthesize voices text and returns the encoded audio.
	Synthesize(ctx context.Context, text string, opts *Options) (*Result, error)
}

// Options contains unified options for synthesis requests.
type Options struct {
	// APIKey is the authentication API key. Required.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// Model is the synthesis model. Providers pick a default when empty.
	Model string

	// Voice is the speaker preset, e.g. "Ethan" or "Cherry".
	Voice string

	// LanguageType hints the language of the text ("Auto" detects mixed text).
	LanguageType string

	// Instructions steer delivery. Only models that accept instructions
	// receive them.
	Instructions string

	// Client sends every request. Defaults to transport.Default.
	Client *transport.Client
}

// Validate checks the options and fills defaults.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.APIKey) == "" {
		return &ValidationError{Field: "APIKey", Message: "API key is required"}
	}
	if o.Voice == "" {
		o.Voice = "Ethan"
	}
	if o.LanguageType == "" {
		o.LanguageType = "Auto"
	}
	if o.Client == nil {
		o.Client = transport.Default
	}
	return nil
}

// Result is one synthesized utterance.
type Result struct {
	// Audio holds the encoded audio as downloaded.
	Audio []byte
	// URL is where the provider published the audio, if it did.
	URL string
	// Model is the model that produced the audio.
	Model string
}

// ValidationError reports invalid synthesis options.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + ": " + e.Message
}
