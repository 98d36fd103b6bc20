package elevenlabs

import (
	"strings"

	"github.com/xifan2333/subcue/pkgs/transport"
)

const (
	// DefaultAPIURL is the speech-to-text endpoint.
	DefaultAPIURL = "https://api.elevenlabs.io/v1/speech-to-text"

	// DefaultModelID is the transcription model.
	DefaultModelID = "scribe_v1"
)

// Options contains ElevenLabs-specific fetch options.
type Options struct {
	// LanguageCode specifies the language code for transcription.
	// Common values: "zh" (Chinese), "en" (English), "auto" (auto-detection).
	// Default: "auto"
	LanguageCode string

	// TagAudioEvents indicates whether to tag audio events like music, applause, etc.
	// When enabled, the API will identify and tag non-speech audio events.
	// Default: false
	TagAudioEvents bool

	// FileName is the multipart file name sent with the audio (default "audio.mp3").
	FileName string

	// APIURL and ModelID override the defaults.
	APIURL  string
	ModelID string

	// Client sends the request. Defaults to transport.Default.
	Client *transport.Client
}

// Validate validates the options and sets default values.
//
// Default values:
//   - LanguageCode: "auto" if not specified
//
// This method always returns nil as all option combinations are valid.
func (o *Options) Validate() error {
	if o.LanguageCode == "" {
		o.LanguageCode = "auto"
	}
	if o.FileName == "" {
		o.FileName = "audio.mp3"
	}
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	o.APIURL = strings.TrimRight(o.APIURL, "/")
	if o.ModelID == "" {
		o.ModelID = DefaultModelID
	}
	if o.Client == nil {
		o.Client = transport.Default
	}
	return nil
}
