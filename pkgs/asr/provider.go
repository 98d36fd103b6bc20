// Package asr provides a unified interface for the speech recognition services
// subcue can transcribe with.
//
// Every service is driven through the same three capabilities: an Uploader
// that hands the audio to the service, a JobSubmitter that starts
// recognition, and a ResultPoller that is queried until the service reports a
// terminal state. Run is written once against those capabilities, so adding a
// provider means implementing the handshake and nothing else.
//
// Example usage:
//
//	import (
//	    "context"
//	    "github.com/xifan2333/subcue/pkgs/asr"
//	    _ "github.com/xifan2333/subcue/pkgs/asr/providers/jianying"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    result, err := asr.Transcribe(ctx, "jianying", audio, nil)
//	    if err != nil {
//	        panic(err)
//	    }
//	    fmt.Println(result.Text)
//	}
package asr

import (
	"context"

	"github.com/xifan2333/subcue/pkgs/poll"
)

// Provider defines the interface that all ASR providers must implement.
//
// A provider is a factory for jobs. Each job owns the upload session of a
// single media file and is never shared between files.
//
// Providers must be registered using the Register function, typically in their init() function.
type Provider interface {
	// Name returns the provider's unique identifier.
	// This name is used when calling Get() or Transcribe().
	//
	// Examples: "jianying", "elevenlabs", "bijian"
	Name() string

	// NewJob validates opts and returns a fresh job. A nil opts selects the
	// provider defaults.
	NewJob(opts FetchOptions) (Job, error)
}

// Uploader hands the audio buffer to the remote service. When Upload returns
// the job holds everything Submit needs.
type Uploader interface {
	Upload(ctx context.Context, audio []byte) error
}

// JobSubmitter starts recognition and returns the service's task identifier.
type JobSubmitter interface {
	Submit(ctx context.Context) (string, error)
}

// ResultPoller queries a running task.
type ResultPoller interface {
	// Query fetches the current task status. It must not block waiting for
	// completion; the poll loop does the waiting.
	Query(ctx context.Context, taskID string) (RawResult, error)

	// Terminal reports whether a queried status is final.
	Terminal(raw RawResult) bool

	// PollConfig is the attempt budget for this job.
	PollConfig() poll.Config
}

// Job is one transcription from upload to parsed result.
type Job interface {
	Uploader
	JobSubmitter
	ResultPoller

	// State reports where the job is in its lifecycle.
	State() State
	// SetState records a transition. Run calls it for the steps it drives;
	// providers call it for their internal upload phases.
	SetState(State)

	// Parse converts the terminal raw response to the standardized format.
	//
	// All timestamps must be converted to milliseconds.
	Parse(raw RawResult) (*StandardResult, error)
}

// FetchOptions is a unified interface for provider-specific fetch options.
//
// Each provider defines its own options type that implements this interface.
// The Validate method should check the options and set default values.
//
// Example:
//
//	type MyOptions struct {
//	    APIKey string
//	    Language string
//	}
//
//	func (o *MyOptions) Validate() error {
//	    if o.Language == "" {
//	        o.Language = "auto"
//	    }
//	    return nil
//	}
type FetchOptions interface {
	// Validate validates the options and sets default values.
	// This method is called by NewJob and should return an error
	// if the options are invalid.
	Validate() error
}

// RawResult represents one status response from an ASR provider.
//
// The concrete type is private to each provider.
type RawResult any

// StandardResult represents the unified ASR result format.
//
// All providers must convert their responses to this standardized format.
// This allows applications to work with different providers using the same code.
//
// Note: Not all fields are populated by all providers. Check the provider's
// documentation to see which fields are supported.
type StandardResult struct {
	// Text is the complete transcription text.
	// This field is always populated.
	Text string `json:"text"`

	// Words contains word-level timestamps.
	// This field may be empty when the service returned no speech.
	Words []Word `json:"words"`

	// Sentences contains sentence-level segments.
	// This field is optional and only populated by providers that support
	// sentence segmentation (e.g., JianYing, Bijian).
	Sentences []Sentence `json:"sentences,omitempty"`

	// Language is the detected or specified language code.
	// This field is optional and the format may vary by provider
	// (e.g., "zh-CN", "zho", "en").
	Language string `json:"language,omitempty"`
}

// Word represents word-level timestamp information.
//
// All timestamps are in milliseconds since the start of the audio.
type Word struct {
	// Text is the word content.
	Text string `json:"text"`

	// Start is the start time in milliseconds.
	Start int64 `json:"start"`

	// End is the end time in milliseconds.
	End int64 `json:"end"`

	// SpeakerID identifies the speaker (optional).
	// This field is only populated by providers that support speaker diarization
	// (e.g., ElevenLabs).
	SpeakerID string `json:"speaker_id,omitempty"`
}

// Sentence represents sentence-level segment information.
//
// All timestamps are in milliseconds since the start of the audio.
type Sentence struct {
	// Text is the sentence content.
	Text string `json:"text"`

	// Start is the start time in milliseconds.
	Start int64 `json:"start"`

	// End is the end time in milliseconds.
	End int64 `json:"end"`

	// SpeakerID identifies the speaker (optional).
	// This field is only populated by providers that support speaker diarization
	// at the sentence level.
	SpeakerID string `json:"speaker_id,omitempty"`
}
