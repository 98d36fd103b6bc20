package jianying

import (
	"strings"
	"time"

	"github.com/xifan2333/subcue/pkgs/asr"
	"github.com/xifan2333/subcue/pkgs/poll"
	"github.com/xifan2333/subcue/pkgs/transport"
)

const (
	DefaultAPIBaseURL = "https://lv-pc-api-sinfonlinec.ulikecam.com"
	DefaultVODBaseURL = "https://vod.bytedanceapi.com"

	// DefaultEndTimeMs is used when the media duration is unknown.
	DefaultEndTimeMs int64 = 6000 * 1000

	DefaultWordsPerLine  = 16
	DefaultMaxLines      = 1
	DefaultAdjustEndtime = 200

	DefaultPollAttempts = 60
	DefaultPollInterval = 2 * time.Second
)

// Options contains JianYing-specific fetch options.
type Options struct {
	// StartTimeMs is where recognition starts in the audio (default: 0).
	StartTimeMs int64

	// EndTimeMs is where recognition stops. Callers normally pass the probed
	// media duration; DefaultEndTimeMs covers anything shorter.
	EndTimeMs int64

	// WordsPerLine, MaxLines and AdjustEndtime are forwarded to the
	// subtitle task unchanged.
	WordsPerLine  int
	MaxLines      int
	AdjustEndtime int

	// Poll is the result polling budget (default 60 attempts, 2s apart).
	Poll poll.Config

	// Retry wraps the store upload and commit requests (default 3 attempts, 2s apart).
	Retry transport.RetryPolicy

	// Signer signs API requests. Defaults to a RemoteSigner.
	Signer Signer

	// APIBaseURL and VODBaseURL override the service endpoints.
	APIBaseURL string
	VODBaseURL string

	// UploadScheme is prepended to the allocated upload host (default "https").
	UploadScheme string

	// Clock supplies device time and the SigV4 date. Defaults to time.Now.
	Clock func() time.Time

	// Client sends every request. Defaults to transport.Default.
	Client *transport.Client
}

// Validate validates the options and sets default values.
//
// Default values:
//   - EndTimeMs: DefaultEndTimeMs if zero
//   - WordsPerLine: 16, MaxLines: 1, AdjustEndtime: 200
//   - Poll: 60 attempts every 2 seconds
//   - Retry: 3 attempts every 2 seconds
//
// Returns an error if:
//   - StartTimeMs is negative
//   - StartTimeMs is greater than or equal to EndTimeMs
func (o *Options) Validate() error {
	if o.EndTimeMs == 0 {
		o.EndTimeMs = DefaultEndTimeMs
	}
	if o.StartTimeMs < 0 {
		return &asr.ValidationError{Field: "StartTimeMs", Message: "must be non-negative"}
	}
	if o.StartTimeMs >= o.EndTimeMs {
		return &asr.ValidationError{Field: "StartTimeMs/EndTimeMs", Message: "StartTimeMs must be less than EndTimeMs"}
	}

	if o.WordsPerLine == 0 {
		o.WordsPerLine = DefaultWordsPerLine
	}
	if o.MaxLines == 0 {
		o.MaxLines = DefaultMaxLines
	}
	if o.AdjustEndtime == 0 {
		o.AdjustEndtime = DefaultAdjustEndtime
	}

	if o.Poll.MaxAttempts == 0 {
		o.Poll.MaxAttempts = DefaultPollAttempts
	}
	if o.Poll.Interval == 0 {
		o.Poll.Interval = DefaultPollInterval
	}
	if err := o.Poll.Validate(); err != nil {
		return &asr.ValidationError{Field: "Poll", Message: err.Error()}
	}
	if o.Retry.MaxAttempts == 0 {
		def := transport.DefaultRetryPolicy()
		o.Retry.MaxAttempts = def.MaxAttempts
		if o.Retry.Delay == 0 {
			o.Retry.Delay = def.Delay
		}
	}

	if o.APIBaseURL == "" {
		o.APIBaseURL = DefaultAPIBaseURL
	}
	o.APIBaseURL = strings.TrimRight(o.APIBaseURL, "/")
	if o.VODBaseURL == "" {
		o.VODBaseURL = DefaultVODBaseURL
	}
	o.VODBaseURL = strings.TrimRight(o.VODBaseURL, "/")
	if o.UploadScheme == "" {
		o.UploadScheme = "https"
	}

	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Client == nil {
		o.Client = transport.Default
	}
	if o.Signer == nil {
		o.Signer = &RemoteSigner{Client: o.Client, Clock: o.Clock}
	}
	return nil
}
