package bijian

import (
	"strings"
	"time"

	"github.com/xifan2333/subcue/pkgs/asr"
	"github.com/xifan2333/subcue/pkgs/poll"
	"github.com/xifan2333/subcue/pkgs/transport"
)

const (
	// DefaultBaseURL is the rubick interface every endpoint hangs off.
	DefaultBaseURL = "https://member.bilibili.com/x/bcut/rubick-interface"

	DefaultPollAttempts = 500
	DefaultPollInterval = time.Second
)

// Options contains Bijian-specific fetch options.
type Options struct {
	// Cookie is the optional authentication cookie.
	// If not provided, the request may work without authentication
	// depending on the API's current access policy.
	Cookie string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// Poll is the result polling budget (default 500 attempts, 1s apart).
	Poll poll.Config

	// Client sends every request. Defaults to transport.Default.
	Client *transport.Client
}

// Validate validates the options and sets default values.
func (o *Options) Validate() error {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")

	if o.Poll.MaxAttempts == 0 {
		o.Poll.MaxAttempts = DefaultPollAttempts
	}
	if o.Poll.Interval == 0 {
		o.Poll.Interval = DefaultPollInterval
	}
	if err := o.Poll.Validate(); err != nil {
		return &asr.ValidationError{Field: "Poll", Message: err.Error()}
	}

	if o.Client == nil {
		o.Client = transport.Default
	}
	return nil
}
