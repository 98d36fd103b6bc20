// Package jianying provides an ASR provider implementation for JianYing (剪映),
// ByteDance's video editing application.
//
// The upload is a five step signed handshake:
//  1. upload_sign: exchange a request signature for temporary storage credentials
//  2. ApplyUploadInner: a SigV4-signed call that allocates a store URI and host
//  3. PUT the whole buffer as part 1 with its CRC-32
//  4. POST "1:<crc32>" so the store confirms the checksum
//  5. PUT again with the session token to finalize
//
// Every call to the JianYing API itself carries a fresh signature produced by
// a Signer; the default delegates to a remote sign helper.
//
// Features:
//   - Word-level timestamps with phrase granularity
//   - Sentence-level segmentation
//   - Speaker attribution and language detection
//   - No authentication required
//
// Example usage:
//
//	import (
//	    "github.com/xifan2333/subcue/pkgs/asr"
//	    "github.com/xifan2333/subcue/pkgs/asr/providers/jianying"
//	)
//
//	opts := &jianying.Options{EndTimeMs: durationMs}
//	result, err := asr.Transcribe(ctx, "jianying", audio, opts)
package jianying

import (
	"github.com/xifan2333/subcue/pkgs/asr"
)

// Provider implements the ASR provider interface for JianYing (剪映).
type Provider struct{}

// Ensure Provider implements asr.Provider interface at compile time.
var _ asr.Provider = (*Provider)(nil)

func init() {
	// Register the provider on package initialization.
	// This allows the provider to be used via asr.Get("jianying")
	// or asr.Transcribe(ctx, "jianying", ...).
	asr.Register(&Provider{})
}

// Name returns the provider's unique identifier.
//
// Returns "jianying".
func (p *Provider) Name() string {
	return "jianying"
}

// NewJob validates opts and returns a job with its own device id and
// upload session.
func (p *Provider) NewJob(opts asr.FetchOptions) (asr.Job, error) {
	jianyingOpts, ok := opts.(*Options)
	if !ok || jianyingOpts == nil {
		jianyingOpts = &Options{}
	}

	if err := jianyingOpts.Validate(); err != nil {
		return nil, err
	}

	return newJob(jianyingOpts), nil
}
