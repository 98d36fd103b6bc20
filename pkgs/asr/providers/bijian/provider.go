// Package bijian provides an ASR provider implementation for Bijian (必剪),
// Bilibili's video editing service.
//
// Audio is handed over through a chunked presigned upload: the service
// allocates one PUT URL per part, every part is uploaded in order, and a
// commit call stitches the parts together using the collected ETags.
//
// Features:
//   - Sentence-level segmentation
//   - Word-level timestamps
//   - No authentication required (an optional cookie is forwarded)
//
// Example usage:
//
//	import (
//	    "github.com/xifan2333/subcue/pkgs/asr"
//	    "github.com/xifan2333/subcue/pkgs/asr/providers/bijian"
//	)
//
//	opts := &bijian.Options{Cookie: os.Getenv("BILIBILI_COOKIE")}
//	result, err := asr.Transcribe(ctx, "bijian", audio, opts)
package bijian

import (
	"github.com/xifan2333/subcue/pkgs/asr"
)

// Provider implements the ASR provider interface for Bijian (必剪).
type Provider struct{}

// Ensure Provider implements asr.Provider interface at compile time.
var _ asr.Provider = (*Provider)(nil)

func init() {
	asr.Register(&Provider{})
}

// Name returns "bijian".
func (p *Provider) Name() string {
	return "bijian"
}

// NewJob validates opts and returns a job holding a fresh upload session.
//
// The job executes:
//  1. Request upload parameters (part size, part URLs)
//  2. Upload every part in order
//  3. Commit the upload with the collected ETags
//  4. Create the transcription task
//  5. Query until the task state reaches 4
func (p *Provider) NewJob(opts asr.FetchOptions) (asr.Job, error) {
	bijianOpts, ok := opts.(*Options)
	if !ok || bijianOpts == nil {
		bijianOpts = &Options{}
	}
	if err := bijianOpts.Validate(); err != nil {
		return nil, err
	}
	return newJob(bijianOpts), nil
}
