// Package dashscope provides a TTS provider for Alibaba Cloud Model Studio
// (DashScope) Qwen3-TTS models.
//
// Synthesis is a two-step exchange: the generation endpoint returns a URL
// for the rendered audio, which is then downloaded.
//
// Example usage:
//
//	import (
//	    "github.com/xifan2333/subcue/pkgs/tts"
//	    _ "github.com/xifan2333/subcue/pkgs/tts/providers/dashscope"
//	)
//
//	result, err := tts.Synthesize(ctx, "dashscope", "大家好", &tts.Options{
//	    APIKey: os.Getenv("DASHSCOPE_API_KEY"),
//	    Voice:  "Cherry",
//	})
package dashscope

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xifan2333/subcue/pkgs/transport"
	"github.com/xifan2333/subcue/pkgs/tts"
)

const (
	// DefaultBaseURL is the multimodal generation endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/multimodal-generation/generation"

	// DefaultModel accepts delivery instructions.
	DefaultModel = "qwen3-tts-instruct-flash"
)

// Voices lists the system voice presets.
var Voices = map[string]string{
	"Cherry":    "sweet female",
	"Serena":    "gentle female",
	"Diana":     "intellectual female",
	"Luna":      "lively female",
	"Ethan":     "steady male",
	"Marcus":    "magnetic male",
	"Alexander": "grand male",
	"Cedric":    "friendly male",
	"Changchun": "Changchun dialect",
	"Guangzhou": "Guangzhou dialect",
	"Stella":    "English female",
	"Bella":     "English female",
}

// Provider implements tts.Provider for DashScope.
type Provider struct{}

var _ tts.Provider = (*Provider)(nil)

func init() {
	tts.Register(&Provider{})
}

// Name returns "dashscope".
func (p *Provider) Name() string {
	return "dashscope"
}

type generationResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Output    struct {
		Audio struct {
			URL string `json:"url"`
		} `json:"audio"`
	} `json:"output"`
}

// Synthesize requests generation and downloads the resulting audio.
func (p *Provider) Synthesize(ctx context.Context, text string, opts *tts.Options) (*tts.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &tts.ValidationError{Field: "text", Message: "text is empty"}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	req, err := transport.NewJSONRequest(http.MethodPost, baseURL, buildRequest(model, text, opts), map[string]string{
		"Authorization": "Bearer " + opts.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var resp generationResponse
	if _, err := opts.Client.DoJSON(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	if resp.Code != "" {
		return nil, &transport.ProtocolError{Code: resp.Code, Message: resp.Message}
	}
	if resp.Output.Audio.URL == "" {
		return nil, &transport.ProtocolError{Message: "no audio url in generation response"}
	}

	zerolog.Ctx(ctx).Debug().
		Str("request_id", resp.RequestID).
		Str("url", resp.Output.Audio.URL).
		Msg("downloading synthesized audio")

	audio, err := opts.Client.Do(ctx, &transport.Request{Method: http.MethodGet, URL: resp.Output.Audio.URL})
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	return &tts.Result{Audio: audio.Body, URL: resp.Output.Audio.URL, Model: model}, nil
}

// buildRequest builds the generation body. Instructions are only sent to
// instruct models, together with optimize_instructions.
func buildRequest(model, text string, opts *tts.Options) map[string]any {
	input := map[string]any{
		"text":          text,
		"voice":         opts.Voice,
		"language_type": opts.LanguageType,
	}
	req := map[string]any{
		"model": model,
		"input": input,
	}
	if opts.Instructions != "" && strings.Contains(model, "instruct") {
		input["instructions"] = opts.Instructions
		req["parameters"] = map[string]any{"optimize_instructions": true}
	}
	return req
}
