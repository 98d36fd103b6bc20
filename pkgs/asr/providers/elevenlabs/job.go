package elevenlabs

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"github.com/xifan2333/subcue/pkgs/asr"
	"github.com/xifan2333/subcue/pkgs/poll"
	"github.com/xifan2333/subcue/pkgs/transport"
)

// syncTaskID stands in for a task id; the service has no task to poll.
const syncTaskID = "sync"

// Job is one ElevenLabs transcription.
type Job struct {
	asr.Tracker

	opts     *Options
	response *transcript
}

var _ asr.Job = (*Job)(nil)

// PollConfig allows exactly one query, which returns the stored transcript.
func (j *Job) PollConfig() poll.Config {
	return poll.Config{MaxAttempts: 1}
}

// Upload posts the audio as a multipart form and keeps the transcript the
// service answers with.
func (j *Job) Upload(ctx context.Context, audio []byte) error {
	body, contentType, err := j.buildForm(audio)
	if err != nil {
		return &asr.FetchError{Step: "create_form", Message: "failed to build multipart form", Err: err}
	}

	req := &transport.Request{
		Method: http.MethodPost,
		URL:    j.opts.APIURL + "?allow_unauthenticated=1",
		Header: map[string]string{
			"Content-Type":    contentType,
			"Accept":          "*/*",
			"Accept-Encoding": "gzip",
			"Origin":          "https://elevenlabs.io",
			"Referer":         "https://elevenlabs.io/",
			"Sec-Fetch-Dest":  "empty",
			"Sec-Fetch-Mode":  "cors",
			"Sec-Fetch-Site":  "same-site",
			"User-Agent":      gofakeit.UserAgent(),
			"Accept-Language": generateAcceptLanguage(),
		},
		Body: body,
	}

	zerolog.Ctx(ctx).Debug().Int("bytes", len(audio)).Str("model", j.opts.ModelID).Msg("posting audio to elevenlabs")

	var resp transcript
	if _, err := j.opts.Client.DoJSON(ctx, req, &resp); err != nil {
		return &asr.FetchError{Step: "http_request", Message: "transcription request failed", Err: err}
	}
	j.response = &resp
	return nil
}

func (j *Job) buildForm(audio []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", j.opts.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := fileWriter.Write(audio); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"model_id", j.opts.ModelID},
		{"diarize", "true"},
		{"tag_audio_events", strconv.FormatBool(j.opts.TagAudioEvents)},
	}
	if j.opts.LanguageCode != "auto" {
		fields = append(fields, [2]string{"language_code", j.opts.LanguageCode})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("add %s field: %w", f[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// Submit has nothing to start; the upload already produced the transcript.
func (j *Job) Submit(context.Context) (string, error) {
	if j.response == nil {
		return "", &asr.FetchError{Step: "create_task", Message: "no transcript received"}
	}
	return syncTaskID, nil
}

// Query returns the transcript captured by Upload.
func (j *Job) Query(context.Context, string) (asr.RawResult, error) {
	return j.response, nil
}

// Terminal is always true.
func (j *Job) Terminal(asr.RawResult) bool {
	return true
}

// generateAcceptLanguage generates a random Accept-Language header
func generateAcceptLanguage() string {
	return fmt.Sprintf("%s,%s;q=0.9,en;q=0.8",
		gofakeit.LanguageAbbreviation(),
		gofakeit.LanguageAbbreviation(),
	)
}
