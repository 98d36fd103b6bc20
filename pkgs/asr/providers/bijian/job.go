package bijian

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xifan2333/subcue/pkgs/asr"
	"github.com/xifan2333/subcue/pkgs/poll"
	"github.com/xifan2333/subcue/pkgs/transport"
)

const (
	userAgent = "Bilibili/1.0.0 (https://www.bilibili.com)"
	modelID   = "8"

	// stateDone is the task state reported once recognition has finished.
	stateDone = 4
)

// envelope wraps every rubick response.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type createResourceData struct {
	InBossKey  string   `json:"in_boss_key"`
	ResourceID string   `json:"resource_id"`
	UploadID   string   `json:"upload_id"`
	UploadURLs []string `json:"upload_urls"`
	PerSize    int64    `json:"per_size"`
}

type commitData struct {
	DownloadURL string `json:"download_url"`
}

type taskData struct {
	TaskID string `json:"task_id"`
}

// taskResult is the raw poll response. Result holds a JSON document encoded
// as a string once State reaches 4.
type taskResult struct {
	TaskID string `json:"task_id"`
	State  int    `json:"state"`
	Result string `json:"result"`
}

// session is the upload state of a single job.
type session struct {
	createResourceData
	ETags       []string
	DownloadURL string
}

// Job is one Bijian transcription.
type Job struct {
	asr.Tracker

	opts    *Options
	session session
}

var _ asr.Job = (*Job)(nil)

func newJob(opts *Options) *Job {
	return &Job{opts: opts}
}

// PollConfig returns the configured budget.
func (j *Job) PollConfig() poll.Config {
	return j.opts.Poll
}

// Upload requests upload parameters, sends every part in order and commits.
func (j *Job) Upload(ctx context.Context, audio []byte) error {
	logger := zerolog.Ctx(ctx)

	payload := map[string]any{
		"type":             2,
		"name":             "audio.mp3",
		"size":             len(audio),
		"ResourceFileType": "mp3",
		"model_id":         modelID,
	}
	created, err := post[createResourceData](ctx, j, "/resource/create", payload)
	if err != nil {
		return &asr.FetchError{Step: "request_upload", Message: "failed to request upload", Err: err}
	}
	j.session.createResourceData = created
	logger.Debug().
		Str("resource_id", created.ResourceID).
		Int("parts", len(created.UploadURLs)).
		Int64("per_size", created.PerSize).
		Msg("upload allocated")

	if err := j.uploadParts(ctx, audio); err != nil {
		return &asr.FetchError{Step: "upload_parts", Message: "failed to upload parts", Err: err}
	}

	j.SetState(asr.Committing)
	if err := j.commitUpload(ctx); err != nil {
		return &asr.FetchError{Step: "commit_upload", Message: "failed to commit upload", Err: err}
	}
	return nil
}

// uploadParts PUTs byte range [i*per_size, (i+1)*per_size) to the i-th URL.
// Parts go out strictly in order; the commit relies on ETag order.
func (j *Job) uploadParts(ctx context.Context, audio []byte) error {
	urls := j.session.UploadURLs
	if len(urls) == 0 {
		return &transport.ProtocolError{Message: "no upload_urls in response"}
	}
	perSize := j.session.PerSize
	if len(urls) == 1 && perSize <= 0 {
		perSize = int64(len(audio))
	}
	if perSize <= 0 {
		return &transport.ProtocolError{Message: fmt.Sprintf("invalid per_size %d", j.session.PerSize)}
	}

	size := int64(len(audio))
	for i, partURL := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := min(int64(i)*perSize, size)
		end := min(int64(i+1)*perSize, size)

		resp, err := j.opts.Client.Do(ctx, &transport.Request{
			Method: http.MethodPut,
			URL:    partURL,
			Header: j.headers(false),
			Body:   audio[start:end],
		})
		if err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
		if etag := resp.Header.Get("Etag"); etag != "" {
			j.session.ETags = append(j.session.ETags, etag)
		}
	}
	return nil
}

func (j *Job) commitUpload(ctx context.Context) error {
	payload := map[string]any{
		"InBossKey":  j.session.InBossKey,
		"ResourceId": j.session.ResourceID,
		"Etags":      strings.Join(j.session.ETags, ","),
		"UploadId":   j.session.UploadID,
		"model_id":   modelID,
	}
	committed, err := post[commitData](ctx, j, "/resource/create/complete", payload)
	if err != nil {
		return err
	}
	if committed.DownloadURL == "" {
		return &transport.ProtocolError{Message: "missing download_url in response"}
	}
	j.session.DownloadURL = committed.DownloadURL
	return nil
}

// Submit creates the recognition task for the committed resource.
func (j *Job) Submit(ctx context.Context) (string, error) {
	payload := map[string]any{
		"resource": j.session.DownloadURL,
		"model_id": modelID,
	}
	task, err := post[taskData](ctx, j, "/task", payload)
	if err != nil {
		return "", &asr.FetchError{Step: "create_task", Message: "failed to create task", Err: err}
	}
	if task.TaskID == "" {
		return "", &asr.FetchError{Step: "create_task", Message: "missing task_id in response"}
	}
	return task.TaskID, nil
}

// Query fetches the task status once.
func (j *Job) Query(ctx context.Context, taskID string) (asr.RawResult, error) {
	u := fmt.Sprintf("%s/task/result?model_id=%s&task_id=%s", j.opts.BaseURL, modelID, url.QueryEscape(taskID))
	var resp envelope[taskResult]
	if _, err := j.opts.Client.DoJSON(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    u,
		Header: j.headers(true),
	}, &resp); err != nil {
		return nil, err
	}
	if err := checkCode(resp.Code, resp.Message); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Terminal reports state 4. Every other state, including failures the
// service may report, keeps the loop polling until the budget runs out.
func (j *Job) Terminal(raw asr.RawResult) bool {
	res, ok := raw.(*taskResult)
	return ok && res.State == stateDone
}

// post sends a JSON request and unwraps the response envelope. A non-zero
// code is a protocol error carrying the service message.
func post[T any](ctx context.Context, j *Job, path string, payload any) (T, error) {
	var resp envelope[T]
	req, err := transport.NewJSONRequest(http.MethodPost, j.opts.BaseURL+path, payload, j.headers(true))
	if err != nil {
		return resp.Data, err
	}
	if _, err := j.opts.Client.DoJSON(ctx, req, &resp); err != nil {
		return resp.Data, err
	}
	return resp.Data, checkCode(resp.Code, resp.Message)
}

func (j *Job) headers(withJSON bool) map[string]string {
	h := map[string]string{"User-Agent": userAgent}
	if withJSON {
		h["Content-Type"] = "application/json"
	}
	if j.opts.Cookie != "" {
		h["Cookie"] = j.opts.Cookie
	}
	return h
}

func checkCode(code int, message string) error {
	if code == 0 {
		return nil
	}
	return &transport.ProtocolError{Code: fmt.Sprint(code), Message: message}
}
