package jianying

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xifan2333/subcue/pkgs/asr"
	"github.com/xifan2333/subcue/pkgs/checksum"
	"github.com/xifan2333/subcue/pkgs/poll"
	"github.com/xifan2333/subcue/pkgs/transport"
)

const (
	pathUploadSign = "/lv/v1/upload_sign"
	pathSubmit     = "/lv/v1/audio_subtitle/submit"
	pathQuery      = "/lv/v1/audio_subtitle/query"

	uploadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/81.0.4044.138 Safari/537.36 Thea/1.0.1"

	vodRegion  = "cn"
	vodService = "vod"
	amzLayout  = "20060102T150405Z"
)

// apiResponse wraps every signed API response. ret arrives as a string but
// is tolerated as a number.
type apiResponse[T any] struct {
	Ret    json.RawMessage `json:"ret"`
	ErrMsg string          `json:"errmsg"`
	Data   T               `json:"data"`
}

func (r *apiResponse[T]) check() error {
	ret := strings.Trim(string(r.Ret), `"`)
	if ret == "0" {
		return nil
	}
	msg := r.ErrMsg
	if msg == "" {
		msg = "Unknown error"
	}
	return &transport.ProtocolError{Code: ret, Message: msg}
}

type credentials struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token"`
}

type applyUploadResponse struct {
	ResponseMetadata struct {
		Error *struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Error"`
	} `json:"ResponseMetadata"`
	Result struct {
		UploadAddress struct {
			StoreInfos []struct {
				StoreURI string `json:"StoreUri"`
				Auth     string `json:"Auth"`
				UploadID string `json:"UploadID"`
			} `json:"StoreInfos"`
			UploadHosts []string `json:"UploadHosts"`
			SessionKey  string   `json:"SessionKey"`
		} `json:"UploadAddress"`
	} `json:"Result"`
}

type storeResponse struct {
	Success *int `json:"success"`
	Payload struct {
		CRC32 string `json:"crc32"`
	} `json:"payload"`
}

type submitData struct {
	ID string `json:"id"`
}

// session is the upload state of a single job.
type session struct {
	crc32 string
	credentials
	storeURI   string
	auth       string
	uploadID   string
	sessionKey string
	uploadHost string
}

// Job is one JianYing transcription.
type Job struct {
	asr.Tracker

	opts    *Options
	tdid    string
	session session
}

var _ asr.Job = (*Job)(nil)

func newJob(opts *Options) *Job {
	return &Job{
		opts: opts,
		tdid: GenerateTDID(opts.Clock(), rand.Int64N(1_000_000)),
	}
}

// TDID returns the device id used for every request of this job.
func (j *Job) TDID() string {
	return j.tdid
}

// PollConfig returns the configured budget.
func (j *Job) PollConfig() poll.Config {
	return j.opts.Poll
}

// Upload runs the five upload steps in order.
func (j *Job) Upload(ctx context.Context, audio []byte) error {
	logger := zerolog.Ctx(ctx)
	j.session.crc32 = checksum.CRC32Hex(audio)

	steps := []struct {
		name    string
		message string
		run     func(context.Context, []byte) error
	}{
		{"upload_sign", "failed to get upload signature", j.uploadSign},
		{"upload_auth", "failed to get upload authorization", j.uploadAuth},
		{"upload_file", "failed to upload file", j.uploadFile},
		{"upload_check", "failed to check upload", j.uploadCheck},
		{"upload_commit", "failed to commit upload", j.uploadCommit},
	}
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step.name == "upload_commit" {
			j.SetState(asr.Committing)
		}
		logger.Debug().Str("step", step.name).Int("index", i+1).Int("total", len(steps)).Msg("upload step")
		if err := step.run(ctx, audio); err != nil {
			return &asr.FetchError{Step: step.name, Message: step.message, Err: err}
		}
	}
	return nil
}

func (j *Job) uploadSign(ctx context.Context, _ []byte) error {
	creds, err := signedPost[credentials](ctx, j, pathUploadSign, map[string]string{"biz": "pc-recognition"})
	if err != nil {
		return err
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return &transport.ProtocolError{Message: "missing storage credentials in upload_sign response"}
	}
	j.session.credentials = creds
	return nil
}

func (j *Job) uploadAuth(ctx context.Context, audio []byte) error {
	query := fmt.Sprintf("Action=ApplyUploadInner&FileSize=%d&FileType=object&IsInner=1&SpaceName=lv-mac-recognition&Version=2020-11-19&s=5y0udbjapi", len(audio))

	amzDate := j.opts.Clock().UTC().Format(amzLayout)
	headers := map[string]string{
		"x-amz-date":           amzDate,
		"x-amz-security-token": j.session.SessionToken,
	}
	signature, err := checksum.SignRequest(j.session.SecretAccessKey, query, headers, checksum.SignOptions{
		Method:  http.MethodGet,
		Region:  vodRegion,
		Service: vodService,
	})
	if err != nil {
		return err
	}
	headers["authorization"] = checksum.AuthorizationHeader(
		j.session.AccessKeyID, amzDate[:8], vodRegion, vodService,
		"x-amz-date;x-amz-security-token", signature,
	)

	var resp applyUploadResponse
	if _, err := j.opts.Client.DoJSON(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    j.opts.VODBaseURL + "/?" + query,
		Header: headers,
	}, &resp); err != nil {
		return err
	}

	addr := resp.Result.UploadAddress
	if len(addr.StoreInfos) == 0 || len(addr.UploadHosts) == 0 {
		msg := "missing StoreInfos or UploadHosts in response"
		if e := resp.ResponseMetadata.Error; e != nil {
			return &transport.ProtocolError{Code: e.Code, Message: e.Message}
		}
		return &transport.ProtocolError{Message: msg}
	}
	store := addr.StoreInfos[0]
	j.session.storeURI = store.StoreURI
	j.session.auth = store.Auth
	j.session.uploadID = store.UploadID
	j.session.sessionKey = addr.SessionKey
	j.session.uploadHost = addr.UploadHosts[0]
	return nil
}

func (j *Job) uploadFile(ctx context.Context, audio []byte) error {
	u := fmt.Sprintf("%s?partNumber=1&uploadID=%s", j.storeURL(), j.session.uploadID)
	resp, err := j.storeRequest(ctx, http.MethodPut, u, audio)
	if err != nil {
		return err
	}

	var result storeResponse
	if err := transport.DecodeJSON(resp.Body, &result); err != nil {
		return err
	}
	if result.Success == nil || *result.Success != 0 {
		return &transport.ProtocolError{Message: "file upload failed", Body: string(resp.Body)}
	}
	return nil
}

// uploadCheck asks the store to confirm the checksum of the uploaded part.
// A non-zero success or a differing crc32 is an integrity failure; retrying
// without uploading again cannot fix either.
func (j *Job) uploadCheck(ctx context.Context, _ []byte) error {
	u := fmt.Sprintf("%s?uploadID=%s", j.storeURL(), j.session.uploadID)
	resp, err := j.storeRequest(ctx, http.MethodPost, u, []byte("1:"+j.session.crc32))
	if err != nil {
		return err
	}

	var result storeResponse
	if err := transport.DecodeJSON(resp.Body, &result); err != nil {
		return err
	}
	if result.Success != nil && *result.Success != 0 {
		return &transport.IntegrityError{Expected: j.session.crc32, Message: fmt.Sprintf("store reported success=%d", *result.Success)}
	}
	if got := strings.ToLower(result.Payload.CRC32); got != "" && got != j.session.crc32 {
		return &transport.IntegrityError{Expected: j.session.crc32, Actual: got}
	}
	return nil
}

func (j *Job) uploadCommit(ctx context.Context, audio []byte) error {
	u := fmt.Sprintf("%s?uploadID=%s&partNumber=1&x-amz-security-token=%s", j.storeURL(), j.session.uploadID, j.session.SessionToken)
	_, err := j.storeRequest(ctx, http.MethodPut, u, audio)
	return err
}

// Submit starts the subtitle task for the committed store URI.
func (j *Job) Submit(ctx context.Context) (string, error) {
	payload := map[string]any{
		"adjust_endtime":    j.opts.AdjustEndtime,
		"audio":             j.session.storeURI,
		"caption_type":      2,
		"client_request_id": uuid.NewString(),
		"max_lines":         j.opts.MaxLines,
		"songs_info": []map[string]any{{
			"end_time":   j.opts.EndTimeMs,
			"id":         "",
			"start_time": j.opts.StartTimeMs,
		}},
		"words_per_line": j.opts.WordsPerLine,
	}
	data, err := signedPost[submitData](ctx, j, pathSubmit, payload)
	if err != nil {
		return "", &asr.FetchError{Step: "submit_task", Message: "failed to submit task", Err: err}
	}
	if data.ID == "" {
		return "", &asr.FetchError{Step: "submit_task", Message: "missing id in submit response"}
	}
	return data.ID, nil
}

// Query fetches the subtitle task once, with a fresh signature.
func (j *Job) Query(ctx context.Context, taskID string) (asr.RawResult, error) {
	data, err := signedPost[queryData](ctx, j, pathQuery, map[string]any{
		"id":           taskID,
		"pack_options": map[string]any{"need_attribute": true},
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Terminal reports a response that carries at least one utterance.
func (j *Job) Terminal(raw asr.RawResult) bool {
	data, ok := raw.(*queryData)
	return ok && len(data.Utterances) > 0
}

// signedPost signs path, posts payload to the API and checks ret.
func signedPost[T any](ctx context.Context, j *Job, path string, payload any) (T, error) {
	var resp apiResponse[T]

	sig, err := j.opts.Signer.Sign(ctx, path, j.tdid)
	if err != nil {
		return resp.Data, fmt.Errorf("sign %s: %w", path, err)
	}
	req, err := transport.NewJSONRequest(http.MethodPost, j.opts.APIBaseURL+path, payload, apiHeaders(sig, j.tdid))
	if err != nil {
		return resp.Data, err
	}
	if _, err := j.opts.Client.DoJSON(ctx, req, &resp); err != nil {
		return resp.Data, err
	}
	return resp.Data, resp.check()
}

func (j *Job) storeURL() string {
	return fmt.Sprintf("%s://%s/%s", j.opts.UploadScheme, j.session.uploadHost, j.session.storeURI)
}

// storeRequest sends body to the store with the part authorization, retrying
// connection failures.
func (j *Job) storeRequest(ctx context.Context, method, url string, body []byte) (*transport.Response, error) {
	req := &transport.Request{
		Method: method,
		URL:    url,
		Header: map[string]string{
			"User-Agent":    uploadUserAgent,
			"Authorization": j.session.auth,
			"Content-CRC32": j.session.crc32,
		},
		Body: body,
	}
	return transport.WithRetry(ctx, j.opts.Retry, func(ctx context.Context) (*transport.Response, error) {
		return j.opts.Client.Do(ctx, req)
	})
}
