package asr

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/xifan2333/subcue/pkgs/poll"
)

// Runner drives a Job through upload, submit, poll and parse.
type Runner struct {
	// Poll overrides the job's own budget when MaxAttempts is set.
	Poll poll.Config
	// OnAttempt sees every completed poll query.
	OnAttempt func(state poll.State[RawResult])
}

// Run executes job with its own poll budget.
func Run(ctx context.Context, job Job, audio []byte) (*StandardResult, error) {
	return Runner{}.Run(ctx, job, audio)
}

// Run performs the handshake in order. Each step consumes the previous
// step's output, so nothing here runs concurrently. On failure the job is
// left in Failed and the error carries the step that broke.
func (r Runner) Run(ctx context.Context, job Job, audio []byte) (*StandardResult, error) {
	logger := zerolog.Ctx(ctx)

	fail := func(err error) (*StandardResult, error) {
		job.SetState(Failed)
		return nil, err
	}

	if len(audio) == 0 {
		return fail(&ValidationError{Field: "audio", Message: "audio buffer is empty"})
	}

	job.SetState(Uploading)
	logger.Debug().Int("bytes", len(audio)).Msg("uploading audio")
	if err := job.Upload(ctx, audio); err != nil {
		return fail(wrapStep(err, "upload", "failed to upload audio"))
	}

	taskID, err := job.Submit(ctx)
	if err != nil {
		return fail(wrapStep(err, "create_task", "failed to create task"))
	}
	job.SetState(TaskCreated)
	logger.Debug().Str("task_id", taskID).Msg("task created")

	cfg := job.PollConfig()
	if r.Poll.MaxAttempts > 0 {
		cfg = r.Poll
	}

	job.SetState(Polling)
	poller := poll.Poller[RawResult]{
		Config: cfg,
		Query: func(ctx context.Context) (RawResult, error) {
			return job.Query(ctx, taskID)
		},
		Terminal: job.Terminal,
		Observe:  r.OnAttempt,
	}
	raw, err := poller.Run(ctx)
	if err != nil {
		return fail(wrapStep(err, "poll_result", "failed to poll result"))
	}

	result, err := job.Parse(raw)
	if err != nil {
		return fail(err)
	}

	job.SetState(Completed)
	logger.Debug().
		Int("sentences", len(result.Sentences)).
		Int("words", len(result.Words)).
		Msg("transcription complete")
	return result, nil
}

// wrapStep tags err with step unless a provider already did.
func wrapStep(err error, step, message string) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Step: step, Message: message, Err: err}
}
