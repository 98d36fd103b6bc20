package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xifan2333/subcue/pkgs/timeline"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	output map[string]string
	err    error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.output[name]), nil
}

func joined(c call) string {
	return c.name + " " + strings.Join(c.args, " ")
}

func TestExtractAudioArguments(t *testing.T) {
	fake := &fakeRunner{}
	tc := New(WithBinaries("/opt/ffmpeg", ""), WithRunner(fake.run))

	if err := tc.ExtractAudio(context.Background(), "talk.mp4", "/tmp/talk.mp3"); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(fake.calls))
	}
	want := "/opt/ffmpeg -y -hide_banner -loglevel error -i talk.mp4 -vn -ar 16000 -ac 1 -b:a 128k /tmp/talk.mp3"
	if got := joined(fake.calls[0]); got != want {
		t.Fatalf("unexpected command:\n got %s\nwant %s", got, want)
	}
}

func TestExtractAudioRequiresPaths(t *testing.T) {
	tc := New(WithRunner((&fakeRunner{}).run))
	if err := tc.ExtractAudio(context.Background(), "", "out.wav"); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestProbeDuration(t *testing.T) {
	fake := &fakeRunner{output: map[string]string{"ffprobe": "12.3451\n"}}
	tc := New(WithRunner(fake.run))

	ms, err := tc.ProbeDuration(context.Background(), "talk.mp4")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if ms != 12346 {
		t.Fatalf("expected duration rounded up to 12346ms, got %d", ms)
	}
	want := "ffprobe -v error -show_entries format=duration -of csv=p=0 -- talk.mp4"
	if got := joined(fake.calls[0]); got != want {
		t.Fatalf("unexpected command:\n got %s\nwant %s", got, want)
	}
}

func TestProbeDurationUnavailable(t *testing.T) {
	for _, output := range []string{"N/A\n", "", "0\n"} {
		fake := &fakeRunner{output: map[string]string{"ffprobe": output}}
		_, err := New(WithRunner(fake.run)).ProbeDuration(context.Background(), "x.wav")
		if !errors.Is(err, ErrNoDuration) {
			t.Fatalf("output %q: expected ErrNoDuration, got %v", output, err)
		}
	}
}

func TestRunnerErrorIsWrapped(t *testing.T) {
	boom := errors.New("exit status 1")
	fake := &fakeRunner{err: boom}
	err := New(WithRunner(fake.run)).Normalize(context.Background(), "in.mp3", "out.wav", Format{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if !strings.Contains(err.Error(), "ffmpeg normalize") {
		t.Fatalf("expected step in message, got %q", err.Error())
	}
}

func TestNormalizeAndSilenceUseFormat(t *testing.T) {
	fake := &fakeRunner{}
	tc := New(WithRunner(fake.run))
	ctx := context.Background()

	if err := tc.Normalize(ctx, "raw.wav", "seg.wav", Format{}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if err := tc.Silence(ctx, "gap.wav", 250, Format{SampleRate: 48000, Channels: 2}); err != nil {
		t.Fatalf("Silence: %v", err)
	}

	if got, want := joined(fake.calls[0]), "ffmpeg -y -hide_banner -loglevel error -i raw.wav -ar 24000 -ac 1 seg.wav"; got != want {
		t.Fatalf("normalize:\n got %s\nwant %s", got, want)
	}
	if got, want := joined(fake.calls[1]), "ffmpeg -y -hide_banner -loglevel error -f lavfi -i anullsrc=r=48000:cl=stereo -t 0.250 gap.wav"; got != want {
		t.Fatalf("silence:\n got %s\nwant %s", got, want)
	}

	if err := tc.Silence(ctx, "gap.wav", 0, Format{}); err == nil {
		t.Fatal("expected error for zero-length silence")
	}
}

func TestAssembleWritesConcatList(t *testing.T) {
	fake := &fakeRunner{}
	tc := New(WithRunner(fake.run))
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	first := filepath.Join(dir, "seg_0.wav")
	second := filepath.Join(dir, "it's.wav")

	plan := []timeline.Instruction{
		{Kind: timeline.Silence, StartMs: 0, DurationMs: 500},
		{Kind: timeline.Audio, StartMs: 500, DurationMs: 1000, AudioPath: first},
		{Kind: timeline.Silence, StartMs: 1500, DurationMs: 100},
		{Kind: timeline.Audio, StartMs: 1600, DurationMs: 800, AudioPath: second},
	}
	out := filepath.Join(dir, "out", "talk-tts.wav")
	if err := tc.Assemble(context.Background(), plan, work, out, DefaultFormat); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if len(fake.calls) != 3 {
		t.Fatalf("expected two silences and one concat, got %d calls", len(fake.calls))
	}
	if got := fake.calls[0].args; got[len(got)-3] != "-t" || got[len(got)-2] != "0.500" {
		t.Fatalf("unexpected first silence args %v", got)
	}

	listPath := filepath.Join(work, "concat.txt")
	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("read concat list: %v", err)
	}
	want := strings.Join([]string{
		"file '" + filepath.Join(work, "silence_0000.wav") + "'",
		"file '" + first + "'",
		"file '" + filepath.Join(work, "silence_0002.wav") + "'",
		"file '" + filepath.Join(dir, `it'\''s.wav`) + "'",
	}, "\n") + "\n"
	if string(data) != want {
		t.Fatalf("unexpected concat list:\n%s\nwant:\n%s", data, want)
	}

	concat := joined(fake.calls[2])
	if !strings.Contains(concat, "-f concat -safe 0 -i "+listPath+" -ar 24000 -ac 1 "+out) {
		t.Fatalf("unexpected concat command %s", concat)
	}
	if _, err := os.Stat(filepath.Dir(out)); err != nil {
		t.Fatalf("expected output dir to exist: %v", err)
	}
}

func TestAssembleRejectsEmptyPlan(t *testing.T) {
	tc := New(WithRunner((&fakeRunner{}).run))
	if err := tc.Assemble(context.Background(), nil, t.TempDir(), "out.wav", Format{}); err == nil {
		t.Fatal("expected error for empty plan")
	}
}

func TestExecRunnerReportsMissingBinary(t *testing.T) {
	tc := New(WithBinaries(filepath.Join(t.TempDir(), "no-ffmpeg"), ""))
	if err := tc.ExtractAudio(context.Background(), "in.mp4", "out.mp3"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
