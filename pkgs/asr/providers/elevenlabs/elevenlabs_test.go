package elevenlabs

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xifan2333/subcue/pkgs/asr"
	"github.com/xifan2333/subcue/pkgs/transport"
)

const sampleResponse = `{
  "language_code": "eng",
  "text": "Hello world",
  "words": [
    {"text": "Hello", "start": 0.12, "end": 0.5, "type": "word", "speaker_id": "speaker_0"},
    {"text": " ", "start": 0.5, "end": 0.55, "type": "spacing", "speaker_id": "speaker_0"},
    {"text": "world", "start": 0.55, "end": 1.0049, "type": "word", "speaker_id": "speaker_1"}
  ]
}`

func newServer(t *testing.T, gzipped bool, check func(r *http.Request)) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		if !gzipped {
			_, _ = io.WriteString(w, sampleResponse)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, sampleResponse)
		_ = gz.Close()
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRunPostsMultipartForm(t *testing.T) {
	audio := []byte("fake mp3 bytes")
	srv, calls := newServer(t, true, func(r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Query().Get("allow_unauthenticated") != "1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.Header.Get("User-Agent") == "" || !strings.HasSuffix(r.Header.Get("Accept-Language"), ";q=0.9,en;q=0.8") {
			t.Errorf("missing browser headers: %v", r.Header)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := r.FormValue("model_id"); got != DefaultModelID {
			t.Errorf("model_id = %q", got)
		}
		if r.FormValue("diarize") != "true" || r.FormValue("tag_audio_events") != "true" {
			t.Errorf("unexpected flags %v", r.MultipartForm.Value)
		}
		if got := r.FormValue("language_code"); got != "en" {
			t.Errorf("language_code = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != string(audio) || header.Filename != "audio.mp3" {
			t.Errorf("unexpected file %q %q", header.Filename, data)
		}
	})

	job, err := (&Provider{}).NewJob(&Options{
		LanguageCode:   "en",
		TagAudioEvents: true,
		APIURL:         srv.URL,
		Client:         transport.New(0),
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	res, err := asr.Run(context.Background(), job, audio)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("expected a single request, got %d", *calls)
	}
	if res.Text != "Hello world" || res.Language != "eng" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Words) != 2 {
		t.Fatalf("spacing tokens should be dropped: %+v", res.Words)
	}
	if w := res.Words[0]; w.Start != 120 || w.End != 500 || w.SpeakerID != "speaker_0" {
		t.Fatalf("unexpected first word %+v", w)
	}
	if w := res.Words[1]; w.Start != 550 || w.End != 1005 || w.SpeakerID != "speaker_1" {
		t.Fatalf("unexpected second word %+v", w)
	}
	if res.Segmented() {
		t.Fatal("elevenlabs results carry no sentences")
	}
	if job.State() != asr.Completed {
		t.Fatalf("state = %s", job.State())
	}
}

func TestAutoLanguageOmitsField(t *testing.T) {
	srv, _ := newServer(t, false, func(r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if _, ok := r.MultipartForm.Value["language_code"]; ok {
			t.Error("language_code sent for auto detection")
		}
		if r.FormValue("tag_audio_events") != "false" {
			t.Errorf("tag_audio_events = %q", r.FormValue("tag_audio_events"))
		}
	})
	job, _ := (&Provider{}).NewJob(&Options{APIURL: srv.URL, Client: transport.New(0)})
	if _, err := asr.Run(context.Background(), job, []byte("x")); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestUploadStatusErrorIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	job, _ := (&Provider{}).NewJob(&Options{APIURL: srv.URL, Client: transport.New(0)})
	_, err := asr.Run(context.Background(), job, []byte("x"))
	var perr *transport.ProtocolError
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 protocol error, got %v", err)
	}
	var fe *asr.FetchError
	if !errors.As(err, &fe) || fe.Step != "http_request" {
		t.Fatalf("expected http_request step, got %v", err)
	}
}

func TestParseRejectsEmptyWords(t *testing.T) {
	var resp transcript
	if err := json.Unmarshal([]byte(`{"text":"","words":[]}`), &resp); err != nil {
		t.Fatal(err)
	}
	var perr *asr.ParseError
	if _, err := (&Job{}).Parse(&resp); !errors.As(err, &perr) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := (&Job{}).Parse(&transcript{}); !errors.As(err, &perr) {
		t.Fatalf("expected parse error for missing text, got %v", err)
	}
}
