package dashscope

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xifan2333/subcue/pkgs/transport"
	"github.com/xifan2333/subcue/pkgs/tts"
)

type fakeDashScope struct {
	server  *httptest.Server
	body    map[string]any
	auth    string
	code    string
	noURL   bool
	fetches int
}

func newFake(t *testing.T) *fakeDashScope {
	f := &fakeDashScope{}
	mux := http.NewServeMux()
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		f.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&f.body)
		resp := map[string]any{"request_id": "req-1"}
		switch {
		case f.code != "":
			resp["code"] = f.code
			resp["message"] = "bad voice"
		case !f.noURL:
			resp["output"] = map[string]any{"audio": map[string]any{"url": f.server.URL + "/audio.wav"}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/audio.wav", func(w http.ResponseWriter, r *http.Request) {
		f.fetches++
		_, _ = w.Write([]byte("RIFFdata"))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDashScope) options(model, instructions string) *tts.Options {
	return &tts.Options{
		APIKey:       "sk-test",
		BaseURL:      f.server.URL + "/generate",
		Model:        model,
		Instructions: instructions,
		Client:       transport.New(0),
	}
}

func TestSynthesizeDownloadsAudio(t *testing.T) {
	fake := newFake(t)
	res, err := tts.Synthesize(context.Background(), "dashscope", "大家好", fake.options("", "speak clearly"))
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(res.Audio) != "RIFFdata" || res.Model != DefaultModel || fake.fetches != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if fake.auth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", fake.auth)
	}

	input := fake.body["input"].(map[string]any)
	if input["text"] != "大家好" || input["voice"] != "Ethan" || input["language_type"] != "Auto" || input["instructions"] != "speak clearly" {
		t.Fatalf("unexpected input %v", input)
	}
	params, ok := fake.body["parameters"].(map[string]any)
	if !ok || params["optimize_instructions"] != true {
		t.Fatalf("expected optimize_instructions, got %v", fake.body)
	}
}

func TestInstructionsOnlyForInstructModels(t *testing.T) {
	fake := newFake(t)
	if _, err := tts.Synthesize(context.Background(), "dashscope", "hi", fake.options("qwen3-tts-flash", "speak clearly")); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	input := fake.body["input"].(map[string]any)
	if _, ok := input["instructions"]; ok {
		t.Fatal("instructions sent to a non-instruct model")
	}
	if _, ok := fake.body["parameters"]; ok {
		t.Fatal("parameters sent to a non-instruct model")
	}
}

func TestCodeFieldIsProtocolError(t *testing.T) {
	fake := newFake(t)
	fake.code = "InvalidParameter"
	_, err := tts.Synthesize(context.Background(), "dashscope", "hi", fake.options("", ""))
	var perr *transport.ProtocolError
	if !errors.As(err, &perr) || perr.Code != "InvalidParameter" || perr.Message != "bad voice" {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if fake.fetches != 0 {
		t.Fatal("audio fetched after error")
	}
}

func TestMissingURLIsProtocolError(t *testing.T) {
	fake := newFake(t)
	fake.noURL = true
	_, err := tts.Synthesize(context.Background(), "dashscope", "hi", fake.options("", ""))
	if !errors.Is(err, transport.ErrProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	var verr *tts.ValidationError
	if _, err := tts.Synthesize(context.Background(), "dashscope", "hi", &tts.Options{}); !errors.As(err, &verr) {
		t.Fatalf("expected missing key error, got %v", err)
	}
	fake := newFake(t)
	if _, err := tts.Synthesize(context.Background(), "dashscope", "  ", fake.options("", "")); !errors.As(err, &verr) {
		t.Fatalf("expected empty text error, got %v", err)
	}
	if _, err := tts.Get("missing"); err == nil {
		t.Fatal("expected unknown provider error")
	}
}
