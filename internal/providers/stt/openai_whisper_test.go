package stt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/yoockh/voicedit/internal/models"
	"github.com/yoockh/voicedit/internal/storage"
	"github.com/yoockh/voicedit/internal/utils"
)

func stage(t *testing.T, data []byte) *storage.Object {
	t.Helper()
	obj, err := storage.NewLocalStager(t.TempDir()).Stage(context.Background(), models.AudioBlob{Filename: "test.m4a", Data: data})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	t.Cleanup(func() { obj.Release(context.Background()) })
	return obj
}

type whisperCall struct {
	model    string
	language string
}

func whisperServer(t *testing.T, status int, text string) (*httptest.Server, *whisperCall) {
	t.Helper()
	captured := &whisperCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body: %v", err)
		}
		f, fh, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected file part: %v", err)
		} else {
			body, _ := io.ReadAll(f)
			if string(body) != "abcdef" {
				t.Errorf("expected uploaded audio abcdef, got %q", body)
			}
			if fh.Filename == "" {
				t.Error("expected file name on the part")
			}
		}
		captured.model = r.FormValue("model")
		captured.language = r.FormValue("language")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": text})
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestOpenAIWhisperTranscribe(t *testing.T) {
	srv, call := whisperServer(t, http.StatusOK, " Replace world with planet. ")

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	w := NewOpenAIWhisper(cfg, "", "en")

	text, err := w.Transcribe(context.Background(), stage(t, []byte("abcdef")))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "Replace world with planet." {
		t.Errorf("unexpected transcript %q", text)
	}
	if got := call.model; got != openai.Whisper1 {
		t.Errorf("expected default model %s, got %s", openai.Whisper1, got)
	}
	if got := call.language; got != "en" {
		t.Errorf("expected language en, got %s", got)
	}
}

func TestOpenAIWhisperUpstreamFailure(t *testing.T) {
	srv, _ := whisperServer(t, http.StatusInternalServerError, "")

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	w := NewOpenAIWhisper(cfg, "whisper-1", "")

	_, err := w.Transcribe(context.Background(), stage(t, []byte("abcdef")))
	if !utils.IsCode(err, utils.CodeUpstream) {
		t.Fatalf("expected UPSTREAM error, got %v", err)
	}
}

func TestStaticRejectsEmptyAudio(t *testing.T) {
	s := Static{Text: "hello"}

	if _, err := s.Transcribe(context.Background(), &storage.Object{}); !utils.IsCode(err, utils.CodeUpstream) {
		t.Errorf("expected UPSTREAM error for empty audio, got %v", err)
	}

	text, err := s.Transcribe(context.Background(), stage(t, []byte("x")))
	if err != nil || text != "hello" {
		t.Errorf("expected hello, got %q (%v)", text, err)
	}
}

func TestParseEncoding(t *testing.T) {
	if got := ParseEncoding("flac"); got.String() != "FLAC" {
		t.Errorf("expected FLAC, got %s", got)
	}
	if got := ParseEncoding("mp4"); got.String() != "ENCODING_UNSPECIFIED" {
		t.Errorf("expected ENCODING_UNSPECIFIED, got %s", got)
	}
}
