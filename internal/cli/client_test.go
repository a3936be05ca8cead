package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeAudio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_speech.mp3")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

type captured struct {
	path     string
	fields   map[string]string
	filename string
	audio    string
}

func captureServer(t *testing.T, status int, header map[string]string, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{fields: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		for k, v := range r.MultipartForm.Value {
			got.fields[k] = v[0]
		}
		if f, fh, err := r.FormFile("m4a_file"); err == nil {
			got.filename = fh.Filename
			b, _ := io.ReadAll(f)
			got.audio = string(b)
			f.Close()
		}
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestRecogniseSendsMultipartForm(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, nil, `{"transcript":"Replace world with planet."}`)
	audio := writeAudio(t, "abcdef")

	c := NewClient(srv.URL+"/", time.Second)
	out, err := c.Recognise(context.Background(), audio, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Replace world with planet." {
		t.Errorf("unexpected transcript %q", out)
	}
	if got.path != "/recognise" {
		t.Errorf("expected /recognise, got %s", got.path)
	}
	if got.fields["smart_mode"] != "true" {
		t.Errorf("expected smart_mode=true, got %q", got.fields["smart_mode"])
	}
	if got.filename != "test_speech.mp3" || got.audio != "abcdef" {
		t.Errorf("unexpected upload %q (%q)", got.filename, got.audio)
	}
}

func TestEditSendsText(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, nil, `{"edited_text":"Hello planet."}`)
	audio := writeAudio(t, "replace world with planet")

	out, err := NewClient(srv.URL, time.Second).Edit(context.Background(), audio, "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Hello planet." {
		t.Errorf("unexpected edited text %q", out)
	}
	if got.path != "/edit" || got.fields["text"] != "hello world" {
		t.Errorf("unexpected request %s %v", got.path, got.fields)
	}
}

func TestServerErrorCarriesMessage(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		header    map[string]string
		body      string
		wantMsg   string
		wantRetry time.Duration
	}{
		{"bad request", http.StatusBadRequest, nil, `{"error":"Error during recognition."}`, "Error during recognition.", 0},
		{"rate limited", http.StatusTooManyRequests, map[string]string{"Retry-After": "42"}, `{"error":"Rate limit exceeded.","window":"10/1m0s"}`, "Rate limit exceeded.", 42 * time.Second},
		{"non-json", http.StatusBadGateway, nil, `oops`, "Bad Gateway", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := captureServer(t, tt.status, tt.header, tt.body)
			_, err := NewClient(srv.URL, time.Second).Recognise(context.Background(), writeAudio(t, "x"), false)

			var se *ServerError
			if !errors.As(err, &se) {
				t.Fatalf("expected ServerError, got %v", err)
			}
			if se.Status != tt.status || se.Message != tt.wantMsg || se.RetryAfter != tt.wantRetry {
				t.Errorf("unexpected error %+v", se)
			}
		})
	}
}

func TestMissingAudioFile(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	_, err := c.Recognise(context.Background(), filepath.Join(t.TempDir(), "absent.m4a"), false)
	if err == nil || !strings.Contains(err.Error(), "open audio file") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestRecogniseCommandPrintsTranscript(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK, nil, `{"transcript":"hello planet"}`)
	audio := writeAudio(t, "abc")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"recognise", "--url", srv.URL, "--file", audio})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		recogniseSmart = false
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "hello planet" {
		t.Errorf("unexpected output %q", out.String())
	}
	if got.fields["smart_mode"] != "false" {
		t.Errorf("expected smart_mode=false, got %q", got.fields["smart_mode"])
	}
}
