package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Client talks to the /recognise and /edit endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// ServerError is a non-200 response from the server.
type ServerError struct {
	Status  int
	Message string
	// RetryAfter is set on 429 responses.
	RetryAfter time.Duration
}

func (e *ServerError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("server returned %d: %s (retry after %s)", e.Status, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *Client) Recognise(ctx context.Context, audioPath string, smart bool) (string, error) {
	var out struct {
		Transcript string `json:"transcript"`
	}
	fields := map[string]string{"smart_mode": strconv.FormatBool(smart)}
	if err := c.post(ctx, "/recognise", audioPath, fields, &out); err != nil {
		return "", err
	}
	return out.Transcript, nil
}

func (c *Client) Edit(ctx context.Context, audioPath, text string) (string, error) {
	var out struct {
		EditedText string `json:"edited_text"`
	}
	if err := c.post(ctx, "/edit", audioPath, map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	return out.EditedText, nil
}

func (c *Client) post(ctx context.Context, path, audioPath string, fields map[string]string, out any) error {
	body, contentType, err := multipartBody(audioPath, fields)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

func multipartBody(audioPath string, fields map[string]string) (io.Reader, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	fw, err := w.CreateFormFile("m4a_file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", fmt.Errorf("failed to read audio file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func serverError(resp *http.Response) error {
	se := &ServerError{Status: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		se.Message = payload.Error
	} else {
		se.Message = http.StatusText(resp.StatusCode)
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		se.RetryAfter = time.Duration(secs) * time.Second
	}
	return se
}
