package stt

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/yoockh/voicedit/internal/storage"
	"github.com/yoockh/voicedit/internal/utils"
)

type OpenAIWhisper struct {
	client   *openai.Client
	model    string
	language string
}

func NewOpenAIWhisper(cfg openai.ClientConfig, model, language string) *OpenAIWhisper {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIWhisper{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}
}

func (w *OpenAIWhisper) Transcribe(ctx context.Context, audio *storage.Object) (string, error) {
	const op = "OpenAIWhisper.Transcribe"

	if audio == nil || audio.Size == 0 {
		return "", utils.E(utils.CodeUpstream, op, "empty audio", nil)
	}

	rc, err := audio.Open(ctx)
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "failed to open audio", err)
	}
	defer rc.Close()

	// FilePath only names the multipart part; the content comes from Reader.
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audio.Name,
		Reader:   rc,
		Format:   openai.AudioResponseFormatJSON,
		Language: w.language,
	})
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "transcription request failed", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
