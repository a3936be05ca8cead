package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/yoockh/voicedit/internal/utils"
)

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string, opts ...option.ClientOption) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Complete(ctx context.Context, system, user string) (string, error) {
	const op = "VertexGemini.Complete"

	// GenerativeModel carries per-call settings, so each call gets its own.
	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(0)
	m.SystemInstruction = &vertexgenai.Content{
		Parts: []vertexgenai.Part{vertexgenai.Text(system)},
	}

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(user))
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "generate content failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", utils.E(utils.CodeUpstream, op, "generate content returned no candidates", errors.New("empty candidates"))
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(vertexgenai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}
