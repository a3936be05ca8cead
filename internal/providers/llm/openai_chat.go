package llm

import (
	"context"
	"errors"
	"math"

	"github.com/sashabaranov/go-openai"

	"github.com/yoockh/voicedit/internal/utils"
)

type OpenAIChat struct {
	client *openai.Client
	model  string
}

func NewOpenAIChat(cfg openai.ClientConfig, model string) *OpenAIChat {
	if model == "" {
		model = openai.GPT4
	}
	return &OpenAIChat{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAIChat) Complete(ctx context.Context, system, user string) (string, error) {
	const op = "OpenAIChat.Complete"

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		// a literal 0 is dropped by omitempty and the API would apply its default
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", utils.E(utils.CodeUpstream, op, "chat completion returned no choices", errors.New("empty choices"))
	}

	return resp.Choices[0].Message.Content, nil
}
