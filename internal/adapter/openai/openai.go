package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	portai "github.com/mliu/prompthub/internal/port/ai"
)

const defaultModel = "gpt-4o-mini"

// Generator implements port/ai.Generator against the OpenAI chat API.
type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(apiKey, model string) *Generator {
	if model == "" {
		model = defaultModel
	}
	return &Generator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (g *Generator) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *Generator) Stream(ctx context.Context, system, user string) (<-chan portai.Chunk, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}

	ch := make(chan portai.Chunk, 64)
	go func() {
		defer close(ch)
		defer stream.Close()

		// Every send selects on ctx so a consumer that walks away never
		// strands this goroutine on a full buffer.
		send := func(c portai.Chunk) bool {
			select {
			case ch <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(portai.Chunk{Done: true})
				return
			}
			if err != nil {
				send(portai.Chunk{Err: err, Done: true})
				return
			}
			if len(resp.Choices) > 0 {
				if !send(portai.Chunk{Content: resp.Choices[0].Delta.Content}) {
					return
				}
			}
		}
	}()

	return ch, nil
}
