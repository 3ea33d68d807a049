// File: internal/services/backend/openai_responder.go
package backend

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const tutorSystemPrompt = "You are a medical education assistant used for study and exam " +
	"preparation. Answer concisely and factually, and never present yourself as a source of " +
	"medical advice for real patients."

// OpenAIResponder produces turns from an OpenAI-compatible endpoint. It sits
// behind the same Responder interface as the canned simulator so the rest of
// the system cannot tell them apart.
type OpenAIResponder struct {
	client *openai.Client
	model  string
	logger Logger
}

func NewOpenAIResponder(apiKey, baseURL, model string, logger Logger) *OpenAIResponder {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAIResponder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}
}

func (r *OpenAIResponder) Respond(ctx context.Context, question string) (string, error) {
	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: r.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: tutorSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: question},
			},
			Temperature: 0.1, // Low for medical accuracy
		},
	)

	if err != nil {
		if ctx.Err() != nil {
			return "", NewAbortError("respond", ctx.Err())
		}
		r.logger.Error("completion request failed", "error", err)
		return "", NewResponderError("respond", "failed to create completion", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", NewResponderError("respond", "empty completion response", nil)
	}

	return resp.Choices[0].Message.Content, nil
}
