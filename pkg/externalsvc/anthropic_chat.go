package externalsvc

import (
	"context"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/newsroom-systems/chief/pkg/chieferrors"
)

// AnthropicChat implements Chat against the Anthropic Messages API, the
// concrete LLM collaborator the draft/edit/review workers talk through.
type AnthropicChat struct {
	client anthropic.Client
	model  anthropic.Model
	res    *Resilient[string]
}

// NewAnthropicChat builds an AnthropicChat using apiKey, defaulting to
// Claude Sonnet for the generate calls draft/edit/review issue.
func NewAnthropicChat(apiKey string) *AnthropicChat {
	return &AnthropicChat{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.ModelClaudeSonnet4_5,
		res:    NewResilient[string]("anthropic-chat"),
	}
}

// Generate sends system + messages to Anthropic and returns the
// concatenated text of the response.
func (a *AnthropicChat) Generate(ctx context.Context, system string, messages []ChatMessage, maxTokens int, temperature float64) (string, error) {
	return a.res.Call(ctx, func(ctx context.Context) (string, error) {
		params := anthropic.MessageNewParams{
			Model:       a.model,
			MaxTokens:   int64(maxTokens),
			Temperature: anthropic.Float(temperature),
			Messages:    toAnthropicMessages(messages),
		}
		if system != "" {
			params.System = []anthropic.TextBlockParam{{Text: system}}
		}

		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return "", classifyAnthropicError(err)
		}

		var out string
		for _, block := range resp.Content {
			if text := block.AsText(); text.Text != "" {
				out += text.Text
			}
		}
		return out, nil
	})
}

func toAnthropicMessages(messages []ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

// classifyAnthropicError maps SDK errors onto the substrate's taxonomy:
// rate limits (429) and 500/503/504 responses are TRANSIENT (worth
// retrying through Resilient), anything else is UNAVAILABLE.
func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return chieferrors.New(chieferrors.Transient, "externalsvc.anthropic", err)
		case http.StatusInternalServerError:
			return chieferrors.New(chieferrors.Transient, "externalsvc.anthropic", err)
		}
	}
	return chieferrors.New(chieferrors.Unavailable, "externalsvc.anthropic", err)
}
