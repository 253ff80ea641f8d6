package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// systemPrompt pins the assistant to short, code-focused answers.
const systemPrompt = "You are a coding assistant inside a collaborative editor. " +
	"Assist with code and keep replies short."

// ErrChatNotConfigured is returned when no API key was provided at startup.
// The proxy maps it to the same unavailable payload as any upstream failure.
var ErrChatNotConfigured = errors.New("chat upstream not configured")

// DefaultChatModel is used when ANTHROPIC_MODEL is unset.
const DefaultChatModel = "claude-3-5-haiku-latest"

// ChatClient calls the chat-completion upstream. It is stateless: each
// Complete call is one request/response cycle, independent of room state.
type ChatClient struct {
	client     anthropic.Client
	model      anthropic.Model
	timeout    time.Duration
	configured bool
}

// NewChatClient builds a chat client. An empty apiKey yields a client whose
// calls fail fast with ErrChatNotConfigured instead of refusing to boot.
func NewChatClient(apiKey, model string, timeout time.Duration) *ChatClient {
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatClient{
		client:     anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:      anthropic.Model(model),
		timeout:    timeout,
		configured: apiKey != "",
	}
}

// Complete sends message to the model and returns the text reply.
func (c *ChatClient) Complete(ctx context.Context, message string) (string, error) {
	if !c.configured {
		return "", ErrChatNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 512,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}
	if reply.Len() == 0 {
		return "", errors.New("chat completion returned no text content")
	}
	return reply.String(), nil
}
