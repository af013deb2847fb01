package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/cognicore/blogkb/pkg/blogkb"
	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
)

// Defaults applied by New.
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultMaxTokens = 2048
	DefaultTimeout   = 60 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	HTTPClient *http.Client
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

var _ blogkb.LLM = (*Client)(nil)

// New creates a client. Model is required.
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: llm model required", internalerr.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &Client{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}, nil
}

// Complete returns the assistant reply to messages under the system prompt.
func (c *Client) Complete(ctx context.Context, system string, messages []blogkb.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, c.request(system, messages, false))
	if err != nil {
		return "", unavailable(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", internalerr.ErrLLMUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream delivers the reply chunk by chunk to onDelta and returns when the
// server ends the stream. An error from onDelta aborts the stream and is
// returned as is.
func (c *Client) Stream(ctx context.Context, system string, messages []blogkb.Message, onDelta func(string) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(system, messages, true))
	if err != nil {
		return unavailable(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return unavailable(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if err := onDelta(delta); err != nil {
				return err
			}
		}
	}
}

func (c *Client) request(system string, messages []blogkb.Message, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == blogkb.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: c.maxTokens,
		Stream:    stream,
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", internalerr.ErrLLMUnavailable, err)
}
