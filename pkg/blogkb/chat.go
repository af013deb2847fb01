package blogkb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/blogkb/pkg/blogkb/cards"
	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/rank"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLM is the text service answers are generated with.
type LLM interface {
	// Complete returns the full reply to messages under the system prompt.
	Complete(ctx context.Context, system string, messages []Message) (string, error)
	// Stream calls onDelta with each chunk of the reply as it arrives and
	// returns once the reply is complete. An error from onDelta stops the
	// stream and is returned.
	Stream(ctx context.Context, system string, messages []Message, onDelta func(string) error) error
}

// ChatRequest is a user message with the preceding conversation.
type ChatRequest struct {
	Message string    `json:"message"`
	History []Message `json:"history"`
}

// Answer is a cleaned LLM reply with the blogs it was grounded on.
type Answer struct {
	Response     string            `json:"response"`
	SourcesCount int               `json:"sourcesCount"`
	Sources      []cards.SourceRef `json:"sources"`
	Card         cards.Card        `json:"card"`
}

// Ask answers a chat message. The message must not be blank.
func (e *Engine) Ask(ctx context.Context, req ChatRequest) (*Answer, error) {
	system, messages, ranked, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	text, err := e.llm.Complete(ctx, system, messages)
	if err != nil {
		return nil, llmError(err)
	}
	return e.answer(req.Message, text, ranked), nil
}

// AskStream is Ask with the reply streamed to onDelta as it is generated.
// The returned Answer holds the cleaned full reply; it is only produced once
// the stream completes. A cancelled or failed stream discards the partial
// reply; an error returned by onDelta is passed back unchanged.
func (e *Engine) AskStream(ctx context.Context, req ChatRequest, onDelta func(string) error) (*Answer, error) {
	system, messages, ranked, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator()
	var sinkErr error
	err = e.llm.Stream(ctx, system, messages, func(delta string) error {
		if err := acc.Write(delta); err != nil {
			return err
		}
		if onDelta == nil {
			return nil
		}
		if err := onDelta(delta); err != nil {
			sinkErr = err
			return err
		}
		return nil
	})
	if err != nil {
		acc.Cancel()
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case sinkErr != nil:
			return nil, sinkErr
		}
		return nil, llmError(err)
	}
	acc.Complete()

	text, _ := acc.Final()
	return e.answer(req.Message, text, ranked), nil
}

func (e *Engine) prepare(ctx context.Context, req ChatRequest) (string, []Message, []rank.Scored, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", nil, nil, fmt.Errorf("%w: message is required", internalerr.ErrInvalidInput)
	}
	if e.llm == nil {
		return "", nil, nil, fmt.Errorf("%w: no llm configured", internalerr.ErrLLMUnavailable)
	}

	ranked, err := e.Retrieve(ctx, req.Message)
	if err != nil {
		return "", nil, nil, err
	}
	stats, err := e.PlatformStats(ctx)
	if err != nil {
		return "", nil, nil, err
	}
	e.logger.Debug("retrieved blogs",
		zap.String("query", req.Message),
		zap.Int("ranked", len(ranked)),
		zap.Int64("total", stats.TotalBlogs))

	system := BuildContext(stats, ranked, e.extractor)
	return system, Conversation(req.History, req.Message, e.limits.HistoryLimit), ranked, nil
}

func (e *Engine) answer(query, text string, ranked []rank.Scored) *Answer {
	cleaned := CleanAnswer(text)
	card := e.cards.Build(query, cleaned, ranked)
	return &Answer{
		Response:     cleaned,
		SourcesCount: len(card.Sources),
		Sources:      card.Sources,
		Card:         card,
	}
}

func llmError(err error) error {
	if errors.Is(err, internalerr.ErrLLMUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", internalerr.ErrLLMUnavailable, err)
}
