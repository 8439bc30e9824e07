package openai

import (
	"context"
	"errors"
	"io"
	"iter"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"manus/internal/llm"
)

const Provider = "openai"

type Config struct {
	APIKey  string
	BaseURL string
	Logger  *zap.Logger
}

// Client streams chat completions from an OpenAI compatible endpoint.
type Client struct {
	api *goopenai.Client
	log *zap.Logger
}

func New(cfg Config) *Client {
	conf := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{api: goopenai.NewClientWithConfig(conf), log: log}
}

func messages(req llm.Request) []goopenai.ChatCompletionMessage {
	var msgs []goopenai.ChatCompletionMessage
	if req.SystemMessage != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemMessage})
	}
	return append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.UserMessage})
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		start := time.Now()
		c.log.Debug("starting stream", zap.String("model", req.Model))

		stream, err := c.api.CreateChatCompletionStream(ctx, goopenai.ChatCompletionRequest{
			Model:    req.Model,
			Messages: messages(req),
			Stream:   true,
		})
		if err != nil {
			yield("", err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				c.log.Debug("stream completed", zap.Duration("elapsed", time.Since(start)))
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			for _, choice := range resp.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !yield(choice.Delta.Content, nil) {
					return
				}
			}
		}
	}
}
