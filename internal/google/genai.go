package google

import (
	"context"
	"iter"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"manus/internal/llm"
)

const (
	Provider     = "gemini"
	DefaultModel = "gemini-2.5-flash"
)

type Config struct {
	APIKey  string
	BaseURL string
	Logger  *zap.Logger
}

// Client streams completions from the Gemini API.
type Client struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{cfg: cfg, log: log}
}

func (c *Client) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		Backend:     genai.BackendGeminiAPI,
		APIKey:      c.cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.cfg.BaseURL},
	})
}

func contentConfig(sysInstructions string) *genai.GenerateContentConfig {
	if sysInstructions == "" {
		return nil
	}
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: sysInstructions}},
		},
	}
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		client, err := c.newClient(ctx)
		if err != nil {
			yield("", err)
			return
		}

		c.log.Debug("starting stream", zap.String("model", req.Model))
		for resp, err := range client.Models.GenerateContentStream(ctx, req.Model, genai.Text(req.UserMessage), contentConfig(req.SystemMessage)) {
			if err != nil {
				yield("", err)
				return
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}
