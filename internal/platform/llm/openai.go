// Package llm talks to an OpenAI-compatible chat completion endpoint, either
// an Azure OpenAI deployment or the public OpenAI API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNotConfigured = errors.New("llm: no Azure OpenAI or OpenAI credentials configured")
	ErrEmptyResponse = errors.New("llm: completion returned no choices")
)

// Message is one prior turn. Role is "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

type Request struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Completer produces the next assistant turn for a conversation.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

type Config struct {
	// Azure OpenAI. Used when Endpoint is set.
	AzureAPIKey     string
	AzureEndpoint   string
	AzureDeployment string
	AzureAPIVersion string

	// Public OpenAI (or any compatible server via BaseURL).
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	HTTPClient *http.Client
}

// Client is the go-openai backed Completer.
type Client struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// New builds a client for Azure when an endpoint is configured, otherwise
// for OpenAI. It returns ErrNotConfigured when neither has credentials.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	var (
		oc    openai.ClientConfig
		model string
	)

	switch {
	case cfg.AzureEndpoint != "":
		if cfg.AzureAPIKey == "" || cfg.AzureDeployment == "" {
			return nil, fmt.Errorf("%w: azure endpoint needs an api key and a deployment", ErrNotConfigured)
		}
		oc = openai.DefaultAzureConfig(cfg.AzureAPIKey, strings.TrimRight(cfg.AzureEndpoint, "/"))
		if cfg.AzureAPIVersion != "" {
			oc.APIVersion = cfg.AzureAPIVersion
		}
		deployment := cfg.AzureDeployment
		oc.AzureModelMapperFunc = func(string) string { return deployment }
		model = deployment
	case cfg.OpenAIAPIKey != "":
		oc = openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
		}
		model = cfg.OpenAIModel
		if model == "" {
			model = "gpt-4o-mini"
		}
	default:
		return nil, ErrNotConfigured
	}

	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	return &Client{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		logger: logger,
	}, nil
}

func (c *Client) Model() string { return c.model }

// Complete sends the system prompt followed by the history. There are no
// retries; provider errors are returned wrapped.
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := m.Role
		if role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	c.logger.Debug().
		Str("model", resp.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("latency", time.Since(start)).
		Msg("llm completion")

	return &Completion{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Unavailable is a Completer for servers started without LLM credentials.
// Every call fails with the configuration error.
type Unavailable struct {
	Err error
}

func (u Unavailable) Complete(context.Context, Request) (*Completion, error) {
	if u.Err != nil {
		return nil, u.Err
	}
	return nil, ErrNotConfigured
}
