package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// PromptSuffix is appended to every query so the model refuses anything
// that is not a literary work with its author.
const PromptSuffix = " (ТЕХНИЧЕСКОЕ ЗАДАНИЕ: Обязательно проверь, что до тех. задания я написал " +
	"название литературного произведения и автора этого произведения. Если все соответствует - " +
	"то сделай очень подробный анализ этого произведения. Если до тех. задания я вставил никак " +
	"не относящийся к литературе запрос, то напиши текст о том, что ты занимаешься именно " +
	"разбором литературных произведений и ничего более)"

// ErrEmptyAnswer is returned when the endpoint answers without any choice.
var ErrEmptyAnswer = errors.New("analysis: empty completion")

// Completions is the part of the openai-go chat service the client calls.
type Completions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// ClientConfig configures an OpenAI-compatible completion endpoint.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxRetries  int
}

// Client asks the model for an analysis of a literary work.
type Client struct {
	completions Completions
	model       string
	maxTokens   int
	temperature float64
}

// NewClient builds a Client backed by openai-go.
func NewClient(cfg ClientConfig) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("analysis: api key required")
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	client := openai.NewClient(opts...)
	return NewClientWith(&client.Chat.Completions, cfg), nil
}

// NewClientWith builds a Client over an existing completion service.
func NewClientWith(completions Completions, cfg ClientConfig) *Client {
	return &Client{
		completions: completions,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Model reports the model name requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Analyze returns the raw model answer for query.
func (c *Client) Analyze(ctx context.Context, query string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(query + PromptSuffix),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	completion, err := c.completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	return completion.Choices[0].Message.Content, nil
}
