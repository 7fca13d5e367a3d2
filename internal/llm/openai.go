package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rasaeel/rasaeel/internal/config"
)

// OpenAIInvoker implements ToolInvoker with the chat completions API.
type OpenAIInvoker struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIInvoker(log *slog.Logger, cfg config.OpenAIConfig) *OpenAIInvoker {
	if log == nil {
		log = slog.Default()
	}
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultOpenAIModel
	}
	return &OpenAIInvoker{
		client: openai.NewClient(opts...),
		model:  model,
		logger: log.With(slog.String("service", "openai")),
	}
}

func (o *OpenAIInvoker) InvokeTool(ctx context.Context, req ToolRequest) ([]byte, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserContent),
		},
		Tools: []openai.ChatCompletionToolParam{
			{
				Function: openai.FunctionDefinitionParam{
					Name:        req.Tool.Name,
					Description: openai.String(req.Tool.Description),
					Parameters:  openai.FunctionParameters(req.Tool.Parameters),
				},
			},
		},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: req.Tool.Name},
			},
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	o.logger.Debug("chat completion",
		slog.String("model", resp.Model),
		slog.Int64("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int64("completion_tokens", resp.Usage.CompletionTokens),
		slog.Duration("latency", time.Since(start)),
	)
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrParse)
	}
	for _, call := range resp.Choices[0].Message.ToolCalls {
		if call.Function.Name == req.Tool.Name {
			return []byte(call.Function.Arguments), nil
		}
	}
	return nil, fmt.Errorf("%w: model did not call %s", ErrParse, req.Tool.Name)
}
