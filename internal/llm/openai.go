package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/ratelimit"
	"cv-agent-go/internal/types"
)

// OpenAICompleter 基于OpenAI兼容端点的补全提供方，兼容dashscope等服务。
// 内置令牌桶限流和可重试错误的退避重试。
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	limiter     *ratelimit.TokenBucket
	logger      zerolog.Logger
}

// NewOpenAICompleter 创建补全提供方
func NewOpenAICompleter(cfg config.LLMConfig) (*OpenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	limiter := ratelimit.NewTokenBucket(cfg.QPM, 0)
	limiter.WithRetryPolicy(time.Duration(cfg.RetryWaitSeconds)*time.Second, cfg.MaxRetries)

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		timeout:     config.GetDuration(cfg.Timeout, 60*time.Second),
		limiter:     limiter,
		logger:      logger.Logger.With().Str("component", "llm_openai").Logger(),
	}, nil
}

// Complete 发送提示词并返回首条补全文本。
// 服务故障映射为 ErrDependency，超时映射为 ErrDependencyTimeout。
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()

	var resp openai.ChatCompletionResponse
	err := c.limiter.RetryWithBackoff(ctx, func() error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		return callErr
	})
	if err != nil {
		return "", wrapCompletionError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: 补全响应无候选内容", types.ErrDependency)
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("prompt_chars", len(prompt)).
		Dur("duration", time.Since(startTime)).
		Msg("补全调用完成")

	return resp.Choices[0].Message.Content, nil
}

// wrapCompletionError 将补全服务错误归入统一的错误分类
func wrapCompletionError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: llm: %v", types.ErrDependencyTimeout, err)
	}
	return fmt.Errorf("%w: llm: %v", types.ErrDependency, err)
}
