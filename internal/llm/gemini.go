package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/types"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiCompleter 基于Google GenAI的补全提供方，作为OpenAI兼容端点之外的备选
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
	logger    zerolog.Logger
}

// NewGeminiCompleter 创建Gemini补全提供方
func NewGeminiCompleter(ctx context.Context, cfg config.GeminiConfig) (*GeminiCompleter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini API密钥不能为空")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建genai客户端失败: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiCompleter{
		client:    client,
		modelName: model,
		logger:    logger.Logger.With().Str("component", "llm_gemini").Logger(),
	}, nil
}

// Complete 发送提示词并返回首条文本响应
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, nil)
	if err != nil {
		return "", wrapCompletionError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: gemini响应无文本内容", types.ErrDependency)
	}

	c.logger.Debug().
		Str("model", c.modelName).
		Int("prompt_chars", len(prompt)).
		Msg("gemini补全完成")

	return text, nil
}
