package parser

import (
	"context"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/types"
)

// OpenAIEmbedder 基于OpenAI兼容端点的向量嵌入提供方。
// 兼容dashscope等OpenAI协议的服务，实现 matcher.Embedder 接口。
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     zerolog.Logger
}

// NewOpenAIEmbedder 创建嵌入提供方
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		logger:     logger.Logger.With().Str("component", "embedder").Logger(),
	}, nil
}

// GetDimensions 返回嵌入器配置的向量维度
func (e *OpenAIEmbedder) GetDimensions() int {
	return e.dimensions
}

// EmbedOne 将单段文本转换为向量
func (e *OpenAIEmbedder) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany 批量将文本转换为向量，结果顺序与输入一致。
// 服务不可达或响应异常映射为 ErrDependency，超时映射为 ErrDependencyTimeout。
func (e *OpenAIEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, wrapDependencyError("embedding", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: embedding响应数量不匹配, 期望 %d 实际 %d",
			types.ErrDependency, len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(resp.Data))
	for _, entry := range resp.Data {
		vec := make([]float64, len(entry.Embedding))
		for i, v := range entry.Embedding {
			vec[i] = float64(v)
		}
		if entry.Index < 0 || entry.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding响应索引越界: %d", types.ErrDependency, entry.Index)
		}
		vectors[entry.Index] = vec
	}

	e.logger.Debug().
		Int("texts", len(texts)).
		Int("dimensions", e.dimensions).
		Msg("embedding完成")

	return vectors, nil
}

// wrapDependencyError 将外部依赖错误归入统一的错误分类
func wrapDependencyError(dep string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", types.ErrDependencyTimeout, dep, err)
	}
	return fmt.Errorf("%w: %s: %v", types.ErrDependency, dep, err)
}
