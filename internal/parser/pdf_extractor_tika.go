package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/types"
)

// TikaPDFExtractor 基于Apache Tika服务器的PDF解析器，作为Eino解析器的兜底方案。
// Tika的纯文本接口不提供分页信息，整份文档作为单页返回。
type TikaPDFExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	logger zerolog.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaPDFExtractor)

// WithTikaTimeout 配置HTTP客户端超时时间
func WithTikaTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.Client.Timeout = timeout
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(l zerolog.Logger) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.logger = l
	}
}

// NewTikaPDFExtractor 创建一个新的Tika PDF解析器
func NewTikaPDFExtractor(serverURL string, options ...TikaOption) *TikaPDFExtractor {
	extractor := &TikaPDFExtractor{
		ServerURL: strings.TrimRight(serverURL, "/"),
		Client:    &http.Client{Timeout: 60 * time.Second},
		logger:    logger.Logger.With().Str("component", "tika_extractor").Logger(),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor
}

// ExtractFromReader 从 io.Reader 提取文本
func (e *TikaPDFExtractor) ExtractFromReader(ctx context.Context, reader io.Reader, uri string) (*types.RawDocument, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取PDF内容失败: %w", err)
	}
	return e.ExtractFromBytes(ctx, data, uri)
}

// ExtractFromBytes 将PDF内容PUT到Tika的 /tika 纯文本端点。
// 服务器不可达属于依赖故障（ErrDependency/ErrDependencyTimeout），
// 4xx/5xx 响应视为文档不可读（ErrUnreadablePDF）。
func (e *TikaPDFExtractor) ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.RawDocument, error) {
	startTime := time.Now()

	url := e.ServerURL + "/tika"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建Tika请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/plain")

	resp, err := e.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tika: %v", types.ErrDependencyTimeout, err)
		}
		return nil, fmt.Errorf("%w: tika: %v", types.ErrDependency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取Tika响应失败: %v", types.ErrDependency, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: tika返回状态码 %d", types.ErrUnreadablePDF, uri, resp.StatusCode)
	}

	text := string(body)
	e.logger.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("Tika提取完成")

	return &types.RawDocument{Pages: []string{text}, PageCount: 1}, nil
}

// ExtractFromFile 从PDF文件路径提取文档
func (e *TikaPDFExtractor) ExtractFromFile(ctx context.Context, filePath string) (*types.RawDocument, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开文件 %s: %v", types.ErrUnreadablePDF, filePath, err)
	}
	return e.ExtractFromBytes(ctx, data, filePath)
}
