package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/types"
)

// EinoPDFExtractor 使用 Eino PDF Parser 按页提取简历文本
type EinoPDFExtractor struct {
	parser *pdf.PDFParser
	logger zerolog.Logger
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(l zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		e.logger = l
	}
}

// NewEinoPDFExtractor 初始化 Eino PDF 文本提取器。
// 按页分割，以便下游保留页计数并按页拼接全文。
func NewEinoPDFExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFExtractor{
		parser: p,
		logger: logger.Logger.With().Str("component", "pdf_extractor").Logger(),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor, nil
}

// ExtractFromFile 从PDF文件路径提取文档
func (e *EinoPDFExtractor) ExtractFromFile(ctx context.Context, filePath string) (*types.RawDocument, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开文件 %s: %v", types.ErrUnreadablePDF, filePath, err)
	}
	defer file.Close()

	return e.ExtractFromReader(ctx, file, filePath)
}

// ExtractFromBytes 从字节数组提取文档
func (e *EinoPDFExtractor) ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.RawDocument, error) {
	return e.ExtractFromReader(ctx, bytes.NewReader(data), uri)
}

// ExtractFromReader 从 io.Reader 提取按页文本。
// 解析失败（损坏或加密的PDF）映射为 ErrUnreadablePDF。
func (e *EinoPDFExtractor) ExtractFromReader(ctx context.Context, reader io.Reader, uri string) (*types.RawDocument, error) {
	startTime := time.Now()
	e.logger.Debug().Str("uri", uri).Msg("开始提取PDF文本")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader, einoParser.WithURI(uri))
	duration := time.Since(startTime)
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Dur("duration", duration).Msg("PDF解析失败")
		return nil, fmt.Errorf("%w: %s: %v", types.ErrUnreadablePDF, uri, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s: 解析无结果", types.ErrUnreadablePDF, uri)
	}

	pages := make([]string, 0, len(docs))
	totalChars := 0
	for _, doc := range docs {
		pages = append(pages, doc.Content)
		totalChars += len(doc.Content)
	}

	e.logger.Debug().
		Str("uri", uri).
		Int("pages", len(pages)).
		Int("chars", totalChars).
		Dur("duration", duration).
		Msg("PDF提取完成")

	return &types.RawDocument{Pages: pages, PageCount: len(pages)}, nil
}
