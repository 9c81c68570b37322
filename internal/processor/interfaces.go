package processor

import (
	"context"
	"io"

	"cv-agent-go/internal/types"
)

//
// PDF解析相关接口
//

// PDFTextExtractor PDF文本提取接口
type PDFTextExtractor interface {
	// ExtractFromFile 从PDF文件路径提取按页文本
	ExtractFromFile(ctx context.Context, filePath string) (*types.RawDocument, error)

	// ExtractFromBytes 从字节数组提取按页文本
	ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.RawDocument, error)

	// ExtractFromReader 从 io.Reader 提取按页文本
	// uri 仅用于日志与错误信息
	ExtractFromReader(ctx context.Context, reader io.Reader, uri string) (*types.RawDocument, error)
}

//
// 评分相关接口
//

// MatchScorer 简历分块与岗位描述的相似度评分接口
type MatchScorer interface {
	// Score 对分块逐一计算与岗位描述的相似度并归约出最高分与平均分
	Score(ctx context.Context, chunks []string, jobDescription string) (*types.MatchResult, error)
}

//
// 缓存相关接口
//

// AnalysisCache 分析结果缓存接口。
// Get 第二个返回值表示是否命中；未命中不是错误。
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*types.AnalysisResult, bool, error)
	Put(ctx context.Context, key string, result *types.AnalysisResult) error
}
