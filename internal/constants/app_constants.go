package constants

import "time"

const (
	// 分块默认参数（字符数）
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50

	// 批量分析的默认工作协程数
	DefaultBatchWorkers = 4

	// 排序权重: OverallRating = MaxScoreWeight*max + AvgScoreWeight*avg
	MaxScoreWeight = 0.6
	AvgScoreWeight = 0.4

	// 浮点比较容差，评分相等判定使用
	RatingEpsilon = 1e-9

	// 分析结果缓存
	AnalysisCachePrefix   = "cv:analysis:"
	AnalysisCacheDuration = 24 * time.Hour
	DefaultMemoryCacheCap = 128

	// LLM报告输入截断长度（字符数）
	ReportCVTextLimit = 3000
	ReportJDTextLimit = 2000
)

// 流水线阶段名，用于错误上下文和日志
const (
	StageExtract = "extract"
	StageChunk   = "chunk"
	StageEmbed   = "embed"
	StageScore   = "score"
	StageRank    = "rank"
	StageReport  = "report"
)
