package processor

import (
	"github.com/rs/zerolog"
)

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

// WithcompPdfextractor 设置PDF提取器组件
func WithcompPdfextractor(extractor PDFTextExtractor) ComponentOpt {
	return func(c *Components) {
		c.PDFExtractor = extractor
	}
}

// WithcompFallbackextractor 设置PDF提取失败时的兜底提取器
func WithcompFallbackextractor(extractor PDFTextExtractor) ComponentOpt {
	return func(c *Components) {
		c.FallbackExtractor = extractor
	}
}

// WithcompScorer 设置相似度评分组件
func WithcompScorer(scorer MatchScorer) ComponentOpt {
	return func(c *Components) {
		c.Scorer = scorer
	}
}

// WithcompCache 设置分析结果缓存组件
func WithcompCache(cache AnalysisCache) ComponentOpt {
	return func(c *Components) {
		c.Cache = cache
	}
}

// ----- 设置选项 -----

// WithsetBatchworkers 设置批量分析的工作协程数
func WithsetBatchworkers(n int) SettingOpt {
	return func(s *Settings) {
		if n > 0 {
			s.BatchWorkers = n
		}
	}
}

// WithsetChunking 设置分块目标大小与重叠
func WithsetChunking(targetSize, overlap int) SettingOpt {
	return func(s *Settings) {
		s.ChunkTargetSize = targetSize
		s.ChunkOverlap = overlap
	}
}

// WithsetLogger 设置日志记录器
func WithsetLogger(l zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		s.Logger = l
	}
}
