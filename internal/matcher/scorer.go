package matcher

import (
	"context"
	"fmt"
	"math"

	"cv-agent-go/internal/types"
)

// Embedder 向量嵌入提供方接口
type Embedder interface {
	// EmbedOne 将单段文本转换为向量
	EmbedOne(ctx context.Context, text string) ([]float64, error)
	// EmbedMany 批量将文本转换为向量，结果顺序与输入一致
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)
}

// SimilarityScorer 计算简历分块与岗位描述的语义相似度
type SimilarityScorer struct {
	embedder Embedder
}

// NewSimilarityScorer 创建相似度评分器
func NewSimilarityScorer(embedder Embedder) *SimilarityScorer {
	return &SimilarityScorer{embedder: embedder}
}

// Score 对每个分块独立计算与JD向量的余弦相似度，并归约出最高分与平均分。
// 空分块列表返回 ErrEmptyInput（最大值无定义）。
// 嵌入服务的失败原样向上传播，本层不做重试，重试退避属于嵌入提供方的职责。
func (s *SimilarityScorer) Score(ctx context.Context, chunks []string, jobDescription string) (*types.MatchResult, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("分块列表为空，无法评分: %w", types.ErrEmptyInput)
	}

	jdVector, err := s.embedder.EmbedOne(ctx, jobDescription)
	if err != nil {
		return nil, fmt.Errorf("岗位描述向量化失败: %w", err)
	}

	chunkVectors, err := s.embedder.EmbedMany(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("简历分块向量化失败: %w", err)
	}
	if len(chunkVectors) != len(chunks) {
		return nil, fmt.Errorf("%w: 嵌入结果数量不匹配, 期望 %d 实际 %d", types.ErrDependency, len(chunks), len(chunkVectors))
	}

	scores := make([]float64, len(chunkVectors))
	maxScore := math.Inf(-1)
	sum := 0.0
	for i, vec := range chunkVectors {
		score := CosineSimilarity(jdVector, vec)
		scores[i] = score
		sum += score
		if score > maxScore {
			maxScore = score
		}
	}

	return &types.MatchResult{
		PerChunkScores: scores,
		MaxScore:       maxScore,
		AvgScore:       sum / float64(len(scores)),
	}, nil
}

// CosineSimilarity 计算两个向量的余弦相似度，结果截断在[-1, 1]。
// 维度不一致或零向量时返回0。
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// 浮点误差可能使结果略微越界
	return math.Max(-1, math.Min(1, score))
}
