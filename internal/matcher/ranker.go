package matcher

import (
	"fmt"
	"math"
	"sort"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/types"
)

// Candidate 排序输入：单个候选人的评分结果与结构化字段
type Candidate struct {
	ID     string
	Fields types.StructuredFields
	Match  types.MatchResult
}

// Rank 按综合评分对候选人降序排序。
// 综合评分 = 0.6*最高分 + 0.4*平均分。
// 评分在容差内相等的候选人保持输入相对顺序（稳定排序）。
// 空候选人集合返回 ErrEmptyInput。纯函数，无副作用。
func Rank(candidates []Candidate) ([]types.CandidateRanking, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("候选人集合为空，无法排序: %w", types.ErrEmptyInput)
	}

	rankings := make([]types.CandidateRanking, len(candidates))
	for i, c := range candidates {
		rankings[i] = types.CandidateRanking{
			CandidateID:   c.ID,
			Fields:        c.Fields,
			Match:         c.Match,
			OverallRating: OverallRating(c.Match),
		}
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		// 容差内视为相等，保持输入顺序
		if math.Abs(rankings[i].OverallRating-rankings[j].OverallRating) <= constants.RatingEpsilon {
			return false
		}
		return rankings[i].OverallRating > rankings[j].OverallRating
	})

	return rankings, nil
}

// OverallRating 计算单个候选人的综合评分
func OverallRating(m types.MatchResult) float64 {
	return constants.MaxScoreWeight*m.MaxScore + constants.AvgScoreWeight*m.AvgScore
}

// Best 返回评分等于最高分（容差内）的所有候选人，支持并列第一。
// 输入须为 Rank 的输出（降序）。
func Best(rankings []types.CandidateRanking) []types.CandidateRanking {
	if len(rankings) == 0 {
		return nil
	}

	top := rankings[0].OverallRating
	var best []types.CandidateRanking
	for _, r := range rankings {
		if math.Abs(r.OverallRating-top) <= constants.RatingEpsilon {
			best = append(best, r)
		}
	}
	return best
}
