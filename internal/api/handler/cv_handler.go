package handler

import (
	"context"
	"errors"
	"fmt"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/llm"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/matcher"
	"cv-agent-go/internal/processor"
	"cv-agent-go/internal/types"
)

// CVHandler 简历分析处理器，负责协调分析、匹配、排序和报告流程
type CVHandler struct {
	cfg      *config.Config
	analyzer *processor.CVAnalyzer
	// reports 报告生成器；未配置LLM时为nil，报告类接口返回错误
	reports *llm.ReportGenerator
}

// NewCVHandler 创建简历分析处理器
func NewCVHandler(cfg *config.Config, analyzer *processor.CVAnalyzer, reports *llm.ReportGenerator) *CVHandler {
	return &CVHandler{
		cfg:      cfg,
		analyzer: analyzer,
		reports:  reports,
	}
}

// CandidateAnalyzeResponse 候选人分析响应
type CandidateAnalyzeResponse struct {
	CandidateID string                 `json:"candidate_id"`
	Label       string                 `json:"label"`
	Fields      types.StructuredFields `json:"structured_fields"`
	ChunkCount  int                    `json:"chunk_count"`
	Chunks      []types.Chunk          `json:"chunks,omitempty"`
	// Report 仅在请求附带报告时存在
	Report string `json:"report,omitempty"`
}

// CandidateReportResponse 候选人报告响应
type CandidateReportResponse struct {
	CandidateID string `json:"candidate_id"`
	Kind        string `json:"kind"`
	Report      string `json:"report"`
}

// RecruiterMatchResponse 单候选人岗位匹配响应
type RecruiterMatchResponse struct {
	CandidateID string                 `json:"candidate_id"`
	Label       string                 `json:"label"`
	Fields      types.StructuredFields `json:"structured_fields"`
	Match       *types.MatchResult     `json:"match_result"`
	// OverallRating 综合评分，与批量排序使用同一权重
	OverallRating float64 `json:"overall_rating"`
}

// HandleCandidateAnalyze 分析单份简历，返回结构化字段与分块信息。
// withReport 为真时附带改进建议报告。
func (h *CVHandler) HandleCandidateAnalyze(ctx context.Context, data []byte, filename, targetRole string, includeChunks, withReport bool) (*CandidateAnalyzeResponse, error) {
	doc := processor.CandidateDocument{FileName: filename, Data: data}

	result, err := h.analyzer.AnalyzeDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	resp := &CandidateAnalyzeResponse{
		CandidateID: result.CandidateID,
		Label:       result.Label,
		Fields:      result.Fields,
		ChunkCount:  len(result.Chunks),
	}
	if includeChunks {
		resp.Chunks = result.Chunks
	}

	if withReport {
		if h.reports == nil {
			return nil, fmt.Errorf("未配置报告生成器")
		}
		text, err := h.analyzer.ExtractText(ctx, doc)
		if err != nil {
			return nil, err
		}
		report, err := h.reports.SuggestImprovements(ctx, text, targetRole)
		if err != nil {
			return nil, err
		}
		resp.Report = report
	}

	return resp, nil
}

// HandleCandidateReport 生成指定类型的简历分析报告
func (h *CVHandler) HandleCandidateReport(ctx context.Context, data []byte, filename string, kind llm.ReportKind, targetRole, jobDescription string) (*CandidateReportResponse, error) {
	if h.reports == nil {
		return nil, fmt.Errorf("未配置报告生成器")
	}

	doc := processor.CandidateDocument{FileName: filename, Data: data}
	result, err := h.analyzer.AnalyzeDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	text, err := h.analyzer.ExtractText(ctx, doc)
	if err != nil {
		return nil, err
	}

	report, err := h.reports.Generate(ctx, kind, text, targetRole, jobDescription)
	if err != nil {
		return nil, err
	}

	return &CandidateReportResponse{
		CandidateID: result.CandidateID,
		Kind:        string(kind),
		Report:      report,
	}, nil
}

// HandleRecruiterMatch 单份简历与岗位描述的匹配评分
func (h *CVHandler) HandleRecruiterMatch(ctx context.Context, data []byte, filename, jobDescription string) (*RecruiterMatchResponse, error) {
	if jobDescription == "" {
		return nil, fmt.Errorf("岗位描述不能为空: %w", types.ErrEmptyInput)
	}

	doc := processor.CandidateDocument{FileName: filename, Data: data}
	result, err := h.analyzer.AnalyzeDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := h.analyzer.MatchAgainstJob(ctx, result, jobDescription); err != nil {
		return nil, err
	}

	return &RecruiterMatchResponse{
		CandidateID:   result.CandidateID,
		Label:         result.Label,
		Fields:        result.Fields,
		Match:         result.Match,
		OverallRating: overallRating(result.Match),
	}, nil
}

// HandleRecruiterRank 批量分析多份简历并按与岗位描述的契合度排序。
// 单个候选人的失败不会中断整批，失败明细随结果返回。
func (h *CVHandler) HandleRecruiterRank(ctx context.Context, docs []processor.CandidateDocument, jobDescription string) (*processor.BatchResult, error) {
	if jobDescription == "" {
		return nil, fmt.Errorf("岗位描述不能为空: %w", types.ErrEmptyInput)
	}

	result, err := h.analyzer.AnalyzeBatch(ctx, docs, jobDescription)
	if err != nil {
		if result != nil && len(result.Failures) > 0 {
			logger.Warn().Int("failed", len(result.Failures)).Msg("批量排序全部候选人失败")
		}
		return result, err
	}
	return result, nil
}

// StatusForError 将错误分类映射到HTTP状态码
func StatusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrEmptyInput):
		return 400
	case errors.Is(err, types.ErrUnreadablePDF):
		return 422
	case errors.Is(err, types.ErrDependencyTimeout):
		return 504
	case errors.Is(err, types.ErrDependency):
		return 502
	default:
		return 500
	}
}

func overallRating(m *types.MatchResult) float64 {
	if m == nil {
		return 0
	}
	return matcher.OverallRating(*m)
}
