package types

import "strings"

// SectionType 表示简历章节标签
type SectionType string

const (
	// SectionSummary 个人总结/自我评价章节
	SectionSummary SectionType = "summary"
	// SectionExperience 工作经历章节
	SectionExperience SectionType = "experience"
	// SectionEducation 教育经历章节
	SectionEducation SectionType = "education"
	// SectionSkills 技能章节
	SectionSkills SectionType = "skills"
	// SectionProjects 项目经历章节
	SectionProjects SectionType = "projects"
	// SectionOther 未分类内容章节
	SectionOther SectionType = "other"
)

// SectionOrder 章节的固定输出顺序。
// 分块结果始终按此顺序输出，与简历原始排版无关，便于下游消费方获得稳定顺序。
var SectionOrder = []SectionType{
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionOther,
}

// RawDocument 外部PDF加载器产出的原始文档，按页保存文本
type RawDocument struct {
	Pages     []string `json:"pages"`
	PageCount int      `json:"page_count"`
}

// Text 按页拼接完整文本
func (d *RawDocument) Text() string {
	return strings.Join(d.Pages, " ")
}

// StructuredFields 从简历文本抽取的结构化字段。
// 未命中的字符串字段为空串，ExperienceYears 未命中时为 nil。
type StructuredFields struct {
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	LinkedIn        string   `json:"linkedin,omitempty"`
	GitHub          string   `json:"github,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears *int     `json:"experience_years,omitempty"`
}

// Chunk 表示简历的一个分块，Section 标明所属章节
type Chunk struct {
	Section SectionType `json:"section,omitempty"`
	Content string      `json:"content"`
}

// MatchResult 简历与岗位描述的相似度匹配结果
type MatchResult struct {
	// 每个分块与JD的余弦相似度，顺序与输入分块一致
	PerChunkScores []float64 `json:"per_chunk_scores"`
	// 最高分
	MaxScore float64 `json:"max_score"`
	// 平均分
	AvgScore float64 `json:"avg_score"`
}

// CandidateRanking 单个候选人的排序条目
type CandidateRanking struct {
	CandidateID string           `json:"candidate_id"`
	Fields      StructuredFields `json:"structured_fields"`
	Match       MatchResult      `json:"match_result"`
	// OverallRating = 0.6*MaxScore + 0.4*AvgScore
	OverallRating float64 `json:"overall_rating"`
}

// AnalysisResult 单份简历的完整分析结果
type AnalysisResult struct {
	CandidateID string `json:"candidate_id"`
	// Label 用于展示的候选人标签；姓名抽取失败时退化为文件名派生标签
	Label  string           `json:"label"`
	Fields StructuredFields `json:"structured_fields"`
	Chunks []Chunk          `json:"chunks"`
	// Match 仅在提供JD时存在
	Match *MatchResult `json:"match_result,omitempty"`
}
