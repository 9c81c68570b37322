package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/tracing"
	"cv-agent-go/internal/types"
)

// ReportKind 报告类型
type ReportKind string

const (
	// ReportFeedback 通用改进建议报告
	ReportFeedback ReportKind = "feedback"
	// ReportATS ATS兼容性评估报告
	ReportATS ReportKind = "ats"
	// ReportSkills 技能分析报告
	ReportSkills ReportKind = "skills"
	// ReportSummary 候选人摘要报告
	ReportSummary ReportKind = "summary"
)

var reportTracer = otel.Tracer("cv-agent-go/llm/reports")

// ReportGenerator 基于补全提供方生成简历分析报告。
// 提示词文本是对外契约；报告内容原样透传给调用方，本层不做解析。
type ReportGenerator struct {
	completer Completer
	logger    zerolog.Logger
}

// NewReportGenerator 创建报告生成器
func NewReportGenerator(completer Completer) (*ReportGenerator, error) {
	if completer == nil {
		return nil, fmt.Errorf("补全提供方不能为空")
	}
	return &ReportGenerator{
		completer: completer,
		logger:    logger.Logger.With().Str("component", "report_generator").Logger(),
	}, nil
}

// Generate 按报告类型分发
func (g *ReportGenerator) Generate(ctx context.Context, kind ReportKind, cvText, targetRole, jobDescription string) (string, error) {
	switch kind {
	case ReportFeedback:
		return g.SuggestImprovements(ctx, cvText, targetRole)
	case ReportATS:
		return g.CheckATSScore(ctx, cvText, targetRole, jobDescription)
	case ReportSkills:
		return g.AnalyzeSkills(ctx, cvText, targetRole, jobDescription)
	case ReportSummary:
		return g.GenerateSummary(ctx, cvText)
	default:
		return "", fmt.Errorf("未知的报告类型: %s", kind)
	}
}

// SuggestImprovements 生成通用简历改进建议（不含ATS与技能分析）
func (g *ReportGenerator) SuggestImprovements(ctx context.Context, cvText, targetRole string) (string, error) {
	prompt := fmt.Sprintf(`You are an expert CV/Resume coach with 15+ years of experience helping candidates optimize their resumes for human recruiters.

Analyze the following CV %s and provide actionable improvement suggestions.

ANALYSIS STRUCTURE:
1. CONTENT QUALITY (Score: X/10): impact statements, quantification, action verbs, relevance.
2. PROFESSIONAL SUMMARY: current assessment and a suggested 2-3 line rewrite.
3. EXPERIENCE SECTION: rewrite the top 3 weak bullets with the STAR method, missing achievements, gap analysis.
4. TOP 5 PRIORITY ACTIONS: numbered, most critical first.
5. INDUSTRY-SPECIFIC RECOMMENDATIONS: certifications to add, keywords to include, sections to add.

CV CONTENT TO ANALYZE:
%s

Please provide specific, actionable feedback following the structure above. Use clear formatting with bullet points and sections.`,
		roleContext(targetRole, "for general job applications"),
		truncateWithMarker(cvText, constants.ReportCVTextLimit))

	return g.complete(ctx, ReportFeedback, prompt)
}

// CheckATSScore 生成ATS兼容性评估报告
func (g *ReportGenerator) CheckATSScore(ctx context.Context, cvText, targetRole, jobDescription string) (string, error) {
	jdSection := ""
	if jobDescription != "" {
		jdSection = fmt.Sprintf("\nJOB DESCRIPTION TO MATCH AGAINST:\n%s\n",
			truncateWithMarker(jobDescription, constants.ReportJDTextLimit))
	}

	prompt := fmt.Sprintf(`You are an expert ATS (Applicant Tracking System) specialist with 15+ years of experience helping candidates optimize their resumes to pass automated screening systems.

Analyze the following CV %s and provide a comprehensive ATS analysis.
%s
ATS ANALYSIS STRUCTURE:
1. OVERALL ATS SCORE: X/100.
2. KEYWORD ANALYSIS: present keywords, missing critical keywords, keyword density and match rate.
3. FORMAT COMPATIBILITY (Score: X/10): structure, section headers, bullet points, ATS-unfriendly elements.
4. CONTENT STRUCTURE (Score: X/10): section ordering, contact information, date formats, job titles.
5. PARSING ISSUES: potential parsing problems and missing sections.
6. TOP 5 ATS OPTIMIZATION ACTIONS: numbered, most critical first.

CV CONTENT TO ANALYZE:
%s

Please provide specific, actionable ATS optimization feedback.`,
		roleContext(targetRole, "for general job applications"),
		jdSection,
		truncateWithMarker(cvText, constants.ReportCVTextLimit))

	return g.complete(ctx, ReportATS, prompt)
}

// AnalyzeSkills 生成技能分析报告
func (g *ReportGenerator) AnalyzeSkills(ctx context.Context, cvText, targetRole, jobDescription string) (string, error) {
	jdSection := ""
	if jobDescription != "" {
		jdSection = fmt.Sprintf("\nJOB DESCRIPTION TO MATCH AGAINST:\n%s\n",
			truncateWithMarker(jobDescription, constants.ReportJDTextLimit))
	}

	prompt := fmt.Sprintf(`You are an expert career coach and skills analyst with 15+ years of experience helping candidates optimize their skills presentation %s.

Analyze the skills in the following CV and provide comprehensive feedback.
%s
SKILLS ANALYSIS STRUCTURE:
1. OVERALL SKILLS ASSESSMENT (Score: X/10).
2. CURRENT SKILLS INVENTORY: technical skills, soft skills, tools and technologies, certifications.
3. SKILLS GAP ANALYSIS: missing critical skills, emerging skills to add, skills to emphasize.
4. SKILLS TO REMOVE OR DOWNPLAY: outdated, overused or irrelevant skills.
5. SKILLS ORGANIZATION RECOMMENDATIONS: categories, priority order, proficiency levels.
6. TOP 5 SKILLS ACTIONS: numbered, most important first.
7. RECOMMENDED SKILLS SECTION REWRITE with proper categorization and professional formatting.

CV CONTENT TO ANALYZE:
%s

Please provide specific, actionable skills-related feedback.`,
		roleContext(targetRole, "for the modern job market"),
		jdSection,
		truncateWithMarker(cvText, constants.ReportCVTextLimit))

	return g.complete(ctx, ReportSkills, prompt)
}

// GenerateSummary 生成候选人摘要
func (g *ReportGenerator) GenerateSummary(ctx context.Context, cvText string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following candidate resume in terms of:
- Skills
- Experience summary
- Notable highlights
- Potential red flags

Resume:
%s`, truncateWithMarker(cvText, constants.ReportCVTextLimit))

	return g.complete(ctx, ReportSummary, prompt)
}

func (g *ReportGenerator) complete(ctx context.Context, kind ReportKind, prompt string) (string, error) {
	ctx, span := reportTracer.Start(ctx, "llm.report."+string(kind))
	defer span.End()

	span.SetAttributes(
		attribute.String("report.kind", string(kind)),
		attribute.String("report.prompt", tracing.SafeAttributeValue("prompt", prompt, tracing.MaxPromptLength)),
	)

	report, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return "", types.NewAnalysisError("", constants.StageReport, err, string(kind))
	}

	g.logger.Debug().
		Str("kind", string(kind)).
		Int("report_chars", len(report)).
		Msg("报告生成完成")

	return report, nil
}

// roleContext 目标岗位为空时退化为通用语境
func roleContext(targetRole, fallback string) string {
	if targetRole == "" {
		return fallback
	}
	return fmt.Sprintf("for a %s position", targetRole)
}

// truncateWithMarker 超长输入截断并附加标记，与下游提示词约定保持一致
func truncateWithMarker(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "...[truncated]"
}
