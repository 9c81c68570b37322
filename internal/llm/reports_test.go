package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/types"
)

// MockCompleter 模拟补全提供方，记录收到的提示词
type MockCompleter struct {
	response string
	err      error
	prompts  []string
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestGenerator(t *testing.T, completer Completer) *ReportGenerator {
	t.Helper()
	g, err := NewReportGenerator(completer)
	require.NoError(t, err)
	return g
}

func TestNewReportGeneratorNilCompleter(t *testing.T) {
	_, err := NewReportGenerator(nil)
	assert.Error(t, err)
}

func TestSuggestImprovementsPromptContract(t *testing.T) {
	mock := &MockCompleter{response: "report body"}
	g := newTestGenerator(t, mock)

	report, err := g.SuggestImprovements(context.Background(), "cv text here", "Backend Engineer")
	require.NoError(t, err)
	assert.Equal(t, "report body", report)

	require.Len(t, mock.prompts, 1)
	prompt := mock.prompts[0]
	assert.Contains(t, prompt, "for a Backend Engineer position")
	assert.Contains(t, prompt, "cv text here")
	assert.Contains(t, prompt, "TOP 5 PRIORITY ACTIONS")
}

func TestSuggestImprovementsDefaultRoleContext(t *testing.T) {
	mock := &MockCompleter{response: "ok"}
	g := newTestGenerator(t, mock)

	_, err := g.SuggestImprovements(context.Background(), "cv", "")
	require.NoError(t, err)
	assert.Contains(t, mock.prompts[0], "for general job applications")
}

func TestReportTruncatesLongCV(t *testing.T) {
	mock := &MockCompleter{response: "ok"}
	g := newTestGenerator(t, mock)

	longCV := strings.Repeat("a", 5000)
	_, err := g.SuggestImprovements(context.Background(), longCV, "")
	require.NoError(t, err)

	prompt := mock.prompts[0]
	assert.Contains(t, prompt, "...[truncated]")
	assert.NotContains(t, prompt, strings.Repeat("a", 3001))
}

func TestCheckATSScoreIncludesJobDescription(t *testing.T) {
	mock := &MockCompleter{response: "ok"}
	g := newTestGenerator(t, mock)

	_, err := g.CheckATSScore(context.Background(), "cv", "Engineer", "we need golang experts")
	require.NoError(t, err)

	prompt := mock.prompts[0]
	assert.Contains(t, prompt, "JOB DESCRIPTION TO MATCH AGAINST")
	assert.Contains(t, prompt, "we need golang experts")
	assert.Contains(t, prompt, "OVERALL ATS SCORE")
}

func TestCheckATSScoreTruncatesLongJD(t *testing.T) {
	mock := &MockCompleter{response: "ok"}
	g := newTestGenerator(t, mock)

	longJD := strings.Repeat("b", 4000)
	_, err := g.CheckATSScore(context.Background(), "cv", "", longJD)
	require.NoError(t, err)

	assert.Contains(t, mock.prompts[0], "...[truncated]")
	assert.NotContains(t, mock.prompts[0], strings.Repeat("b", 2001))
}

func TestAnalyzeSkillsWithoutJD(t *testing.T) {
	mock := &MockCompleter{response: "ok"}
	g := newTestGenerator(t, mock)

	_, err := g.AnalyzeSkills(context.Background(), "cv", "", "")
	require.NoError(t, err)

	prompt := mock.prompts[0]
	assert.NotContains(t, prompt, "JOB DESCRIPTION TO MATCH AGAINST")
	assert.Contains(t, prompt, "SKILLS ANALYSIS STRUCTURE")
}

func TestGenerateSummaryPrompt(t *testing.T) {
	mock := &MockCompleter{response: "summary"}
	g := newTestGenerator(t, mock)

	report, err := g.GenerateSummary(context.Background(), "cv text")
	require.NoError(t, err)
	assert.Equal(t, "summary", report)

	prompt := mock.prompts[0]
	assert.Contains(t, prompt, "Potential red flags")
	assert.Contains(t, prompt, "cv text")
}

func TestGenerateDispatch(t *testing.T) {
	mock := &MockCompleter{response: "ok"}
	g := newTestGenerator(t, mock)

	for _, kind := range []ReportKind{ReportFeedback, ReportATS, ReportSkills, ReportSummary} {
		_, err := g.Generate(context.Background(), kind, "cv", "role", "jd")
		require.NoError(t, err, "报告类型 %s 应可分发", kind)
	}
	assert.Len(t, mock.prompts, 4)
}

func TestGenerateUnknownKind(t *testing.T) {
	g := newTestGenerator(t, &MockCompleter{response: "ok"})

	_, err := g.Generate(context.Background(), ReportKind("bogus"), "cv", "", "")
	assert.Error(t, err)
}

func TestReportCompleterFailure(t *testing.T) {
	depErr := errors.Join(types.ErrDependency, errors.New("上游不可用"))
	g := newTestGenerator(t, &MockCompleter{err: depErr})

	_, err := g.GenerateSummary(context.Background(), "cv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDependency))

	var analysisErr *types.AnalysisError
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, "report", analysisErr.Stage)
}
