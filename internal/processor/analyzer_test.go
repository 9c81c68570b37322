package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/cache"
	"cv-agent-go/internal/types"
)

// MockPDFExtractor 模拟PDF提取器，按uri返回预设文本
type MockPDFExtractor struct {
	texts map[string]string
	errs  map[string]error
	calls atomic.Int64
}

func (m *MockPDFExtractor) extract(uri string) (*types.RawDocument, error) {
	m.calls.Add(1)
	if err, ok := m.errs[uri]; ok {
		return nil, err
	}
	text, ok := m.texts[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnreadablePDF, uri)
	}
	return &types.RawDocument{Pages: []string{text}, PageCount: 1}, nil
}

func (m *MockPDFExtractor) ExtractFromFile(ctx context.Context, filePath string) (*types.RawDocument, error) {
	return m.extract(filePath)
}

func (m *MockPDFExtractor) ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.RawDocument, error) {
	return m.extract(uri)
}

func (m *MockPDFExtractor) ExtractFromReader(ctx context.Context, reader io.Reader, uri string) (*types.RawDocument, error) {
	return m.extract(uri)
}

// MockScorer 模拟评分器，为每个分块返回固定分数
type MockScorer struct {
	score float64
	err   error
}

func (m *MockScorer) Score(ctx context.Context, chunks []string, jobDescription string) (*types.MatchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(chunks) == 0 {
		return nil, types.ErrEmptyInput
	}
	scores := make([]float64, len(chunks))
	for i := range scores {
		scores[i] = m.score
	}
	return &types.MatchResult{PerChunkScores: scores, MaxScore: m.score, AvgScore: m.score}, nil
}

const sampleCV = `JOHN SMITH
john.smith@example.com

Summary
Backend engineer with 5+ years of experience.

Skills
Python, Docker, Kubernetes.`

func newTestAnalyzer(t *testing.T, compOpts ...ComponentOpt) *CVAnalyzer {
	t.Helper()
	analyzer, err := NewCVAnalyzer(compOpts, nil)
	require.NoError(t, err)
	return analyzer
}

func TestAnalyzeTextExtractsFieldsAndChunks(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result, err := analyzer.AnalyzeText(context.Background(), "cand-1", "john_smith.pdf", sampleCV)
	require.NoError(t, err)

	assert.Equal(t, "cand-1", result.CandidateID)
	assert.Equal(t, "John Smith", result.Fields.Name)
	assert.Equal(t, "john.smith@example.com", result.Fields.Email)
	require.NotNil(t, result.Fields.ExperienceYears)
	assert.Equal(t, 5, *result.Fields.ExperienceYears)
	assert.Contains(t, result.Fields.Skills, "python")
	assert.NotEmpty(t, result.Chunks)
	assert.Equal(t, "John Smith", result.Label)
}

func TestAnalyzeTextEmptyInput(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	_, err := analyzer.AnalyzeText(context.Background(), "", "empty.pdf", "   \n\t  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEmptyInput))

	var analysisErr *types.AnalysisError
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, "extract", analysisErr.Stage)
}

func TestAnalyzeTextLabelFallsBackToFilename(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	// 无法抽取姓名时使用文件名派生标签
	result, err := analyzer.AnalyzeText(context.Background(), "", "ma_long_resume.pdf",
		"experienced backend developer skilled in distributed systems")
	require.NoError(t, err)
	assert.Equal(t, "", result.Fields.Name)
	assert.Equal(t, "Ma Long Resume", result.Label)
}

func TestAnalyzeDocumentAssignsCandidateID(t *testing.T) {
	extractor := &MockPDFExtractor{texts: map[string]string{"cv.pdf": sampleCV}}
	analyzer := newTestAnalyzer(t, WithcompPdfextractor(extractor))

	result, err := analyzer.AnalyzeDocument(context.Background(), CandidateDocument{
		FileName: "cv.pdf",
		Data:     []byte("pdf-bytes"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.CandidateID)
}

func TestAnalyzeDocumentCacheHitSkipsExtraction(t *testing.T) {
	extractor := &MockPDFExtractor{texts: map[string]string{"cv.pdf": sampleCV}}
	analyzer := newTestAnalyzer(t,
		WithcompPdfextractor(extractor),
		WithcompCache(cache.NewMemoryCache(8)),
	)

	doc := CandidateDocument{FileName: "cv.pdf", Data: []byte("pdf-bytes")}

	first, err := analyzer.AnalyzeDocument(context.Background(), doc)
	require.NoError(t, err)
	callsAfterFirst := extractor.calls.Load()

	second, err := analyzer.AnalyzeDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, extractor.calls.Load(), "缓存命中不应再次调用提取器")
	assert.Equal(t, first.Fields, second.Fields)
}

func TestAnalyzeDocumentFallbackExtractor(t *testing.T) {
	primary := &MockPDFExtractor{errs: map[string]error{
		"cv.pdf": fmt.Errorf("%w: 损坏的交叉引用表", types.ErrUnreadablePDF),
	}}
	fallback := &MockPDFExtractor{texts: map[string]string{"cv.pdf": sampleCV}}
	analyzer := newTestAnalyzer(t,
		WithcompPdfextractor(primary),
		WithcompFallbackextractor(fallback),
	)

	result, err := analyzer.AnalyzeDocument(context.Background(), CandidateDocument{
		FileName: "cv.pdf",
		Data:     []byte("pdf-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "John Smith", result.Fields.Name)
}

func TestAnalyzeDocumentUnreadable(t *testing.T) {
	extractor := &MockPDFExtractor{}
	analyzer := newTestAnalyzer(t, WithcompPdfextractor(extractor))

	_, err := analyzer.AnalyzeDocument(context.Background(), CandidateDocument{
		FileName: "broken.pdf",
		Data:     []byte("not-a-pdf"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnreadablePDF))
}

func TestMatchAgainstJob(t *testing.T) {
	analyzer := newTestAnalyzer(t, WithcompScorer(&MockScorer{score: 0.8}))

	result, err := analyzer.AnalyzeText(context.Background(), "cand-1", "cv.pdf", sampleCV)
	require.NoError(t, err)

	err = analyzer.MatchAgainstJob(context.Background(), result, "backend engineer with python")
	require.NoError(t, err)
	require.NotNil(t, result.Match)
	assert.InDelta(t, 0.8, result.Match.MaxScore, 1e-9)
	assert.Len(t, result.Match.PerChunkScores, len(result.Chunks))
}

func TestAnalyzeBatchSkipAndReport(t *testing.T) {
	extractor := &MockPDFExtractor{
		texts: map[string]string{
			"good1.pdf": sampleCV,
			"good2.pdf": strings.ReplaceAll(sampleCV, "JOHN SMITH", "JANE DOE"),
		},
		errs: map[string]error{
			"bad.pdf": fmt.Errorf("%w: 加密的PDF", types.ErrUnreadablePDF),
		},
	}
	analyzer := newTestAnalyzer(t,
		WithcompPdfextractor(extractor),
		WithcompScorer(&MockScorer{score: 0.7}),
	)

	docs := []CandidateDocument{
		{FileName: "good1.pdf", Data: []byte("data-1")},
		{FileName: "bad.pdf", Data: []byte("data-2")},
		{FileName: "good2.pdf", Data: []byte("data-3")},
	}

	result, err := analyzer.AnalyzeBatch(context.Background(), docs, "backend engineer")
	require.NoError(t, err)

	assert.Len(t, result.Rankings, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "bad.pdf", result.Failures[0].FileName)
	assert.Equal(t, "extract", result.Failures[0].Stage)
	assert.NotEmpty(t, result.Best)
}

func TestAnalyzeBatchAllFail(t *testing.T) {
	extractor := &MockPDFExtractor{}
	analyzer := newTestAnalyzer(t,
		WithcompPdfextractor(extractor),
		WithcompScorer(&MockScorer{score: 0.7}),
	)

	result, err := analyzer.AnalyzeBatch(context.Background(), []CandidateDocument{
		{FileName: "a.pdf", Data: []byte("a")},
		{FileName: "b.pdf", Data: []byte("b")},
	}, "jd")

	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEmptyInput))
	require.NotNil(t, result)
	assert.Len(t, result.Failures, 2)
}

func TestAnalyzeBatchEmptyDocs(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	_, err := analyzer.AnalyzeBatch(context.Background(), nil, "jd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEmptyInput))
}

func TestLabelFromFilename(t *testing.T) {
	assert.Equal(t, "John Doe Cv", LabelFromFilename("john_doe-cv.pdf"))
	assert.Equal(t, "Resume", LabelFromFilename("resume.pdf"))
	assert.Equal(t, "未知候选人", LabelFromFilename(""))
	assert.Equal(t, "未知候选人", LabelFromFilename(".pdf"))
}
