package processor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/matcher"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/types"
)

// Components 聚合分析流水线的功能组件依赖，便于集中管理和测试替换
type Components struct {
	PDFExtractor PDFTextExtractor // 主PDF文本提取器
	// FallbackExtractor 主提取器解析失败时的兜底提取器，可为nil
	FallbackExtractor PDFTextExtractor
	Scorer            MatchScorer   // 相似度评分器，仅匹配类操作需要
	Cache             AnalysisCache // 分析结果缓存，可为nil
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	BatchWorkers    int // 批量分析的工作协程数
	ChunkTargetSize int
	ChunkOverlap    int
	Logger          zerolog.Logger
}

// CandidateDocument 待分析的单份简历文档
type CandidateDocument struct {
	// CandidateID 为空时自动分配UUID
	CandidateID string
	// FileName 原始文件名，用于指纹计算和姓名缺失时的标签兜底
	FileName string
	// Data 文件内容；为nil时从FilePath读取
	Data     []byte
	FilePath string
}

// CandidateFailure 批量模式下单个候选人的失败记录
type CandidateFailure struct {
	CandidateID string `json:"candidate_id"`
	FileName    string `json:"file_name,omitempty"`
	Stage       string `json:"stage"`
	Error       string `json:"error"`
}

// BatchResult 批量分析与排序的聚合结果
type BatchResult struct {
	Rankings []types.CandidateRanking `json:"rankings"`
	// Best 评分并列第一的候选人集合
	Best     []types.CandidateRanking `json:"best"`
	Failures []CandidateFailure       `json:"failures,omitempty"`
}

// CVAnalyzer 简历分析流水线：提取、规整、字段抽取、分块、评分、排序。
// 单次请求内各阶段顺序执行；批量模式由有界工作池并发处理多份文档。
type CVAnalyzer struct {
	components Components
	settings   Settings

	extractor *parser.FieldExtractor
	chunker   *parser.SemanticChunker

	// 按指纹合并并发的重复计算
	group singleflight.Group
}

// NewCVAnalyzer 创建分析器。PDF提取器可缺省（此时仅支持纯文本入口）。
func NewCVAnalyzer(compOpts []ComponentOpt, setOpts []SettingOpt) (*CVAnalyzer, error) {
	components := Components{}
	for _, opt := range compOpts {
		opt(&components)
	}

	settings := Settings{
		BatchWorkers:    constants.DefaultBatchWorkers,
		ChunkTargetSize: constants.DefaultChunkSize,
		ChunkOverlap:    constants.DefaultChunkOverlap,
		Logger:          logger.Logger.With().Str("component", "cv_analyzer").Logger(),
	}
	for _, opt := range setOpts {
		opt(&settings)
	}

	chunker, err := parser.NewSemanticChunker(parser.ChunkerConfig{
		TargetSize: settings.ChunkTargetSize,
		Overlap:    settings.ChunkOverlap,
	})
	if err != nil {
		return nil, fmt.Errorf("创建分块器失败: %w", err)
	}

	return &CVAnalyzer{
		components: components,
		settings:   settings,
		extractor:  parser.NewFieldExtractor(),
		chunker:    chunker,
	}, nil
}

// AnalyzeText 对已提取的简历文本执行规整、字段抽取和分块。
// 规整后为空的文本返回 ErrEmptyInput。
func (a *CVAnalyzer) AnalyzeText(ctx context.Context, candidateID, fileName, rawText string) (*types.AnalysisResult, error) {
	candidateID = a.ensureCandidateID(candidateID)

	normalized := parser.Normalize(rawText)
	if normalized == "" {
		return nil, types.NewAnalysisError(candidateID, constants.StageExtract, types.ErrEmptyInput, "简历文本为空")
	}

	fields := a.extractor.Extract(normalized, rawText)
	// 分块器依赖行结构识别章节标题，输入原始文本，分块内容由其内部清洗
	chunks := a.chunker.Chunk(rawText)

	label := fields.Name
	if label == "" {
		label = LabelFromFilename(fileName)
	}

	a.settings.Logger.Debug().
		Str("candidate_id", candidateID).
		Str("label", label).
		Int("chunks", len(chunks)).
		Int("skills", len(fields.Skills)).
		Msg("简历分析完成")

	return &types.AnalysisResult{
		CandidateID: candidateID,
		Label:       label,
		Fields:      fields,
		Chunks:      chunks,
	}, nil
}

// AnalyzeDocument 对单份PDF文档执行完整分析，结果按内容指纹缓存。
// 并发的相同指纹请求合并为一次计算；计算不随调用方取消而中断，
// 调用方放弃后结果仍会写入缓存供后续请求命中。
func (a *CVAnalyzer) AnalyzeDocument(ctx context.Context, doc CandidateDocument) (*types.AnalysisResult, error) {
	if a.components.PDFExtractor == nil {
		return nil, fmt.Errorf("未配置PDF提取器")
	}

	doc.CandidateID = a.ensureCandidateID(doc.CandidateID)
	key := a.fingerprint(doc)

	if cached, ok := a.cacheGet(ctx, key); ok {
		a.settings.Logger.Debug().Str("fingerprint", key).Msg("分析结果缓存命中")
		result := *cached
		result.CandidateID = doc.CandidateID
		return &result, nil
	}

	ch := a.group.DoChan(key, func() (interface{}, error) {
		// 与调用方的取消解耦，保证在途计算跑完并落入缓存
		bgCtx := context.WithoutCancel(ctx)

		raw, err := a.extractDocument(bgCtx, doc)
		if err != nil {
			return nil, err
		}

		result, err := a.AnalyzeText(bgCtx, doc.CandidateID, doc.FileName, raw.Text())
		if err != nil {
			return nil, err
		}

		a.cachePut(bgCtx, key, result)
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*types.AnalysisResult)
		// 合并计算时沿用各自请求的候选人ID
		result.CandidateID = doc.CandidateID
		return &result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ExtractText 仅提取文档的完整文本，不做后续分析。
// 供报告类操作使用，这类操作需要原始文本而非分块。
func (a *CVAnalyzer) ExtractText(ctx context.Context, doc CandidateDocument) (string, error) {
	if a.components.PDFExtractor == nil {
		return "", fmt.Errorf("未配置PDF提取器")
	}

	doc.CandidateID = a.ensureCandidateID(doc.CandidateID)
	raw, err := a.extractDocument(ctx, doc)
	if err != nil {
		return "", err
	}
	return raw.Text(), nil
}

// MatchAgainstJob 计算分析结果与岗位描述的匹配评分并写回结果
func (a *CVAnalyzer) MatchAgainstJob(ctx context.Context, result *types.AnalysisResult, jobDescription string) error {
	if a.components.Scorer == nil {
		return fmt.Errorf("未配置相似度评分器")
	}

	chunks := make([]string, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = c.Content
	}

	match, err := a.components.Scorer.Score(ctx, chunks, jobDescription)
	if err != nil {
		return types.NewAnalysisError(result.CandidateID, constants.StageScore, err, "")
	}

	result.Match = match
	return nil
}

// AnalyzeBatch 并发分析多份简历并按综合评分排序。
// 单个候选人的失败不会中断整批，失败明细随结果返回（跳过并上报）。
// 所有候选人均失败时返回 ErrEmptyInput，失败明细仍然可用。
func (a *CVAnalyzer) AnalyzeBatch(ctx context.Context, docs []CandidateDocument, jobDescription string) (*BatchResult, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("批量分析文档列表为空: %w", types.ErrEmptyInput)
	}

	for i := range docs {
		docs[i].CandidateID = a.ensureCandidateID(docs[i].CandidateID)
	}

	type slot struct {
		candidate *matcher.Candidate
		failure   *CandidateFailure
	}

	workers := a.settings.BatchWorkers
	if workers > len(docs) {
		workers = len(docs)
	}

	slots := make([]slot, len(docs))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				candidate, failure := a.analyzeOne(ctx, docs[i], jobDescription)
				slots[i] = slot{candidate: candidate, failure: failure}
			}
		}()
	}

	for i := range docs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var candidates []matcher.Candidate
	var failures []CandidateFailure
	for _, s := range slots {
		if s.failure != nil {
			failures = append(failures, *s.failure)
			continue
		}
		candidates = append(candidates, *s.candidate)
	}

	if len(candidates) == 0 {
		return &BatchResult{Failures: failures},
			fmt.Errorf("批量分析无任何成功候选人: %w", types.ErrEmptyInput)
	}

	rankings, err := matcher.Rank(candidates)
	if err != nil {
		return &BatchResult{Failures: failures}, err
	}

	a.settings.Logger.Info().
		Int("total", len(docs)).
		Int("ranked", len(rankings)).
		Int("failed", len(failures)).
		Msg("批量分析完成")

	return &BatchResult{
		Rankings: rankings,
		Best:     matcher.Best(rankings),
		Failures: failures,
	}, nil
}

// analyzeOne 批量模式下处理单份文档，失败转化为失败记录而非错误返回
func (a *CVAnalyzer) analyzeOne(ctx context.Context, doc CandidateDocument, jobDescription string) (*matcher.Candidate, *CandidateFailure) {
	result, err := a.AnalyzeDocument(ctx, doc)
	if err != nil {
		return nil, newFailure(doc, constants.StageExtract, err)
	}

	if err := a.MatchAgainstJob(ctx, result, jobDescription); err != nil {
		return nil, newFailure(doc, constants.StageScore, err)
	}

	return &matcher.Candidate{
		ID:     result.CandidateID,
		Fields: result.Fields,
		Match:  *result.Match,
	}, nil
}

func newFailure(doc CandidateDocument, stage string, err error) *CandidateFailure {
	var analysisErr *types.AnalysisError
	if errors.As(err, &analysisErr) {
		stage = analysisErr.Stage
	}
	return &CandidateFailure{
		CandidateID: doc.CandidateID,
		FileName:    doc.FileName,
		Stage:       stage,
		Error:       err.Error(),
	}
}

// extractDocument 先尝试主提取器，PDF解析失败时降级到兜底提取器
func (a *CVAnalyzer) extractDocument(ctx context.Context, doc CandidateDocument) (*types.RawDocument, error) {
	raw, err := a.extractWith(ctx, a.components.PDFExtractor, doc)
	if err == nil {
		return raw, nil
	}

	if a.components.FallbackExtractor != nil {
		a.settings.Logger.Warn().Err(err).
			Str("candidate_id", doc.CandidateID).
			Str("file", doc.FileName).
			Msg("主提取器失败，尝试兜底提取器")
		if raw, fbErr := a.extractWith(ctx, a.components.FallbackExtractor, doc); fbErr == nil {
			return raw, nil
		}
	}

	return nil, types.NewAnalysisError(doc.CandidateID, constants.StageExtract, err, doc.FileName)
}

func (a *CVAnalyzer) extractWith(ctx context.Context, extractor PDFTextExtractor, doc CandidateDocument) (*types.RawDocument, error) {
	if doc.Data != nil {
		return extractor.ExtractFromBytes(ctx, doc.Data, doc.FileName)
	}
	return extractor.ExtractFromFile(ctx, doc.FilePath)
}

// fingerprint 计算文档指纹作为缓存键。
// 有内容时取MD5，否则退化为文件名+路径。
func (a *CVAnalyzer) fingerprint(doc CandidateDocument) string {
	if len(doc.Data) > 0 {
		sum := md5.Sum(doc.Data)
		return constants.AnalysisCachePrefix + hex.EncodeToString(sum[:])
	}
	return constants.AnalysisCachePrefix + doc.FileName + ":" + doc.FilePath
}

func (a *CVAnalyzer) cacheGet(ctx context.Context, key string) (*types.AnalysisResult, bool) {
	if a.components.Cache == nil {
		return nil, false
	}
	result, ok, err := a.components.Cache.Get(ctx, key)
	if err != nil {
		// 缓存故障按未命中处理
		a.settings.Logger.Warn().Err(err).Str("key", key).Msg("读取分析缓存失败")
		return nil, false
	}
	return result, ok
}

func (a *CVAnalyzer) cachePut(ctx context.Context, key string, result *types.AnalysisResult) {
	if a.components.Cache == nil {
		return
	}
	if err := a.components.Cache.Put(ctx, key, result); err != nil {
		a.settings.Logger.Warn().Err(err).Str("key", key).Msg("写入分析缓存失败")
	}
}

func (a *CVAnalyzer) ensureCandidateID(id string) string {
	if id != "" {
		return id
	}
	newID, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return newID.String()
}

// LabelFromFilename 从文件名派生候选人展示标签：
// 去扩展名，分隔符转空格，各词首字母大写。
func LabelFromFilename(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)

	words := strings.Fields(base)
	if len(words) == 0 {
		return "未知候选人"
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
