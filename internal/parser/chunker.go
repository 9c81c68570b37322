package parser

import (
	"fmt"
	"regexp"
	"strings"

	"cv-agent-go/internal/types"
)

// sectionHeaderPattern 章节标题匹配项，按固定优先级逐行测试，首个命中者胜出
type sectionHeaderPattern struct {
	section types.SectionType
	regex   *regexp.Regexp
}

// defaultSectionHeaderPatterns 默认的章节标题正则。
// 测试顺序固定为 summary, experience, education, skills, projects。
var defaultSectionHeaderPatterns = []sectionHeaderPattern{
	{types.SectionSummary, regexp.MustCompile(`(?i)^\s*(professional\s+summary|summary|objective|profile|about\s+me)\b`)},
	{types.SectionExperience, regexp.MustCompile(`(?i)^\s*(work\s+experience|professional\s+experience|experience|employment(\s+history)?|work\s+history)\b`)},
	{types.SectionEducation, regexp.MustCompile(`(?i)^\s*(education|academic\s+background|qualifications)\b`)},
	{types.SectionSkills, regexp.MustCompile(`(?i)^\s*(technical\s+skills|skills|core\s+competencies|technologies)\b`)},
	{types.SectionProjects, regexp.MustCompile(`(?i)^\s*(projects|personal\s+projects|selected\s+projects|portfolio)\b`)},
}

// ChunkerConfig 分块器配置
type ChunkerConfig struct {
	// TargetSize 单个分块的目标大小（字符数）
	TargetSize int
	// Overlap 相邻分块之间重复的上下文字符数
	Overlap int
	// CustomSectionPatterns 追加的自定义章节正则，排在默认规则之后测试
	CustomSectionPatterns map[types.SectionType]string
}

// SemanticChunker 章节感知的简历分块器
type SemanticChunker struct {
	targetSize int
	overlap    int
	patterns   []sectionHeaderPattern
}

// NewSemanticChunker 创建分块器。targetSize/overlap 不合法时回落到默认值 500/50。
func NewSemanticChunker(cfg ChunkerConfig) (*SemanticChunker, error) {
	if cfg.TargetSize <= 0 {
		cfg.TargetSize = 500
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.TargetSize {
		cfg.Overlap = 50
	}

	patterns := make([]sectionHeaderPattern, len(defaultSectionHeaderPatterns))
	copy(patterns, defaultSectionHeaderPatterns)

	for section, expr := range cfg.CustomSectionPatterns {
		regex, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("编译章节正则表达式错误 %s: %w", section, err)
		}
		patterns = append(patterns, sectionHeaderPattern{section: section, regex: regex})
	}

	return &SemanticChunker{
		targetSize: cfg.TargetSize,
		overlap:    cfg.Overlap,
		patterns:   patterns,
	}, nil
}

// Chunk 将简历文本切分为带章节标签的分块。
// 章节标题识别依赖行结构，输入应为保留换行的原始文本；
// 分块内容本身会经过 Normalize 清洗。
// 扫描从other章节开始，未命中任何标题的内容归入other。
// 输出按 types.SectionOrder 的固定顺序排列，同一章节内保持文档顺序。
// 章节划分无任何产出（空文本、全空行）时，退化为对清洗后的全文直接做滑动窗口切分。
func (c *SemanticChunker) Chunk(text string) []types.Chunk {
	sections := c.splitSections(text)

	var chunks []types.Chunk
	for _, section := range types.SectionOrder {
		content := Normalize(sections[section])
		if content == "" {
			continue
		}
		for _, piece := range c.splitWithOverlap(content) {
			chunks = append(chunks, types.Chunk{Section: section, Content: piece})
		}
	}

	if len(chunks) == 0 {
		for _, piece := range c.splitWithOverlap(Normalize(text)) {
			chunks = append(chunks, types.Chunk{Content: piece})
		}
	}

	return chunks
}

// splitSections 逐行扫描，维护当前章节（初始为other）和行累加器。
// 命中章节标题时，把累加内容刷入上一章节，标题行本身归入新章节。
// 空行丢弃。同一章节出现多次时内容按文档顺序拼接。
func (c *SemanticChunker) splitSections(text string) map[types.SectionType]string {
	sections := make(map[types.SectionType]string)
	current := types.SectionOther
	var acc []string

	flush := func() {
		if len(acc) == 0 {
			return
		}
		content := strings.Join(acc, "\n")
		if existing, ok := sections[current]; ok {
			sections[current] = existing + "\n" + content
		} else {
			sections[current] = content
		}
		acc = acc[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		matched := c.classifyLine(trimmed)
		if matched != "" {
			flush()
			current = matched
		}
		acc = append(acc, trimmed)
	}
	flush()

	return sections
}

// classifyLine 按固定优先级测试章节标题正则，返回空串表示非标题行
func (c *SemanticChunker) classifyLine(line string) types.SectionType {
	for _, p := range c.patterns {
		if p.regex.MatchString(line) {
			return p.section
		}
	}
	return ""
}

// 分隔符偏好顺序：空行 > 换行 > 句末 > 空格 > 字符边界
var splitSeparators = []string{"\n\n", "\n", ". ", " "}

// splitWithOverlap 通用滑动窗口切分。
// 依次尝试分隔符，使用第一个能把文本切成不超过目标大小片段的分隔符，
// 然后把片段合并进窗口，相邻窗口之间携带 overlap 个字符的重复上下文。
// 单个片段在任何分隔符下都超限时递归降级到下一档分隔符。
func (c *SemanticChunker) splitWithOverlap(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.targetSize {
		return []string{text}
	}

	for _, sep := range splitSeparators {
		parts := strings.Split(text, sep)
		if len(parts) < 2 {
			continue
		}
		oversized := false
		for _, part := range parts {
			if len(part) > c.targetSize {
				oversized = true
				break
			}
		}
		if oversized {
			continue
		}
		return c.mergeParts(parts, sep)
	}

	// 所有分隔符都无法满足，按字符边界硬切
	return c.windowByChars(text)
}

// mergeParts 把片段贪心合并为不超过目标大小的窗口，窗口间重复overlap上下文
func (c *SemanticChunker) mergeParts(parts []string, sep string) []string {
	var pieces []string
	window := ""
	seedLen := 0 // 窗口开头来自上一窗口的重复上下文长度

	for _, part := range parts {
		needed := len(part)
		if window != "" {
			needed += len(sep)
		}

		// 窗口已有真实内容且装不下时先产出
		if len(window)+needed > c.targetSize && len(window) > seedLen {
			pieces = append(pieces, window)
			if c.overlap > 0 && len(window) > c.overlap {
				window = window[len(window)-c.overlap:]
			} else {
				window = ""
			}
			seedLen = len(window)
		}

		if window != "" {
			window += sep
		}
		window += part
	}
	if len(window) > seedLen {
		pieces = append(pieces, window)
	}

	return pieces
}

// windowByChars 固定步长的字符窗口切分，步长 = targetSize - overlap
func (c *SemanticChunker) windowByChars(text string) []string {
	step := c.targetSize - c.overlap
	if step <= 0 {
		step = c.targetSize
	}

	var pieces []string
	for start := 0; start < len(text); start += step {
		end := start + c.targetSize
		if end > len(text) {
			end = len(text)
		}
		pieces = append(pieces, text[start:end])
		if end == len(text) {
			break
		}
	}
	return pieces
}
