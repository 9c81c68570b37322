package parser

import (
	"regexp"
	"strconv"
	"strings"

	"cv-agent-go/internal/types"
)

// 基本信息识别模式
var (
	emailPattern = regexp.MustCompile(`(?i)[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// 宽松的国际电话模式：取第一个命中，不做格式校验和归一化
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
	linkedinPattern = regexp.MustCompile(`(?i)linkedin\.com/in/[\w\-]+`)
	githubPattern   = regexp.MustCompile(`(?i)github\.com/[\w.\-]+`)
	// 例如 "5+ years of experience" / "10 years experience"
	experiencePattern = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*years?(?:\s+of)?\s+experience`)
)

// skillVocabulary 固定的技能关键词表。
// 输出顺序与此表声明顺序一致，与关键词在简历中出现的位置无关。
var skillVocabulary = []string{
	"python", "java", "javascript", "typescript", "golang", "c++", "c#",
	"ruby", "php", "swift", "kotlin", "rust", "scala", "sql",
	"html", "css", "react", "angular", "vue", "node.js",
	"django", "flask", "spring", "docker", "kubernetes",
	"aws", "azure", "gcp", "terraform", "git", "linux",
	"machine learning", "deep learning", "nlp", "data analysis",
}

// FieldExtractor 基于模式匹配的简历字段抽取器
type FieldExtractor struct {
	nameStrategies []nameStrategy
}

// nameStrategy 姓名抽取策略，按优先级依次尝试，首个成功者胜出
type nameStrategy struct {
	name string
	// 返回空串表示该策略未命中，继续尝试下一个
	extract func(normalized, raw, email string) string
}

// NewFieldExtractor 创建字段抽取器
func NewFieldExtractor() *FieldExtractor {
	e := &FieldExtractor{}
	// 优先级：邮箱派生 > 标题式大小写扫描 > 全大写首行。
	// 邮箱本地部分是精度最高的信号，全大写行最弱（可能是章节标题）。
	e.nameStrategies = []nameStrategy{
		{name: "email_local_part", extract: nameFromEmail},
		{name: "title_case_scan", extract: nameFromTitleCase},
		{name: "all_caps_line", extract: nameFromAllCapsLine},
	}
	return e
}

// Extract 从归一化文本抽取结构化字段。
// rawTextForName 为归一化前的原始文本（可为空），仅供姓名启发式使用：
// 归一化会破坏姓名识别依赖的换行和大小写线索。
// 任何字段未命中都不是错误，各字段独立退化为空值。
func (e *FieldExtractor) Extract(text string, rawTextForName string) types.StructuredFields {
	fields := types.StructuredFields{}

	fields.Email = emailPattern.FindString(text)
	fields.Phone = phonePattern.FindString(text)
	fields.LinkedIn = linkedinPattern.FindString(text)
	fields.GitHub = githubPattern.FindString(text)

	if m := experiencePattern.FindStringSubmatch(text); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil && years >= 0 {
			fields.ExperienceYears = &years
		}
	}

	fields.Skills = e.extractSkills(text)
	fields.Name = e.extractName(text, rawTextForName, fields.Email)

	return fields
}

// extractSkills 扫描固定关键词表，按词表声明顺序输出命中的技能。
// 以关键词驱动扫描，天然不会产生重复。
func (e *FieldExtractor) extractSkills(text string) []string {
	lower := strings.ToLower(text)
	var skills []string
	for _, kw := range skillVocabulary {
		if strings.Contains(lower, kw) {
			skills = append(skills, kw)
		}
	}
	return skills
}

// extractName 依次执行姓名抽取策略链。
// 全部失败时返回空串，这是预期的非错误结果，调用方需准备文件名兜底标签。
func (e *FieldExtractor) extractName(normalized, raw, email string) string {
	if raw == "" {
		raw = normalized
	}
	for _, s := range e.nameStrategies {
		if name := s.extract(normalized, raw, email); name != "" {
			return name
		}
	}
	return ""
}

// emailLocalDenylist 不能作为姓名的邮箱本地部分
var emailLocalDenylist = map[string]bool{
	"info": true, "contact": true, "admin": true, "hr": true,
	"jobs": true, "career": true, "resume": true, "cv": true, "apply": true,
}

// nameFromEmail 从邮箱本地部分派生姓名，例如 "john.doe@x.com" -> "John Doe"
func nameFromEmail(_, _, email string) string {
	if email == "" {
		return ""
	}
	local := email[:strings.Index(email, "@")]

	replacer := strings.NewReplacer(".", " ", "_", " ", "-", " ")
	candidate := strings.TrimSpace(replacer.Replace(local))
	if candidate == "" {
		return ""
	}

	// 禁用词在分隔符清理之后判定，"info-"、"h.r" 等变体同样拒绝
	if emailLocalDenylist[strings.ToLower(strings.ReplaceAll(candidate, " ", ""))] {
		return ""
	}

	tokens := strings.Fields(candidate)
	hasAlpha := false
	for _, tok := range tokens {
		if len(tok) <= 1 {
			return ""
		}
		for _, r := range tok {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				hasAlpha = true
			}
		}
	}
	if !hasAlpha {
		return ""
	}

	return titleCaseTokens(tokens)
}

// titleCaseBoilerplate 简历模板常用词，标题式大小写扫描需排除这些误报
var titleCaseBoilerplate = []string{
	"resume", "curriculum", "vitae", "objective", "summary", "profile",
	"experience", "education", "skills", "projects", "contact",
	"phone", "email", "address", "engineer", "developer", "manager",
	"analyst", "consultant", "designer", "scientist", "architect",
	"specialist", "university", "college", "bachelor", "master",
	"degree", "certified", "professional", "career", "references",
}

// titleCaseRunPattern 2-4个连续首字母大写单词
var titleCaseRunPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,3}\b`)

// nameFromTitleCase 在原始文本前约500个字符内扫描标题式大小写的姓名候选
func nameFromTitleCase(_, raw, _ string) string {
	head := raw
	if len(head) > 500 {
		head = head[:500]
	}

	for _, match := range titleCaseRunPattern.FindAllString(head, -1) {
		lower := strings.ToLower(match)
		rejected := false
		for _, word := range titleCaseBoilerplate {
			if strings.Contains(lower, word) {
				rejected = true
				break
			}
		}
		if rejected {
			continue
		}

		tokens := strings.Fields(match)
		valid := true
		for _, tok := range tokens {
			if len(tok) < 2 || len(tok) > 15 {
				valid = false
				break
			}
		}
		if valid {
			return strings.Join(tokens, " ")
		}
	}
	return ""
}

// allCapsLinePattern 全大写行，允许空格、点、连字符
var allCapsLinePattern = regexp.MustCompile(`^[A-Z][A-Z .'-]*[A-Z]\.?$`)

// nameFromAllCapsLine 在文本起始处寻找4-40字符的全大写行。
// 这是最弱的信号（可能只是章节标题），排在策略链末尾。
func nameFromAllCapsLine(_, raw, _ string) string {
	lines := strings.Split(raw, "\n")
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}

	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if len(line) < 4 || len(line) > 40 {
			continue
		}
		if !allCapsLinePattern.MatchString(line) {
			continue
		}
		switch strings.ToLower(line) {
		case "resume", "cv", "curriculum vitae":
			continue
		}
		return titleCaseTokens(strings.Fields(line))
	}
	return ""
}

// titleCaseTokens 将每个token转为首字母大写
func titleCaseTokens(tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		out = append(out, strings.ToUpper(lower[:1])+lower[1:])
	}
	return strings.Join(out, " ")
}
