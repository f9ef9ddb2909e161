package parser

import (
	"regexp"
	"strconv"
	"strings"

	"resume-screener-go/internal/types"
)

// 字段抽取使用的模式集合，全部为确定性的正则启发式
var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// 宽松的电话模式：可选国家码、常见分隔符、10位号码
	phoneRe = regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]*)?(?:\(\d{3}\)|\d{3})[-.\s]?\d{3}[-.\s]?\d{4}`)

	// "Name: xxx" 标签行
	nameLineRe = regexp.MustCompile(`(?im)^\s*name\s*[:：]\s*(.+)$`)

	// 姓名兜底：2-50个字符、仅字母与空格
	namePlainRe = regexp.MustCompile(`^[A-Za-z][A-Za-z ]{0,48}[A-Za-z]$`)

	// 带标签的章节，捕获到空行或文本结尾
	skillsSectionRe    = regexp.MustCompile(`(?is)key\s*skills\s*[:：]\s*(.+?)(?:\n[ \t]*\n|\z)`)
	educationSectionRe = regexp.MustCompile(`(?is)education\s*[:：]\s*(.+?)(?:\n[ \t]*\n|\z)`)

	// 经验年限的两族表述："N years of experience" 与 "experience: N years"
	yearsExpRe = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years?|yrs?)\s*(?:of\s+)?experience`)
	expYearsRe = regexp.MustCompile(`(?i)experience\s*[:：]\s*(\d{1,2})\s*\+?\s*(?:years?|yrs?)?`)
)

// FieldParser 从单个简历分片中抽取候选人结构化信息
// 所有字段缺失时取零值，永不返回错误；结果是否可用由编排器判定
type FieldParser struct {
	vocab Vocabulary
}

// NewFieldParser 创建字段解析器，词表在构造时做小写归一化
func NewFieldParser(vocab Vocabulary) *FieldParser {
	return &FieldParser{vocab: vocab.normalized()}
}

// Parse 解析单个简历分片
func (p *FieldParser) Parse(chunkText string) types.CandidateFacts {
	facts := types.CandidateFacts{
		RawText: chunkText,
		Skills:  []string{},
	}

	facts.Email = firstMatch(emailRe, chunkText)
	facts.Phone = firstMatch(phoneRe, chunkText)
	facts.Name = p.parseName(chunkText)
	facts.Skills = p.parseSkills(chunkText)
	facts.ExperienceYears = parseExperienceYears(chunkText)
	facts.Education = p.parseEducation(chunkText)

	return facts
}

// parseName 依次尝试两条规则，先命中者生效：
//  1. "Name:" 标签行的捕获内容
//  2. 前5个非空行中首个形如人名的行（2-50字符、纯字母与空格、不含@）
func (p *FieldParser) parseName(text string) string {
	if m := nameLineRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	seen := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen++
		if seen > 5 {
			break
		}
		if strings.Contains(line, "@") {
			continue
		}
		if namePlainRe.MatchString(line) {
			return line
		}
	}
	return ""
}

// parseSkills 在 "Key Skills:" 章节（存在时）或整个分片内，
// 对词表逐项做大小写不敏感的子串包含测试
func (p *FieldParser) parseSkills(text string) []string {
	searchText := text
	if m := skillsSectionRe.FindStringSubmatch(text); m != nil {
		searchText = m[1]
	}
	lower := strings.ToLower(searchText)

	var skills []string
	seen := make(map[string]bool, len(p.vocab.Skills))
	for _, skill := range p.vocab.Skills {
		if seen[skill] {
			continue
		}
		if strings.Contains(lower, skill) {
			skills = append(skills, skill)
			seen[skill] = true
		}
	}
	if skills == nil {
		skills = []string{}
	}
	return skills
}

// parseEducation 仅在出现显式 "Education:" 章节时填充教育经历，
// 没有章节时返回空列表，不做全文兜底搜索（已知限制）
// 每个条目只填充 Degree（命中行原文），Institution/Year 为预留字段
func (p *FieldParser) parseEducation(text string) []types.EducationEntry {
	m := educationSectionRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var entries []types.EducationEntry
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		for _, keyword := range p.vocab.EducationKeywords {
			if strings.Contains(lower, keyword) {
				entries = append(entries, types.EducationEntry{Degree: line})
				break
			}
		}
	}
	return entries
}

// parseExperienceYears 收集两族表述的所有整数命中并取最大值，
// 不求和也不取首个命中；无命中时为0
func parseExperienceYears(text string) int {
	maxYears := 0
	for _, re := range []*regexp.Regexp{yearsExpRe, expYearsRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if years, err := strconv.Atoi(m[1]); err == nil && years > maxYears {
				maxYears = years
			}
		}
	}
	return maxYears
}

// firstMatch 返回首个匹配，无匹配时为空串
func firstMatch(re *regexp.Regexp, text string) string {
	return re.FindString(text)
}
