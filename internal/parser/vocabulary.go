package parser

import "strings"

// Vocabulary 解析器使用的受控词表
// 作为进程级只读配置注入，测试中可替换为小词表
type Vocabulary struct {
	// Skills 技能词表（匹配时小写比较），解析只在该词表内命中，
	// 不做自由文本技能抽取
	Skills []string

	// EducationKeywords 教育经历行关键词（小写）
	EducationKeywords []string
}

// normalized 返回全部小写化后的词表副本
func (v Vocabulary) normalized() Vocabulary {
	out := Vocabulary{
		Skills:            make([]string, len(v.Skills)),
		EducationKeywords: make([]string, len(v.EducationKeywords)),
	}
	for i, s := range v.Skills {
		out.Skills[i] = strings.ToLower(s)
	}
	for i, k := range v.EducationKeywords {
		out.EducationKeywords[i] = strings.ToLower(k)
	}
	return out
}
