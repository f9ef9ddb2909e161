package scoring

import (
	"math"
	"strings"

	"resume-screener-go/internal/types"
)

// 分数构成的权重边界
const (
	skillsScoreCeiling = 80.0
	bonusFull          = 10
	bonusPartial       = 5
)

// Engine 候选人与岗位的匹配评分引擎
// 纯计算，确定性的加权关键词评分，结果可解释
type Engine struct {
	degreeBonusKeywords []string
}

// NewEngine 创建评分引擎
// degreeBonusKeywords 为学历加分关键词（小写比较），命中任一则教育加分取满
func NewEngine(degreeBonusKeywords []string) *Engine {
	keywords := make([]string, len(degreeBonusKeywords))
	for i, k := range degreeBonusKeywords {
		keywords[i] = strings.ToLower(k)
	}
	return &Engine{degreeBonusKeywords: keywords}
}

// Score 计算候选人对单个岗位的匹配分
//
// 技能分 = 命中技能权重和 / 全部要求技能权重和 × 80，
// 命中方式取 direct（结构化技能列表）优先于 text（原文子串）。
// 最终分 = round(技能分) + 经验加分 + 教育加分，截断到 [0, 100]。
// 岗位没有任何技能要求时得0分，属于退化情形而非错误。
func (e *Engine) Score(facts types.CandidateFacts, role types.JobRoleDefinition) types.ScoreResult {
	result := types.ScoreResult{
		JobRoleID:     role.ID,
		MatchedSkills: []types.MatchedSkill{},
	}
	if len(role.RequiredSkills) == 0 {
		return result
	}

	candidateSkills := make(map[string]bool, len(facts.Skills))
	for _, skill := range facts.Skills {
		candidateSkills[strings.ToLower(skill)] = true
	}
	rawLower := strings.ToLower(facts.RawText)

	var totalWeight, matchedWeight float64
	for _, required := range role.RequiredSkills {
		skill := strings.ToLower(required.Skill)
		totalWeight += required.Weight

		directMatch := candidateSkills[skill]
		textMatch := strings.Contains(rawLower, skill)
		if !directMatch && !textMatch {
			continue
		}

		matchType := types.MatchText
		if directMatch {
			matchType = types.MatchDirect
		}
		matchedWeight += required.Weight
		result.MatchedSkills = append(result.MatchedSkills, types.MatchedSkill{
			Skill:     skill,
			Weight:    required.Weight,
			MatchType: matchType,
		})
	}

	var skillsScore float64
	if totalWeight > 0 {
		skillsScore = matchedWeight / totalWeight * skillsScoreCeiling
	}
	experienceBonus := experienceBonusFor(role.ExperienceLevel, facts.ExperienceYears)
	educationBonus := e.educationBonusFor(facts.Education)

	result.Breakdown = types.ScoreBreakdown{
		SkillsScore:     skillsScore,
		ExperienceBonus: experienceBonus,
		EducationBonus:  educationBonus,
	}

	// 技能分四舍五入（round half-up），加分项本身就是整数
	score := int(math.Floor(skillsScore+0.5)) + experienceBonus + educationBonus
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	result.Score = score
	return result
}

// ScoreAll 对全部岗位逐一评分并选出最佳匹配
// 按输入顺序扫描，仅严格更高分才替换最佳岗位，同分时先出现的岗位胜出
func (e *Engine) ScoreAll(facts types.CandidateFacts, roles []types.JobRoleDefinition) types.CandidateScoreSummary {
	summary := types.CandidateScoreSummary{
		PerRoleScores: make([]types.ScoreResult, 0, len(roles)),
	}

	bestScore := -1
	for _, role := range roles {
		result := e.Score(facts, role)
		summary.PerRoleScores = append(summary.PerRoleScores, result)
		if result.Score > bestScore {
			bestScore = result.Score
			summary.BestMatchRoleID = role.ID
			summary.BestMatchScore = result.Score
		}
	}
	return summary
}

// experienceBonusFor 按岗位经验级别查表计算经验加分
func experienceBonusFor(level types.ExperienceLevel, years int) int {
	switch level {
	case types.LevelEntry:
		switch {
		case years <= 2:
			return bonusFull
		case years <= 5:
			return bonusPartial
		default:
			return 0
		}
	case types.LevelMid:
		if years >= 2 && years <= 7 {
			return bonusFull
		}
		return bonusPartial
	case types.LevelSenior:
		switch {
		case years >= 5:
			return bonusFull
		case years >= 3:
			return bonusPartial
		default:
			return 0
		}
	case types.LevelLead:
		switch {
		case years >= 8:
			return bonusFull
		case years >= 5:
			return bonusPartial
		default:
			return 0
		}
	}
	return 0
}

// educationBonusFor 学历加分：命中加分关键词得满分，
// 有教育经历但未命中得半分，否则不加分
func (e *Engine) educationBonusFor(education []types.EducationEntry) int {
	for _, entry := range education {
		degree := strings.ToLower(entry.Degree)
		for _, keyword := range e.degreeBonusKeywords {
			if strings.Contains(degree, keyword) {
				return bonusFull
			}
		}
	}
	if len(education) > 0 {
		return bonusPartial
	}
	return 0
}
