package types

// DocumentFormat 上传文档的声明格式
type DocumentFormat string

const (
	// FormatText 纯文本文档
	FormatText DocumentFormat = "text"
	// FormatPDF PDF文档
	FormatPDF DocumentFormat = "pdf"
	// FormatDocx 新版Word文档 (docx)
	FormatDocx DocumentFormat = "docx"
	// FormatLegacyDoc 旧版Word文档 (doc)，仅做尽力而为的提取
	FormatLegacyDoc DocumentFormat = "doc"
)

// FormatFromExtension 根据文件扩展名（不含点，大小写不敏感）推断文档格式
// 未知扩展名返回 ok=false，由调用方决定如何上报
func FormatFromExtension(ext string) (DocumentFormat, bool) {
	switch ext {
	case "txt", "text":
		return FormatText, true
	case "pdf":
		return FormatPDF, true
	case "docx":
		return FormatDocx, true
	case "doc":
		return FormatLegacyDoc, true
	}
	return "", false
}

// RawDocument 一次上传中的单个原始文档
// 字节内容由上传协作方提供，StoredPath 为对象存储中的原始文件路径
type RawDocument struct {
	Data             []byte
	Format           DocumentFormat
	OriginalFilename string
	StoredPath       string
}

// EducationEntry 教育经历条目
// 当前启发式解析只填充 Degree（命中行的原文），Institution/Year 为预留字段，
// 始终为空。这是已知限制，不是缺陷。
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// CandidateFacts 字段解析器的输出，评分前的候选人结构化信息
type CandidateFacts struct {
	Name  string `json:"name"`
	Email string `json:"email"` // 去重的主键，持久化前必填
	Phone string `json:"phone"`

	// Skills 为小写归一化后的技能集合，只取自受控词表
	Skills []string `json:"skills"`

	// ExperienceYears 所有"N年经验"表述中的最大值，不是求和
	ExperienceYears int `json:"experience_years"`

	Education []EducationEntry `json:"education"`

	// RawText 完整的简历分片原文，保留用于后续的文本匹配
	RawText string `json:"raw_text"`
}

// ExperienceLevel 岗位要求的经验级别
type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "entry"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
	LevelLead   ExperienceLevel = "lead"
)

// RequiredSkill 岗位的单项加权技能要求，权重范围 [0.1, 5]
type RequiredSkill struct {
	Skill  string  `json:"skill"`
	Weight float64 `json:"weight"`
}

// JobRoleDefinition 岗位定义，由岗位管理协作方维护
type JobRoleDefinition struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	RequiredSkills  []RequiredSkill `json:"required_skills"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	IsActive        bool            `json:"is_active"`
}

// MatchType 技能命中方式
type MatchType string

const (
	// MatchDirect 技能出现在候选人的结构化技能列表中
	MatchDirect MatchType = "direct"
	// MatchText 仅在简历原文中以子串形式命中
	MatchText MatchType = "text"
)

// MatchedSkill 单项命中的技能及其命中方式
type MatchedSkill struct {
	Skill     string    `json:"skill"`
	Weight    float64   `json:"weight"`
	MatchType MatchType `json:"match_type"`
}

// ScoreBreakdown 分数构成明细
type ScoreBreakdown struct {
	SkillsScore     float64 `json:"skills_score"`     // 0-80，未取整
	ExperienceBonus int     `json:"experience_bonus"` // 0-10
	EducationBonus  int     `json:"education_bonus"`  // 0-10
}

// ScoreResult 单个岗位的匹配评分结果
type ScoreResult struct {
	JobRoleID     string         `json:"job_role_id"`
	Score         int            `json:"score"` // 0-100
	MatchedSkills []MatchedSkill `json:"matched_skills"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
}

// CandidateScoreSummary 候选人对全部岗位的评分汇总
// BestMatchRoleID 取按输入顺序扫描时严格更高分的岗位，同分时先出现的岗位胜出
type CandidateScoreSummary struct {
	PerRoleScores   []ScoreResult `json:"per_role_scores"`
	BestMatchRoleID string        `json:"best_match_role_id,omitempty"`
	BestMatchScore  int           `json:"best_match_score"`
}

// ItemResult 批次中单个条目（文件内的一个分片）的处理结果
type ItemResult struct {
	Filename    string `json:"filename"`
	ChunkIndex  int    `json:"chunk_index"`
	CandidateID string `json:"candidate_id,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// BatchSummary 一次上传批次的处理汇总，无论成败都会返回
type BatchSummary struct {
	FilesReceived int          `json:"files_received"`
	Succeeded     int          `json:"succeeded"`
	Failed        int          `json:"failed"`
	Items         []ItemResult `json:"items"`
}
