package constants

import "time"

const (
	// CandidateStatusNew 核心流水线写入的初始状态，后续状态流转归CRUD层所有
	CandidateStatusNew         = "new"
	CandidateStatusReviewed    = "reviewed"
	CandidateStatusShortlisted = "shortlisted"
	CandidateStatusRejected    = "rejected"
	CandidateStatusHired       = "hired"

	// 批次条目状态
	ItemStatusPersisted = "persisted"
	ItemStatusFailed    = "failed"

	// JobRoleStatusActive 参与评分的岗位必须处于该状态
	JobRoleStatusActive   = "ACTIVE"
	JobRoleStatusInactive = "INACTIVE"

	// Redis键
	ParsedTextMD5SetKey = "screener:text_md5s" // 解析文本MD5集合，用于内容级去重
	MD5RecordExpire     = 30 * 24 * time.Hour

	// Outbox事件类型
	EventCandidateCreated = "candidate.created"
)

// 流水线各阶段状态，按单文件状态机顺序排列
const (
	StageReceived  = "RECEIVED"
	StageExtracted = "EXTRACTED"
	StageSegmented = "SEGMENTED"
	StageParsed    = "PARSED"
	StageValidated = "VALIDATED"
	StageScored    = "SCORED"
	StagePersisted = "PERSISTED"
	StageDone      = "DONE"
	StageFailed    = "FAILED"
)
