package processor

import (
	"context"

	"resume-screener-go/internal/types"
)

//
// 核心流水线组件接口
//

// TextExtractor 文本提取器接口
type TextExtractor interface {
	// Extract 按声明格式把文档字节转换为换行归一化的UTF-8文本
	Extract(data []byte, format types.DocumentFormat) (string, error)
}

// ResumeSegmenter 简历切分器接口
type ResumeSegmenter interface {
	// Segment 把整段文本切分为每位候选人一个分片，永不失败
	Segment(text string) []string
}

// FieldParser 字段解析器接口
type FieldParser interface {
	// Parse 从单个分片中抽取候选人结构化信息，缺失字段取零值
	Parse(chunkText string) types.CandidateFacts
}

// MatchScorer 岗位匹配评分接口
type MatchScorer interface {
	// ScoreAll 对全部岗位评分并选出最佳匹配
	ScoreAll(facts types.CandidateFacts, roles []types.JobRoleDefinition) types.CandidateScoreSummary
}

//
// 存储协作方接口
//

// CandidateRecord 待持久化的候选人记录
// 核心流水线写入时状态恒为 new，后续状态流转归CRUD层所有
type CandidateRecord struct {
	CandidateID      string
	OwnerUserID      string
	Facts            types.CandidateFacts
	Scores           types.CandidateScoreSummary
	Status           string
	OriginalFilename string
	StoredFilePath   string
}

// CandidateStore 候选人与岗位的持久化接口
type CandidateStore interface {
	// ListActiveJobRoles 读取指定用户的全部启用岗位
	ListActiveJobRoles(ctx context.Context, ownerUserID string) ([]types.JobRoleDefinition, error)

	// EmailExists 查询指定用户名下是否已存在该邮箱的候选人
	EmailExists(ctx context.Context, ownerUserID, email string) (bool, error)

	// CreateCandidate 持久化候选人记录（连同outbox事件，若启用）
	CreateCandidate(ctx context.Context, record *CandidateRecord) error
}

// FileStore 原始文件存储接口
type FileStore interface {
	// Delete 删除对象存储中的原始文件
	Delete(ctx context.Context, objectPath string) error
}

// TextDeduper 解析文本内容级去重接口（可选组件）
type TextDeduper interface {
	// CheckAndRemember 原子地检查并登记文本MD5，返回此前是否已见过
	CheckAndRemember(ctx context.Context, md5Hex string) (bool, error)
}
