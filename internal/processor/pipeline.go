package processor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/logger"
	"resume-screener-go/internal/tracing"
	"resume-screener-go/internal/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("resume-screener/processor")

// Components 聚合流水线的全部组件依赖，便于集中管理和测试替换
type Components struct {
	Extractor TextExtractor
	Segmenter ResumeSegmenter
	Parser    FieldParser
	Scorer    MatchScorer

	// 存储协作方
	Candidates CandidateStore
	Files      FileStore
	// Deduper 可选，未配置时跳过内容级去重
	Deduper TextDeduper
}

// Pipeline 简历摄取编排器
//
// 每个上传文件走一条状态机：
// Received → Extracted → Segmented → {逐分片: Parsed → Validated → Scored → Persisted} → Done，
// 任意阶段可进入终态 Failed(reason)。文件之间串行处理，单个文件或分片的
// 失败不会中断同批次其余条目；批次汇总无论成败都会返回。
type Pipeline struct {
	comp Components
	log  zerolog.Logger
}

// NewPipeline 创建编排器，校验必要组件
func NewPipeline(comp Components) (*Pipeline, error) {
	if comp.Extractor == nil {
		return nil, fmt.Errorf("必须提供文本提取器组件")
	}
	if comp.Segmenter == nil {
		return nil, fmt.Errorf("必须提供切分器组件")
	}
	if comp.Parser == nil {
		return nil, fmt.Errorf("必须提供字段解析器组件")
	}
	if comp.Scorer == nil {
		return nil, fmt.Errorf("必须提供评分引擎组件")
	}
	if comp.Candidates == nil {
		return nil, fmt.Errorf("必须提供候选人存储组件")
	}
	return &Pipeline{
		comp: comp,
		log:  logger.Logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// ProcessBatch 同步处理一个上传批次
//
// 岗位列表在批次开始时读取一次，批次期间只读。批次内的邮箱去重
// 通过只增的"本批次已见邮箱"集合显式传递，使得同一批次中后出现的
// 重复邮箱即使尚未落库也能被检出（批次内顺序一致）。
// 仅当岗位列表读取失败时整体返回错误，其余失败均记入汇总。
func (p *Pipeline) ProcessBatch(ctx context.Context, ownerUserID string, docs []types.RawDocument) (*types.BatchSummary, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.ProcessBatch",
		trace.WithAttributes(
			attribute.String("owner_user_id", ownerUserID),
			attribute.Int("file_count", len(docs)),
		),
	)
	defer span.End()

	roles, err := p.comp.Candidates.ListActiveJobRoles(ctx, ownerUserID)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, NewStorageError("", -1, fmt.Sprintf("读取岗位列表失败: %v", err))
	}

	summary := &types.BatchSummary{FilesReceived: len(docs)}
	seenEmails := make(map[string]bool)

	// 文件串行处理：限制内存占用，同时让失败隔离保持简单
	for _, doc := range docs {
		p.processFile(ctx, ownerUserID, doc, roles, seenEmails, summary)
	}

	span.SetAttributes(
		attribute.Int("succeeded", summary.Succeeded),
		attribute.Int("failed", summary.Failed),
	)
	return summary, nil
}

// processFile 处理单个文件：提取、去重、切分、逐分片解析评分入库
// 文件内零分片成功时删除已存的原始文件，有任一成功则保留
func (p *Pipeline) processFile(ctx context.Context, ownerUserID string, doc types.RawDocument, roles []types.JobRoleDefinition, seenEmails map[string]bool, summary *types.BatchSummary) {
	ctx, span := tracer.Start(ctx, "Pipeline.processFile",
		trace.WithAttributes(attribute.String("filename", doc.OriginalFilename)),
	)
	defer span.End()

	text, err := p.comp.Extractor.Extract(doc.Data, doc.Format)
	if err != nil {
		// 未被上传协作方拦截的不支持格式与提取失败同等处理
		p.failFile(ctx, doc, summary, NewExtractionError(doc.OriginalFilename, err.Error()))
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return
	}
	if strings.TrimSpace(text) == "" {
		p.failFile(ctx, doc, summary, NewEmptyExtractionError(doc.OriginalFilename))
		return
	}

	if duplicate := p.checkContentDuplicate(ctx, text); duplicate {
		p.failFile(ctx, doc, summary, NewDuplicateContentError(doc.OriginalFilename))
		return
	}

	chunks := p.comp.Segmenter.Segment(text)
	span.SetAttributes(attribute.Int("chunk_count", len(chunks)))

	succeeded := 0
	for i, chunk := range chunks {
		if p.processChunk(ctx, ownerUserID, doc, i, chunk, roles, seenEmails, summary) {
			succeeded++
		}
	}

	// 多个成功分片共享同一份已存文件；全部失败时文件没有归属，删除
	if succeeded == 0 {
		p.deleteStoredFile(ctx, doc)
	}
}

// processChunk 处理单个分片，返回是否成功持久化
func (p *Pipeline) processChunk(ctx context.Context, ownerUserID string, doc types.RawDocument, chunkIndex int, chunk string, roles []types.JobRoleDefinition, seenEmails map[string]bool, summary *types.BatchSummary) bool {
	facts := p.comp.Parser.Parse(chunk)

	if facts.Name == "" || facts.Email == "" {
		var missing []string
		if facts.Name == "" {
			missing = append(missing, "name")
		}
		if facts.Email == "" {
			missing = append(missing, "email")
		}
		p.failChunk(summary, doc, chunkIndex,
			NewValidationError(doc.OriginalFilename, chunkIndex, strings.Join(missing, ", ")))
		return false
	}

	emailKey := strings.ToLower(facts.Email)
	if seenEmails[emailKey] {
		p.failChunk(summary, doc, chunkIndex,
			NewDuplicateEmailError(doc.OriginalFilename, chunkIndex, facts.Email))
		return false
	}
	exists, err := p.comp.Candidates.EmailExists(ctx, ownerUserID, emailKey)
	if err != nil {
		p.failChunk(summary, doc, chunkIndex,
			NewStorageError(doc.OriginalFilename, chunkIndex, fmt.Sprintf("查询邮箱去重失败: %v", err)))
		return false
	}
	if exists {
		p.failChunk(summary, doc, chunkIndex,
			NewDuplicateEmailError(doc.OriginalFilename, chunkIndex, facts.Email))
		return false
	}

	scores := p.comp.Scorer.ScoreAll(facts, roles)

	record := &CandidateRecord{
		CandidateID:      uuid.NewString(),
		OwnerUserID:      ownerUserID,
		Facts:            facts,
		Scores:           scores,
		Status:           constants.CandidateStatusNew,
		OriginalFilename: doc.OriginalFilename,
		StoredFilePath:   doc.StoredPath,
	}
	if err := p.comp.Candidates.CreateCandidate(ctx, record); err != nil {
		p.failChunk(summary, doc, chunkIndex,
			NewStorageError(doc.OriginalFilename, chunkIndex, err.Error()))
		return false
	}

	seenEmails[emailKey] = true
	summary.Succeeded++
	summary.Items = append(summary.Items, types.ItemResult{
		Filename:    doc.OriginalFilename,
		ChunkIndex:  chunkIndex,
		CandidateID: record.CandidateID,
		Status:      constants.ItemStatusPersisted,
	})
	p.log.Info().
		Str("filename", doc.OriginalFilename).
		Int("chunk", chunkIndex).
		Str("candidate_id", record.CandidateID).
		Str("best_match_role", scores.BestMatchRoleID).
		Int("best_match_score", scores.BestMatchScore).
		Msg("候选人已持久化")
	return true
}

// checkContentDuplicate 解析文本内容级去重（MD5），去重器未配置时跳过
// 去重器自身故障只降级为告警，不阻断处理
func (p *Pipeline) checkContentDuplicate(ctx context.Context, text string) bool {
	if p.comp.Deduper == nil {
		return false
	}
	sum := md5.Sum([]byte(text))
	seen, err := p.comp.Deduper.CheckAndRemember(ctx, hex.EncodeToString(sum[:]))
	if err != nil {
		p.log.Warn().Err(err).Msg("内容去重检查失败，跳过本次去重")
		return false
	}
	return seen
}

// failFile 记录文件级失败并删除已存的原始文件
func (p *Pipeline) failFile(ctx context.Context, doc types.RawDocument, summary *types.BatchSummary, err error) {
	summary.Failed++
	summary.Items = append(summary.Items, types.ItemResult{
		Filename:   doc.OriginalFilename,
		ChunkIndex: -1,
		Status:     constants.ItemStatusFailed,
		Error:      err.Error(),
	})
	p.log.Warn().Str("filename", doc.OriginalFilename).Err(err).Msg("文件处理失败")
	p.deleteStoredFile(ctx, doc)
}

// failChunk 记录分片级失败，不影响同文件的其余分片
func (p *Pipeline) failChunk(summary *types.BatchSummary, doc types.RawDocument, chunkIndex int, err error) {
	summary.Failed++
	summary.Items = append(summary.Items, types.ItemResult{
		Filename:   doc.OriginalFilename,
		ChunkIndex: chunkIndex,
		Status:     constants.ItemStatusFailed,
		Error:      err.Error(),
	})
	p.log.Warn().Str("filename", doc.OriginalFilename).Int("chunk", chunkIndex).Err(err).Msg("分片处理失败")
}

// deleteStoredFile 删除对象存储中的原始文件，失败只告警
func (p *Pipeline) deleteStoredFile(ctx context.Context, doc types.RawDocument) {
	if p.comp.Files == nil || doc.StoredPath == "" {
		return
	}
	if err := p.comp.Files.Delete(ctx, doc.StoredPath); err != nil {
		p.log.Warn().Str("path", doc.StoredPath).Err(err).Msg("删除原始文件失败")
	}
}
