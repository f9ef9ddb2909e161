package processor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/types"
)

//
// 测试替身：组件接口的内存实现
//

// fakeExtractor 把文档字节原样当作提取文本返回
type fakeExtractor struct {
	err error
}

func (f *fakeExtractor) Extract(data []byte, _ types.DocumentFormat) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return string(data), nil
}

// fakeSegmenter 按 "===" 分隔行切分，模拟多候选人文件
type fakeSegmenter struct{}

func (f *fakeSegmenter) Segment(text string) []string {
	var chunks []string
	for _, part := range strings.Split(text, "\n===\n") {
		if strings.TrimSpace(part) != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks
}

// fakeParser 约定分片首行为 "姓名|邮箱"，缺段时对应字段取零值
type fakeParser struct{}

func (f *fakeParser) Parse(chunkText string) types.CandidateFacts {
	facts := types.CandidateFacts{RawText: chunkText, Skills: []string{}}
	line := strings.SplitN(chunkText, "\n", 2)[0]
	parts := strings.SplitN(line, "|", 2)
	facts.Name = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		facts.Email = strings.TrimSpace(parts[1])
	}
	return facts
}

type fakeScorer struct{}

func (f *fakeScorer) ScoreAll(_ types.CandidateFacts, roles []types.JobRoleDefinition) types.CandidateScoreSummary {
	summary := types.CandidateScoreSummary{PerRoleScores: []types.ScoreResult{}}
	if len(roles) > 0 {
		summary.BestMatchRoleID = roles[0].ID
		summary.BestMatchScore = 42
	}
	return summary
}

type fakeCandidateStore struct {
	roles          []types.JobRoleDefinition
	existingEmails map[string]bool
	created        []*CandidateRecord

	listErr   error
	existsErr error
	createErr error
}

func (f *fakeCandidateStore) ListActiveJobRoles(_ context.Context, _ string) ([]types.JobRoleDefinition, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.roles, nil
}

func (f *fakeCandidateStore) EmailExists(_ context.Context, _, email string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existingEmails[email], nil
}

func (f *fakeCandidateStore) CreateCandidate(_ context.Context, record *CandidateRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, record)
	return nil
}

type fakeFileStore struct {
	deleted []string
}

func (f *fakeFileStore) Delete(_ context.Context, objectPath string) error {
	f.deleted = append(f.deleted, objectPath)
	return nil
}

type fakeDeduper struct {
	seen map[string]bool
	err  error
}

func (f *fakeDeduper) CheckAndRemember(_ context.Context, md5Hex string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[md5Hex] {
		return true, nil
	}
	f.seen[md5Hex] = true
	return false, nil
}

func newTestComponents(store *fakeCandidateStore, files *fakeFileStore) Components {
	comp := Components{
		Extractor:  &fakeExtractor{},
		Segmenter:  &fakeSegmenter{},
		Parser:     &fakeParser{},
		Scorer:     &fakeScorer{},
		Candidates: store,
	}
	// 避免把有类型的nil指针装进接口，绕过流水线的nil判断
	if files != nil {
		comp.Files = files
	}
	return comp
}

func textDoc(filename, content string) types.RawDocument {
	return types.RawDocument{
		Data:             []byte(content),
		Format:           types.FormatText,
		OriginalFilename: filename,
		StoredPath:       "resume/" + filename,
	}
}

//
// 流水线行为测试
//

// TestNewPipelineValidation 验证必要组件缺失时的构造错误
func TestNewPipelineValidation(t *testing.T) {
	store := &fakeCandidateStore{}

	_, err := NewPipeline(Components{})
	assert.Error(t, err)

	comp := newTestComponents(store, nil)
	comp.Scorer = nil
	_, err = NewPipeline(comp)
	assert.Error(t, err)

	// Files 与 Deduper 为可选组件
	p, err := NewPipeline(newTestComponents(store, nil))
	require.NoError(t, err)
	assert.NotNil(t, p)
}

// TestProcessBatchSingleSuccess 验证单文件单分片的完整成功路径
func TestProcessBatchSingleSuccess(t *testing.T) {
	store := &fakeCandidateStore{
		roles: []types.JobRoleDefinition{{ID: "role-1", Title: "Backend"}},
	}
	p, err := NewPipeline(newTestComponents(store, nil))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("a.txt", "Alice Smith|alice@example.com\nbackend engineer"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesReceived)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, constants.ItemStatusPersisted, summary.Items[0].Status)
	assert.NotEmpty(t, summary.Items[0].CandidateID)

	require.Len(t, store.created, 1)
	record := store.created[0]
	assert.Equal(t, "user-1", record.OwnerUserID)
	assert.Equal(t, "Alice Smith", record.Facts.Name)
	assert.Equal(t, constants.CandidateStatusNew, record.Status)
	assert.Equal(t, "role-1", record.Scores.BestMatchRoleID)
	assert.Equal(t, "resume/a.txt", record.StoredFilePath)
}

// TestProcessBatchRoleListFailureAborts 验证岗位列表读取失败时整体返回错误
func TestProcessBatchRoleListFailureAborts(t *testing.T) {
	store := &fakeCandidateStore{listErr: errors.New("db down")}
	p, err := NewPipeline(newTestComponents(store, nil))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("a.txt", "Alice|alice@example.com"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageFailed)
	assert.Nil(t, summary)
	assert.Empty(t, store.created)
}

// TestProcessBatchEmptyExtraction 验证提取文本为空时记录失败并删除已存文件
func TestProcessBatchEmptyExtraction(t *testing.T) {
	store := &fakeCandidateStore{}
	files := &fakeFileStore{}
	p, err := NewPipeline(newTestComponents(store, files))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("empty.txt", "   \n\t "),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, constants.ItemStatusFailed, summary.Items[0].Status)
	assert.Equal(t, -1, summary.Items[0].ChunkIndex)
	assert.Contains(t, summary.Items[0].Error, ErrEmptyExtraction.Error())
	assert.Equal(t, []string{"resume/empty.txt"}, files.deleted)
}

// TestProcessBatchExtractionFailure 验证提取失败时记录文件级失败
func TestProcessBatchExtractionFailure(t *testing.T) {
	store := &fakeCandidateStore{}
	files := &fakeFileStore{}
	comp := newTestComponents(store, files)
	comp.Extractor = &fakeExtractor{err: errors.New("坏档案")}
	p, err := NewPipeline(comp)
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("bad.pdf", "whatever"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Items[0].Error, ErrExtractionFailed.Error())
	assert.Equal(t, []string{"resume/bad.pdf"}, files.deleted)
}

// TestProcessBatchMissingRequiredFields 验证姓名或邮箱缺失的分片被拒绝
func TestProcessBatchMissingRequiredFields(t *testing.T) {
	store := &fakeCandidateStore{}
	p, err := NewPipeline(newTestComponents(store, nil))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("noname.txt", "|alice@example.com"),
		textDoc("noemail.txt", "Alice Smith"),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Contains(t, summary.Items[0].Error, "name")
	assert.Contains(t, summary.Items[1].Error, "email")
	assert.Empty(t, store.created)
}

// TestProcessBatchDuplicateEmailWithinBatch 验证同批次后出现的重复邮箱被检出，
// 第一份正常入库
func TestProcessBatchDuplicateEmailWithinBatch(t *testing.T) {
	store := &fakeCandidateStore{}
	p, err := NewPipeline(newTestComponents(store, nil))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("first.txt", "Alice Smith|alice@example.com"),
		textDoc("second.txt", "Alice S|ALICE@example.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, store.created, 1)
	assert.Equal(t, "first.txt", store.created[0].OriginalFilename)

	require.Len(t, summary.Items, 2)
	assert.Equal(t, constants.ItemStatusPersisted, summary.Items[0].Status)
	assert.Equal(t, constants.ItemStatusFailed, summary.Items[1].Status)
	assert.Contains(t, summary.Items[1].Error, ErrDuplicateEmail.Error())
}

// TestProcessBatchDuplicateEmailInStore 验证已落库的邮箱在新批次中被拒绝
func TestProcessBatchDuplicateEmailInStore(t *testing.T) {
	store := &fakeCandidateStore{
		existingEmails: map[string]bool{"alice@example.com": true},
	}
	p, err := NewPipeline(newTestComponents(store, nil))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("a.txt", "Alice Smith|alice@example.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Items[0].Error, ErrDuplicateEmail.Error())
}

// TestProcessBatchChunkFailureIsolation 验证单分片失败不影响同文件其余分片，
// 且有成功分片时保留已存文件
func TestProcessBatchChunkFailureIsolation(t *testing.T) {
	store := &fakeCandidateStore{}
	files := &fakeFileStore{}
	p, err := NewPipeline(newTestComponents(store, files))
	require.NoError(t, err)

	content := "Alice Smith|alice@example.com\n===\nNo Email Here\n===\nBob Jones|bob@example.com"
	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("multi.txt", content),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, store.created, 2)
	assert.Empty(t, files.deleted, "存在成功分片时不应删除原始文件")

	// 失败分片保留其在文件内的序号
	var failedIdx int
	for _, item := range summary.Items {
		if item.Status == constants.ItemStatusFailed {
			failedIdx = item.ChunkIndex
		}
	}
	assert.Equal(t, 1, failedIdx)
}

// TestProcessBatchAllChunksFailDeletesFile 验证文件内全部分片失败时删除已存文件
func TestProcessBatchAllChunksFailDeletesFile(t *testing.T) {
	store := &fakeCandidateStore{}
	files := &fakeFileStore{}
	p, err := NewPipeline(newTestComponents(store, files))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("junk.txt", "No Email Here\n===\nAlso No Email"),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, []string{"resume/junk.txt"}, files.deleted)
}

// TestProcessBatchContentDedup 验证内容级去重：相同文本的第二个文件被拒绝
func TestProcessBatchContentDedup(t *testing.T) {
	store := &fakeCandidateStore{}
	files := &fakeFileStore{}
	comp := newTestComponents(store, files)
	comp.Deduper = &fakeDeduper{}
	p, err := NewPipeline(comp)
	require.NoError(t, err)

	content := "Alice Smith|alice2@example.com"
	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("a.txt", content),
		textDoc("b.txt", content),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Items[1].Error, ErrDuplicateContent.Error())
	assert.Equal(t, []string{"resume/b.txt"}, files.deleted)
}

// TestProcessBatchDeduperFailureDegrades 验证去重器故障只降级，不阻断处理
func TestProcessBatchDeduperFailureDegrades(t *testing.T) {
	store := &fakeCandidateStore{}
	comp := newTestComponents(store, nil)
	comp.Deduper = &fakeDeduper{err: errors.New("redis down")}
	p, err := NewPipeline(comp)
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("a.txt", "Alice Smith|alice@example.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
}

// TestProcessBatchStorageFailureRecorded 验证落库失败记为分片级失败且批次继续
func TestProcessBatchStorageFailureRecorded(t *testing.T) {
	store := &fakeCandidateStore{createErr: errors.New("write timeout")}
	files := &fakeFileStore{}
	p, err := NewPipeline(newTestComponents(store, files))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", []types.RawDocument{
		textDoc("a.txt", "Alice Smith|alice@example.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Items[0].Error, "write timeout")
	// 落库失败意味着该文件零成功，文件被清理
	assert.Equal(t, []string{"resume/a.txt"}, files.deleted)
}

// TestProcessBatchEmptyBatch 验证空批次返回空汇总而非错误
func TestProcessBatchEmptyBatch(t *testing.T) {
	store := &fakeCandidateStore{}
	p, err := NewPipeline(newTestComponents(store, nil))
	require.NoError(t, err)

	summary, err := p.ProcessBatch(context.Background(), "user-1", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.FilesReceived)
	assert.Empty(t, summary.Items)
}
