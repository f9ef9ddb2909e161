package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/logger"
	"resume-screener-go/internal/processor"
	"resume-screener-go/internal/storage"
	"resume-screener-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 单个文件大小上限，超出的文件按条目失败处理
const maxFileSizeBytes = 10 << 20

// ScreeningHandler 简历批量上传与候选人查询的HTTP处理器
type ScreeningHandler struct {
	cfg      *config.Config
	storage  *storage.Storage
	pipeline *processor.Pipeline
}

// NewScreeningHandler 创建HTTP处理器
func NewScreeningHandler(cfg *config.Config, storage *storage.Storage, pipeline *processor.Pipeline) *ScreeningHandler {
	return &ScreeningHandler{
		cfg:      cfg,
		storage:  storage,
		pipeline: pipeline,
	}
}

// UploadResumes 处理简历批量上传
// multipart表单：files（可多个）+ owner_user_id
// 始终返回批次汇总；只有岗位列表读取失败等整体错误才返回500
func (h *ScreeningHandler) UploadResumes(c context.Context, ctx *app.RequestContext) {
	ownerUserID := ctx.PostForm("owner_user_id")
	if ownerUserID == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "owner_user_id 不能为空"})
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "解析multipart表单失败"})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "files 不能为空"})
		return
	}

	docs := make([]types.RawDocument, 0, len(fileHeaders))
	rejected := make([]types.ItemResult, 0)

	for _, fh := range fileHeaders {
		doc, err := h.receiveFile(c, fh)
		if err != nil {
			// 接收失败的文件在进入流水线前就记为失败条目
			rejected = append(rejected, types.ItemResult{
				Filename:   fh.Filename,
				ChunkIndex: -1,
				Status:     constants.ItemStatusFailed,
				Error:      err.Error(),
			})
			continue
		}
		docs = append(docs, doc)
	}

	summary, err := h.pipeline.ProcessBatch(c, ownerUserID, docs)
	if err != nil {
		logger.Error().Err(err).Msg("处理上传批次失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	summary.FilesReceived = len(fileHeaders)
	summary.Failed += len(rejected)
	summary.Items = append(rejected, summary.Items...)

	ctx.JSON(consts.StatusOK, summary)
}

// receiveFile 校验扩展名、读取内容并把原始文件存入MinIO
func (h *ScreeningHandler) receiveFile(ctx context.Context, fh *multipart.FileHeader) (types.RawDocument, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	format, ok := types.FormatFromExtension(strings.TrimPrefix(ext, "."))
	if !ok {
		return types.RawDocument{}, fmt.Errorf("不支持的文件格式: %s", ext)
	}
	if fh.Size > maxFileSizeBytes {
		return types.RawDocument{}, fmt.Errorf("文件超过大小限制 (%d 字节)", maxFileSizeBytes)
	}

	file, err := fh.Open()
	if err != nil {
		return types.RawDocument{}, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return types.RawDocument{}, fmt.Errorf("读取上传文件失败: %w", err)
	}

	storedPath, err := h.storage.MinIO.UploadResumeFile(ctx, uuid.NewString(), ext, data)
	if err != nil {
		return types.RawDocument{}, fmt.Errorf("保存原始文件失败: %w", err)
	}

	return types.RawDocument{
		Data:             data,
		Format:           format,
		OriginalFilename: fh.Filename,
		StoredPath:       storedPath,
	}, nil
}

// validateJobRoleRequest 校验岗位创建请求的业务约束
func validateJobRoleRequest(ownerUserID, title string, level types.ExperienceLevel, skills []types.RequiredSkill) error {
	if ownerUserID == "" || title == "" {
		return errors.New("owner_user_id 和 title 不能为空")
	}
	switch level {
	case types.LevelEntry, types.LevelMid, types.LevelSenior, types.LevelLead:
	default:
		return errors.New("experience_level 必须是 entry/mid/senior/lead 之一")
	}
	for _, rs := range skills {
		if rs.Skill == "" || rs.Weight < 0.1 || rs.Weight > 5 {
			return errors.New("技能权重必须在 [0.1, 5] 范围内")
		}
	}
	return nil
}

// isAssignableStatus 判断状态是否允许由CRUD层写入
// 初始状态 new 只能由流水线写入，不接受外部赋值
func isAssignableStatus(status string) bool {
	switch status {
	case constants.CandidateStatusReviewed,
		constants.CandidateStatusShortlisted,
		constants.CandidateStatusRejected,
		constants.CandidateStatusHired:
		return true
	}
	return false
}

// CreateJobRole 创建岗位定义
func (h *ScreeningHandler) CreateJobRole(c context.Context, ctx *app.RequestContext) {
	var req struct {
		OwnerUserID     string                `json:"owner_user_id"`
		Title           string                `json:"title"`
		RequiredSkills  []types.RequiredSkill `json:"required_skills"`
		ExperienceLevel string                `json:"experience_level"`
	}
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}
	level := types.ExperienceLevel(req.ExperienceLevel)
	if err := validateJobRoleRequest(req.OwnerUserID, req.Title, level, req.RequiredSkills); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}

	role := types.JobRoleDefinition{
		ID:              uuid.NewString(),
		Title:           req.Title,
		RequiredSkills:  req.RequiredSkills,
		ExperienceLevel: level,
		IsActive:        true,
	}
	if err := h.storage.MySQL.CreateJobRole(c, req.OwnerUserID, role); err != nil {
		logger.Error().Err(err).Msg("创建岗位定义失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"job_role_id": role.ID})
}

// ListCandidates 分页查询候选人，按最佳匹配分数降序
func (h *ScreeningHandler) ListCandidates(c context.Context, ctx *app.RequestContext) {
	ownerUserID := ctx.Query("owner_user_id")
	if ownerUserID == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "owner_user_id 不能为空"})
		return
	}
	offset, _ := strconv.Atoi(ctx.Query("offset"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	rows, total, err := h.storage.MySQL.ListCandidates(c, ownerUserID, offset, limit)
	if err != nil {
		logger.Error().Err(err).Msg("查询候选人列表失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{
		"total":      total,
		"candidates": rows,
	})
}

// UpdateCandidateStatus 更新候选人状态（reviewed/shortlisted/rejected/hired）
func (h *ScreeningHandler) UpdateCandidateStatus(c context.Context, ctx *app.RequestContext) {
	candidateID := ctx.Param("id")

	var req struct {
		OwnerUserID string `json:"owner_user_id"`
		Status      string `json:"status"`
	}
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}
	if !isAssignableStatus(req.Status) {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "无效的候选人状态"})
		return
	}

	err := h.storage.MySQL.UpdateCandidateStatus(c, req.OwnerUserID, candidateID, req.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(consts.StatusNotFound, utils.H{"error": "候选人不存在"})
			return
		}
		logger.Error().Err(err).Msg("更新候选人状态失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"status": req.Status})
}
