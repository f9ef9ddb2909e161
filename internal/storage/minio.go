package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/logger"
	"resume-screener-go/internal/processor"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
)

// 确保MinIO实现了流水线的原始文件存储接口
var _ processor.FileStore = (*MinIO)(nil)

// MinIO 提供原始简历文件的对象存储功能
type MinIO struct {
	client          *minio.Client
	cfg             *config.MinIOConfig
	originalsBucket string
	log             zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保存储桶就绪
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	bucket := cfg.OriginalsBucket
	if bucket == "" {
		bucket = "resume-originals"
	}

	m := &MinIO{
		client:          client,
		cfg:             cfg,
		originalsBucket: bucket,
		log:             logger.Logger.With().Str("component", "minio").Logger(),
	}

	if err := m.ensureBucketExists(ctx, bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保原始简历存储桶 %s 存在失败: %w", bucket, err)
	}

	if cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, bucket, "expire-originals", cfg.OriginalFileExpireDays); err != nil {
			// 生命周期规则失败不阻止启动，过期清理缺失只影响存储成本
			m.log.Warn().Err(err).Str("bucket", bucket).Msg("设置生命周期规则失败")
		}
	}

	m.log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", bucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.log.Info().Str("bucket", bucketName).Msg("存储桶创建成功")
	}
	return nil
}

// setupBucketLifecycle 为指定存储桶设置过期生命周期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, lc)
}

// UploadResumeFile 上传原始简历文件，返回对象键（不含bucket前缀）
func (m *MinIO) UploadResumeFile(ctx context.Context, uploadUUID, fileExt string, data []byte) (string, error) {
	objectName := fmt.Sprintf("resume/%s/original%s", uploadUUID, fileExt)
	contentType := contentTypeForExt(fileExt)

	_, err := m.client.PutObject(ctx, m.originalsBucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.originalsBucket, objectName, err)
	}
	return objectName, nil
}

// DownloadFile 下载原始简历文件
func (m *MinIO) DownloadFile(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.originalsBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s 失败: %w", objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s 失败: %w", objectName, err)
	}
	return data, nil
}

// Delete 删除原始简历文件
func (m *MinIO) Delete(ctx context.Context, objectPath string) error {
	err := m.client.RemoveObject(ctx, m.originalsBucket, objectPath, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", objectPath, err)
	}
	return nil
}

// contentTypeForExt 按扩展名返回Content-Type
func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
