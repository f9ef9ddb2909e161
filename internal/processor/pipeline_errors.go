package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrExtractionFailed      = errors.New("文本提取失败")
	ErrEmptyExtraction       = errors.New("提取文本为空")
	ErrMissingRequiredFields = errors.New("缺少必填字段")
	ErrDuplicateEmail        = errors.New("邮箱重复")
	ErrDuplicateContent      = errors.New("简历内容重复")
	ErrStorageFailed         = errors.New("存储操作失败")
)

// PipelineError 包含条目上下文的自定义错误
// ChunkIndex 为 -1 时表示文件级失败（尚未进入分片处理）
type PipelineError struct {
	Filename   string
	ChunkIndex int
	Op         string
	BaseErr    error
	Detail     string
}

func (e *PipelineError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.Filename, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.Filename)
}

func (e *PipelineError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数

func NewExtractionError(filename, detail string) error {
	return &PipelineError{
		Filename:   filename,
		ChunkIndex: -1,
		Op:         "extract",
		BaseErr:    ErrExtractionFailed,
		Detail:     detail,
	}
}

func NewEmptyExtractionError(filename string) error {
	return &PipelineError{
		Filename:   filename,
		ChunkIndex: -1,
		Op:         "extract",
		BaseErr:    ErrEmptyExtraction,
	}
}

func NewValidationError(filename string, chunkIndex int, detail string) error {
	return &PipelineError{
		Filename:   filename,
		ChunkIndex: chunkIndex,
		Op:         "validate",
		BaseErr:    ErrMissingRequiredFields,
		Detail:     detail,
	}
}

func NewDuplicateEmailError(filename string, chunkIndex int, email string) error {
	return &PipelineError{
		Filename:   filename,
		ChunkIndex: chunkIndex,
		Op:         "dedup",
		BaseErr:    ErrDuplicateEmail,
		Detail:     email,
	}
}

func NewDuplicateContentError(filename string) error {
	return &PipelineError{
		Filename:   filename,
		ChunkIndex: -1,
		Op:         "dedup",
		BaseErr:    ErrDuplicateContent,
	}
}

func NewStorageError(filename string, chunkIndex int, detail string) error {
	return &PipelineError{
		Filename:   filename,
		ChunkIndex: chunkIndex,
		Op:         "store",
		BaseErr:    ErrStorageFailed,
		Detail:     detail,
	}
}
