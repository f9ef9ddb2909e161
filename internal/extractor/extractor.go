package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"resume-screener-go/internal/types"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// 提取阶段的基础错误类型
var (
	// ErrUnsupportedFormat 声明的格式不在支持范围内
	ErrUnsupportedFormat = errors.New("不支持的文档格式")
	// ErrExtraction 提取器本身执行失败
	ErrExtraction = errors.New("文本提取失败")
)

var (
	docxParagraphRe = regexp.MustCompile(`(?i)</w:p>`)
	docxTagRe       = regexp.MustCompile(`<[^>]+>`)
)

// DocumentTextExtractor 将原始文档字节按声明格式转换为单个UTF-8文本
// 纯内存变换，不做任何I/O；读取源文件由调用方负责
type DocumentTextExtractor struct{}

// NewDocumentTextExtractor 创建文本提取器
func NewDocumentTextExtractor() *DocumentTextExtractor {
	return &DocumentTextExtractor{}
}

// Extract 按声明格式提取文本，输出换行归一化后的UTF-8字符串
// 提取成功但内容为空不视为错误，由编排器决定如何上报
func (e *DocumentTextExtractor) Extract(data []byte, format types.DocumentFormat) (string, error) {
	switch format {
	case types.FormatText:
		return NormalizeText(string(data)), nil
	case types.FormatPDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		return NormalizeText(text), nil
	case types.FormatDocx:
		text, err := extractDocx(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		return NormalizeText(text), nil
	case types.FormatLegacyDoc:
		// 旧版二进制 .doc 没有专用解析器，尽力按docx容器读取一次
		text, err := extractDocx(data)
		if err != nil {
			return "", fmt.Errorf("%w: 旧版 .doc 格式不完全支持，请转换为 pdf/docx 后重新上传", ErrExtraction)
		}
		return NormalizeText(text), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// NormalizeText 统一换行符并剔除非法UTF-8序列
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ToValidUTF8(text, "")
}

// extractPDF 读取PDF文本层，按阅读顺序拼接所有页面
// 不保证页面间保留显式分页标记，下游切分不依赖分页符
func extractPDF(data []byte) (text string, err error) {
	// 底层解析库在畸形文件上会panic，这里统一转为错误
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf解析异常: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("读取pdf失败: %w", err)
	}

	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// extractDocx 从docx容器中读取正文文本
func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("解析docx失败: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	// 正文以WordprocessingML形式返回，段落结束转成换行后剥掉其余标签
	content = docxParagraphRe.ReplaceAllString(content, "\n")
	content = docxTagRe.ReplaceAllString(content, "")
	return content, nil
}
