package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener-go/internal/types"
)

// TestExtractPlainText 验证纯文本直通且换行归一化
func TestExtractPlainText(t *testing.T) {
	e := NewDocumentTextExtractor()

	text, err := e.Extract([]byte("Name: Alice\r\nEmail: alice@example.com\rnext"), types.FormatText)

	require.NoError(t, err)
	assert.Equal(t, "Name: Alice\nEmail: alice@example.com\nnext", text)
}

// TestExtractEmptyTextIsNotError 验证空内容提取成功，是否可用由编排器判定
func TestExtractEmptyTextIsNotError(t *testing.T) {
	e := NewDocumentTextExtractor()

	text, err := e.Extract([]byte(""), types.FormatText)

	require.NoError(t, err)
	assert.Empty(t, text)
}

// TestExtractInvalidUTF8Stripped 验证非法UTF-8序列被剔除
func TestExtractInvalidUTF8Stripped(t *testing.T) {
	e := NewDocumentTextExtractor()

	text, err := e.Extract([]byte{'a', 0xff, 0xfe, 'b'}, types.FormatText)

	require.NoError(t, err)
	assert.Equal(t, "ab", text)
}

// TestExtractUnsupportedFormat 验证未知格式返回格式错误
func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewDocumentTextExtractor()

	_, err := e.Extract([]byte("data"), types.DocumentFormat("rtf"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// TestExtractGarbagePDF 验证畸形PDF转为提取错误而非panic
func TestExtractGarbagePDF(t *testing.T) {
	e := NewDocumentTextExtractor()

	_, err := e.Extract([]byte("this is definitely not a pdf"), types.FormatPDF)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
}

// TestExtractGarbageDocx 验证畸形docx转为提取错误
func TestExtractGarbageDocx(t *testing.T) {
	e := NewDocumentTextExtractor()

	_, err := e.Extract([]byte("not a zip container"), types.FormatDocx)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
}

// TestExtractLegacyDocHint 验证旧版.doc提取失败时附带转换提示
func TestExtractLegacyDocHint(t *testing.T) {
	e := NewDocumentTextExtractor()

	_, err := e.Extract([]byte{0xd0, 0xcf, 0x11, 0xe0}, types.FormatLegacyDoc)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Contains(t, err.Error(), "转换为 pdf/docx")
}

// TestNormalizeText 验证换行归一化的各种组合
func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a\r\nb", "a\nb"},
		{"a\rb", "a\nb"},
		{"a\nb", "a\nb"},
		{"a\r\n\r\nb", "a\n\nb"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeText(tt.input), "input: %q", tt.input)
	}
}
