package segmenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 构造一份达到最小长度要求的简历文本块
func resumeBlock(name, email string) string {
	return "Name: " + name + "\n" +
		"Contact: " + email + "\n" +
		"Key Skills: go, sql, docker\n" +
		"Experienced software engineer with a strong background in distributed systems.\n" +
		"Worked on several large scale backend platforms over the years."
}

// TestSegmentEmptyInput 验证空输入与纯空白输入返回空序列
func TestSegmentEmptyInput(t *testing.T) {
	s := New(Config{})

	assert.Empty(t, s.Segment(""))
	assert.Empty(t, s.Segment("   \n\n\t  "))
}

// TestSegmentSingleResume 验证只有一个邮箱时整体作为单个分片返回（去除首尾空白）
func TestSegmentSingleResume(t *testing.T) {
	s := New(Config{})
	text := "\n\n" + resumeBlock("Alice Smith", "alice@example.com") + "\n\n"

	chunks := s.Segment(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(text), chunks[0])
}

// TestSegmentShortInputNotDiscarded 验证单文档兜底不受最小长度限制
func TestSegmentShortInputNotDiscarded(t *testing.T) {
	s := New(Config{})
	text := "Bob bob@example.com"

	chunks := s.Segment(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

// TestSegmentTwoResumesByEmail 验证两份用空行分隔的简历按邮箱边界切分为两个分片
func TestSegmentTwoResumesByEmail(t *testing.T) {
	s := New(Config{})
	text := resumeBlock("Alice Smith", "alice@example.com") + "\n\n" +
		resumeBlock("Bob Jones", "bob@example.com")

	chunks := s.Segment(text)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "alice@example.com")
	assert.NotContains(t, chunks[0], "bob@example.com")
	assert.Contains(t, chunks[1], "bob@example.com")
	assert.True(t, strings.HasPrefix(chunks[1], "Name: Bob Jones"), "第二个分片应从段落边界开始")
}

// TestSegmentThreeResumes 验证N份间隔良好的简历切出N个分片
func TestSegmentThreeResumes(t *testing.T) {
	s := New(Config{})
	names := []struct{ name, email string }{
		{"Alice Smith", "alice@example.com"},
		{"Bob Jones", "bob@example.com"},
		{"Carol White", "carol@example.com"},
	}
	var blocks []string
	for _, n := range names {
		blocks = append(blocks, resumeBlock(n.name, n.email))
	}
	chunks := s.Segment(strings.Join(blocks, "\n\n"))

	require.Len(t, chunks, 3)
	for i, n := range names {
		assert.Contains(t, chunks[i], n.email)
	}
}

// TestSegmentBoundaryGuard 验证段落边界距上一切分点过近时退回邮箱偏移
func TestSegmentBoundaryGuard(t *testing.T) {
	// 保护间隔设得比整个文本还长，段落边界永远不可用
	s := New(Config{MinChunkChars: 30, BoundaryGuardChars: 10000})
	text := resumeBlock("Alice Smith", "alice@example.com") + "\n\n" +
		resumeBlock("Bob Jones", "bob@example.com")

	chunks := s.Segment(text)

	require.Len(t, chunks, 2)
	// 边界取邮箱本身的偏移：第二个分片以bob的邮箱开头
	assert.True(t, strings.HasPrefix(chunks[1], "bob@example.com"), "分片应从邮箱偏移开始, got: %q", chunks[1])
}

// TestSegmentDiscardShortChunks 验证低于最小长度的分片被静默丢弃
func TestSegmentDiscardShortChunks(t *testing.T) {
	s := New(Config{})
	// 第二个"简历"远低于100字符下限
	text := resumeBlock("Alice Smith", "alice@example.com") + "\n\n" +
		"bob@example.com"

	chunks := s.Segment(text)

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "alice@example.com")
}

// TestSegmentHeaderFallback 验证无邮箱边界时按头部标记行切分
func TestSegmentHeaderFallback(t *testing.T) {
	s := New(Config{MinChunkChars: 30})
	text := "Name: Alice Smith\n" +
		"Senior backend engineer, comfortable with Go and MySQL.\n" +
		"Name: Bob Jones\n" +
		"Frontend developer focused on React applications and tooling."

	chunks := s.Segment(text)

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0], "Name: Alice Smith"))
	assert.True(t, strings.HasPrefix(chunks[1], "Name: Bob Jones"))
}

// TestSegmentCRLFNormalization 验证Windows换行被归一化后仍能正确切分
func TestSegmentCRLFNormalization(t *testing.T) {
	s := New(Config{})
	text := resumeBlock("Alice Smith", "alice@example.com") + "\r\n\r\n" +
		resumeBlock("Bob Jones", "bob@example.com")
	text = strings.ReplaceAll(text, "\n", "\r\n")

	chunks := s.Segment(text)

	require.Len(t, chunks, 2)
	assert.NotContains(t, chunks[0], "\r")
	assert.NotContains(t, chunks[1], "\r")
}

// TestSegmentMarkerConfigOverride 验证自定义头部标记生效
func TestSegmentMarkerConfigOverride(t *testing.T) {
	s := New(Config{MinChunkChars: 20, HeaderMarkers: []string{"profile:"}})
	text := "Profile: Alice\nBackend engineer with Go experience.\n" +
		"Profile: Bob\nFrontend engineer with React experience."

	chunks := s.Segment(text)

	require.Len(t, chunks, 2)
}
