package segmenter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// emailRe 标准邮箱模式，用于定位候选人边界
var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// Config 切分器的启发式参数
type Config struct {
	// MinChunkChars 分片去除首尾空白后的最小可用字符数，更短的片段静默丢弃
	MinChunkChars int

	// BoundaryGuardChars 段落边界距上一切分点的最小间隔，
	// 不足时退回使用邮箱本身的偏移，避免把排版紧凑的简历切碎
	BoundaryGuardChars int

	// HeaderMarkers 头部标记行（小写），用于兜底切分和分片有效性判断
	HeaderMarkers []string
}

// Segmenter 把可能包含多份简历的整段文本切分为每位候选人一个分片
//
// 按固定顺序尝试一组切分策略，取第一个产生非空结果的策略：
//  1. 邮箱边界切分（文本中出现两个以上邮箱时）
//  2. 头部标记行切分（出现两个以上标记行时）
//  3. 整体作为单个分片（永不丢失文档）
type Segmenter struct {
	cfg Config
}

// New 创建切分器，零值参数使用默认值
func New(cfg Config) *Segmenter {
	if cfg.MinChunkChars <= 0 {
		cfg.MinChunkChars = 100
	}
	if cfg.BoundaryGuardChars <= 0 {
		cfg.BoundaryGuardChars = 50
	}
	if len(cfg.HeaderMarkers) == 0 {
		cfg.HeaderMarkers = []string{"name:", "role:", "contact:"}
	}
	markers := make([]string, len(cfg.HeaderMarkers))
	for i, m := range cfg.HeaderMarkers {
		markers[i] = strings.ToLower(m)
	}
	cfg.HeaderMarkers = markers
	return &Segmenter{cfg: cfg}
}

// Segment 切分文本，纯函数，永不返回错误；空输入返回空序列
func (s *Segmenter) Segment(text string) []string {
	normalized := normalizeNewlines(text)
	trimmed := strings.TrimSpace(normalized)
	if trimmed == "" {
		return nil
	}

	strategies := []func(string) []string{
		s.splitByEmails,
		s.splitByHeaders,
	}
	for _, strategy := range strategies {
		if chunks := strategy(normalized); len(chunks) > 0 {
			return chunks
		}
	}

	// 所有启发式都没有产出可用分片时，整体作为单个分片返回
	return []string{trimmed}
}

// splitByEmails 以邮箱出现位置构造切分边界
//
// 从第二个邮箱起，向前找最近的双换行（段落分隔）；该位置距上一边界
// 超过保护间隔时取段落分隔为边界，否则直接取邮箱偏移。
// 切出的片段去空白后不足最小长度、或既无邮箱也无头部标记的一律丢弃。
func (s *Segmenter) splitByEmails(text string) []string {
	locs := emailRe.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return nil
	}

	boundaries := []int{0}
	for _, loc := range locs[1:] {
		emailOffset := loc[0]
		prev := boundaries[len(boundaries)-1]

		boundary := emailOffset
		if para := strings.LastIndex(text[:emailOffset], "\n\n"); para > prev+s.cfg.BoundaryGuardChars {
			boundary = para
		}
		if boundary > prev {
			boundaries = append(boundaries, boundary)
		}
	}

	var chunks []string
	for i, start := range boundaries {
		end := len(text)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		chunk := strings.TrimSpace(text[start:end])
		if !s.viable(chunk) {
			continue
		}
		// 邮箱切分下的附加校验：片段里既没有邮箱也没有头部标记时，
		// 视为文档首尾的无关内容
		if !emailRe.MatchString(chunk) && !s.containsMarker(chunk) {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitByHeaders 以头部标记行为边界切分
//
// 连续的标记行属于同一份简历的头部（Name:/Role:/Contact: 通常相邻），
// 因此只在每个标记行连续段的首行开启新片段，避免把单份简历的头部切碎
func (s *Segmenter) splitByHeaders(text string) []string {
	var headerOffsets []int
	offset := 0
	prevWasHeader := false
	for _, line := range strings.Split(text, "\n") {
		isHeader := s.lineIsHeader(line)
		if isHeader && !prevWasHeader {
			headerOffsets = append(headerOffsets, offset)
		}
		prevWasHeader = isHeader
		offset += len(line) + 1
	}
	if len(headerOffsets) < 2 {
		return nil
	}

	var chunks []string
	for i, start := range headerOffsets {
		end := len(text)
		if i+1 < len(headerOffsets) {
			end = headerOffsets[i+1]
		}
		chunk := strings.TrimSpace(text[start:end])
		if s.viable(chunk) {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// viable 判断分片是否达到最小可用长度
func (s *Segmenter) viable(chunk string) bool {
	return utf8.RuneCountInString(chunk) >= s.cfg.MinChunkChars
}

// lineIsHeader 判断单行是否为头部标记行
func (s *Segmenter) lineIsHeader(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	if lower == "" {
		return false
	}
	for _, marker := range s.cfg.HeaderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// containsMarker 判断片段中是否含任一头部标记
func (s *Segmenter) containsMarker(chunk string) bool {
	lower := strings.ToLower(chunk)
	for _, marker := range s.cfg.HeaderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// normalizeNewlines 统一换行符
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
