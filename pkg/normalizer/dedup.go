package normalizer

import (
	"regexp"
	"strings"
)

const monthPattern = `(?:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+)?`

var (
	boldLeadRegex      = regexp.MustCompile(`^\s*(?:\*\*|__)[^*_]+(?:\*\*|__)`)
	parentheticRegex   = regexp.MustCompile(`\([^)]*\)`)
	dateRangeRegex     = regexp.MustCompile(`(?i)\b` + monthPattern + `(?:19|20)\d{2}\b(?:\s*(?:-|–|—|to)\s*(?:` + monthPattern + `(?:19|20)\d{2}\b|present|current|now))?`)
	subheadingSepRegex = regexp.MustCompile(`\s*(?:—|–|-|\||:|,)\s*`)
)

// contentBlock 去重的最小单位：实体下以空行分隔的一组行
type contentBlock struct {
	lines       []string
	fingerprint string
	bulleted    bool
}

func newContentBlock(lines []string) *contentBlock {
	b := &contentBlock{lines: lines, fingerprint: fingerprint(lines)}
	for _, line := range lines {
		if isBullet(line) {
			b.bulleted = true
			break
		}
	}
	return b
}

// entityState 同一实体在全文范围内已接受的内容块
type entityState struct {
	accepted    []*contentBlock
	headings    []string
	occurrences int
}

// segment 去重输出的一段：普通行原样输出，实体段输出标题行和其首次出现的内容块
type segment struct {
	lines         []string
	heading       []string
	blocks        []*contentBlock
	leadingBlank  bool
	trailingBlank bool
	entity        bool
}

// DedupStats 去重统计
type DedupStats struct {
	Entities  int
	RawBlocks int
	Kept      int
	Replaced  int
}

// EliminateDuplicates 删除同一实体（跟踪的项目名或重复的子标题）下的近似重复内容块。
// 相似度达到阈值即视为重复；两者只有一个带列表符号时保留带列表符号的版本，
// 位置取最先出现的那个。
func (n *Normalizer) EliminateDuplicates(lines []string) []string {
	out, _ := n.eliminateDuplicates(lines)
	return out
}

func (n *Normalizer) eliminateDuplicates(lines []string) ([]string, DedupStats) {
	var (
		stats    DedupStats
		segments []*segment
		plain    *segment
		states   = make(map[string]*entityState)
	)

	i := 0
	for i < len(lines) {
		key, ok := n.entityKey(lines[i])
		if !ok {
			if plain == nil {
				plain = &segment{}
				segments = append(segments, plain)
			}
			plain.lines = append(plain.lines, lines[i])
			i++
			continue
		}
		plain = nil

		// 实体标题行及紧随其后的角色/技术栈行
		seg := &segment{entity: true, heading: []string{lines[i]}}
		i++
		for i < len(lines) && isRoleLine(lines[i]) && !n.isPoolBoundary(lines, i) {
			seg.heading = append(seg.heading, lines[i])
			i++
		}

		start := i
		for i < len(lines) && !n.isPoolBoundary(lines, i) {
			i++
		}
		pool := lines[start:i]
		seg.leadingBlank = len(pool) > 0 && isBlank(pool[0])
		seg.trailingBlank = len(pool) > 0 && isBlank(pool[len(pool)-1])

		st, seen := states[key]
		if !seen {
			st = &entityState{}
			states[key] = st
			stats.Entities++
		}

		raw := splitBlocks(pool)
		stats.RawBlocks += len(raw)
		for _, b := range raw {
			if n.absorb(st, seg, b) {
				stats.Replaced++
			}
		}

		headingFP := headingFingerprint(seg.heading)
		if st.occurrences > 0 && len(seg.blocks) == 0 && len(raw) > 0 && n.similarHeading(st, headingFP) {
			// 重复出现且内容全部重复的实体段整体丢弃
			seg.heading = nil
		}
		st.headings = append(st.headings, headingFP)
		st.occurrences++
		segments = append(segments, seg)
	}

	out := make([]string, 0, len(lines))
	for _, seg := range segments {
		if !seg.entity {
			out = append(out, seg.lines...)
			continue
		}
		if len(seg.heading) == 0 {
			continue
		}
		out = append(out, seg.heading...)
		for j, b := range seg.blocks {
			if j > 0 || seg.leadingBlank {
				out = append(out, "")
			}
			out = append(out, b.lines...)
		}
		if seg.trailingBlank {
			out = append(out, "")
		}
		stats.Kept += len(seg.blocks)
	}

	if stats.RawBlocks > stats.Kept {
		n.logger.Debug().
			Int("entities", stats.Entities).
			Int("raw_blocks", stats.RawBlocks).
			Int("kept", stats.Kept).
			Int("replaced", stats.Replaced).
			Msg("已删除重复内容块")
	}
	return out, stats
}

// absorb 把内容块并入实体状态。返回 true 表示替换了已接受的块。
func (n *Normalizer) absorb(st *entityState, seg *segment, b *contentBlock) bool {
	for _, acc := range st.accepted {
		if Similarity(acc.fingerprint, b.fingerprint) < n.cfg.SimilarityThreshold {
			continue
		}
		if b.bulleted && !acc.bulleted {
			acc.lines = b.lines
			acc.fingerprint = b.fingerprint
			acc.bulleted = true
			return true
		}
		return false
	}
	st.accepted = append(st.accepted, b)
	seg.blocks = append(seg.blocks, b)
	return false
}

func (n *Normalizer) similarHeading(st *entityState, fp string) bool {
	for _, h := range st.headings {
		if Similarity(h, fp) >= n.cfg.SimilarityThreshold {
			return true
		}
	}
	return false
}

// entityKey 识别实体标题行，返回用于跨段合并状态的键
func (n *Normalizer) entityKey(line string) (string, bool) {
	if isBlank(line) || isBullet(line) {
		return "", false
	}
	if _, ok := n.ClassifyHeading(line); ok {
		return "", false
	}
	text := plainText(line)
	if runeLen(text) > maxHeadingRunes*2 {
		return "", false
	}

	lower := strings.ToLower(text)
	for _, entity := range n.cfg.TrackedEntities {
		if strings.Contains(lower, strings.ToLower(entity)) {
			return "entity:" + strings.ToLower(entity), true
		}
	}

	if !n.cfg.DetectRepeatedSubheadings {
		return "", false
	}
	if headingLevel(line) >= 3 || projectMarkerRegex.MatchString(line) || boldLeadRegex.MatchString(line) {
		title := subheadingKey(projectMarkerRegex.ReplaceAllString(text, ""))
		if title == "" {
			return "", false
		}
		return "sub:" + title, true
	}
	return "", false
}

// subheadingKey 子标题的完整文本去掉括号和日期区间后小写，分隔符统一为单个空格。
// "Software Engineer — Acme" 与 "Software Engineer — Globex" 是两个实体。
func subheadingKey(title string) string {
	title = parentheticRegex.ReplaceAllString(title, " ")
	title = dateRangeRegex.ReplaceAllString(title, " ")
	title = subheadingSepRegex.ReplaceAllString(title, " ")
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// headingFingerprint 标题行按 subheadingKey 比较，日期和分隔符写法不同不影响
func headingFingerprint(heading []string) string {
	if len(heading) == 0 {
		return ""
	}
	first := subheadingKey(projectMarkerRegex.ReplaceAllString(plainText(heading[0]), ""))
	rest := fingerprint(heading[1:])
	if rest == "" {
		return first
	}
	return first + " " + rest
}

// isPoolBoundary 实体内容池在章节标题或下一个实体处结束
func (n *Normalizer) isPoolBoundary(lines []string, i int) bool {
	if n.isSectionBoundary(lines[i]) {
		return true
	}
	_, ok := n.entityKey(lines[i])
	return ok
}

// isRoleLine 实体标题后的角色/技术栈行：非空、非列表项、不以句号结尾
func isRoleLine(line string) bool {
	return !isBlank(line) && !isBullet(line) && !endsSentence(line)
}

// splitBlocks 按空行切分内容块
func splitBlocks(lines []string) []*contentBlock {
	var (
		blocks  []*contentBlock
		current []string
	)
	for _, line := range lines {
		if isBlank(line) {
			if len(current) > 0 {
				blocks = append(blocks, newContentBlock(current))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, newContentBlock(current))
	}
	return blocks
}
