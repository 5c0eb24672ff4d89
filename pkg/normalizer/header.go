package normalizer

import (
	"regexp"
	"strings"
)

type headerState int

const (
	seekName headerState = iota
	collectTitles
	collectContacts
	headerDone
)

func (s headerState) String() string {
	switch s {
	case seekName:
		return "seek_name"
	case collectTitles:
		return "collect_titles"
	case collectContacts:
		return "collect_contacts"
	default:
		return "done"
	}
}

// 姓名行和职位行的长度上限
const (
	maxNameRunes  = 60
	maxNameWords  = 8
	maxTitleRunes = 100
)

var credentialSplit = regexp.MustCompile(`[\s,;/]+`)

// HeaderResult 头部重组结果
type HeaderResult struct {
	Block HeaderBlock
	// Consumed 被头部吸收的输入行数，其后的行原样交给后续阶段
	Consumed int
	// OK 为 false 表示未识别出姓名，头部重组未生效
	OK bool
}

// RestructureHeader 从文本开头识别姓名、职位和联系方式。
// 状态机依次经过 seek_name -> collect_titles -> collect_contacts -> done，
// 遇到章节标题或超出行数预算时结束。首个非空行不像姓名时不做任何处理。
func (n *Normalizer) RestructureHeader(lines []string) HeaderResult {
	var (
		block    HeaderBlock
		state    = seekName
		consumed = 0
	)

	limit := len(lines)
	if n.cfg.HeaderLineBudget > 0 && limit > n.cfg.HeaderLineBudget {
		limit = n.cfg.HeaderLineBudget
	}

	i := 0
	for i < limit && state != headerDone {
		line := lines[i]
		if isBlank(line) {
			i++
			continue
		}

		switch state {
		case seekName:
			if _, ok := n.ClassifyHeading(line); ok {
				return HeaderResult{}
			}
			if n.isCredentialNoise(line) {
				i++
				consumed = i
				continue
			}
			if !n.looksLikeName(line) {
				n.logger.Debug().Str("line", line).Msg("首行不像姓名，跳过头部重组")
				return HeaderResult{}
			}
			block.Name = plainText(line)
			i++
			consumed = i
			state = collectTitles

		case collectTitles:
			if n.isSectionBoundary(line) {
				state = headerDone
				continue
			}
			if n.IsContactLine(line) {
				state = collectContacts
				continue
			}
			if n.isCredentialNoise(line) {
				i++
				consumed = i
				continue
			}
			if len(block.Titles) >= n.cfg.MaxTitles || !looksLikeTitle(line) {
				state = headerDone
				continue
			}
			block.Titles = append(block.Titles, splitTitles(line)...)
			i++
			consumed = i

		case collectContacts:
			if n.isSectionBoundary(line) || !n.IsContactLine(line) {
				state = headerDone
				continue
			}
			block.Contacts = appendUnique(block.Contacts, splitContactItems(line)...)
			i++
			consumed = i
		}
	}

	if block.Name == "" {
		return HeaderResult{}
	}
	n.logger.Debug().
		Str("name", block.Name).
		Int("titles", len(block.Titles)).
		Int("contacts", len(block.Contacts)).
		Int("consumed", consumed).
		Msg("头部重组完成")
	return HeaderResult{Block: block, Consumed: consumed, OK: true}
}

// looksLikeName 姓名候选：短、非列表项、非联系方式、非句子
func (n *Normalizer) looksLikeName(line string) bool {
	if isBullet(line) || projectMarkerRegex.MatchString(line) {
		return false
	}
	text := plainText(line)
	if text == "" || !hasLetter(text) {
		return false
	}
	if runeLen(text) > maxNameRunes || wordCount(text) > maxNameWords {
		return false
	}
	if strings.HasSuffix(text, ":") {
		return false
	}
	return !n.IsContactLine(line)
}

// looksLikeTitle 职位行：短、非列表项、不是完整句子
func looksLikeTitle(line string) bool {
	if isBullet(line) || projectMarkerRegex.MatchString(line) || endsSentence(line) {
		return false
	}
	return runeLen(plainText(line)) <= maxTitleRunes
}

// isCredentialNoise 整行只由头衔/学位等噪声词组成，例如 "MD, PhD"
func (n *Normalizer) isCredentialNoise(line string) bool {
	text := plainText(line)
	if text == "" {
		return false
	}
	if containsFold(n.cfg.CredentialTokens, text) {
		return true
	}
	fields := credentialSplit.Split(text, -1)
	count := 0
	for _, f := range fields {
		if f == "" {
			continue
		}
		if !containsFold(n.cfg.CredentialTokens, f) && !containsFold(n.cfg.CredentialTokens, strings.TrimSuffix(f, ".")) {
			return false
		}
		count++
	}
	return count > 0
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) || strings.EqualFold(strings.TrimSuffix(item, "."), s) {
			return true
		}
	}
	return false
}

func splitTitles(line string) []string {
	text := plainText(line)
	parts := strings.Split(text, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		dup := false
		for _, existing := range list {
			if strings.EqualFold(existing, item) {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, item)
		}
	}
	return list
}
