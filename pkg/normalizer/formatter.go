package normalizer

import (
	"regexp"
	"strings"
)

// 项目类章节中，超过该长度的非列表行视为新条目
const projectEntryMinRunes = 30

// keywordRegex 把关键词表编译为整词匹配（允许复数）
func keywordRegex(keywords []string) *regexp.Regexp {
	alts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			alts = append(alts, regexp.QuoteMeta(kw))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)s?\b`)
}

func matches(re *regexp.Regexp, line string) bool {
	return re != nil && re.MatchString(line)
}

// FormatSection 按章节类型整理内容行，返回去掉首尾空行的文本。
// 任何章节都会统一竖线分隔符并把连续空行压缩为一个。
func (n *Normalizer) FormatSection(name string, lines []string) string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, strings.TrimSpace(spaceRunRegex.ReplaceAllString(line, " ")))
	}

	var out []string
	switch name {
	case SectionSkills:
		out = formatSkills(cleaned)
	case SectionExperience:
		out = n.formatExperience(cleaned)
	case SectionSummary:
		out = n.formatSummary(cleaned)
	case SectionEducation:
		out = n.formatEducation(cleaned)
	case SectionAchievements:
		out = formatBulleted(cleaned)
	case SectionCertifications:
		out = formatBulleted(n.joinCertifications(cleaned))
	case SectionProjects:
		out = formatProjects(cleaned)
	default:
		out = cleaned
	}

	for i, line := range out {
		out[i] = normalizePipes(line)
	}
	return strings.Join(collapseBlankLines(out), "\n")
}

// formatSkills 技能分类行（含冒号的非列表行）前后各空一行
func formatSkills(lines []string) []string {
	out := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		if line != "" && strings.Contains(line, ":") && !isBullet(line) {
			out = append(out, "", line, "")
			continue
		}
		out = append(out, line)
	}
	return out
}

func (n *Normalizer) formatExperience(lines []string) []string {
	out := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		switch {
		case line == "":
			out = append(out, line)
		case strings.HasPrefix(line, "●") || strings.Contains(line, "—"):
			out = append(out, "", line)
		case !isBullet(line) && matches(n.roleRegex, line):
			out = append(out, line, "")
		default:
			out = append(out, line)
		}
	}
	return out
}

// formatSummary 丢弃过短的残句；相邻的两行正文之间，若前一行不以句末标点结尾则空一行
func (n *Normalizer) formatSummary(lines []string) []string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" || runeLen(line) > n.cfg.SummaryMinRunes {
			kept = append(kept, line)
		}
	}
	out := make([]string, 0, len(kept)*2)
	for i, line := range kept {
		out = append(out, line)
		if line == "" || i+1 >= len(kept) {
			continue
		}
		if next := kept[i+1]; next != "" && !endsSentence(line) {
			out = append(out, "")
		}
	}
	return out
}

func (n *Normalizer) formatEducation(lines []string) []string {
	out := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		if line != "" && !isBullet(line) && matches(n.institutionRegex, line) {
			out = append(out, "", line)
			continue
		}
		out = append(out, line)
	}
	return out
}

// formatBulleted 每个非空行都以 "• " 开头
func formatBulleted(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case line == "":
			out = append(out, line)
		case isBullet(line):
			out = append(out, Bullet+stripBullet(line))
		default:
			out = append(out, Bullet+line)
		}
	}
	return out
}

func formatProjects(lines []string) []string {
	out := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		if line != "" && (strings.HasPrefix(line, "●") || (!isBullet(line) && runeLen(line) > projectEntryMinRunes)) {
			out = append(out, "", line)
			continue
		}
		out = append(out, line)
	}
	return out
}

// joinCertifications 证书名与下一行的颁发机构合并为 "证书 - 机构"
func (n *Normalizer) joinCertifications(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isBullet(line) && i+1 < len(lines) {
			next := lines[i+1]
			if next != "" && !isBullet(next) && !strings.Contains(line, " - ") && runeLen(next) <= maxHeadingRunes {
				out = append(out, line+" - "+next)
				i++
				continue
			}
		}
		out = append(out, line)
	}
	return out
}
