package normalizer

import (
	"fmt"
	"regexp"
	"strings"
)

// 章节标题最长字符数，超过即视为正文
const maxHeadingRunes = 60

type compiledSection struct {
	name string
	re   *regexp.Regexp
}

// Bucket 切分得到的一个章节桶
type Bucket struct {
	// Key 规范章节名；未识别的标题使用原始标题文本
	Key string
	// Name 规范章节名，未识别的为 "other"，标题之前的内容为 "header"
	Name string
	// Title 原始标题行，header 桶为空
	Title string
	Lines []string
}

func compileSections(patterns []SectionPattern) ([]compiledSection, error) {
	out := make([]compiledSection, 0, len(patterns))
	for _, sp := range patterns {
		alts := make([]string, 0, len(sp.Patterns))
		for _, p := range sp.Patterns {
			alts = append(alts, "(?:"+p+")")
		}
		expr := `(?i)^(?:` + strings.Join(alts, "|") + `)$`
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("编译章节正则表达式错误 %s: %w", sp.Name, err)
		}
		out = append(out, compiledSection{name: strings.ToLower(strings.TrimSpace(sp.Name)), re: re})
	}
	return out, nil
}

// headingText 把候选标题行规整为可匹配的形式，返回空串表示不可能是标题
func headingText(line string) string {
	if isBlank(line) || isBullet(line) || projectMarkerRegex.MatchString(line) {
		return ""
	}
	text := plainText(line)
	text = strings.TrimSpace(strings.TrimRight(text, ": "))
	if text == "" || runeLen(text) > maxHeadingRunes {
		return ""
	}
	return text
}

// ClassifyHeading 判断一行是否为规范章节标题，返回规范章节名
func (n *Normalizer) ClassifyHeading(line string) (string, bool) {
	text := headingText(line)
	if text == "" {
		return "", false
	}
	for _, cs := range n.sections {
		if cs.re.MatchString(text) {
			return cs.name, true
		}
	}
	return "", false
}

// isUnknownHeading 未被章节表识别的一、二级 markdown 标题。
// 没有 markdown 标记的行即使全大写也留在当前章节，例如雇主名 "IBM" 或学位 "MBA"。
func (n *Normalizer) isUnknownHeading(line string) bool {
	if headingText(line) == "" {
		return false
	}
	lvl := headingLevel(line)
	return lvl == 1 || lvl == 2
}

// isSectionBoundary 头部识别和去重共用的章节边界判断
func (n *Normalizer) isSectionBoundary(line string) bool {
	if _, ok := n.ClassifyHeading(line); ok {
		return true
	}
	return n.isUnknownHeading(line)
}

// Partition 按章节标题切分文本行。
// 第一个标题之前的行归入 header 桶；同名章节重复出现时内容合并到首次出现的桶。
// 返回的桶按首次出现顺序排列，所有非标题行恰好属于一个桶。
func (n *Normalizer) Partition(lines []string) []Bucket {
	buckets := make([]Bucket, 0, 8)
	index := make(map[string]int)

	current := -1
	header := Bucket{Key: SectionHeader, Name: SectionHeader}

	for _, line := range lines {
		name, canonical := n.ClassifyHeading(line)
		unknown := !canonical && n.isUnknownHeading(line)
		if !canonical && !unknown {
			if current < 0 {
				header.Lines = append(header.Lines, line)
			} else {
				buckets[current].Lines = append(buckets[current].Lines, line)
			}
			continue
		}

		title := headingText(line)
		key := name
		if unknown {
			name = SectionOther
			key = title
		}
		if idx, ok := index[key]; ok {
			current = idx
			if len(buckets[idx].Lines) > 0 {
				buckets[idx].Lines = append(buckets[idx].Lines, "")
			}
			n.logger.Debug().Str("section", key).Msg("章节重复出现，内容合并")
			continue
		}
		buckets = append(buckets, Bucket{Key: key, Name: name, Title: title})
		current = len(buckets) - 1
		index[key] = current
	}

	if hasContent(header.Lines) {
		buckets = append([]Bucket{header}, buckets...)
	}
	return buckets
}

func hasContent(lines []string) bool {
	for _, line := range lines {
		if !isBlank(line) {
			return true
		}
	}
	return false
}
