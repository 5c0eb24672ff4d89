package normalizer

import (
	"regexp"
	"strings"
)

var (
	projectMarkerRegex = regexp.MustCompile(`^\s*●\s*`)
	ruleLineRegex      = regexp.MustCompile(`^\s*(?:[-*_=]\s*){3,}$`)
)

// NormalizeMarkup 统一 markdown 残留：
// 去掉加粗/下划线强调，各种列表符号统一为 "• "，● 统一为 "● "，
// 三级及以下标题转为 "● " 子标题；一、二级标题保留给章节切分使用。
func NormalizeMarkup(text string) string {
	lines := splitLines(text)
	for i, line := range lines {
		lines[i] = normalizeMarkupLine(line)
	}
	return strings.Join(lines, "\n")
}

func normalizeMarkupLine(line string) string {
	if isBlank(line) {
		return ""
	}
	if ruleLineRegex.MatchString(line) {
		return ""
	}
	line = strings.TrimRight(line, " \t")

	if lvl := headingLevel(line); lvl >= 3 {
		body := plainText(line)
		if body == "" {
			return ""
		}
		return ProjectMarker + body
	}

	line = stripEmphasis(line)

	switch {
	case isBullet(line):
		body := stripBullet(line)
		if body == "" {
			return ""
		}
		return Bullet + body
	case projectMarkerRegex.MatchString(line):
		return ProjectMarker + strings.TrimSpace(projectMarkerRegex.ReplaceAllString(line, ""))
	}
	return strings.TrimSpace(line)
}
