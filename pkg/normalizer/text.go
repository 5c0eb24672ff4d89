package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	bulletPrefixRegex  = regexp.MustCompile(`^\s*(?:[-*+▪◦‣∙·]\s+|•\s*)`)
	headingPrefixRegex = regexp.MustCompile(`^\s*(#{1,6})\s*`)
	boldRegex          = regexp.MustCompile(`\*\*(.+?)\*\*`)
	underlineRegex     = regexp.MustCompile(`__(.+?)__`)
	spaceRunRegex      = regexp.MustCompile(`\s+`)
	pipeRegex          = regexp.MustCompile(`\s*\|\s*`)
)

// splitLines 统一换行符后按行切分
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// isBullet 判断是否列表项。"**加粗**" 不算列表项。
func isBullet(line string) bool {
	return bulletPrefixRegex.MatchString(line)
}

func stripBullet(line string) string {
	return strings.TrimSpace(bulletPrefixRegex.ReplaceAllString(line, ""))
}

// headingLevel 返回 markdown 标题级别，非标题返回 0
func headingLevel(line string) int {
	m := headingPrefixRegex.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}

// stripEmphasis 去掉加粗、下划线强调
func stripEmphasis(line string) string {
	line = boldRegex.ReplaceAllString(line, "$1")
	line = underlineRegex.ReplaceAllString(line, "$1")
	return strings.ReplaceAll(line, "**", "")
}

// plainText 去掉标题井号、强调标记和首尾空白，用于比较和分类
func plainText(line string) string {
	line = headingPrefixRegex.ReplaceAllString(line, "")
	line = stripEmphasis(line)
	return strings.TrimSpace(spaceRunRegex.ReplaceAllString(line, " "))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// endsSentence 行尾是否为句末标点
func endsSentence(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(line)
	return r == '.' || r == '!' || r == '?' || r == '。'
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// normalizePipes 统一竖线分隔符两侧的空格
func normalizePipes(line string) string {
	if !strings.Contains(line, "|") {
		return line
	}
	return pipeRegex.ReplaceAllString(line, " | ")
}

// collapseBlankLines 连续空行最多保留一个，并去掉首尾空行
func collapseBlankLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if isBlank(line) {
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
