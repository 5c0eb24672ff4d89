package normalizer

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity 基于编辑距离的相似度，取值 0-100，两个空串视为完全相同
func Similarity(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := runeLen(a), runeLen(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// fingerprint 内容块的比较形式：去掉列表符号和强调，转小写，空白合并
func fingerprint(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		if isBullet(line) {
			line = stripBullet(line)
		}
		line = projectMarkerRegex.ReplaceAllString(line, "")
		parts = append(parts, strings.ToLower(plainText(line)))
	}
	return strings.Join(parts, " ")
}
