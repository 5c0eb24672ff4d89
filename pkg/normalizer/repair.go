package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// emojiRanges 需要剔除的 emoji 码段，各段必须升序排列
var emojiRanges = []*unicode.RangeTable{{
	R16: []unicode.Range16{
		{Lo: 0x200D, Hi: 0x200D, Stride: 1}, // 零宽连接符
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1}, // 杂项符号与装饰符号
		{Lo: 0xFE0F, Hi: 0xFE0F, Stride: 1}, // 变体选择符
	},
	R32: []unicode.Range32{
		{Lo: 0x1F1E0, Hi: 0x1F1FF, Stride: 1}, // 旗帜
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // 符号与象形
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // 表情
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // 交通与地图
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1},
		{Lo: 0x1FA70, Hi: 0x1FAFF, Stride: 1},
	},
}}

type repairRule struct {
	name string
	re   *regexp.Regexp
	repl string
}

// 替换规则会反复应用直到不再变化，重叠匹配（如 a|b|c）因此也能全部修复
var repairRules = []repairRule{
	{name: "comma", re: regexp.MustCompile(`,(\p{L})`), repl: ", $1"},
	{name: "period", re: regexp.MustCompile(`([\p{Ll}\d])\.(\p{Lu})`), repl: "$1. $2"},
	{name: "pipe", re: regexp.MustCompile(`([\p{L}\d])\|([\p{L}\d])`), repl: "$1 | $2"},
	{name: "colon", re: regexp.MustCompile(`(\p{L}):(\p{L})`), repl: "$1: $2"},
	{name: "percent", re: regexp.MustCompile(`%(\p{L})`), repl: "% $1"},
}

var (
	digitLetterRegex = regexp.MustCompile(`\d\p{L}+`)
	horizontalSpace  = regexp.MustCompile(`[ \t\x{00A0}]{2,}`)
	ordinalSuffixes  = map[string]struct{}{"st": {}, "nd": {}, "rd": {}, "th": {}}
)

// RepairArtifacts 修复 LLM 输出中的字符级瑕疵：
// NFC 规范化、统一换行、剔除 emoji、补全标点后缺失的空格、合并连续空白。
// 对已修复的文本再次调用结果不变。
func RepairArtifacts(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = stripEmoji(text)

	for _, rule := range repairRules {
		text = replaceUntilStable(rule.re, text, rule.repl)
	}
	text = splitDigitLetter(text)
	text = horizontalSpace.ReplaceAllString(text, " ")
	return text
}

func stripEmoji(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.In(r, emojiRanges...) {
			return -1
		}
		return r
	}, text)
}

func replaceUntilStable(re *regexp.Regexp, text, repl string) string {
	for {
		next := re.ReplaceAllString(text, repl)
		if next == text {
			return text
		}
		text = next
	}
}

// splitDigitLetter 在 "5years" 这类数字和单词粘连处插入空格。
// 序数词 (1st, 2nd) 和字母开头的型号 (B2B, H2O, ES6) 保持原样。
func splitDigitLetter(text string) string {
	locs := digitLetterRegex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(locs))
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		letters := text[start+1 : end]
		if _, ok := ordinalSuffixes[strings.ToLower(letters)]; ok {
			continue
		}
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			if unicode.IsLetter(prev) || (unicode.IsDigit(prev) && precededByLetter(text[:start])) {
				continue
			}
		}
		b.WriteString(text[last : start+1])
		b.WriteByte(' ')
		last = start + 1
	}
	b.WriteString(text[last:])
	return b.String()
}

// precededByLetter 数字串前面是否紧跟字母，例如 "ES20" 中的 "20"
func precededByLetter(prefix string) bool {
	for len(prefix) > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix)
		if unicode.IsDigit(r) {
			prefix = prefix[:len(prefix)-size]
			continue
		}
		return unicode.IsLetter(r)
	}
	return false
}
