package normalizer

import (
	"regexp"
	"strings"
)

// 整行形式的开场白，例如 "Here is your tailored resume:"
var preambleLineRegex = regexp.MustCompile(`(?i)^\s*(?:sure[,!.]?\s*)?here(?:'s| is) (?:the|your) [^\n]{0,80}(?:resume|cv|content)[^\n]{0,80}:\s*$`)

// scaffold 编译好的套话标记
type scaffold struct {
	leading  []*regexp.Regexp
	trailing []*regexp.Regexp
}

func compileScaffold(m ScaffoldMarkers) scaffold {
	s := scaffold{}
	for _, marker := range m.Leading {
		if strings.TrimSpace(marker) == "" {
			continue
		}
		s.leading = append(s.leading, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(marker)))
	}
	for _, marker := range m.Trailing {
		if strings.TrimSpace(marker) == "" {
			continue
		}
		s.trailing = append(s.trailing, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(marker)))
	}
	return s
}

// StripScaffold 去掉 LLM 输出前后的套话。
// 开场标记按配置顺序逐个生效，只保留标记之后的内容；结尾标记截断其后的全部内容。
// 没有任何标记时原样返回（仅去掉首尾空白）。
func (n *Normalizer) StripScaffold(text string) string {
	out := text
	stripped := false

	for _, re := range n.scaffold.leading {
		loc := re.FindStringIndex(out)
		if loc == nil {
			continue
		}
		out = out[loc[1]:]
		stripped = true
	}

	lines := splitLines(out)
	for i, line := range lines {
		if isBlank(line) {
			continue
		}
		if preambleLineRegex.MatchString(line) {
			out = strings.Join(lines[i+1:], "\n")
			stripped = true
		}
		break
	}

	for _, re := range n.scaffold.trailing {
		loc := re.FindStringIndex(out)
		if loc == nil {
			continue
		}
		out = out[:loc[0]]
		stripped = true
	}

	if stripped {
		n.logger.Debug().Int("before", len(text)).Int("after", len(out)).Msg("已去除套话")
	}
	return strings.TrimSpace(out)
}
