package render

import (
	"strings"

	"resume-tailor/pkg/normalizer"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockBullet
	blockSubheading
	blockSpacer
)

// block 章节内容中的一行，渲染器按类别输出
type block struct {
	kind  blockKind
	label string // 技能章节中 "分类: 条目" 的分类部分
	text  string
}

var displayTitles = map[string]string{
	normalizer.SectionSummary:        "Professional Summary",
	normalizer.SectionSkills:         "Skills",
	normalizer.SectionExperience:     "Experience",
	normalizer.SectionEducation:      "Education",
	normalizer.SectionProjects:       "Projects",
	normalizer.SectionCertifications: "Certifications",
	normalizer.SectionAchievements:   "Achievements",
}

var titleCaser = cases.Title(language.English)

// sectionTitle 章节的展示标题。全大写的原始标题转为首字母大写，其余保持原样。
func sectionTitle(s normalizer.Section) string {
	if s.Name == normalizer.SectionHeader {
		return ""
	}
	title := strings.TrimSpace(s.Title)
	if title == "" {
		if t, ok := displayTitles[s.Name]; ok {
			return t
		}
		title = s.Key
	}
	if title == strings.ToUpper(title) {
		return titleCaser.String(strings.ToLower(title))
	}
	return title
}

// parseBlocks 把章节内容拆成块，连续空行已在规范化阶段折叠
func parseBlocks(s normalizer.Section) []block {
	lines := s.Lines()
	blocks := make([]block, 0, len(lines))
	for _, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			blocks = append(blocks, block{kind: blockSpacer})
		case strings.HasPrefix(line, normalizer.Bullet):
			blocks = append(blocks, block{kind: blockBullet, text: strings.TrimPrefix(line, normalizer.Bullet)})
		case strings.HasPrefix(line, normalizer.ProjectMarker):
			blocks = append(blocks, block{kind: blockSubheading, text: strings.TrimPrefix(line, normalizer.ProjectMarker)})
		default:
			b := block{kind: blockParagraph, text: line}
			if s.Name == normalizer.SectionSkills {
				b.label, b.text = splitLabel(line)
			}
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// splitLabel 拆分 "Languages: Go, Python"，分类部分最多四个词
func splitLabel(line string) (string, string) {
	idx := strings.Index(line, ": ")
	if idx <= 0 {
		return "", line
	}
	label := line[:idx]
	if len(strings.Fields(label)) > 4 {
		return "", line
	}
	return label, strings.TrimSpace(line[idx+2:])
}

// displayName 文件标题使用的姓名
func displayName(model *normalizer.SectionModel) string {
	if name := model.Header().Name; name != "" {
		return name
	}
	return "Resume"
}
