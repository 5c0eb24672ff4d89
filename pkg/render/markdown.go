package render

import (
	"context"
	"strings"

	"resume-tailor/pkg/normalizer"
)

// MarkdownRenderer 输出 Markdown 文本
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Format() Format { return FormatMarkdown }

// Render 头部输出为一级标题加两行，章节为二级标题，项目标题为三级标题
func (r *MarkdownRenderer) Render(ctx context.Context, model *normalizer.SectionModel) ([]byte, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}

	var parts []string
	header := model.Header()
	if !header.IsZero() {
		var lines []string
		if header.Name != "" {
			lines = append(lines, "# "+header.Name)
		}
		if len(header.Titles) > 0 {
			lines = append(lines, "**"+header.TitlesLine()+"**")
		}
		if len(header.Contacts) > 0 {
			lines = append(lines, header.ContactLine())
		}
		parts = append(parts, strings.Join(lines, "\n\n"))
	}

	for _, s := range model.Sections() {
		var b strings.Builder
		if title := sectionTitle(s); title != "" {
			b.WriteString("## " + title + "\n\n")
		}
		for _, bl := range parseBlocks(s) {
			switch bl.kind {
			case blockSpacer:
				b.WriteString("\n")
			case blockBullet:
				b.WriteString("- " + bl.text + "\n")
			case blockSubheading:
				b.WriteString("### " + bl.text + "\n")
			default:
				if bl.label != "" {
					b.WriteString("**" + bl.label + ":** " + bl.text + "\n")
				} else {
					b.WriteString(bl.text + "\n")
				}
			}
		}
		parts = append(parts, strings.TrimRight(b.String(), "\n"))
	}

	return []byte(strings.Join(parts, "\n\n") + "\n"), nil
}
