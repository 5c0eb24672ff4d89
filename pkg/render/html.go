package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"resume-tailor/pkg/normalizer"
)

// HTMLRenderer 使用 html/template 输出单文件 HTML，样式内联
type HTMLRenderer struct {
	opts Options
}

// NewHTMLRenderer 创建 HTML 渲染器
func NewHTMLRenderer(opts ...Option) *HTMLRenderer {
	return &HTMLRenderer{opts: buildOptions(opts)}
}

func (r *HTMLRenderer) Format() Format { return FormatHTML }

type contactView struct {
	Text string
	Href template.URL
}

type blockView struct {
	Kind  string
	Label string
	Text  string
	Items []string
}

type sectionView struct {
	Key    string
	Title  string
	Blocks []blockView
}

type pageView struct {
	Title    string
	Style    string
	CSS      template.CSS
	Name     string
	Titles   string
	Contacts []contactView
	Sections []sectionView
}

var pageTemplate = template.Must(template.New("resume").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body class="style-{{.Style}}">
<main class="resume">
{{- if or .Name .Titles .Contacts}}
<header class="resume-header">
{{- if .Name}}
<h1 class="name">{{.Name}}</h1>
{{- end}}
{{- if .Titles}}
<p class="titles">{{.Titles}}</p>
{{- end}}
{{- if .Contacts}}
<p class="contacts">{{range $i, $c := .Contacts}}{{if $i}}<span class="sep"> | </span>{{end}}{{if $c.Href}}<a href="{{$c.Href}}">{{$c.Text}}</a>{{else}}<span>{{$c.Text}}</span>{{end}}{{end}}</p>
{{- end}}
</header>
{{- end}}
{{- range .Sections}}
<section class="section section-{{.Key}}">
{{- if .Title}}
<h2>{{.Title}}</h2>
{{- end}}
{{- range .Blocks}}
{{- if eq .Kind "list"}}
<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>
{{- else if eq .Kind "subheading"}}
<h3>{{.Text}}</h3>
{{- else if eq .Kind "spacer"}}
<div class="spacer"></div>
{{- else if .Label}}
<p><strong>{{.Label}}:</strong> {{.Text}}</p>
{{- else}}
<p>{{.Text}}</p>
{{- end}}
{{- end}}
</section>
{{- end}}
</main>
</body>
</html>
`))

// Render 渲染 HTML 页面
func (r *HTMLRenderer) Render(ctx context.Context, model *normalizer.SectionModel) ([]byte, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}

	css, ok := styleSheets[r.opts.Style]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStyle, r.opts.Style)
	}

	header := model.Header()
	view := pageView{
		Title:  displayName(model),
		Style:  string(r.opts.Style),
		CSS:    template.CSS(css),
		Name:   header.Name,
		Titles: header.TitlesLine(),
	}
	for _, c := range header.Contacts {
		view.Contacts = append(view.Contacts, contactView{
			Text: c,
			Href: contactHref(c, r.opts.Classifier.ClassifyContact(c)),
		})
	}
	for _, s := range model.Sections() {
		view.Sections = append(view.Sections, sectionView{
			Key:    cssClass(s.Key),
			Title:  sectionTitle(s),
			Blocks: groupBlocks(parseBlocks(s)),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("渲染 HTML 模板失败: %w", err)
	}
	return buf.Bytes(), nil
}

// groupBlocks 把连续的列表项合并成一个列表
func groupBlocks(blocks []block) []blockView {
	var out []blockView
	for _, b := range blocks {
		switch b.kind {
		case blockBullet:
			if n := len(out); n > 0 && out[n-1].Kind == "list" {
				out[n-1].Items = append(out[n-1].Items, b.text)
				continue
			}
			out = append(out, blockView{Kind: "list", Items: []string{b.text}})
		case blockSubheading:
			out = append(out, blockView{Kind: "subheading", Text: b.text})
		case blockSpacer:
			out = append(out, blockView{Kind: "spacer"})
		default:
			out = append(out, blockView{Kind: "paragraph", Label: b.label, Text: b.text})
		}
	}
	return out
}

var phoneDigits = regexp.MustCompile(`[^\d+]`)

// contactHref 根据联系方式类别生成链接，无法生成时返回空串
func contactHref(item string, kind normalizer.ContactKind) template.URL {
	item = strings.TrimSpace(item)
	switch kind {
	case normalizer.ContactEmail:
		return template.URL("mailto:" + item)
	case normalizer.ContactPhone:
		return template.URL("tel:" + phoneDigits.ReplaceAllString(item, ""))
	case normalizer.ContactLinkedIn, normalizer.ContactGitHub, normalizer.ContactURL:
		if !strings.Contains(item, ".") || strings.ContainsAny(item, " \t") {
			return ""
		}
		if strings.HasPrefix(item, "http://") || strings.HasPrefix(item, "https://") {
			return template.URL(item)
		}
		return template.URL("https://" + item)
	}
	return ""
}

var nonClassChars = regexp.MustCompile(`[^a-z0-9-]+`)

func cssClass(key string) string {
	return strings.Trim(nonClassChars.ReplaceAllString(strings.ToLower(key), "-"), "-")
}
