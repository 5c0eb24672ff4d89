package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"

	"resume-tailor/pkg/normalizer"
)

// DOCXRenderer 输出 WordprocessingML 文档，只使用段落样式，不做版式排布
type DOCXRenderer struct{}

func (r *DOCXRenderer) Format() Format { return FormatDOCX }

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type wDocument struct {
	XMLName xml.Name `xml:"w:document"`
	XmlnsW  string   `xml:"xmlns:w,attr"`
	Body    wBody    `xml:"w:body"`
}

type wBody struct {
	Paragraphs []wParagraph `xml:"w:p"`
}

type wParagraph struct {
	Props *wParaProps `xml:"w:pPr,omitempty"`
	Runs  []wRun      `xml:"w:r"`
}

type wParaProps struct {
	Style *wVal `xml:"w:pStyle,omitempty"`
}

type wVal struct {
	Val string `xml:"w:val,attr"`
}

type wRun struct {
	Props *wRunProps `xml:"w:rPr,omitempty"`
	Text  wText      `xml:"w:t"`
}

type wRunProps struct {
	Bold *struct{} `xml:"w:b,omitempty"`
}

type wText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

func run(text string, bold bool) wRun {
	r := wRun{Text: wText{Space: "preserve", Value: text}}
	if bold {
		r.Props = &wRunProps{Bold: &struct{}{}}
	}
	return r
}

func paragraph(style string, runs ...wRun) wParagraph {
	p := wParagraph{Runs: runs}
	if style != "" {
		p.Props = &wParaProps{Style: &wVal{Val: style}}
	}
	return p
}

// Render 生成 .docx 压缩包
func (r *DOCXRenderer) Render(ctx context.Context, model *normalizer.SectionModel) ([]byte, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}

	doc := wDocument{XmlnsW: wordNamespace}
	add := func(p wParagraph) { doc.Body.Paragraphs = append(doc.Body.Paragraphs, p) }

	header := model.Header()
	if header.Name != "" {
		add(paragraph("Title", run(header.Name, false)))
	}
	if len(header.Titles) > 0 {
		add(paragraph("Subtitle", run(header.TitlesLine(), false)))
	}
	if len(header.Contacts) > 0 {
		add(paragraph("Contact", run(header.ContactLine(), false)))
	}

	for _, s := range model.Sections() {
		if title := sectionTitle(s); title != "" {
			add(paragraph("Heading1", run(title, false)))
		}
		for _, b := range parseBlocks(s) {
			switch b.kind {
			case blockSpacer:
				add(paragraph(""))
			case blockBullet:
				add(paragraph("ListBullet", run(normalizer.Bullet+b.text, false)))
			case blockSubheading:
				add(paragraph("Heading2", run(b.text, false)))
			default:
				if b.label != "" {
					add(paragraph("", run(b.label+": ", true), run(b.text, false)))
				} else {
					add(paragraph("", run(b.text, false)))
				}
			}
		}
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("序列化文档内容失败: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/document.xml", append([]byte(xml.Header), body...)},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("创建文档条目 %s 失败: %w", f.name, err)
		}
		if _, err := w.Write(f.data); err != nil {
			return nil, fmt.Errorf("写入文档条目 %s 失败: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("写入 docx 压缩包失败: %w", err)
	}
	return buf.Bytes(), nil
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/><w:sz w:val="21"/></w:rPr></w:rPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:pPr><w:spacing w:after="40"/></w:pPr></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:pPr><w:jc w:val="center"/></w:pPr><w:rPr><w:b/><w:sz w:val="40"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Subtitle"><w:name w:val="Subtitle"/><w:basedOn w:val="Normal"/><w:pPr><w:jc w:val="center"/></w:pPr><w:rPr><w:sz w:val="24"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Contact"><w:name w:val="Contact"/><w:basedOn w:val="Normal"/><w:pPr><w:jc w:val="center"/><w:spacing w:after="160"/></w:pPr><w:rPr><w:sz w:val="19"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="200" w:after="60"/></w:pPr><w:rPr><w:b/><w:caps/><w:sz w:val="24"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="120"/></w:pPr><w:rPr><w:b/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="284"/></w:pPr></w:style>
</w:styles>`
