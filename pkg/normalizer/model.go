package normalizer

import (
	"encoding/json"
	"strings"
)

// HeaderBlock 简历头部：姓名、职位、联系方式
type HeaderBlock struct {
	Name     string   `json:"name"`
	Titles   []string `json:"titles,omitempty"`
	Contacts []string `json:"contacts,omitempty"`
}

// IsZero 未识别出头部
func (h HeaderBlock) IsZero() bool {
	return h.Name == "" && len(h.Titles) == 0 && len(h.Contacts) == 0
}

// TitlesLine 职位以 " | " 连接
func (h HeaderBlock) TitlesLine() string {
	return strings.Join(h.Titles, " | ")
}

// ContactLine 联系方式以 " | " 连接
func (h HeaderBlock) ContactLine() string {
	return strings.Join(h.Contacts, " | ")
}

// Lines 头部的规范文本形式，至多三行
func (h HeaderBlock) Lines() []string {
	lines := make([]string, 0, 3)
	if h.Name != "" {
		lines = append(lines, h.Name)
	}
	if len(h.Titles) > 0 {
		lines = append(lines, h.TitlesLine())
	}
	if len(h.Contacts) > 0 {
		lines = append(lines, h.ContactLine())
	}
	return lines
}

func (h HeaderBlock) clone() HeaderBlock {
	return HeaderBlock{
		Name:     h.Name,
		Titles:   append([]string(nil), h.Titles...),
		Contacts: append([]string(nil), h.Contacts...),
	}
}

// Section 规范化后的一个章节
type Section struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content"`
	OrderIndex int    `json:"order_index"`
}

// Lines 按行拆分章节内容
func (s Section) Lines() []string {
	if s.Content == "" {
		return nil
	}
	return strings.Split(s.Content, "\n")
}

// SectionModel 流水线的最终产物。构造后只读，可在多个 goroutine 间共享。
type SectionModel struct {
	header   HeaderBlock
	sections []Section
	index    map[string]int
}

func newSectionModel(header HeaderBlock, sections []Section) *SectionModel {
	m := &SectionModel{
		header:   header,
		sections: sections,
		index:    make(map[string]int, len(sections)),
	}
	for i := range m.sections {
		m.sections[i].OrderIndex = i
		m.index[m.sections[i].Key] = i
	}
	return m
}

func (m *SectionModel) Header() HeaderBlock {
	return m.header.clone()
}

// Sections 按输出顺序返回章节副本
func (m *SectionModel) Sections() []Section {
	return append([]Section(nil), m.sections...)
}

func (m *SectionModel) Section(key string) (Section, bool) {
	idx, ok := m.index[key]
	if !ok {
		return Section{}, false
	}
	return m.sections[idx], true
}

// Content 章节内容，不存在时返回空串
func (m *SectionModel) Content(key string) string {
	s, _ := m.Section(key)
	return s.Content
}

func (m *SectionModel) Keys() []string {
	keys := make([]string, len(m.sections))
	for i, s := range m.sections {
		keys[i] = s.Key
	}
	return keys
}

func (m *SectionModel) Len() int {
	return len(m.sections)
}

// IsEmpty 头部和章节均为空
func (m *SectionModel) IsEmpty() bool {
	return m.header.IsZero() && len(m.sections) == 0
}

// Text 规范纯文本形式：头部至多三行，随后每个章节为标题行加内容，章节间空一行。
// 未识别章节的标题以 "## " 开头，保证再次切分时仍被识别为标题。
func (m *SectionModel) Text() string {
	var blocks []string
	if lines := m.header.Lines(); len(lines) > 0 {
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	for _, s := range m.sections {
		if s.Name == SectionHeader {
			blocks = append(blocks, s.Content)
			continue
		}
		heading := s.Title
		if heading == "" {
			heading = strings.ToUpper(s.Key)
		}
		if s.Name == SectionOther {
			heading = "## " + heading
		}
		if s.Content == "" {
			blocks = append(blocks, heading)
			continue
		}
		blocks = append(blocks, heading+"\n"+s.Content)
	}
	return strings.Join(blocks, "\n\n")
}

type sectionModelJSON struct {
	Header      HeaderBlock `json:"header"`
	TitlesLine  string      `json:"titles_line,omitempty"`
	ContactLine string      `json:"contact_line,omitempty"`
	Sections    []Section   `json:"sections"`
}

func (m *SectionModel) MarshalJSON() ([]byte, error) {
	sections := m.sections
	if sections == nil {
		sections = []Section{}
	}
	return json.Marshal(sectionModelJSON{
		Header:      m.header,
		TitlesLine:  m.header.TitlesLine(),
		ContactLine: m.header.ContactLine(),
		Sections:    sections,
	})
}

// UnmarshalJSON 用于缓存回读，order_index 按数组顺序重建
func (m *SectionModel) UnmarshalJSON(data []byte) error {
	var raw sectionModelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = *newSectionModel(raw.Header, raw.Sections)
	return nil
}
