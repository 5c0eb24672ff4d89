package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Tone 改写语气
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneConfident    Tone = "confident"
	ToneFriendly     Tone = "friendly"
)

// Tones 支持的语气，按展示顺序排列
var Tones = []Tone{ToneProfessional, ToneConfident, ToneFriendly}

// ParseTone 解析语气，空字符串返回默认的 professional
func ParseTone(s string) (Tone, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ToneProfessional, nil
	}
	for _, t := range Tones {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("不支持的语气 %q", s)
}

var (
	// ErrEmptyResume 简历文本为空
	ErrEmptyResume = errors.New("简历内容不能为空")
	// ErrEmptyJobDescription 职位描述为空
	ErrEmptyJobDescription = errors.New("职位描述不能为空")
)

// TailorPrompt 一次定制请求的提示词输入
type TailorPrompt struct {
	Resume         string
	JobDescription string
	Tone           Tone
	FocusAreas     []string
}

// SystemPrompt 定制简历时的系统提示词，输出格式与规范化流程的章节表保持一致
const SystemPrompt = `You are an expert resume writer and ATS optimization specialist.
Your task is to tailor resumes to match specific job descriptions while keeping every fact truthful.

Key principles:
1. Emphasize experiences and skills that match the job requirements
2. Use keywords from the job description naturally throughout the resume
3. Reorder and rewrite content to highlight the most relevant qualifications
4. Enhance and reframe existing experience, never fabricate it
5. Keep the result ATS-friendly with clear sections and bullet points

Formatting requirements:
- Start with the candidate name on the first line, then the target title, then contact details joined by " | "
- Use section headers in ALL CAPS followed by a colon, e.g. "PROFESSIONAL SUMMARY:", "SKILLS:", "EXPERIENCE:"
- Leave a blank line after each section header and between sections
- Format each experience or project entry as:
  ● Project Name — Brief Description
  Role | Tech: Technology Stack
  • Achievement with quantifiable result
- Group skills by category, one category per line: "Category: item, item, item"
- Use "• " bullets for education, certifications and achievements

Sections in order: PROFESSIONAL SUMMARY, SKILLS, EXPERIENCE, EDUCATION, then PROJECTS, CERTIFICATIONS or ACHIEVEMENTS when relevant.
Output only the resume itself, without any introduction or closing remarks.`

// Validate 检查提示词输入
func (p TailorPrompt) Validate() error {
	if strings.TrimSpace(p.Resume) == "" {
		return ErrEmptyResume
	}
	if strings.TrimSpace(p.JobDescription) == "" {
		return ErrEmptyJobDescription
	}
	return nil
}

// UserPrompt 生成用户提示词
func (p TailorPrompt) UserPrompt() string {
	tone := p.Tone
	if tone == "" {
		tone = ToneProfessional
	}

	var b strings.Builder
	b.WriteString("Please tailor the following resume to match the job description provided.\n\n")
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Identify the key requirements, skills and keywords of the job description\n")
	b.WriteString("2. Rewrite the resume to emphasize the relevant experience and skills\n")
	b.WriteString("3. Put the most relevant bullet points first\n")
	b.WriteString("4. Align the summary with the target role\n")
	b.WriteString("5. Highlight every technical skill from the job description that the original resume supports\n")
	fmt.Fprintf(&b, "6. Use a %s tone throughout\n", tone)
	if focus := cleanFocusAreas(p.FocusAreas); len(focus) > 0 {
		fmt.Fprintf(&b, "7. Pay special attention to highlighting: %s\n", strings.Join(focus, ", "))
	}

	b.WriteString("\nJOB DESCRIPTION:\n")
	b.WriteString(strings.TrimSpace(p.JobDescription))
	b.WriteString("\n\nORIGINAL RESUME:\n")
	b.WriteString(strings.TrimSpace(p.Resume))
	b.WriteString("\n\nTAILORED RESUME:\n")
	return b.String()
}

// Messages 生成发送给模型的消息列表
func (p TailorPrompt) Messages() ([]*schema.Message, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return []*schema.Message{
		schema.SystemMessage(SystemPrompt),
		schema.UserMessage(p.UserPrompt()),
	}, nil
}

// cleanFocusAreas 去掉空白项和重复项，保持原顺序
func cleanFocusAreas(areas []string) []string {
	seen := make(map[string]bool, len(areas))
	out := make([]string, 0, len(areas))
	for _, a := range areas {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// SplitFocusAreas 解析逗号分隔的关注点列表
func SplitFocusAreas(s string) []string {
	return cleanFocusAreas(strings.Split(s, ","))
}
