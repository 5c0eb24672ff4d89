package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSection(t *testing.T) {
	n := Default()

	tests := []struct {
		name    string
		section string
		lines   []string
		want    string
	}{
		{
			name:    "技能分类行前后空行",
			section: SectionSkills,
			lines:   []string{"Languages: Go, Python", "Tools: Docker", "• Kubernetes"},
			want:    "Languages: Go, Python\n\nTools: Docker\n\n• Kubernetes",
		},
		{
			name:    "经历中的职位行和项目标题",
			section: SectionExperience,
			lines:   []string{"Senior Software Engineer", "• Built APIs", "● NzubeCare — AI assistant", "• Shipped v1"},
			want:    "Senior Software Engineer\n\n• Built APIs\n\n● NzubeCare — AI assistant\n• Shipped v1",
		},
		{
			name:    "摘要丢弃短行并分隔未结束的句子",
			section: SectionSummary,
			lines:   []string{"Short", "Results-driven engineer with 8 years", "of experience in Go."},
			want:    "Results-driven engineer with 8 years\n\nof experience in Go.",
		},
		{
			name:    "教育经历院校行前空行",
			section: SectionEducation,
			lines:   []string{"Bachelor of Science, Computer Science", "University of Lagos", "2015 - 2019"},
			want:    "Bachelor of Science, Computer Science\n\nUniversity of Lagos\n2015 - 2019",
		},
		{
			name:    "成就自动加列表符号",
			section: SectionAchievements,
			lines:   []string{"Won hackathon", "- Published paper"},
			want:    "• Won hackathon\n• Published paper",
		},
		{
			name:    "证书与颁发机构合并",
			section: SectionCertifications,
			lines:   []string{"• AWS Certified Solutions Architect", "Amazon Web Services", "Google Cloud Professional"},
			want:    "• AWS Certified Solutions Architect - Amazon Web Services\n• Google Cloud Professional",
		},
		{
			name:    "项目条目前空行",
			section: SectionProjects,
			lines:   []string{"● ResumeAI", "• Built parser", "A platform that tailors resumes with LLMs"},
			want:    "● ResumeAI\n• Built parser\n\nA platform that tailors resumes with LLMs",
		},
		{
			name:    "其他章节统一竖线和空行",
			section: SectionOther,
			lines:   []string{"", "Go|Python  |  Rust", "", "", "Mentor", "", ""},
			want:    "Go | Python | Rust\n\nMentor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.FormatSection(tt.section, tt.lines)
			assert.Equal(t, tt.want, got)
			// 整理结果再次整理应保持不变
			assert.Equal(t, got, n.FormatSection(tt.section, strings.Split(got, "\n")))
		})
	}
}

func TestFormatSectionEmpty(t *testing.T) {
	n := Default()
	assert.Equal(t, "", n.FormatSection(SectionSkills, nil))
	assert.Equal(t, "", n.FormatSection(SectionSummary, []string{"", "  ", "tiny"}))
}
