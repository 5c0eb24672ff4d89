package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyHeading(t *testing.T) {
	n := Default()
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"PROFESSIONAL SUMMARY", SectionSummary, true},
		{"## Professional Summary", SectionSummary, true},
		{"**SKILLS:**", SectionSkills, true},
		{"Core Technical Skills", SectionSkills, true},
		{"WORK EXPERIENCE", SectionExperience, true},
		{"Employment History:", SectionExperience, true},
		{"Academic Background", SectionEducation, true},
		{"# KEY PROJECTS", SectionProjects, true},
		{"Professional Certifications", SectionCertifications, true},
		{"Awards", SectionAchievements, true},
		{"Research Interests", SectionAchievements, true},
		{"Skills include Go and Rust", "", false},
		{"• Skills", "", false},
		{"REFERENCES", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := n.ClassifyHeading(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestPartition(t *testing.T) {
	n := Default()
	lines := []string{
		"Jane Doe",
		"SUMMARY",
		"Great engineer.",
		"## Skills:",
		"Go",
		"AWS",
		"",
		"## REFERENCES",
		"Available on request",
		"Experience",
		"Acme",
		"EXPERIENCE",
		"Beta",
	}

	buckets := n.Partition(lines)
	require.Len(t, buckets, 5)

	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{SectionHeader, SectionSummary, SectionSkills, "REFERENCES", SectionExperience}, keys)

	assert.Equal(t, []string{"Jane Doe"}, buckets[0].Lines)
	assert.Equal(t, []string{"Great engineer."}, buckets[1].Lines)
	assert.Equal(t, "Skills", buckets[2].Title)
	assert.Equal(t, []string{"Go", "AWS", ""}, buckets[2].Lines)
	assert.Equal(t, SectionOther, buckets[3].Name)
	assert.Equal(t, []string{"Available on request"}, buckets[3].Lines)
	assert.Equal(t, []string{"Acme", "", "Beta"}, buckets[4].Lines, "重复章节合并到首次出现的位置")
}

// TestPartitionKeepsUpperCaseLines 章节内全大写的雇主名、学位行不会另起章节
func TestPartitionKeepsUpperCaseLines(t *testing.T) {
	n := Default()
	lines := []string{
		"EXPERIENCE",
		"Acme Corp",
		"Software Engineer",
		"• Built things",
		"",
		"IBM",
		"Software Engineer",
		"• Built more things",
		"",
		"EDUCATION",
		"University of Lagos",
		"",
		"MBA",
		"Lagos Business School",
		"",
		"REFERENCES",
		"Available on request",
	}

	buckets := n.Partition(lines)
	require.Len(t, buckets, 2)
	assert.Equal(t, SectionExperience, buckets[0].Key)
	assert.Equal(t, SectionEducation, buckets[1].Key)
	assert.Contains(t, buckets[0].Lines, "IBM")
	assert.Contains(t, buckets[0].Lines, "• Built more things")
	assert.Contains(t, buckets[1].Lines, "MBA")
	assert.Contains(t, buckets[1].Lines, "Available on request", "没有 markdown 标记的未知标题留在当前章节")
}

// TestPartitionCompleteness 每个非标题行都恰好属于一个桶
func TestPartitionCompleteness(t *testing.T) {
	n := Default()
	lines := []string{
		"Jane Doe",
		"jane@x.com",
		"",
		"## SUMMARY",
		"Builds things.",
		"",
		"## EXPERIENCE",
		"• Did things",
		"",
		"## Volunteering",
		"Food bank",
		"",
		"EDUCATION",
		"BSc Computer Science",
	}

	buckets := n.Partition(lines)
	headings := 0
	contentLines := 0
	for _, b := range buckets {
		if b.Name != SectionHeader {
			headings++
		}
		contentLines += len(b.Lines)
	}
	assert.Equal(t, len(lines), headings+contentLines)
	assert.Equal(t, "Volunteering", buckets[3].Key)
}

func TestPartitionWithoutHeadings(t *testing.T) {
	n := Default()
	buckets := n.Partition([]string{"just some text", "more text"})
	require.Len(t, buckets, 1)
	assert.Equal(t, SectionHeader, buckets[0].Key)
	assert.Len(t, buckets[0].Lines, 2)

	assert.Empty(t, n.Partition(nil))
}
