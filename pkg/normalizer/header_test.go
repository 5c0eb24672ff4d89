package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestructureHeader(t *testing.T) {
	n := Default()

	tests := []struct {
		name     string
		lines    []string
		want     HeaderBlock
		consumed int
	}{
		{
			name:     "姓名职位联系方式",
			lines:    []string{"Dr. Jane Doe", "AI Engineer", "jane@x.com", "PROFESSIONAL SUMMARY", "Experienced engineer."},
			want:     HeaderBlock{Name: "Dr. Jane Doe", Titles: []string{"AI Engineer"}, Contacts: []string{"jane@x.com"}},
			consumed: 3,
		},
		{
			name: "竖线分隔的多个职位和联系方式",
			lines: []string{
				"**Jane Doe**",
				"AI Engineer | ML Researcher",
				"jane@x.com | +234 801 234 5678",
				"linkedin.com/in/jane",
				"",
				"## SKILLS",
			},
			want: HeaderBlock{
				Name:     "Jane Doe",
				Titles:   []string{"AI Engineer", "ML Researcher"},
				Contacts: []string{"jane@x.com", "+234 801 234 5678", "linkedin.com/in/jane"},
			},
			consumed: 4,
		},
		{
			name:     "丢弃单独的学位噪声行",
			lines:    []string{"Jane Doe", "PhD", "Data Scientist", "jane@x.com"},
			want:     HeaderBlock{Name: "Jane Doe", Titles: []string{"Data Scientist"}, Contacts: []string{"jane@x.com"}},
			consumed: 4,
		},
		{
			name:     "markdown 一级标题作为姓名",
			lines:    []string{"# Jane Doe", "Backend Developer", "", "## EXPERIENCE"},
			want:     HeaderBlock{Name: "Jane Doe", Titles: []string{"Backend Developer"}},
			consumed: 2,
		},
		{
			name:     "完整句子不作为职位",
			lines:    []string{"Jane Doe", "Engineer", "I build reliable systems for fintech."},
			want:     HeaderBlock{Name: "Jane Doe", Titles: []string{"Engineer"}},
			consumed: 2,
		},
		{
			name:     "姓名含地点关键词的片段",
			lines:    []string{"Musa Abdullahi", "Data Engineer", "musa@x.com", "", "SUMMARY"},
			want:     HeaderBlock{Name: "Musa Abdullahi", Titles: []string{"Data Engineer"}, Contacts: []string{"musa@x.com"}},
			consumed: 3,
		},
		{
			name:     "职位含地点关键词的片段",
			lines:    []string{"Jane Doe", "Causal Inference Researcher", "jane@x.com | New York, USA"},
			want:     HeaderBlock{Name: "Jane Doe", Titles: []string{"Causal Inference Researcher"}, Contacts: []string{"jane@x.com", "New York, USA"}},
			consumed: 3,
		},
		{
			name:     "没有职位直接是联系方式",
			lines:    []string{"Jane Doe", "jane@x.com", "github.com/jane", "SKILLS"},
			want:     HeaderBlock{Name: "Jane Doe", Contacts: []string{"jane@x.com", "github.com/jane"}},
			consumed: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.RestructureHeader(tt.lines)
			require.True(t, got.OK)
			assert.Equal(t, tt.want, got.Block)
			assert.Equal(t, tt.consumed, got.Consumed)
		})
	}
}

func TestRestructureHeaderNoop(t *testing.T) {
	n := Default()

	cases := map[string][]string{
		"首行为列表项":  {"• Built things", "SKILLS", "Go"},
		"首行为章节标题": {"SKILLS", "Go"},
		"首行为联系方式": {"jane@x.com", "SKILLS"},
		"首行为长段落":  {"I am a results-driven engineer who has spent the last decade building distributed systems at scale.", "SKILLS"},
		"全部为空行":   {"", "   ", ""},
		"没有任何行":   {},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			got := n.RestructureHeader(lines)
			assert.False(t, got.OK)
			assert.Equal(t, 0, got.Consumed)
			assert.True(t, got.Block.IsZero())
		})
	}
}

func TestRestructureHeaderBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeaderLineBudget = 3
	n := MustNew(cfg)

	got := n.RestructureHeader([]string{"Jane Doe", "Engineer", "", "jane@x.com"})
	require.True(t, got.OK)
	assert.Equal(t, []string{"Engineer"}, got.Block.Titles)
	assert.Empty(t, got.Block.Contacts, "超出预算的联系方式行不应被吸收")
	assert.Equal(t, 2, got.Consumed)
}

func TestRestructureHeaderTitleLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTitles = 2
	n := MustNew(cfg)

	got := n.RestructureHeader([]string{"Jane Doe", "Engineer | Architect", "Speaker", "jane@x.com"})
	require.True(t, got.OK)
	assert.Equal(t, []string{"Engineer", "Architect"}, got.Block.Titles)
	assert.Empty(t, got.Block.Contacts)
	assert.Equal(t, 2, got.Consumed)
}

// TestHeaderNameInvariant 章节标题前存在姓名样式的行时，头部姓名必然非空
func TestHeaderNameInvariant(t *testing.T) {
	n := Default()
	firstLines := []string{"Jane Doe", "JANE DOE", "Dr. Jane Doe", "**Jane O'Neil-Smith**", "# Jane Doe", "Zhang Wei", "Musa Abdullahi"}
	for _, first := range firstLines {
		got := n.RestructureHeader([]string{"", first, "SKILLS", "Go"})
		assert.True(t, got.OK, first)
		assert.NotEmpty(t, got.Block.Name, first)
	}
}

func TestHeaderBlockLines(t *testing.T) {
	h := HeaderBlock{
		Name:     "Jane Doe",
		Titles:   []string{"AI Engineer", "ML Researcher"},
		Contacts: []string{"jane@x.com", "Lagos, Nigeria"},
	}
	assert.Equal(t, "AI Engineer | ML Researcher", h.TitlesLine())
	assert.Equal(t, "jane@x.com | Lagos, Nigeria", h.ContactLine())
	assert.Equal(t, []string{"Jane Doe", "AI Engineer | ML Researcher", "jane@x.com | Lagos, Nigeria"}, h.Lines())
	assert.Len(t, HeaderBlock{Name: "Jane Doe"}.Lines(), 1)
	assert.True(t, HeaderBlock{}.IsZero())
}

func TestClassifyContact(t *testing.T) {
	n := Default()
	tests := []struct {
		item string
		want ContactKind
	}{
		{"jane@x.com", ContactEmail},
		{"+1 (555) 123-4567", ContactPhone},
		{"+234 801 234 5678", ContactPhone},
		{"linkedin.com/in/jane", ContactLinkedIn},
		{"LinkedIn: janedoe", ContactLinkedIn},
		{"github.com/jane", ContactGitHub},
		{"https://jane.dev", ContactURL},
		{"Lagos, Nigeria", ContactLocation},
		{"Remote", ContactLocation},
		{"New York, USA", ContactLocation},
		{"Musa Abdullahi", ContactNone},
		{"Causal Inference Researcher", ContactNone},
		{"Londoner by choice", ContactNone},
		{"AI Engineer", ContactNone},
		{"C++ Developer", ContactNone},
		{"", ContactNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.ClassifyContact(tt.item), tt.item)
	}

	assert.True(t, n.IsContactLine("Email: jane@x.com | Abuja"))
	assert.False(t, n.IsContactLine("Senior Backend Engineer | Go Specialist"))
}
