package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	proseBlock1 = "Built an AI health assistant using FastAPI."
	proseBlock2 = "Served 2,000 patients across Abuja clinics."
)

func trackedNormalizer(t *testing.T, entities ...string) *Normalizer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TrackedEntities = entities
	n, err := New(cfg)
	require.NoError(t, err)
	return n
}

// TestEliminateDuplicatesPrefersBullets 散文和列表两个版本只保留列表版本，与出现顺序无关
func TestEliminateDuplicatesPrefersBullets(t *testing.T) {
	n := trackedNormalizer(t, "NzubeCare")

	prose := []string{proseBlock1, proseBlock2}
	bullets := []string{"• " + proseBlock1, "• " + proseBlock2}
	require.GreaterOrEqual(t, Similarity(fingerprint(prose), fingerprint(bullets)), DefaultSimilarityThreshold)

	want := []string{"NzubeCare — AI Health Assistant", "", bullets[0], bullets[1]}

	proseFirst := append(append(append([]string{"NzubeCare — AI Health Assistant", ""}, prose...), ""), bullets...)
	assert.Equal(t, want, n.EliminateDuplicates(proseFirst))

	bulletsFirst := append(append(append([]string{"NzubeCare — AI Health Assistant", ""}, bullets...), ""), prose...)
	assert.Equal(t, want, n.EliminateDuplicates(bulletsFirst))
}

// TestEliminateDuplicatesAcrossOccurrences 同一实体重复出现时，重复段整体删除，列表版本放在首次出现的位置
func TestEliminateDuplicatesAcrossOccurrences(t *testing.T) {
	n := trackedNormalizer(t, "NzubeCare")
	lines := []string{
		"NzubeCare",
		proseBlock1,
		proseBlock2,
		"",
		"Other Project",
		"",
		"NzubeCare",
		"• " + proseBlock1,
		"• " + proseBlock2,
	}

	got := n.EliminateDuplicates(lines)
	assert.Equal(t, []string{
		"NzubeCare",
		"• " + proseBlock1,
		"• " + proseBlock2,
		"",
		"Other Project",
		"",
	}, got)
}

func TestEliminateDuplicatesKeepsDistinctBlocks(t *testing.T) {
	n := trackedNormalizer(t, "Paystack")
	lines := []string{
		"Paystack",
		"Senior Engineer | Go, Kafka",
		"",
		"Designed the settlement pipeline for merchants.",
		"",
		"Mentored four junior engineers through code review.",
	}
	assert.Equal(t, lines, n.EliminateDuplicates(lines))
}

// TestEliminateDuplicatesMonotonic 保留块数不超过原始块数，全部相似时只保留一块
func TestEliminateDuplicatesMonotonic(t *testing.T) {
	n := trackedNormalizer(t, "NzubeCare")
	lines := []string{
		"NzubeCare",
		"",
		"Built an API in Go.",
		"",
		"Built an API in Go!",
		"",
		"Built the API in Go.",
	}

	out, stats := n.eliminateDuplicates(lines)
	assert.Equal(t, 3, stats.RawBlocks)
	assert.Equal(t, 1, stats.Kept)
	assert.LessOrEqual(t, stats.Kept, stats.RawBlocks)
	assert.Equal(t, []string{"NzubeCare", "", "Built an API in Go."}, out)
}

func TestEliminateDuplicatesThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrackedEntities = []string{"NzubeCare"}
	cfg.SimilarityThreshold = 100
	n := MustNew(cfg)

	lines := []string{"NzubeCare", "", "Built an API in Go.", "", "Built an API in Go!"}
	assert.Equal(t, lines, n.EliminateDuplicates(lines), "阈值为 100 时只有完全相同的块才算重复")
}

func TestEliminateDuplicatesGenericSubheading(t *testing.T) {
	n := Default()
	lines := []string{
		"### ResumeAI",
		"",
		"Tailors resumes to job descriptions with an LLM.",
		"",
		"- Tailors resumes to job descriptions with an LLM.",
		"",
		"## EDUCATION",
		"Tailors resumes to job descriptions with an LLM.",
	}

	got := n.EliminateDuplicates(lines)
	assert.Equal(t, []string{
		"### ResumeAI",
		"",
		"- Tailors resumes to job descriptions with an LLM.",
		"",
		"## EDUCATION",
		"Tailors resumes to job descriptions with an LLM.",
	}, got, "章节标题之后的内容不属于实体")
}

// TestEliminateDuplicatesSameTitleDifferentEmployers 职位相同、雇主不同的子标题是不同实体
func TestEliminateDuplicatesSameTitleDifferentEmployers(t *testing.T) {
	n := Default()
	lines := []string{
		"### Software Engineer — Acme Corp",
		"- Built the payments API in Go serving 2M requests a day.",
		"- Cut p99 latency of the payments service by 40%.",
		"",
		"### Software Engineer — Globex Inc",
		"- Built the lending API in Go serving 2M requests a day.",
		"- Cut p99 latency of the lending service by 40%.",
	}
	require.GreaterOrEqual(t,
		Similarity(fingerprint(lines[1:3]), fingerprint(lines[5:7])), DefaultSimilarityThreshold)

	assert.Equal(t, lines, n.EliminateDuplicates(lines))
}

// TestEliminateDuplicatesRepeatedRole 同一职位重复出现（日期写法不同）仍按同一实体去重
func TestEliminateDuplicatesRepeatedRole(t *testing.T) {
	n := Default()
	lines := []string{
		"### Software Engineer — Acme Corp (2020 - 2022)",
		"Built the payments API in Go.",
		"",
		"### Software Engineer | Acme Corp | Jan 2020 – Present",
		"- Built the payments API in Go.",
	}

	assert.Equal(t, []string{
		"### Software Engineer — Acme Corp (2020 - 2022)",
		"- Built the payments API in Go.",
		"",
	}, n.EliminateDuplicates(lines))
}

func TestSubheadingKey(t *testing.T) {
	tests := map[string]string{
		"Software Engineer — Acme Corp":                "software engineer acme corp",
		"Software Engineer — Globex Inc":               "software engineer globex inc",
		"Software Engineer | Acme Corp | 2020 - 2022":  "software engineer acme corp",
		"Software Engineer, Acme Corp (Remote)":        "software engineer acme corp",
		"ResumeAI: LLM tailoring, Mar 2023 to Present": "resumeai llm tailoring",
		"(2020)":                                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, subheadingKey(in), in)
	}
}

func TestEliminateDuplicatesPassthrough(t *testing.T) {
	n := Default()
	lines := []string{"SUMMARY", "Same line.", "", "Same line."}
	assert.Equal(t, lines, n.EliminateDuplicates(lines))
	assert.Empty(t, n.EliminateDuplicates(nil))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100, Similarity("", ""))
	assert.Equal(t, 100, Similarity("abc", "abc"))
	assert.Equal(t, 0, Similarity("abc", ""))
	assert.Equal(t, 0, Similarity("abc", "xyz"))
	assert.Equal(t, 95, Similarity("built an api in go.", "built an api in go!"))

	a := strings.Repeat("x", 10)
	assert.Equal(t, 91, Similarity(a, a+"y"))
}
