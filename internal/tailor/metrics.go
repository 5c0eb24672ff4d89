package tailor

import (
	"math"
	"strings"
)

// Metrics 以职位描述的词集合衡量定制前后的关键词覆盖率
type Metrics struct {
	OriginalKeywordMatch  float64 `json:"original_keyword_match"`
	TailoredKeywordMatch  float64 `json:"tailored_keyword_match"`
	ImprovementPercentage float64 `json:"improvement_percentage"`
	WordCountOriginal     int     `json:"word_count_original"`
	WordCountTailored     int     `json:"word_count_tailored"`
}

// CalculateMetrics 按空白分词并转小写；职位描述为空时覆盖率都记为 0
func CalculateMetrics(original, tailored, jobDescription string) Metrics {
	m := Metrics{
		WordCountOriginal: len(strings.Fields(original)),
		WordCountTailored: len(strings.Fields(tailored)),
	}

	jobWords := wordSet(jobDescription)
	if len(jobWords) == 0 {
		return m
	}
	m.OriginalKeywordMatch = round2(overlap(jobWords, wordSet(original)))
	m.TailoredKeywordMatch = round2(overlap(jobWords, wordSet(tailored)))
	m.ImprovementPercentage = round2(m.TailoredKeywordMatch - m.OriginalKeywordMatch)
	return m
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// overlap 职位描述词中同时出现在 words 里的百分比
func overlap(job, words map[string]struct{}) float64 {
	hit := 0
	for w := range job {
		if _, ok := words[w]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(job)) * 100
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
