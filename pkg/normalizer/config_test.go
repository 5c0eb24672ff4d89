package normalizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"阈值为负", func(c *Config) { c.SimilarityThreshold = -1 }, "similarity_threshold"},
		{"章节表为空", func(c *Config) { c.CanonicalSections = nil }, "canonical_sections"},
		{"章节名为保留名", func(c *Config) {
			c.CanonicalSections = append(c.CanonicalSections, SectionPattern{Name: "other", Patterns: []string{"misc"}})
		}, "canonical_sections"},
		{"章节名重复", func(c *Config) {
			c.CanonicalSections = append(c.CanonicalSections, SectionPattern{Name: "Skills", Patterns: []string{"abilities"}})
		}, "canonical_sections"},
		{"章节没有模式", func(c *Config) {
			c.CanonicalSections = append(c.CanonicalSections, SectionPattern{Name: "languages"})
		}, "canonical_sections"},
		{"实体名为空", func(c *Config) { c.TrackedEntities = []string{" "} }, "tracked_entities"},
		{"头部预算为负", func(c *Config) { c.HeaderLineBudget = -5 }, "header_line_budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestConfigValidateBadPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CanonicalSections = []SectionPattern{{Name: "skills", Patterns: []string{"(unclosed"}}}

	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.NotNil(t, cfgErr.Unwrap(), "应保留正则编译错误")
	assert.Contains(t, err.Error(), "(unclosed")
}

// TestCustomSectionTable 自定义章节表按表中顺序匹配
func TestCustomSectionTable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CanonicalSections = []SectionPattern{
		{Name: "languages", Patterns: []string{`languages?`, `spoken languages`}},
		{Name: "skills", Patterns: []string{`skills`}},
	}
	n := MustNew(cfg)

	name, ok := n.ClassifyHeading("SPOKEN LANGUAGES:")
	require.True(t, ok)
	assert.Equal(t, "languages", name)

	_, ok = n.ClassifyHeading("Experience")
	assert.False(t, ok)
}

func TestZeroThresholdAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0
	n, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, n.Config().SimilarityThreshold)
}
