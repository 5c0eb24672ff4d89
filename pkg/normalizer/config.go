package normalizer

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultSimilarityThreshold 重复内容块判定阈值 (0-100)，相似度达到该值即视为重复
	DefaultSimilarityThreshold = 80
	// DefaultHeaderLineBudget 头部状态机最多扫描的行数
	DefaultHeaderLineBudget = 20
	// DefaultMaxTitles 头部最多收集的职位数，超过即认为头部已结束
	DefaultMaxTitles = 4
	// DefaultSummaryMinRunes 摘要章节中短于等于该长度的行视为噪声
	DefaultSummaryMinRunes = 10

	// SectionHeader 第一个章节标题之前的内容桶
	SectionHeader = "header"
	// SectionOther 未识别章节标题的类别名
	SectionOther = "other"

	// Bullet 规范化后的列表项前缀，渲染器据此识别列表
	Bullet = "• "
	// ProjectMarker 经历章节中的项目标题前缀
	ProjectMarker = "● "
)

// 规范章节名称
const (
	SectionSummary        = "summary"
	SectionSkills         = "skills"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionProjects       = "projects"
	SectionCertifications = "certifications"
	SectionAchievements   = "achievements"
)

// SectionPattern 章节名到标题正则备选项的映射，表中顺序即匹配优先级
type SectionPattern struct {
	Name     string   `json:"name" yaml:"name"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// ScaffoldMarkers LLM 包裹在正文前后的套话标记（大小写不敏感的字面量）
type ScaffoldMarkers struct {
	Leading  []string `json:"leading" yaml:"leading"`
	Trailing []string `json:"trailing" yaml:"trailing"`
}

// Config 规范化流水线配置
type Config struct {
	// 相似度阈值，0-100
	SimilarityThreshold int `json:"similarity_threshold" yaml:"similarity_threshold"`

	// 需要去重的实体名（项目、公司等），按字面量匹配
	TrackedEntities []string `json:"tracked_entities" yaml:"tracked_entities"`

	// 是否把任意子标题（### 标题、整行加粗、● 开头的行）当作去重实体
	DetectRepeatedSubheadings bool `json:"detect_repeated_subheadings" yaml:"detect_repeated_subheadings"`

	// 规范章节表，顺序决定同时命中多个模式时的归属
	CanonicalSections []SectionPattern `json:"canonical_sections" yaml:"canonical_sections"`

	HeaderLineBudget int `json:"header_line_budget" yaml:"header_line_budget"`
	MaxTitles        int `json:"max_titles" yaml:"max_titles"`
	SummaryMinRunes  int `json:"summary_min_runes" yaml:"summary_min_runes"`

	ScaffoldMarkers ScaffoldMarkers `json:"scaffold_markers" yaml:"scaffold_markers"`

	// 分类关键词表
	LocationKeywords    []string `json:"location_keywords" yaml:"location_keywords"`
	RoleKeywords        []string `json:"role_keywords" yaml:"role_keywords"`
	InstitutionKeywords []string `json:"institution_keywords" yaml:"institution_keywords"`
	CredentialTokens    []string `json:"credential_tokens" yaml:"credential_tokens"`
}

// DefaultCanonicalSections 默认章节表
func DefaultCanonicalSections() []SectionPattern {
	return []SectionPattern{
		{Name: SectionSummary, Patterns: []string{
			`(professional |career |executive )?summary`, `objective`, `(professional )?profile`, `about( me)?`,
		}},
		{Name: SectionSkills, Patterns: []string{
			`(core )?(technical )?skills`, `core competencies`, `technical competencies`, `technologies`, `skills (and|&) tools`,
		}},
		{Name: SectionExperience, Patterns: []string{
			`(work |professional |project )?experience`, `employment( history)?`, `work history`,
		}},
		{Name: SectionEducation, Patterns: []string{
			`education`, `academic background`, `(academic )?qualifications`, `educational background`,
		}},
		{Name: SectionProjects, Patterns: []string{
			`(key |notable |personal )?projects`,
		}},
		{Name: SectionCertifications, Patterns: []string{
			`(professional )?certifications`, `certificates`, `credentials`, `licenses( (and|&) certifications)?`,
		}},
		{Name: SectionAchievements, Patterns: []string{
			`achievements`, `accomplishments`, `awards`, `honors`, `research interests`,
		}},
	}
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:       DefaultSimilarityThreshold,
		DetectRepeatedSubheadings: true,
		CanonicalSections:         DefaultCanonicalSections(),
		HeaderLineBudget:          DefaultHeaderLineBudget,
		MaxTitles:                 DefaultMaxTitles,
		SummaryMinRunes:           DefaultSummaryMinRunes,
		ScaffoldMarkers: ScaffoldMarkers{
			Leading: []string{
				"Here is the final, document-ready content",
				"that will generate perfect files:",
			},
			Trailing: []string{
				"This content is now perfectly structured",
				"Let me know if you would like",
			},
		},
		LocationKeywords:    []string{"nigeria", "abuja", "lagos", "remote", "usa", "united kingdom", "london", "new york", "san francisco"},
		RoleKeywords:        []string{"engineer", "developer", "analyst", "manager", "lead", "specialist", "director", "coordinator", "scientist", "consultant", "intern"},
		InstitutionKeywords: []string{"university", "college", "institute", "school", "bachelor", "master", "phd", "degree", "academy"},
		CredentialTokens:    []string{"Dr.", "MD", "PhD", "O.D", "Resume", "Curriculum Vitae", "CV"},
	}
}

// Validate 校验配置，所有问题以 *ConfigError 返回
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return newConfigError("similarity_threshold", fmt.Sprintf("必须在 0-100 之间，当前为 %d", c.SimilarityThreshold), nil)
	}
	if len(c.CanonicalSections) == 0 {
		return newConfigError("canonical_sections", "章节表不能为空", nil)
	}
	seen := make(map[string]struct{}, len(c.CanonicalSections))
	for i, sp := range c.CanonicalSections {
		name := strings.ToLower(strings.TrimSpace(sp.Name))
		if name == "" {
			return newConfigError("canonical_sections", fmt.Sprintf("第 %d 项缺少章节名", i), nil)
		}
		if name == SectionHeader || name == SectionOther {
			return newConfigError("canonical_sections", fmt.Sprintf("章节名 %q 为保留名", name), nil)
		}
		if _, dup := seen[name]; dup {
			return newConfigError("canonical_sections", fmt.Sprintf("章节名 %q 重复", name), nil)
		}
		seen[name] = struct{}{}
		if len(sp.Patterns) == 0 {
			return newConfigError("canonical_sections", fmt.Sprintf("章节 %q 没有任何标题模式", name), nil)
		}
		for _, p := range sp.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return newConfigError("canonical_sections", fmt.Sprintf("章节 %q 的模式 %q 无法编译", name, p), err)
			}
		}
	}
	if c.HeaderLineBudget < 0 {
		return newConfigError("header_line_budget", "不能为负数", nil)
	}
	if c.MaxTitles < 0 {
		return newConfigError("max_titles", "不能为负数", nil)
	}
	if c.SummaryMinRunes < 0 {
		return newConfigError("summary_min_runes", "不能为负数", nil)
	}
	for _, e := range c.TrackedEntities {
		if strings.TrimSpace(e) == "" {
			return newConfigError("tracked_entities", "实体名不能为空字符串", nil)
		}
	}
	return nil
}

// withDefaults 为零值字段补默认值。阈值 0 是合法取值，不在此补齐。
func (c Config) withDefaults() Config {
	if c.HeaderLineBudget == 0 {
		c.HeaderLineBudget = DefaultHeaderLineBudget
	}
	if c.MaxTitles == 0 {
		c.MaxTitles = DefaultMaxTitles
	}
	if c.SummaryMinRunes == 0 {
		c.SummaryMinRunes = DefaultSummaryMinRunes
	}
	return c
}
