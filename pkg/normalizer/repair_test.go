package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairArtifacts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"逗号后补空格", "Python,Java", "Python, Java"},
		{"句号后补空格", "development.Specializes", "development. Specializes"},
		{"竖线两侧补空格", "Engineer|555", "Engineer | 555"},
		{"连续竖线", "Go|Rust|Python", "Go | Rust | Python"},
		{"冒号后补空格", "Languages:Python", "Languages: Python"},
		{"数字与单词粘连", "5years", "5 years"},
		{"百分号后补空格", "40%improvement", "40% improvement"},
		{"序数词不拆分", "1st place, 2nd round", "1st place, 2nd round"},
		{"型号不拆分", "B2B sales and H2O", "B2B sales and H2O"},
		{"年份后粘连", "2019Present", "2019 Present"},
		{"缩写不受影响", "U.S.A and Dr. Jane", "U.S.A and Dr. Jane"},
		{"邮箱不受影响", "jane@x.com", "jane@x.com"},
		{"千分位不受影响", "2,000 users", "2,000 users"},
		{"合并连续空白", "Hello   world\t\tagain", "Hello world again"},
		{"统一换行符", "line one\r\nline two\rline three", "line one\nline two\nline three"},
		{"去除 emoji", "Launched 🚀 rocket ✅ done", "Launched rocket done"},
		{"NFC 规范化", "Cafe\u0301", "Caf\u00e9"},
		{"保留项目符号", "● NzubeCare — AI • Go", "● NzubeCare — AI • Go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepairArtifacts(tt.input))
		})
	}
}

// TestRepairArtifactsIdempotent 修复结果再次修复应保持不变
func TestRepairArtifactsIdempotent(t *testing.T) {
	inputs := []string{
		"Python,Java|Go",
		"a|b|c|d",
		"Built APIs.Led team of 5engineers with 40%growth",
		"Skills:Go,Rust  |  Docker",
		"📧 jane@x.com | 📱 +234 801 234 5678",
		"ES2015Modules and 3rdparty",
		"",
	}
	for _, in := range inputs {
		once := RepairArtifacts(in)
		assert.Equal(t, once, RepairArtifacts(once), "输入 %q 修复不幂等", in)
	}
}
