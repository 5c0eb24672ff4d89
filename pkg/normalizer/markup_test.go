package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMarkup(t *testing.T) {
	input := "## SKILLS\n**Languages:** Go, Python\n* Docker\n- Kubernetes\n+ Terraform\n▪ Helm\n•Kafka\n---\n### NzubeCare\n●  ResumeAI\n__Note__ text\n-\n"
	want := "## SKILLS\nLanguages: Go, Python\n• Docker\n• Kubernetes\n• Terraform\n• Helm\n• Kafka\n\n● NzubeCare\n● ResumeAI\nNote text\n-\n"

	got := NormalizeMarkup(input)
	assert.Equal(t, want, got)
	assert.Equal(t, got, NormalizeMarkup(got))
}
