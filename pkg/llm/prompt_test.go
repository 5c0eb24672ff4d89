package llm

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		in      string
		want    Tone
		wantErr bool
	}{
		{"", ToneProfessional, false},
		{"Confident", ToneConfident, false},
		{" friendly ", ToneFriendly, false},
		{"sarcastic", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTone(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestTailorPromptMessages(t *testing.T) {
	p := TailorPrompt{
		Resume:         "Jane Doe\nAI Engineer",
		JobDescription: "We need a Go engineer with Kafka experience.",
		Tone:           ToneConfident,
		FocusAreas:     []string{"Leadership", " ", "leadership", "Technical Skills"},
	}

	msgs, err := p.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, SystemPrompt, msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)

	user := msgs[1].Content
	assert.Contains(t, user, "Use a confident tone throughout")
	assert.Contains(t, user, "Pay special attention to highlighting: Leadership, Technical Skills")
	assert.Contains(t, user, "JOB DESCRIPTION:\nWe need a Go engineer with Kafka experience.")
	assert.Contains(t, user, "ORIGINAL RESUME:\nJane Doe\nAI Engineer")
}

func TestTailorPromptWithoutFocus(t *testing.T) {
	p := TailorPrompt{Resume: "r", JobDescription: "jd"}
	user := p.UserPrompt()
	assert.Contains(t, user, "Use a professional tone throughout")
	assert.NotContains(t, user, "Pay special attention")
}

func TestTailorPromptValidate(t *testing.T) {
	_, err := TailorPrompt{JobDescription: "jd"}.Messages()
	assert.ErrorIs(t, err, ErrEmptyResume)

	_, err = TailorPrompt{Resume: "r", JobDescription: "  "}.Messages()
	assert.ErrorIs(t, err, ErrEmptyJobDescription)
}

func TestSplitFocusAreas(t *testing.T) {
	assert.Equal(t, []string{"Leadership", "Innovation"}, SplitFocusAreas("Leadership, ,Innovation,leadership"))
	assert.Empty(t, SplitFocusAreas(""))
}
