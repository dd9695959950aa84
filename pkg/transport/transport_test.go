package transport

import (
	"testing"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"text":           ModeText,
		"Image":          ModeImage,
		" video ":        ModeVideo,
		"research":       ModeResearch,
		"audio":          ModeAudio,
		"agent-creation": ModeAgentCreation,
		"agent_creation": ModeAgentCreation,
		"AgentCreation":  ModeAgentCreation,
		"agent":          ModeAgentCreation,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("telepathy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestModeTextRoundTrip(t *testing.T) {
	for _, m := range Modes() {
		b, err := m.MarshalText()
		require.NoError(t, err)
		var back Mode
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, m, back)
	}

	_, err := Mode(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "mode(42)", Mode(42).String())
}

func TestAugmentPrompt(t *testing.T) {
	atts := []conversation.Attachment{
		{ID: "a", Name: "report.pdf", Size: 1310720, Type: "application/pdf"},
		{ID: "b", Name: "cat.png", Size: 524288, Type: "image/png"},
	}
	assert.Equal(t,
		"summarize [FILE: report.pdf, 1.25MB, application/pdf] [FILE: cat.png, 0.50MB, image/png]",
		AugmentPrompt("summarize", atts))
	assert.Equal(t, "[FILE: cat.png, 0.50MB, image/png]", AugmentPrompt("", atts[1:]))
	assert.Equal(t, "hello", AugmentPrompt("hello", nil))
}
