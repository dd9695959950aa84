package session

import (
	"encoding/json"
	"testing"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionEqual(t *testing.T, want, got Session) {
	t.Helper()
	assert.True(t, want.Messages.Equal(got.Messages), "messages differ")
	require.Len(t, got.History, len(want.History))
	for i := range want.History {
		assert.True(t, want.History[i].Equal(got.History[i]), "history %d differs", i)
	}
	assert.Equal(t, want.CurrentModel, got.CurrentModel)
	assert.Equal(t, want.UserProfile, got.UserProfile)
}

func TestRoundTrip(t *testing.T) {
	cat := DefaultCatalog()
	s := Default(cat)
	s.Messages = conv("live", 3)
	s.Messages[1].ImageURL = "https://img.example.com/a.png"
	s.Messages[0].Attachments = []conversation.Attachment{{ID: "a-1-2", Name: "a", Size: 1, Type: "text/plain"}}
	s.History = []conversation.Conversation{conv("h1", 2), conv("h2", 4)}
	s.CurrentModel, _ = cat.Lookup("grok-4")
	s.UserProfile.Name = "Minh"

	b, err := Encode(s)
	require.NoError(t, err)

	got, err := Decode(b, cat)
	require.NoError(t, err)
	sessionEqual(t, s, got)
}

func TestEncodedShape(t *testing.T) {
	s := Default(DefaultCatalog())
	m := conversation.NewUserMessage("hi", conversation.WithTime(t0))
	s.Messages = conversation.Conversation{m}

	b, err := Encode(s)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Contains(t, raw, "messages")
	assert.Contains(t, raw, "loading")
	assert.Contains(t, raw, "history")
	assert.Contains(t, raw, "currentModel")
	assert.Contains(t, raw, "userInfo")
	msgs := raw["messages"].([]interface{})
	assert.Equal(t, float64(t0.UnixMilli()), msgs[0].(map[string]interface{})["timestamp"])
	assert.Equal(t, []interface{}{}, raw["history"])
}

func TestDecodeRejectsBadDocuments(t *testing.T) {
	cat := DefaultCatalog()
	for name, doc := range map[string]string{
		"not json":        `{{{`,
		"messages scalar": `{"messages": 3, "loading": false, "history": []}`,
		"string time":     `{"messages": [{"id":"1","content":"x","sender":"user","timestamp":"yesterday"}], "loading": false, "history": []}`,
		"bad sender":      `{"messages": [{"id":"1","content":"x","sender":"robot","timestamp":1}], "loading": false, "history": []}`,
		"missing history": `{"messages": [], "loading": false}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc), cat)
			require.Error(t, err)
		})
	}
}

func TestDecodeNormalizes(t *testing.T) {
	doc := `{
		"messages": [{"id":"1","content":"x","sender":"assistant","timestamp":1700000000000,"attachments":[{"name":"broken"}]}],
		"loading": true,
		"history": [[], [{"id":"2","content":"y","sender":"user","timestamp":1}]],
		"currentModel": {"id":"retired-model","name":"Old","version":"1"},
		"extra": true
	}`
	s, err := Decode([]byte(doc), DefaultCatalog())
	require.NoError(t, err)
	assert.False(t, s.Loading)
	assert.Equal(t, conversation.SenderAssistant, s.Messages[0].Sender)
	assert.Len(t, s.Messages[0].Attachments, 1)
	require.Len(t, s.History, 1)
	assert.Equal(t, "gemini-3-flash", s.CurrentModel.ID)
	assert.Equal(t, DefaultProfileName, s.UserProfile.Name)
}

func TestSchema(t *testing.T) {
	b, err := Schema()
	require.NoError(t, err)
	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &schema))
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", schema["$schema"])
	props := schema["properties"].(map[string]interface{})
	assert.Contains(t, props, "messages")
	assert.Contains(t, props, "history")
}
