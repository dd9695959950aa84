package cmds

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/session"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/go-go-golems/solomon/pkg/transport/mock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T) *session.Engine {
	t.Helper()
	e, err := session.New(context.Background(), session.WithTransport(mock.New()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestChatCommands(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	st := &chatState{mode: transport.ModeText}
	var out bytes.Buffer

	quit, err := chatCommand(ctx, e, st, "/mode agent_creation", &out)
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, transport.ModeAgentCreation, st.mode)

	_, err = chatCommand(ctx, e, st, "/mode smell", &out)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err = chatCommand(ctx, e, st, "/attach "+path, &out)
	require.NoError(t, err)
	require.Len(t, st.pending, 1)

	_, err = chatCommand(ctx, e, st, "/model gpt-5", &out)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", e.Snapshot().CurrentModel.ID)

	e.AddToHistory(ctx, conversation.Conversation{conversation.NewUserMessage("archived question")})
	out.Reset()
	_, err = chatCommand(ctx, e, st, "/history", &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "archived question")

	_, err = chatCommand(ctx, e, st, "/restore 0", &out)
	require.NoError(t, err)
	assert.Len(t, e.Snapshot().Messages, 1)

	_, err = chatCommand(ctx, e, st, "/bogus", &out)
	require.Error(t, err)

	quit, err = chatCommand(ctx, e, st, "/quit", &out)
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestTranscriptMarkdown(t *testing.T) {
	s := session.Default(session.DefaultCatalog())
	s.Messages = conversation.Conversation{
		conversation.NewUserMessage("what is 2+2?", conversation.WithAttachments(conversation.Attachment{ID: "a", Name: "a.png", Size: 1, Type: "image/png"})),
		conversation.NewAssistantMessage("<thinking>add them</thinking>It is 4."),
	}
	md := transcriptMarkdown(s)
	assert.Contains(t, md, "**TM**")
	assert.Contains(t, md, "> add them")
	assert.Contains(t, md, "It is 4.")
	assert.Contains(t, md, "a.png (image/png)")
	assert.NotContains(t, md, "<thinking>")
}

func TestPrintReplyFormatsThinking(t *testing.T) {
	var out bytes.Buffer
	reply := conversation.NewAssistantMessage("<thinking>\ncheck units\n</thinking>\nThe answer is **4**.")
	reply.ImageURL = "https://example.com/a.png"
	printReply(&out, reply)

	s := out.String()
	assert.Contains(t, s, "> check units")
	assert.Contains(t, s, "The answer is **4**.")
	assert.Contains(t, s, "- https://example.com/a.png")
	assert.NotContains(t, s, "<thinking>")
	assert.NotContains(t, s, "</thinking>")
}

func TestHistoryEntries(t *testing.T) {
	s := session.Default(session.DefaultCatalog())
	first := conversation.NewUserMessage("newest question")
	s.History = []conversation.Conversation{
		{first, conversation.NewAssistantMessage("answer")},
		{conversation.NewUserMessage("older question")},
	}

	entries := historyEntries(s)
	require.Len(t, entries, 2)
	assert.Equal(t, historyEntry{Index: 0, Started: first.Timestamp, Messages: 2, Title: "newest question"}, entries[0])
	assert.Equal(t, 1, entries[1].Index)
	assert.Equal(t, "older question", entries[1].Title)
}

func TestModelEntriesMarkCurrent(t *testing.T) {
	catalog := session.DefaultCatalog()
	entries := modelEntries(catalog, "gpt-5")
	require.Len(t, entries, len(catalog))

	current := 0
	for _, m := range entries {
		if m.Current {
			current++
			assert.Equal(t, "gpt-5", m.ID)
			assert.Equal(t, "GPT", m.Name)
		}
	}
	assert.Equal(t, 1, current)
}

func TestListCommandsAreGlazed(t *testing.T) {
	history := NewHistoryCommand()
	list, _, err := history.Find([]string{"list"})
	require.NoError(t, err)
	assert.Equal(t, "list", list.Name())
	assert.True(t, hasFlag(list, "output"))

	model := NewModelCommand()
	list, _, err = model.Find([]string{"list"})
	require.NoError(t, err)
	assert.True(t, hasFlag(list, "output"))
}

func hasFlag(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Lookup(name) != nil || cmd.PersistentFlags().Lookup(name) != nil
}

func TestTitle(t *testing.T) {
	long := conversation.Conversation{conversation.NewUserMessage(string(bytes.Repeat([]byte("x"), 100)))}
	assert.Len(t, []rune(title(long)), 61)
	assert.Equal(t, "(no text)", title(conversation.Conversation{conversation.NewAssistantMessage("hi")}))
}
