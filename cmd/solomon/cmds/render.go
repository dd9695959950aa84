package cmds

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/render"
	"github.com/go-go-golems/solomon/pkg/session"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func NewRenderCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "render [FILE]",
		Short: "Render raw model output to sanitized HTML",
		Long:  "Reads FILE, or stdin when no file is given, and prints the sanitized markup.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if len(args) == 1 {
				b, err = os.ReadFile(args[0])
			} else {
				b, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			res := render.RenderMessage(conversation.NewAssistantMessage(string(b)))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = fmt.Fprintln(out, res.HTML)
			if err != nil {
				return err
			}
			if res.Code != nil {
				_, err = fmt.Fprintf(out, "\n--- code (%s) ---\n%s\n", res.Code.Language, res.Code.Code)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full render result as JSON")
	return cmd
}

func transcriptMarkdown(s session.Session) string {
	var sb strings.Builder
	for _, m := range s.Messages {
		who := s.UserProfile.Name
		if m.Sender == conversation.SenderAssistant {
			who = s.CurrentModel.String()
		}
		fmt.Fprintf(&sb, "**%s** · %s\n\n", who, m.Timestamp.Format("15:04"))
		sb.WriteString(messageMarkdown(m))
		sb.WriteString("\n---\n\n")
	}
	return sb.String()
}

// messageMarkdown quotes the thinking section of assistant messages and lists
// attachments and media below the text.
func messageMarkdown(m conversation.Message) string {
	var sb strings.Builder
	th := render.ExtractThinking(m.Content)
	if m.Sender == conversation.SenderAssistant && th.HasThinking {
		for _, line := range strings.Split(th.Thinking, "\n") {
			fmt.Fprintf(&sb, "> %s\n", line)
		}
		sb.WriteString("\n")
		sb.WriteString(th.Response)
	} else {
		sb.WriteString(m.Content)
	}
	sb.WriteString("\n\n")
	for _, a := range m.Attachments {
		fmt.Fprintf(&sb, "- 📎 %s (%s)\n", a.Name, a.Type)
	}
	for _, u := range []string{m.ImageURL, m.VideoURL} {
		if u != "" {
			fmt.Fprintf(&sb, "- %s\n", u)
		}
	}
	return sb.String()
}

// terminalMarkdown styles md with glamour when w is a terminal.
func terminalMarkdown(w io.Writer, md string, style string) string {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return md
	}
	styled, err := glamour.Render(md, style)
	if err != nil {
		return md
	}
	return styled
}

func transcriptHTML(e *session.Engine) string {
	var sb strings.Builder
	s := e.Snapshot()
	for _, m := range s.Messages {
		res := render.RenderMessage(m)
		dir := "ltr"
		if res.RTL {
			dir = "rtl"
		}
		fmt.Fprintf(&sb, "<div class=\"message %s\" dir=\"%s\">\n", m.Sender, dir)
		if res.ThinkingHTML != "" {
			fmt.Fprintf(&sb, "<details class=\"thinking\">%s</details>\n", res.ThinkingHTML)
		}
		sb.WriteString(res.HTML)
		if res.Code != nil {
			fmt.Fprintf(&sb, "\n<pre><code class=\"language-%s\">%s</code></pre>", res.Code.Language, html.EscapeString(res.Code.Code))
		}
		if len(m.Attachments) > 0 {
			sb.WriteString("\n")
			sb.WriteString(render.PreviewsHTML(render.Previews(m.Attachments, e.Registry().URL)))
		}
		sb.WriteString("\n</div>\n")
	}
	return sb.String()
}

func NewShowCommand() *cobra.Command {
	var (
		asHTML bool
		style  string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)

			out := cmd.OutOrStdout()
			if asHTML {
				_, err = fmt.Fprint(out, transcriptHTML(e))
				return err
			}

			_, err = fmt.Fprint(out, terminalMarkdown(out, transcriptMarkdown(e.Snapshot()), style))
			return err
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print sanitized HTML instead of markdown")
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style used on terminals")
	return cmd
}

func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the persisted session document",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := session.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
