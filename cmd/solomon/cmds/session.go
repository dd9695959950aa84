package cmds

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/solomon/pkg/render"
	"github.com/go-go-golems/solomon/pkg/session"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/spf13/cobra"
)

func NewSendCommand() *cobra.Command {
	var (
		files []string
		mode  string
		html  bool
	)
	cmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send a message in the active conversation and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := transport.ParseMode(mode)
			if err != nil {
				return err
			}
			fs, err := loadFiles(files)
			if err != nil {
				return err
			}

			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)

			res, err := e.Send(cmd.Context(), session.SendRequest{
				Content: strings.Join(args, " "),
				Files:   fs,
				Mode:    m,
			})
			if err != nil {
				return err
			}
			if res.Skipped {
				return fmt.Errorf("nothing to send")
			}

			out := cmd.OutOrStdout()
			if html {
				r := render.RenderMessage(res.Reply)
				_, err = fmt.Fprintln(out, r.HTML)
				return err
			}
			_, err = fmt.Fprintln(out, res.Reply.Content)
			if err != nil {
				return err
			}
			for _, u := range []string{res.Reply.ImageURL, res.Reply.VideoURL, res.Reply.ThumbnailURL} {
				if u != "" {
					_, _ = fmt.Fprintln(out, u)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Attach a file (repeatable)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "text", "Generation mode (text, image, video, research, audio, agent-creation)")
	cmd.Flags().BoolVar(&html, "html", false, "Print the reply as sanitized HTML")
	return cmd
}

func NewNewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Archive the active conversation and start a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)
			e.StartNew(cmd.Context())
			return nil
		},
	}
}

func NewClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the active conversation without archiving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)
			e.Clear(cmd.Context())
			return nil
		},
	}
}
