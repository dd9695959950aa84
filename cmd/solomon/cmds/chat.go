package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/solomon/pkg/attachments"
	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/go-go-golems/solomon/pkg/events"
	"github.com/go-go-golems/solomon/pkg/session"
	"github.com/go-go-golems/solomon/pkg/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"
	"golang.org/x/sync/errgroup"
)

const chatHelp = `commands:
  /mode NAME     switch generation mode (text, image, video, research, audio, agent-creation)
  /attach PATH   attach a file to the next message
  /new           archive this conversation and start a new one
  /clear         drop this conversation
  /history       list archived conversations
  /restore N     restore archived conversation N
  /model [ID]    show or select the model
  /quit          leave`

// chatState is the REPL's own state between prompts.
type chatState struct {
	mode    transport.Mode
	pending []attachments.File
}

func NewChatCommand() *cobra.Command {
	var printEvents bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			router, err := events.NewEventRouter(
				events.WithLogger(events.NewWatermill(log.Logger)),
				events.WithOutput(cmd.ErrOrStderr()),
			)
			if err != nil {
				return err
			}
			defer func() {
				_ = router.Close()
			}()

			pm := events.NewPublisherManager()
			pm.SubscribePublisher(events.TopicSession, router.Publisher)

			errOut := cmd.ErrOrStderr()
			if printEvents {
				router.AddHandler("dump", events.TopicSession, router.DumpEvents)
			} else {
				router.AddHandler("status", events.TopicSession, func(msg *message.Message) error {
					ev, err := events.NewSessionEventFromJSON(msg.Payload)
					if err != nil {
						return nil
					}
					switch ev.Transition {
					case events.TransitionSendStarted:
						_, _ = fmt.Fprintln(errOut, "…")
					case events.TransitionSendFailed:
						_, _ = fmt.Fprintf(errOut, "(backend error: %s)\n", ev.Error)
					}
					return nil
				})
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return router.Run(ctx)
			})
			eg.Go(func() error {
				defer cancel()
				<-router.Running()

				e, _, err := openEngine(ctx, session.WithPublisher(pm))
				if err != nil {
					return err
				}
				defer closeEngine(e)

				ui := &input.UI{
					Writer: cmd.OutOrStdout(),
					Reader: cmd.InOrStdin(),
				}
				return chatLoop(ctx, e, ui, cmd.OutOrStdout())
			})

			err = eg.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&printEvents, "print-events", false, "Print every session event as JSON on stderr")
	return cmd
}

func chatLoop(ctx context.Context, e *session.Engine, ui *input.UI, out io.Writer) error {
	st := &chatState{mode: transport.ModeText}
	_, _ = fmt.Fprintf(out, "model: %s. /help for commands.\n", e.Snapshot().CurrentModel)

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := ui.Ask(fmt.Sprintf("[%s]", st.mode), &input.Options{
			HideOrder: true,
		})
		if err != nil {
			if errors.Is(err, input.ErrInterrupted) || errors.Is(err, io.EOF) || strings.Contains(err.Error(), "EOF") {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := chatCommand(ctx, e, st, line, out)
			if err != nil {
				_, _ = fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		res, err := e.Send(ctx, session.SendRequest{Content: line, Files: st.pending, Mode: st.mode})
		st.pending = nil
		if err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if res.Skipped {
			continue
		}
		printReply(out, res.Reply)
	}
}

func printReply(out io.Writer, m conversation.Message) {
	_, _ = fmt.Fprintf(out, "\n%s\n", terminalMarkdown(out, messageMarkdown(m), "dark"))
}

func chatCommand(ctx context.Context, e *session.Engine, st *chatState, line string, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		_, _ = fmt.Fprintln(out, chatHelp)
	case "/mode":
		m, err := transport.ParseMode(arg)
		if err != nil {
			return false, err
		}
		st.mode = m
	case "/attach":
		f, err := attachments.FromPath(os.ExpandEnv(arg))
		if err != nil {
			return false, err
		}
		st.pending = append(st.pending, f)
		_, _ = fmt.Fprintf(out, "attached %s\n", f.Name())
	case "/new":
		e.StartNew(ctx)
	case "/clear":
		e.Clear(ctx)
	case "/history":
		for _, h := range historyEntries(e.Snapshot()) {
			_, _ = fmt.Fprintf(out, "%3d  %s  %s\n", h.Index, h.Started.Format("01-02 15:04"), h.Title)
		}
	case "/restore":
		i, err := indexArg([]string{arg})
		if err != nil {
			return false, err
		}
		return false, e.RestoreIndex(ctx, i)
	case "/model":
		if arg == "" {
			_, _ = fmt.Fprintln(out, e.Snapshot().CurrentModel)
			return false, nil
		}
		return false, e.SetModel(ctx, arg)
	default:
		return false, errors.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}
