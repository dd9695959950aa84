package cmds

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/go-go-golems/solomon/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage archived conversations",
	}
	cmd.AddCommand(buildGlazeCommand(NewHistoryListCommand()))
	cmd.AddCommand(newHistoryRemoveCommand())
	cmd.AddCommand(newHistoryRestoreCommand())
	cmd.AddCommand(newHistoryClearCommand())
	cmd.AddCommand(newHistoryAddCommand())
	return cmd
}

func title(c conversation.Conversation) string {
	for _, m := range c {
		if m.Sender == conversation.SenderUser && m.Content != "" {
			r := []rune(m.Content)
			if len(r) > 60 {
				return string(r[:60]) + "…"
			}
			return string(r)
		}
	}
	return "(no text)"
}

func indexArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one history index")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errors.Wrapf(err, "invalid history index %q", args[0])
	}
	return i, nil
}

func newHistoryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove INDEX",
		Short: "Remove an archived conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := indexArg(args)
			if err != nil {
				return err
			}
			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)
			return e.RemoveFromHistory(cmd.Context(), i)
		},
	}
}

func newHistoryRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore INDEX",
		Short: "Make an archived conversation the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := indexArg(args)
			if err != nil {
				return err
			}
			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)
			return e.RestoreIndex(cmd.Context(), i)
		},
	}
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every archived conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)
			e.ClearAllHistory(cmd.Context())
			return nil
		},
	}
}

func newHistoryAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add FILE",
		Short: "Archive a conversation read from a JSON file of messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var c conversation.Conversation
			if err := json.Unmarshal(b, &c); err != nil {
				return errors.Wrapf(err, "could not parse %s", args[0])
			}
			if c.IsEmpty() {
				return errors.New("conversation is empty")
			}

			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)
			e.AddToHistory(cmd.Context(), c)
			return nil
		},
	}
}
