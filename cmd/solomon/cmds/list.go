package cmds

import (
	"context"
	"time"

	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/go-go-golems/solomon/pkg/session"
	"github.com/spf13/cobra"
)

type historyEntry struct {
	Index    int
	Started  time.Time
	Messages int
	Title    string
}

func historyEntries(s session.Session) []historyEntry {
	ret := make([]historyEntry, 0, len(s.History))
	for i, c := range s.History {
		e := historyEntry{Index: i, Messages: len(c), Title: title(c)}
		if len(c) > 0 {
			e.Started = c[0].Timestamp
		}
		ret = append(ret, e)
	}
	return ret
}

type HistoryListCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*HistoryListCommand)(nil)

func NewHistoryListCommand() (*HistoryListCommand, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	return &HistoryListCommand{
		CommandDescription: cmds.NewCommandDescription(
			"list",
			cmds.WithShort("List archived conversations, most recent first"),
			cmds.WithLayersList(glazedParameterLayer),
		),
	}, nil
}

func (c *HistoryListCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	gp middlewares.Processor,
) error {
	e, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e)

	for _, h := range historyEntries(e.Snapshot()) {
		row := types.NewRow(
			types.MRP("index", h.Index),
			types.MRP("started", h.Started.Format("2006-01-02 15:04")),
			types.MRP("messages", h.Messages),
			types.MRP("title", h.Title),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

type modelEntry struct {
	ID      string
	Name    string
	Version string
	Current bool
}

func modelEntries(catalog session.Catalog, current string) []modelEntry {
	ret := make([]modelEntry, 0, len(catalog))
	for _, m := range catalog {
		ret = append(ret, modelEntry{ID: m.ID, Name: m.Name, Version: m.Version, Current: m.ID == current})
	}
	return ret
}

type ModelListCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*ModelListCommand)(nil)

func NewModelListCommand() (*ModelListCommand, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	return &ModelListCommand{
		CommandDescription: cmds.NewCommandDescription(
			"list",
			cmds.WithShort("List the available models"),
			cmds.WithLayersList(glazedParameterLayer),
		),
	}, nil
}

func (c *ModelListCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	gp middlewares.Processor,
) error {
	e, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e)

	for _, m := range modelEntries(e.Catalog(), e.Snapshot().CurrentModel.ID) {
		row := types.NewRow(
			types.MRP("id", m.ID),
			types.MRP("name", m.Name),
			types.MRP("version", m.Version),
			types.MRP("current", m.Current),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// buildGlazeCommand panics like cobra.CheckErr on a broken command description.
func buildGlazeCommand(c cmds.GlazeCommand, err error) *cobra.Command {
	cobra.CheckErr(err)
	cmd, err := cli.BuildCobraCommandFromGlazeCommand(c)
	cobra.CheckErr(err)
	return cmd
}
