package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/focusforge/internal/slot"
	"git.home.luguber.info/inful/focusforge/internal/storage"
	"git.home.luguber.info/inful/focusforge/internal/suite"
)

// LogCmd implements the 'log' command.
type LogCmd struct {
	Key string `arg:"" optional:"" help:"Slot or log key, e.g. suite.tasks; lists every stored key when omitted"`
}

func (c *LogCmd) Run(g *Global, root *CLI) error {
	if c.Key == "" {
		return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
			return c.list(ctx, g, bus.Store())
		})
	}
	if err := storage.ValidateKey(c.Key); err != nil {
		return err
	}
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		res := bus.Store().Lookup(ctx, c.Key)
		switch res.Status {
		case slot.Unavailable:
			return res.Err
		case slot.NotFound:
			_, _ = fmt.Fprintf(g.Out, "%s: %s\n", c.Key, res.Status)
			return nil
		case slot.Corrupted:
			_, _ = fmt.Fprintf(g.Out, "%s: %s (%v)\n%s\n", c.Key, res.Status, res.Err, res.Raw)
			return nil
		}

		var v any
		if err := json.Unmarshal(res.Raw, &v); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Out, "%s: %s\n", c.Key, res.Status)
		return g.printJSON(v)
	})
}

// list prints one stored key per line, with its last write time when the
// backend records one.
func (c *LogCmd) list(ctx context.Context, g *Global, store *slot.Store) error {
	keys, err := store.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if at, ok := store.UpdatedAt(ctx, key); ok {
			_, _ = fmt.Fprintf(g.Out, "%s\t%s\n", key, at.UTC().Format(time.RFC3339))
			continue
		}
		_, _ = fmt.Fprintln(g.Out, key)
	}
	return nil
}
