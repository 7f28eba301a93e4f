package commands

import (
	"context"
	"strings"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/suite"
)

// IntentionCmd implements the 'intention' commands.
type IntentionCmd struct {
	Set  IntentionSetCmd  `cmd:"" help:"Set the current intention"`
	Get  IntentionGetCmd  `cmd:"" help:"Show the current intention"`
	List IntentionListCmd `cmd:"" help:"List every intention"`
}

type IntentionSetCmd struct {
	Text []string          `arg:"" help:"Intention text"`
	Meta map[string]string `help:"Metadata as key=value" mapsep:","`
}

func (c *IntentionSetCmd) Run(g *Global, root *CLI) error {
	text := strings.TrimSpace(strings.Join(c.Text, " "))
	if text == "" {
		return ferrors.ValidationError("intention text is empty").Build()
	}
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.SetCurrentIntention(ctx, text, metaFrom(c.Meta)))
	})
}

type IntentionGetCmd struct{}

func (c *IntentionGetCmd) Run(g *Global, root *CLI) error {
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		current := bus.GetCurrentIntention(ctx)
		if current == nil {
			return ferrors.NotFoundError("no current intention").WithContext("key", suite.KeyCurrentIntention).Build()
		}
		return g.printJSON(current)
	})
}

type IntentionListCmd struct{}

func (c *IntentionListCmd) Run(g *Global, root *CLI) error {
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.Intentions(ctx))
	})
}

// TaskCmd implements the 'task' commands.
type TaskCmd struct {
	Add  TaskAddCmd  `cmd:"" help:"Append a task to the shared task log"`
	List TaskListCmd `cmd:"" help:"List shared tasks"`
}

type TaskAddCmd struct {
	Title    []string `arg:"" help:"Task title"`
	Estimate int      `short:"e" help:"Estimate in sessions"`
	Source   string   `help:"Source application (defaults to the configured source)"`
}

func (c *TaskAddCmd) Run(g *Global, root *CLI) error {
	title := strings.TrimSpace(strings.Join(c.Title, " "))
	if title == "" {
		return ferrors.ValidationError("task title is empty").Build()
	}
	if c.Estimate < 0 {
		return ferrors.ValidationError("estimate must not be negative").WithContext("estimate", c.Estimate).Build()
	}
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.AddTask(ctx, suite.Task{Title: title, Estimate: c.Estimate, Source: c.Source}))
	})
}

type TaskListCmd struct{}

func (c *TaskListCmd) Run(g *Global, root *CLI) error {
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.Tasks(ctx))
	})
}

// OutcomeCmd implements the 'outcome' commands.
type OutcomeCmd struct {
	Add  OutcomeAddCmd  `cmd:"" help:"Record a task outcome"`
	List OutcomeListCmd `cmd:"" help:"List task outcomes"`
}

type OutcomeAddCmd struct {
	Title    []string `arg:"" help:"Task title"`
	Success  bool     `help:"Mark the task as successful" negatable:""`
	Duration int      `short:"d" help:"Duration in minutes"`
	Notes    string   `help:"Free-form notes"`
}

func (c *OutcomeAddCmd) Run(g *Global, root *CLI) error {
	title := strings.TrimSpace(strings.Join(c.Title, " "))
	if title == "" {
		return ferrors.ValidationError("outcome title is empty").Build()
	}
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.AddTaskOutcome(ctx, suite.TaskOutcome{
			Title:    title,
			Success:  c.Success,
			Duration: c.Duration,
			Notes:    c.Notes,
		}))
	})
}

type OutcomeListCmd struct{}

func (c *OutcomeListCmd) Run(g *Global, root *CLI) error {
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.TaskOutcomes(ctx))
	})
}

// JournalCmd implements the 'journal' commands.
type JournalCmd struct {
	Add  JournalAddCmd  `cmd:"" help:"Append a journal entry"`
	List JournalListCmd `cmd:"" help:"List journal entries"`
}

type JournalAddCmd struct {
	Fields []string `arg:"" help:"Entry fields as key=value"`
}

func (c *JournalAddCmd) Run(g *Global, root *CLI) error {
	fields, err := parsePairs(c.Fields)
	if err != nil {
		return err
	}
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.AddJournal(ctx, suite.Journal(fields)))
	})
}

type JournalListCmd struct{}

func (c *JournalListCmd) Run(g *Global, root *CLI) error {
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.Journals(ctx))
	})
}

// InsightCmd implements the 'insight' commands.
type InsightCmd struct {
	Add  InsightAddCmd  `cmd:"" help:"Append an insight"`
	List InsightListCmd `cmd:"" help:"List insights"`
}

type InsightAddCmd struct {
	Content []string          `arg:"" help:"Insight text"`
	Meta    map[string]string `help:"Metadata as key=value" mapsep:","`
}

func (c *InsightAddCmd) Run(g *Global, root *CLI) error {
	content := strings.TrimSpace(strings.Join(c.Content, " "))
	if content == "" {
		return ferrors.ValidationError("insight is empty").Build()
	}
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.AddInsight(ctx, content, metaFrom(c.Meta)))
	})
}

type InsightListCmd struct{}

func (c *InsightListCmd) Run(g *Global, root *CLI) error {
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.Insights(ctx))
	})
}

// RitualCmd implements the 'ritual' commands.
type RitualCmd struct {
	Set RitualSetCmd `cmd:"" help:"Suggest a ritual"`
	Get RitualGetCmd `cmd:"" help:"Show the suggested ritual"`
}

type RitualSetCmd struct {
	ID     string   `arg:"" help:"Ritual identifier"`
	Reason []string `arg:"" optional:"" help:"Why the ritual is suggested"`
}

func (c *RitualSetCmd) Run(g *Global, root *CLI) error {
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		return g.printJSON(bus.SetSuggestedRitual(ctx, c.ID, strings.Join(c.Reason, " ")))
	})
}

type RitualGetCmd struct{}

func (c *RitualGetCmd) Run(g *Global, root *CLI) error {
	return g.withBus(root, func(ctx context.Context, bus *suite.Bus) error {
		ritual := bus.GetSuggestedRitual(ctx)
		if ritual == nil {
			return ferrors.NotFoundError("no suggested ritual").WithContext("key", suite.KeySuggestedRitual).Build()
		}
		return g.printJSON(ritual)
	})
}
