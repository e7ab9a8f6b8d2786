// Package console is a terminal front end for an editor. It prints the tree
// as an outline and offers the structural edits each node allows.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goliatone/go-datatree/pkg/editor"
	"github.com/goliatone/go-datatree/pkg/mutation"
	"github.com/goliatone/go-datatree/pkg/tree"
)

// Action is one entry of the main menu.
type Action string

const (
	ActionAdd       Action = "Add item"
	ActionRemove    Action = "Remove item"
	ActionDuplicate Action = "Duplicate item"
	ActionToggle    Action = "Expand/collapse"
	ActionPage      Action = "Change page"
	ActionSave      Action = "Save"
	ActionQuit      Action = "Quit"
)

// Actions lists the main menu in display order.
var Actions = []Action{ActionAdd, ActionRemove, ActionDuplicate, ActionToggle, ActionPage, ActionSave, ActionQuit}

var directions = []tree.Direction{tree.DirectionNext, tree.DirectionPrev, tree.DirectionFirst, tree.DirectionLast}

// Option configures the console.
type Option func(*Console)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *Console) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithOutput sets where outlines are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Console) {
		if w != nil {
			c.out = w
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Console runs the interactive edit loop.
type Console struct {
	driver PromptDriver
	out    io.Writer
	logger *slog.Logger
}

// New constructs a console using the survey driver unless overridden.
func New(options ...Option) *Console {
	c := &Console{
		out:    os.Stdout,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.driver == nil {
		c.driver = NewSurveyDriver()
	}
	return c
}

// Run rebuilds and prints the tree after every action until the user saves or
// quits. It reports whether the user chose to save.
func (c *Console) Run(ctx context.Context, ed *editor.Editor) (bool, error) {
	if ctx == nil {
		return false, errors.New("console: context is required")
	}
	if ed == nil {
		return false, errors.New("console: editor is required")
	}

	labels := make([]string, len(Actions))
	for i, action := range Actions {
		labels[i] = string(action)
	}

	for {
		result, err := ed.Build(ctx)
		if err != nil {
			return false, err
		}
		if err := Outline(c.out, result); err != nil {
			return false, err
		}

		idx, err := c.driver.Select(ctx, SelectConfig{Message: "Action", Options: labels})
		if err != nil {
			return false, err
		}
		if idx < 0 || idx >= len(Actions) {
			return false, fmt.Errorf("console: invalid action index %d", idx)
		}

		action := Actions[idx]
		switch action {
		case ActionSave:
			return true, nil
		case ActionQuit:
			return false, nil
		}

		err = c.apply(ctx, ed, result, action)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoCandidates), mutation.IsValidation(err):
			c.logger.Info("datatree: console action skipped", "action", string(action), "error", err)
			if err := c.driver.Info(ctx, err.Error()); err != nil {
				return false, err
			}
		default:
			return false, err
		}
	}
}

func (c *Console) apply(ctx context.Context, ed *editor.Editor, result tree.Result, action Action) error {
	switch action {
	case ActionAdd:
		n, err := c.pick(ctx, result, "Add to", func(n *tree.Node) bool {
			return n.IsArray() && n.Affordances.Add
		})
		if err != nil {
			return err
		}
		_, err = ed.Add(ctx, n.LogicalPath, n.Ref)
		return err
	case ActionRemove:
		n, err := c.pick(ctx, result, "Remove", func(n *tree.Node) bool {
			return n.Affordances.Remove
		})
		if err != nil {
			return err
		}
		_, err = ed.Remove(ctx, n.LogicalPath)
		return err
	case ActionDuplicate:
		n, err := c.pick(ctx, result, "Duplicate", func(n *tree.Node) bool {
			return n.Affordances.Duplicate
		})
		if err != nil {
			return err
		}
		_, err = ed.Duplicate(ctx, n.LogicalPath)
		return err
	case ActionToggle:
		n, err := c.pick(ctx, result, "Toggle", func(n *tree.Node) bool {
			return n.Kind == tree.KindContainer && !n.Template
		})
		if err != nil {
			return err
		}
		ed.SetOpen(n.ID, !n.Open)
		return nil
	case ActionPage:
		n, err := c.pick(ctx, result, "Page through", func(n *tree.Node) bool {
			return n.Pagination != nil
		})
		if err != nil {
			return err
		}
		options := make([]string, len(directions))
		for i, dir := range directions {
			options[i] = dir.String()
		}
		idx, err := c.driver.Select(ctx, SelectConfig{Message: "Direction", Options: options})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(directions) {
			return fmt.Errorf("console: invalid direction index %d", idx)
		}
		_, err = ed.ChangePage(ctx, n.ID, directions[idx])
		return err
	default:
		return fmt.Errorf("console: unsupported action %q", action)
	}
}

// Candidates returns the nodes of result accepted by keep, depth first.
// Children of collapsed containers are not offered.
func Candidates(result tree.Result, keep func(*tree.Node) bool) []*tree.Node {
	var out []*tree.Node
	result.Walk(func(n *tree.Node) bool {
		if keep(n) {
			out = append(out, n)
		}
		return n.Kind != tree.KindContainer || n.Open
	})
	return out
}

func (c *Console) pick(ctx context.Context, result tree.Result, message string, keep func(*tree.Node) bool) (*tree.Node, error) {
	nodes := Candidates(result, keep)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCandidates, message)
	}
	options := make([]string, len(nodes))
	for i, n := range nodes {
		options[i] = Label(n)
	}
	idx, err := c.driver.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(nodes) {
		return nil, fmt.Errorf("console: invalid selection %d", idx)
	}
	return nodes[idx], nil
}
