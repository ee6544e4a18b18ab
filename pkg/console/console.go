// Package console drives a wizard conversation as a line-oriented prompt,
// for terminals where the full-screen interface is unavailable.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ormasoftchile/guildwiz/pkg/config"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// LineReader is the subset of *readline.Instance the console uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// errQuit ends input collection and cancels the conversation.
var errQuit = errors.New("quit")

// errBack asks for the previous step.
var errBack = errors.New("back")

// Console renders prompts as text and reads answers line by line.
type Console struct {
	out       io.Writer
	rl        LineReader
	resources config.Resources

	pending *wizard.Prompt
	result  wizard.Record
	reason  error
}

// New creates a console writing to stdout with a readline editor on stdin.
func New(resources config.Resources) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	return NewWithReader(rl, os.Stdout, resources), nil
}

// NewWithReader creates a console over an arbitrary line source.
func NewWithReader(rl LineReader, out io.Writer, resources config.Resources) *Console {
	return &Console{out: out, rl: rl, resources: resources}
}

func completer() *readline.PrefixCompleter {
	c := readline.NewPrefixCompleter()
	for _, cmd := range []string{":back", ":answers", ":help", ":quit"} {
		c.Children = append(c.Children, readline.PcItem(cmd))
	}
	return c
}

// Renderer returns the renderer to configure the wizard with.
func (c *Console) Renderer() wizard.Renderer {
	return wizard.Funcs{
		Prompt: func(_ context.Context, p *wizard.Prompt) error {
			c.pending = p
			return nil
		},
		Done: func(_ context.Context, rec wizard.Record) error {
			c.result = rec
			fmt.Fprintf(c.out, "\n✓ saved %d settings\n", len(rec))
			return nil
		},
		Abandoned: func(_ context.Context, reason error) error {
			c.reason = reason
			fmt.Fprintf(c.out, "\n✗ nothing saved: %v\n", reason)
			return nil
		},
	}
}

// Result returns the compiled record once the conversation completed.
func (c *Console) Result() wizard.Record { return c.result }

// Run starts w and feeds it one callback per prompt until it ends.
func (c *Console) Run(ctx context.Context, w *wizard.Wizard) error {
	defer c.rl.Close()

	fmt.Fprintf(c.out, "guildwiz: configuring %s for guild %s\n", w.Feature(), w.GuildID())
	fmt.Fprintf(c.out, "Type ':help' for commands.\n")
	if err := w.Start(ctx); err != nil {
		return err
	}

	for !w.Phase().Terminal() {
		p := c.pending
		if p == nil {
			return errors.New("console: no prompt to answer")
		}
		c.pending = nil
		c.show(p)

		cb, err := c.collect(p, w)
		switch {
		case errors.Is(err, errQuit):
			cb = wizard.Callback{Action: wizard.ActionCancel}
		case errors.Is(err, errBack):
			cb = wizard.Callback{Action: wizard.ActionBack, StepKey: p.StepKey}
		case err != nil:
			return err
		}
		if err := w.Handle(ctx, cb); err != nil {
			return err
		}
	}
	return nil
}

// show prints the header and body of a prompt.
func (c *Console) show(p *wizard.Prompt) {
	fmt.Fprintln(c.out)
	header := p.Title
	if p.Path != "" {
		header = fmt.Sprintf("%s  (%s)", header, p.Path)
	}
	fmt.Fprintf(c.out, "[%d/%d] %s\n", p.Index+1, p.Total, header)
	if p.Description != "" {
		fmt.Fprintf(c.out, "  %s\n", p.Description)
	}
}

// readLine reads one line and interprets console commands. Commands that do
// not end input are handled in place and the read is repeated.
func (c *Console) readLine(prompt string, w *wizard.Wizard, canGoBack bool) (string, error) {
	for {
		c.rl.SetPrompt(prompt)
		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return "", errQuit
			}
			return "", err
		}
		line = strings.TrimSpace(line)
		switch line {
		case ":quit", ":q":
			return "", errQuit
		case ":back", ":b":
			if !canGoBack {
				fmt.Fprintf(c.out, "  already at the first step\n")
				continue
			}
			return "", errBack
		case ":answers", ":a":
			c.printAnswers(w.Answers())
			continue
		case ":help", ":?":
			c.printHelp()
			continue
		}
		return line, nil
	}
}

func (c *Console) printAnswers(answers []wizard.Answer) {
	if len(answers) == 0 {
		fmt.Fprintf(c.out, "  no answers yet\n")
		return
	}
	for _, a := range answers {
		fmt.Fprintf(c.out, "  %s = %s\n", a.Key, a.Display)
	}
}

func (c *Console) printHelp() {
	fmt.Fprintf(c.out, `Commands:
  :back     return to the previous step
  :answers  list the answers given so far
  :help     show this help
  :quit     cancel without saving
`)
}
