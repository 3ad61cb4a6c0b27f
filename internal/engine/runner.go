package engine

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Confirmer answers confirmations when no UI is around to present them.
type Confirmer interface {
	Confirm(ctx context.Context, c *Confirmation) (bool, error)
}

type ConfirmFunc func(ctx context.Context, c *Confirmation) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, c *Confirmation) (bool, error) {
	return f(ctx, c)
}

// AlwaysConfirm approves every confirmation.
var AlwaysConfirm = ConfirmFunc(func(context.Context, *Confirmation) (bool, error) { return true, nil })

// Runner drives an Engine without a terminal. Commands run concurrently; the
// messages they yield are applied one at a time on the goroutine calling Run.
type Runner struct {
	engine  *Engine
	confirm Confirmer
}

func NewRunner(e *Engine, c Confirmer) *Runner {
	if c == nil {
		c = ConfirmFunc(func(context.Context, *Confirmation) (bool, error) { return false, nil })
	}
	return &Runner{engine: e, confirm: c}
}

// Run executes cmds and every follow-up command until none is left, or until ctx
// ends.
func (r *Runner) Run(ctx context.Context, cmds ...tea.Cmd) error {
	done := make(chan struct{})
	defer close(done)
	msgs := make(chan tea.Msg)
	inflight := 0

	start := func(cmd tea.Cmd) {
		if cmd == nil {
			return
		}
		inflight++
		go func() {
			msg := cmd()
			select {
			case msgs <- msg:
			case <-done:
			}
		}()
	}
	for _, cmd := range cmds {
		start(cmd)
	}

	for inflight > 0 {
		var msg tea.Msg
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg = <-msgs:
			inflight--
		}

		switch msg := msg.(type) {
		case nil:
		case tea.BatchMsg:
			for _, cmd := range msg {
				start(cmd)
			}
		case ConfirmMsg:
			ok, err := r.confirm.Confirm(ctx, msg.Confirmation)
			if err != nil {
				return fmt.Errorf("confirm: %w", err)
			}
			start(msg.Confirmation.Resolve(ok))
		default:
			start(r.engine.Update(msg))
		}
	}
	return nil
}
