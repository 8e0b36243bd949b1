package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/adventure-engine/internal/engine"
)

const plainWidth = 80

// runREPL reads one command per line until quit, death, EOF or interrupt.
// Failed turns are reported and the player may simply try again.
func runREPL(ctx context.Context, o *engine.Orchestrator, fresh bool, in io.Reader, out io.Writer) error {
	if fresh {
		result, err := o.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to play the opening turn: %w", err)
		}
		printResult(out, result)
	} else {
		printRecap(out, o.Session())
	}

	scanner := bufio.NewScanner(in)
	for !o.Session().Terminated() {
		fmt.Fprint(out, "\n:: ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}
		if msg, ok := shortcut(o.Session(), command); ok {
			fmt.Fprintf(out, "\n%s\n", wordwrap.String(msg, plainWidth))
			continue
		}
		result, err := o.Turn(ctx, command)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "Error: %v\nNothing changed. Try again.\n", err)
			continue
		}
		printResult(out, result)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// runSelfPlay lets the self player drive up to turns commands.
func runSelfPlay(ctx context.Context, o *engine.Orchestrator, p *engine.SelfPlayer, fresh bool, turns int, out io.Writer) error {
	if fresh {
		result, err := o.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to play the opening turn: %w", err)
		}
		printResult(out, result)
	}

	for i := 0; i < turns && !o.Session().Terminated(); i++ {
		if ctx.Err() != nil {
			return nil
		}
		command, err := p.Next(ctx, o.Session())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n:: %s\n", command)
		result, err := o.Turn(ctx, command)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		printResult(out, result)
	}

	if !o.Session().Terminated() {
		name, err := o.Save(ctx)
		if err != nil {
			return fmt.Errorf("failed to save self-play session: %w", err)
		}
		fmt.Fprintf(out, "\nGame saved as %s.\n", name)
	}
	return nil
}

// shortcut answers /look and /inventory from the current state.
func shortcut(s *engine.Session, input string) (string, bool) {
	if !strings.HasPrefix(input, "/") {
		return "", false
	}
	gs, err := s.Store.Snapshot()
	if err != nil {
		return err.Error(), true
	}
	return gs.TryShortcut(input)
}

func printResult(out io.Writer, r *engine.TurnResult) {
	if r.Narration != "" {
		fmt.Fprintf(out, "\n%s\n", wordwrap.String(r.Narration, plainWidth))
	}
	if r.Closing != "" {
		fmt.Fprintf(out, "\n%s\n", wordwrap.String(r.Closing, plainWidth))
	}
}

// printRecap replays the last narration of a resumed session.
func printRecap(out io.Writer, s *engine.Session) {
	last := s.History.Last(1)
	if len(last) == 0 {
		return
	}
	fmt.Fprintf(out, "Resuming %s.\n\n:: %s\n\n%s\n", s.Character.Name, last[0].Input, wordwrap.String(last[0].Output, plainWidth))
}
