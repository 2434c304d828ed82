package cli

import (
	"errors"
	"io"

	"github.com/manifoldco/promptui"
)

// Prompter asks the person at the terminal for input.
type Prompter interface {
	// Input asks for a line of text, pre-filled with dflt.
	Input(label, dflt string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(label string) (bool, error)
	// Select picks one of items, starting at cursor, and returns its index.
	Select(label string, items []string, cursor int) (int, error)
}

// Terminal is a Prompter backed by promptui. Nil streams mean the process
// stdin and stdout.
type Terminal struct {
	In  io.ReadCloser
	Out io.WriteCloser
}

var _ Prompter = (*Terminal)(nil)

func (t *Terminal) Input(label, dflt string) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   dflt,
		AllowEdit: true,
		Stdin:     t.In,
		Stdout:    t.Out,
	}

	return prompt.Run()
}

func (t *Terminal) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     t.In,
		Stdout:    t.Out,
	}

	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (t *Terminal) Select(label string, items []string, cursor int) (int, error) {
	sel := &promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: cursor,
		Size:      10, //nolint:mnd
		Searcher:  containsFold(items),
		Stdin:     t.In,
		Stdout:    t.Out,
	}

	idx, _, err := sel.Run()

	return idx, err
}

// IsInterrupt reports whether the person pressed Ctrl-C or Ctrl-D.
func IsInterrupt(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF)
}
