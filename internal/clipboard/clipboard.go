package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var ErrToolNotFound = errors.New("clipboard tool not found")

// Writer is the clipboard backend. The zero value uses the system clipboard.
type Writer struct {
	Unsupported bool
	Write       func(string) error
}

func System() Writer {
	return Writer{Unsupported: clipboard.Unsupported, Write: clipboard.WriteAll}
}

func (w Writer) Copy(text string) error {
	if w.Write == nil {
		w = System()
	}
	if w.Unsupported {
		return ErrToolNotFound
	}
	if err := w.Write(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

func Copy(text string) error {
	return System().Copy(text)
}
