package model

import (
	"bufio"
	"fmt"
	"io"
)

const (
	gridPosBlock = "██"
	gridPosEmpty = "  "

	ansiClear = "\033[H\033[2J"
)

// TerminalRenderer draws grids as text, two columns per cell
type TerminalRenderer struct {
	Out io.Writer
}

// Display renders the grid followed by a status line
func (r *TerminalRenderer) Display(g *Grid, generation, living int) error {
	w := bufio.NewWriter(r.Out)
	g.ForEach(func(x, y int, living bool) {
		if living {
			w.WriteString(gridPosBlock)
		} else {
			w.WriteString(gridPosEmpty)
		}
		if x == g.size-1 {
			w.WriteByte('\n')
		}
	})
	fmt.Fprintf(w, "Gen: %d | Living: %d\n", generation, living)
	return w.Flush()
}

// Clear clears the terminal screen
func (r *TerminalRenderer) Clear() error {
	_, err := io.WriteString(r.Out, ansiClear)
	return err
}
