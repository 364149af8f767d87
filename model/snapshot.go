package model

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	livingRune = '#'
	deadRune   = '.'
)

// Snapshot is the persisted form of an Engine. Grids are stored as one string
// per row, '#' for a living cell and '.' for a dead one.
type Snapshot struct {
	Size               int      `json:"size"`
	Generation         int      `json:"generation"`
	LivingCount        int      `json:"living_count"`
	InitialLivingCount int      `json:"initial_living_count"`
	FillMode           FillMode `json:"fill_mode"`
	Density            float64  `json:"density,omitempty"`
	TargetCount        int      `json:"target_count,omitempty"`
	Grid               []string `json:"grid"`
	Initial            []string `json:"initial"`
}

// Snapshot captures every field needed to rebuild the engine
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Size:               e.grid.size,
		Generation:         e.generation,
		LivingCount:        e.living,
		InitialLivingCount: e.initialLiving,
		FillMode:           e.fillMode,
		Density:            e.density,
		TargetCount:        e.targetCount,
		Grid:               e.grid.Rows(),
		Initial:            e.initial.Rows(),
	}
}

// Rows renders the grid as one string per row
func (g *Grid) Rows() []string {
	rows := make([]string, g.size)
	var sb strings.Builder
	for y := range g.size {
		sb.Reset()
		for x := range g.size {
			if g.cells[g.index(x, y)] {
				sb.WriteByte(livingRune)
			} else {
				sb.WriteByte(deadRune)
			}
		}
		rows[y] = sb.String()
	}
	return rows
}

// ParseRows builds a size×size grid from the output of Rows
func ParseRows(size int, rows []string) (*Grid, error) {
	if size < 1 {
		return nil, errors.Wrapf(ErrMalformedState, "[ParseRows] grid size %d", size)
	}
	if len(rows) != size {
		return nil, errors.Wrapf(ErrMalformedState, "[ParseRows] %d rows, want %d", len(rows), size)
	}
	g := NewGrid(size)
	for y, row := range rows {
		if len(row) != size {
			return nil, errors.Wrapf(ErrMalformedState, "[ParseRows] row %d has %d cells, want %d", y, len(row), size)
		}
		for x := range size {
			switch row[x] {
			case livingRune:
				g.cells[g.index(x, y)] = true
			case deadRune:
			default:
				return nil, errors.Wrapf(ErrMalformedState, "[ParseRows] row %d col %d: unexpected %q", y, x, row[x])
			}
		}
	}
	return g, nil
}

// Restore rebuilds an engine from a snapshot. Options apply as in NewEngine;
// a snapshot whose shape or counts are inconsistent fails with
// ErrMalformedState.
func Restore(s Snapshot, opts ...Option) (*Engine, error) {
	grid, err := ParseRows(s.Size, s.Grid)
	if err != nil {
		return nil, errors.Wrap(err, "[Restore] grid")
	}
	initial, err := ParseRows(s.Size, s.Initial)
	if err != nil {
		return nil, errors.Wrap(err, "[Restore] initial")
	}
	if got := grid.CountLivingCells(); got != s.LivingCount {
		return nil, errors.Wrapf(ErrMalformedState, "[Restore] living count %d, grid holds %d", s.LivingCount, got)
	}
	if got := initial.CountLivingCells(); got != s.InitialLivingCount {
		return nil, errors.Wrapf(ErrMalformedState,
			"[Restore] initial living count %d, initial grid holds %d", s.InitialLivingCount, got)
	}
	if s.Generation < StartGeneration {
		return nil, errors.Wrapf(ErrMalformedState, "[Restore] generation %d before start %d", s.Generation, StartGeneration)
	}
	if !s.FillMode.Valid() {
		return nil, errors.Wrapf(ErrMalformedState, "[Restore] unknown fill mode %q", s.FillMode)
	}

	e, err := NewEngine(s.Size, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "[Restore]")
	}
	e.grid = grid
	e.initial = initial
	e.generation = s.Generation
	e.living = s.LivingCount
	e.initialLiving = s.InitialLivingCount
	e.fillMode = s.FillMode
	e.density = s.Density
	e.targetCount = s.TargetCount
	return e, nil
}
