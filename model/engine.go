package model

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/go-conway/rules"
)

// StartGeneration is the generation number of a freshly populated or reset grid.
const StartGeneration = 1

// FillMode selects how a grid is populated at the start of a run.
type FillMode string

const (
	FillDensity    FillMode = "density"
	FillFixedCount FillMode = "fixed_count"
)

// Valid reports whether m is a known fill mode
func (m FillMode) Valid() bool {
	return m == FillDensity || m == FillFixedCount
}

// Engine owns one simulation run: the live grid, the snapshot taken at
// population time, the generation counter and an incrementally maintained
// living count. All grid changes go through Engine methods so the count never
// drifts. An Engine is not safe for concurrent use.
type Engine struct {
	grid          *Grid
	initial       *Grid
	generation    int
	living        int
	initialLiving int

	fillMode    FillMode
	density     float64
	targetCount int

	rng        *rand.Rand
	workers    int
	pool       *GridPool
	conv       *ConvolutionCounter
	counts     []int
	history    []string
	historyLen int
}

// Option configures an Engine
type Option func(*Engine)

// WithSeed makes population deterministic
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, 0))
	}
}

// WithRand sets the random source used by the population strategies
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithWorkers splits Step into n row bands computed concurrently
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = max(1, n)
	}
}

// WithPool recycles step buffers through pool
func WithPool(pool *GridPool) Option {
	return func(e *Engine) {
		e.pool = pool
	}
}

// WithConvolution counts neighbors with an FFT convolution instead of the
// per-cell scan
func WithConvolution() Option {
	return func(e *Engine) {
		e.conv = NewConvolutionCounter(e.grid.size)
	}
}

// WithHistory keeps the hashes of the last n generations for IsStagnant
func WithHistory(n int) Option {
	return func(e *Engine) {
		e.historyLen = max(0, n)
	}
}

// NewEngine creates an engine with an empty size×size grid
func NewEngine(size int, opts ...Option) (*Engine, error) {
	if size < 1 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "[NewEngine] grid size %d must be at least 1", size)
	}
	e := &Engine{
		grid:       NewGrid(size),
		initial:    NewGrid(size),
		generation: StartGeneration,
		fillMode:   FillDensity,
		workers:    1,
		historyLen: 5,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e, nil
}

// Size returns the side length of the grid
func (e *Engine) Size() int { return e.grid.size }

// Generation returns the current generation number
func (e *Engine) Generation() int { return e.generation }

// LivingCount returns the number of living cells in the current grid
func (e *Engine) LivingCount() int { return e.living }

// InitialLivingCount returns the living count captured at population time
func (e *Engine) InitialLivingCount() int { return e.initialLiving }

// FillMode returns the strategy used by the last population
func (e *Engine) FillMode() FillMode { return e.fillMode }

// Density returns the density used by the last density population
func (e *Engine) Density() float64 { return e.density }

// TargetCount returns the cell count used by the last fixed-count population
func (e *Engine) TargetCount() int { return e.targetCount }

// Grid returns a copy of the current grid
func (e *Engine) Grid() *Grid { return e.grid.Clone() }

// InitialGrid returns a copy of the grid captured at population time
func (e *Engine) InitialGrid() *Grid { return e.initial.Clone() }

// Alive returns the state of a cell of the current grid
func (e *Engine) Alive(x, y int) (bool, error) {
	return e.grid.Get(x, y)
}

// CountLivingNeighbors returns the toroidal living-neighbor count of (x, y)
func (e *Engine) CountLivingNeighbors(x, y int) (int, error) {
	return e.grid.CountLivingNeighbors(x, y)
}

// PopulateByDensity fills a fresh grid where every cell is independently
// alive with probability density, and captures it as the initial snapshot.
func (e *Engine) PopulateByDensity(density float64) error {
	if !(density > 0 && density < 1) {
		return errors.Wrapf(ErrInvalidConfiguration, "[PopulateByDensity] density %v outside (0,1)", density)
	}

	e.grid.Clear()
	living := 0
	for i := range e.grid.cells {
		if e.rng.Float64() < density {
			e.grid.cells[i] = true
			living++
		}
	}

	e.fillMode = FillDensity
	e.density = density
	e.commitPopulation(living)
	return nil
}

// PopulateByCount fills a fresh grid with exactly target living cells placed
// uniformly at random without duplicates.
func (e *Engine) PopulateByCount(target int) error {
	size := e.grid.size
	if target < 1 || target > size*size {
		return errors.Wrapf(ErrInvalidConfiguration,
			"[PopulateByCount] target count %d outside [1,%d]", target, size*size)
	}

	e.grid.Clear()
	living := 0
	for living < target {
		idx := e.grid.index(e.rng.IntN(size), e.rng.IntN(size))
		if !e.grid.cells[idx] {
			e.grid.cells[idx] = true
			living++
		}
	}

	e.fillMode = FillFixedCount
	e.targetCount = target
	e.commitPopulation(living)
	return nil
}

func (e *Engine) commitPopulation(living int) {
	e.living = living
	e.initialLiving = living
	e.initial.CopyFrom(e.grid)
	e.generation = StartGeneration
	e.history = nil
}

// Step advances exactly one generation. Every next state is computed from the
// current grid into a separate buffer, which replaces the grid only once all
// cells are done.
func (e *Engine) Step() {
	var (
		cur  = e.grid
		next *Grid
	)
	if e.pool != nil {
		next = e.pool.Get(cur.size)
	} else {
		next = NewGrid(cur.size)
	}

	neighborsAt := cur.neighbors
	if e.conv != nil {
		e.counts = e.conv.Counts(cur, e.counts)
		neighborsAt = func(x, y int) int { return e.counts[cur.index(x, y)] }
	}
	delta, err := e.nextGeneration(cur, next, neighborsAt)
	if err != nil {
		// convolution rounding went wrong somewhere, redo the generation by direct count
		delta, _ = e.nextGeneration(cur, next, cur.neighbors)
	}

	e.recordHistory(cur)
	e.grid = next
	GridToPool(cur, e.pool)
	e.living += delta
	e.generation++
}

// nextGeneration writes the successor of cur into next using row bands and
// returns the change in living count. A neighbor count outside [0,8] fails the
// generation with ErrInvalidNeighborCount; next is then only partly written.
func (e *Engine) nextGeneration(cur, next *Grid, neighborsAt func(x, y int) int) (int, error) {
	var (
		eg            errgroup.Group
		size          = cur.size
		numWorkers    = min(e.workers, size)
		rowsPerWorker = (size + numWorkers - 1) / numWorkers // Ceiling division
		deltas        = make([]int, numWorkers)
	)

	for i := range numWorkers {
		var (
			startRow = i * rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, size)
		)
		if startRow >= size {
			break
		}

		eg.Go(func() error {
			delta := 0
			for y := startRow; y < endRow; y++ {
				for x := 0; x < size; x++ {
					idx := cur.index(x, y)
					n := neighborsAt(x, y)
					if n < 0 || n > 8 {
						return errors.Wrapf(ErrInvalidNeighborCount, "[nextGeneration] (%d,%d) has %d", x, y, n)
					}
					alive, change := rules.Transition(n, cur.cells[idx])
					next.cells[idx] = alive
					delta += change
				}
			}
			deltas[i] = delta
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, d := range deltas {
		total += d
	}
	return total, nil
}

// ToggleCell flips the state of (x, y)
func (e *Engine) ToggleCell(x, y int) error {
	if err := e.grid.checkBounds(x, y); err != nil {
		return errors.Wrap(err, "[ToggleCell]")
	}
	idx := e.grid.index(x, y)
	e.grid.cells[idx] = !e.grid.cells[idx]
	if e.grid.cells[idx] {
		e.living++
	} else {
		e.living--
	}
	return nil
}

// ResetToInitial restores the grid captured by the most recent population
func (e *Engine) ResetToInitial() {
	e.grid.CopyFrom(e.initial)
	e.living = e.grid.CountLivingCells()
	e.generation = StartGeneration
	e.history = nil
}

// StepToGeneration steps forward until target is reached. Targets at or
// behind the current generation leave the engine untouched.
func (e *Engine) StepToGeneration(target int) {
	for e.generation < target {
		e.Step()
	}
}

// SeekGeneration moves to any generation >= StartGeneration, replaying from
// the initial snapshot when target lies behind the current generation.
func (e *Engine) SeekGeneration(target int) error {
	if target < StartGeneration {
		return errors.Wrapf(ErrInvalidConfiguration,
			"[SeekGeneration] generation %d before start %d", target, StartGeneration)
	}
	if target < e.generation {
		e.ResetToInitial()
	}
	e.StepToGeneration(target)
	return nil
}

// recordHistory keeps the hash of a grid that is about to be replaced
func (e *Engine) recordHistory(g *Grid) {
	if e.historyLen == 0 {
		return
	}
	e.history = append(e.history, g.GetGridHash())

	if len(e.history) > e.historyLen {
		e.history = e.history[1:]
	}
}

// IsStagnant reports whether the grid is static or cycling with a period of
// at most three generations
func (e *Engine) IsStagnant() bool {
	if len(e.history) < 3 {
		return false
	}

	currentHash := e.grid.GetGridHash()
	for i := 1; i <= 3; i++ {
		if e.history[len(e.history)-i] == currentHash {
			return true
		}
	}
	return false
}
