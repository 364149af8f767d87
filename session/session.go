// Package session drives one engine from UI commands. A Session is owned by a
// single goroutine: Run serialises commands and timer ticks, so the engine is
// never touched concurrently.
package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-conway/export"
	"github.com/sheikhrachel/go-conway/model"
	"github.com/sheikhrachel/go-conway/utils"
)

var (
	// ErrNotSimulating is returned for simulation commands issued before a run starts.
	ErrNotSimulating = errors.New("no simulation running")
	// ErrNoStore is returned for save and load commands when no Saver is configured.
	ErrNoStore = errors.New("no save store configured")
)

// State is the screen the session is on
type State int

const (
	Configuring State = iota
	Simulating
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Simulating:
		return "simulating"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Saver persists snapshots; *store.Store implements it
type Saver interface {
	Save(ctx context.Context, name string, snap model.Snapshot) (int64, error)
	Load(ctx context.Context, id int64) (model.Snapshot, error)
}

// View is what a front end needs to draw the session
type View struct {
	State         State
	Playing       bool
	Stagnant      bool
	Grid          *model.Grid // nil until the first run starts
	Generation    int
	LivingCount   int
	MaxGeneration int
	Size          int
	FillMode      model.FillMode
	Density       float64
	TargetCount   int
	Stats         utils.Stats
	Message       string
}

// Session holds the settings, the engine of the current run and the play flag
type Session struct {
	cfg      utils.Config
	state    State
	engine   *model.Engine
	playing  bool
	saver    Saver
	stats    *utils.Stats
	logger   *log.Logger
	onChange func(View)
	lastStep time.Time
	message  string
}

// Option configures a Session
type Option func(*Session)

// WithSaver enables the Save and Load commands
func WithSaver(saver Saver) Option {
	return func(s *Session) { s.saver = saver }
}

// WithLogger sets the logger used for command failures and run events
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnChange registers a callback invoked by Run after every change
func WithOnChange(fn func(View)) Option {
	return func(s *Session) { s.onChange = fn }
}

// New creates a session in the Configuring state
func New(cfg utils.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "[session.New]")
	}
	cfg.TargetCount = min(cfg.TargetCount, cfg.Size*cfg.Size)
	s := &Session{
		cfg:    cfg,
		state:  Configuring,
		stats:  utils.NewStats(),
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State returns the current screen
func (s *Session) State() State { return s.state }

// Playing reports whether ticks advance the simulation
func (s *Session) Playing() bool { return s.playing }

// Engine returns the engine of the current run, nil before the first start
func (s *Session) Engine() *model.Engine { return s.engine }

// Config returns the current settings
func (s *Session) Config() utils.Config { return s.cfg }

// View captures the session for drawing
func (s *Session) View() View {
	v := View{
		State:         s.state,
		Playing:       s.playing,
		MaxGeneration: s.cfg.MaxGeneration,
		Size:          s.cfg.Size,
		FillMode:      s.cfg.FillMode,
		Density:       s.cfg.Density,
		TargetCount:   s.cfg.TargetCount,
		Stats:         *s.stats,
		Message:       s.message,
	}
	if s.engine != nil {
		v.Grid = s.engine.Grid()
		v.Generation = s.engine.Generation()
		v.LivingCount = s.engine.LivingCount()
		v.Stagnant = s.engine.IsStagnant()
	}
	return v
}

// Handle applies one command synchronously
func (s *Session) Handle(ctx context.Context, cmd Command) error {
	s.message = ""
	if err := cmd.apply(ctx, s); err != nil {
		s.message = err.Error()
		return err
	}
	return nil
}

// Tick advances one generation when playing and reports whether anything
// changed. Playing stops at the last generation, and on extinction or
// stagnation when auto pause is on.
func (s *Session) Tick() bool {
	if !s.playing || s.state != Simulating || s.engine == nil {
		return false
	}
	if s.engine.Generation() >= s.cfg.MaxGeneration {
		s.playing = false
		return true
	}

	s.step()

	switch {
	case s.engine.Generation() >= s.cfg.MaxGeneration:
		s.playing = false
		s.message = fmt.Sprintf("reached generation %d", s.cfg.MaxGeneration)
	case s.cfg.AutoPause && s.engine.LivingCount() == 0:
		s.playing = false
		s.message = "extinct"
	case s.cfg.AutoPause && s.engine.IsStagnant():
		s.playing = false
		s.message = fmt.Sprintf("stagnant at generation %d", s.engine.Generation())
	}
	if !s.playing {
		s.logger.Printf("paused: %s", s.message)
	}
	return true
}

// Run serves commands and ticks until ctx is cancelled or cmds is closed.
// Failed commands are logged and reported through the view message.
func (s *Session) Run(ctx context.Context, cmds <-chan Command) error {
	ticker := time.NewTicker(s.cfg.FrameRate)
	defer ticker.Stop()

	s.notify()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, cmd); err != nil {
				s.logger.Printf("command %T failed: %v", cmd, err)
			}
			s.notify()
		case <-ticker.C:
			if s.Tick() {
				s.notify()
			}
		}
	}
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange(s.View())
	}
}

func (s *Session) step() {
	s.engine.Step()
	now := time.Now()
	var d time.Duration
	if !s.lastStep.IsZero() {
		d = now.Sub(s.lastStep)
	}
	s.lastStep = now
	s.stats.Update(s.engine.Generation(), s.engine.LivingCount(), d)
}

func (s *Session) requireEngine() error {
	if s.state != Simulating || s.engine == nil {
		return ErrNotSimulating
	}
	return nil
}

// start builds a fresh engine from the current settings
func (s *Session) start() error {
	engine, err := model.NewEngine(s.cfg.Size, s.cfg.EngineOptions()...)
	if err != nil {
		return errors.Wrap(err, "[start]")
	}
	switch s.cfg.FillMode {
	case model.FillDensity:
		err = engine.PopulateByDensity(s.cfg.Density)
	case model.FillFixedCount:
		err = engine.PopulateByCount(s.cfg.TargetCount)
	default:
		err = errors.Wrapf(model.ErrInvalidConfiguration, "unknown fill mode %q", s.cfg.FillMode)
	}
	if err != nil {
		return errors.Wrap(err, "[start]")
	}
	s.adopt(engine)
	s.logger.Printf("started %dx%d run, %s fill, %d living", s.cfg.Size, s.cfg.Size, s.cfg.FillMode, engine.LivingCount())
	return nil
}

func (s *Session) adopt(engine *model.Engine) {
	s.engine = engine
	s.state = Simulating
	s.playing = false
	s.lastStep = time.Time{}
	s.stats.Reset()
}

func (s *Session) load(ctx context.Context, id int64) error {
	if s.saver == nil {
		return ErrNoStore
	}
	snap, err := s.saver.Load(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "[load] save %d", id)
	}
	engine, err := model.Restore(snap, s.cfg.EngineOptions()...)
	if err != nil {
		return errors.Wrapf(err, "[load] save %d", id)
	}
	s.cfg.Size = snap.Size
	s.cfg.TargetCount = min(s.cfg.TargetCount, snap.Size*snap.Size)
	s.cfg.FillMode = snap.FillMode
	if snap.FillMode == model.FillDensity && snap.Density > 0 {
		s.cfg.Density = snap.Density
	}
	if snap.FillMode == model.FillFixedCount && snap.TargetCount > 0 {
		s.cfg.TargetCount = snap.TargetCount
	}
	s.cfg.MaxGeneration = max(s.cfg.MaxGeneration, snap.Generation)
	s.adopt(engine)
	s.logger.Printf("loaded save %d at generation %d", id, snap.Generation)
	return nil
}

func (s *Session) exportPath(path string) string {
	if path != "" {
		return path
	}
	return filepath.Join(s.cfg.ExportDir, fmt.Sprintf("generation-%d.png", s.engine.Generation()))
}

func (s *Session) export(path string) error {
	path = s.exportPath(path)
	if err := export.SaveFile(path, s.engine.Grid(), s.cfg.ExportScale, export.DefaultPalette); err != nil {
		return errors.Wrap(err, "[export]")
	}
	s.message = "exported " + path
	s.logger.Printf("exported generation %d to %s", s.engine.Generation(), path)
	return nil
}
