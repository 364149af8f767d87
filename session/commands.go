package session

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-conway/model"
)

// Command is one UI action applied to a session
type Command interface {
	apply(ctx context.Context, s *Session) error
}

// Start populates a new grid from the current settings and switches to Simulating
type Start struct{}

// OpenSettings pauses and goes back to the Configuring screen
type OpenSettings struct{}

// SetFillMode chooses the population strategy of the next run
type SetFillMode struct{ Mode model.FillMode }

// SetDensity sets the living probability of the next density run
type SetDensity struct{ Density float64 }

// SetTargetCount sets the living cell count of the next fixed-count run
type SetTargetCount struct{ Count int }

// SetSize sets the grid side length of the next run
type SetSize struct{ Size int }

// SetMaxGeneration sets the last generation reachable by playing and scrubbing
type SetMaxGeneration struct{ Generation int }

// Step advances one generation
type Step struct{}

// PlayPause flips the play flag
type PlayPause struct{}

// Stop clears the play flag
type Stop struct{}

// Toggle flips one cell
type Toggle struct{ X, Y int }

// Reset restores the grid the run started with
type Reset struct{}

// Scrub moves forward to Generation, capped at the max generation
type Scrub struct{ Generation int }

// Save stores the run under Name
type Save struct{ Name string }

// Load replaces the run with a stored one
type Load struct{ ID int64 }

// Export writes a miniature of the grid to Path, or to a generated name in
// the export directory when Path is empty
type Export struct{ Path string }

func (Start) apply(_ context.Context, s *Session) error {
	return s.start()
}

func (OpenSettings) apply(_ context.Context, s *Session) error {
	s.playing = false
	s.state = Configuring
	return nil
}

func (c SetFillMode) apply(_ context.Context, s *Session) error {
	if !c.Mode.Valid() {
		return errors.Wrapf(model.ErrInvalidConfiguration, "[SetFillMode] unknown fill mode %q", c.Mode)
	}
	s.cfg.FillMode = c.Mode
	return nil
}

func (c SetDensity) apply(_ context.Context, s *Session) error {
	if !(c.Density > 0 && c.Density < 1) {
		return errors.Wrapf(model.ErrInvalidConfiguration, "[SetDensity] density %v outside (0,1)", c.Density)
	}
	s.cfg.Density = c.Density
	return nil
}

func (c SetTargetCount) apply(_ context.Context, s *Session) error {
	if c.Count < 1 || c.Count > s.cfg.Size*s.cfg.Size {
		return errors.Wrapf(model.ErrInvalidConfiguration,
			"[SetTargetCount] count %d outside [1,%d]", c.Count, s.cfg.Size*s.cfg.Size)
	}
	s.cfg.TargetCount = c.Count
	return nil
}

func (c SetSize) apply(_ context.Context, s *Session) error {
	if c.Size < 1 {
		return errors.Wrapf(model.ErrInvalidConfiguration, "[SetSize] size %d must be at least 1", c.Size)
	}
	s.cfg.Size = c.Size
	s.cfg.TargetCount = min(s.cfg.TargetCount, c.Size*c.Size)
	return nil
}

func (c SetMaxGeneration) apply(_ context.Context, s *Session) error {
	if c.Generation < model.StartGeneration {
		return errors.Wrapf(model.ErrInvalidConfiguration, "[SetMaxGeneration] generation %d", c.Generation)
	}
	s.cfg.MaxGeneration = c.Generation
	return nil
}

func (Step) apply(_ context.Context, s *Session) error {
	if err := s.requireEngine(); err != nil {
		return errors.Wrap(err, "[Step]")
	}
	s.step()
	return nil
}

func (PlayPause) apply(_ context.Context, s *Session) error {
	if err := s.requireEngine(); err != nil {
		return errors.Wrap(err, "[PlayPause]")
	}
	s.playing = !s.playing
	return nil
}

func (Stop) apply(_ context.Context, s *Session) error {
	s.playing = false
	return nil
}

func (c Toggle) apply(_ context.Context, s *Session) error {
	if err := s.requireEngine(); err != nil {
		return errors.Wrap(err, "[Toggle]")
	}
	return s.engine.ToggleCell(c.X, c.Y)
}

func (Reset) apply(_ context.Context, s *Session) error {
	if err := s.requireEngine(); err != nil {
		return errors.Wrap(err, "[Reset]")
	}
	s.engine.ResetToInitial()
	s.playing = false
	s.lastStep = time.Time{}
	s.stats.Reset()
	return nil
}

func (c Scrub) apply(_ context.Context, s *Session) error {
	if err := s.requireEngine(); err != nil {
		return errors.Wrap(err, "[Scrub]")
	}
	s.engine.StepToGeneration(min(c.Generation, s.cfg.MaxGeneration))
	s.stats.Update(s.engine.Generation(), s.engine.LivingCount(), 0)
	return nil
}

func (c Save) apply(ctx context.Context, s *Session) error {
	if err := s.requireEngine(); err != nil {
		return errors.Wrap(err, "[Save]")
	}
	if s.saver == nil {
		return ErrNoStore
	}
	name := c.Name
	if name == "" {
		name = fmt.Sprintf("generation %d", s.engine.Generation())
	}
	id, err := s.saver.Save(ctx, name, s.engine.Snapshot())
	if err != nil {
		return errors.Wrap(err, "[Save]")
	}
	s.message = fmt.Sprintf("saved #%d", id)
	s.logger.Printf("saved %q as #%d", name, id)
	return nil
}

func (c Load) apply(ctx context.Context, s *Session) error {
	return s.load(ctx, c.ID)
}

func (c Export) apply(_ context.Context, s *Session) error {
	if err := s.requireEngine(); err != nil {
		return errors.Wrap(err, "[Export]")
	}
	return s.export(c.Path)
}
