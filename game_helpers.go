package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-conway/model"
	"github.com/sheikhrachel/go-conway/session"
	"github.com/sheikhrachel/go-conway/store"
	"github.com/sheikhrachel/go-conway/utils"
)

const (
	densityStep  = 0.01
	scrubStep    = 10
	statusOffset = 1
)

var (
	styleLiving = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleDead   = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	styleText   = tcell.StyleDefault
)

// options are the flags that only matter to this binary
type options struct {
	configFile string
	headless   bool
}

func bindOptions(fs *flag.FlagSet, o *options) {
	fs.StringVar(&o.configFile, "config", "config.json", "JSON configuration file")
	fs.BoolVar(&o.headless, "headless", false, "print generations instead of running the interactive player")
}

// parseConfig loads the configuration file named by -config and applies the
// remaining flags on top of it
func parseConfig(args []string) (utils.Config, options, error) {
	var (
		o       options
		scratch = utils.DefaultConfig()
		first   = flag.NewFlagSet("conway", flag.ContinueOnError)
	)
	first.SetOutput(io.Discard)
	bindOptions(first, &o)
	scratch.Bind(first)
	if err := first.Parse(args); err != nil {
		return scratch, o, errors.Wrap(err, "[parseConfig]")
	}

	config, err := utils.LoadConfig(o.configFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return config, o, err
		}
		config = utils.DefaultConfig()
	}

	second := flag.NewFlagSet("conway", flag.ContinueOnError)
	bindOptions(second, &o)
	config.Bind(second)
	if err = second.Parse(args); err != nil {
		return config, o, errors.Wrap(err, "[parseConfig]")
	}
	return config, o, errors.Wrap(config.Validate(), "[parseConfig]")
}

// newLogger writes to the configured log file, or to fallback when none is set
func newLogger(config utils.Config, fallback io.Writer) (*log.Logger, func(), error) {
	if config.LogPath == "" {
		return log.New(fallback, "conway ", log.LstdFlags), func() {}, nil
	}
	f, err := os.OpenFile(config.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[newLogger] failed to open file: %+v", config.LogPath)
	}
	return log.New(f, "conway ", log.LstdFlags), func() { f.Close() }, nil
}

// latestView keeps the last view published by the session so input handling
// can compute relative settings changes
type latestView struct {
	mu sync.Mutex
	v  session.View
}

func (l *latestView) set(v session.View) {
	l.mu.Lock()
	l.v = v
	l.mu.Unlock()
}

func (l *latestView) get() session.View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v
}

// drawView renders the session onto the screen
func drawView(screen tcell.Screen, v session.View) {
	screen.Clear()
	if v.State == session.Configuring {
		drawSettings(screen, v)
	} else {
		drawSimulation(screen, v)
	}
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, text string) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, styleText)
	}
}

func drawSettings(screen tcell.Screen, v session.View) {
	lines := []string{
		"Conway initialisation",
		"",
		fmt.Sprintf("Grid size:        %d  (</>)", v.Size),
		fmt.Sprintf("Generations:      %d  ([/])", v.MaxGeneration),
		fmt.Sprintf("Fill method:      %s  (f)", v.FillMode),
	}
	switch v.FillMode {
	case model.FillDensity:
		lines = append(lines, fmt.Sprintf("Density:          %.2f  (+/-)", v.Density))
	case model.FillFixedCount:
		lines = append(lines, fmt.Sprintf("Number of cells:  %d  (+/-)", v.TargetCount))
	}
	lines = append(lines, "", "enter: simulation   l: load last save   q: quit")
	if v.Message != "" {
		lines = append(lines, "", v.Message)
	}
	for y, line := range lines {
		drawText(screen, 0, y, line)
	}
}

func drawSimulation(screen tcell.Screen, v session.View) {
	if v.Grid == nil {
		return
	}
	v.Grid.ForEach(func(x, y int, living bool) {
		style := styleDead
		if living {
			style = styleLiving
		}
		screen.SetContent(x*2, y, ' ', nil, style)
		screen.SetContent(x*2+1, y, ' ', nil, style)
	})

	status := "Active"
	switch {
	case v.LivingCount == 0:
		status = "Extinct"
	case v.Stagnant:
		status = "Stagnant"
	case v.Playing:
		status = "Playing"
	}
	density := float64(v.LivingCount) / float64(v.Grid.Size()*v.Grid.Size()) * 100
	mean, std := v.Stats.PopulationSpread()

	row := v.Grid.Size() + statusOffset
	drawText(screen, 0, row, fmt.Sprintf("Gen: %d/%d | Living: %d | Density: %.1f%% | Status: %s",
		v.Generation, v.MaxGeneration, v.LivingCount, density, status))
	drawText(screen, 0, row+1, fmt.Sprintf("Performance: %.1f gen/sec | Population: %.1f ± %.1f",
		v.Stats.GenerationsPerSecond, mean, std))
	drawText(screen, 0, row+2,
		"space: play/pause  n: step  ]: +10  r: reset  s: save  l: load  e: export  o: settings  q: quit")
	if v.Message != "" {
		drawText(screen, 0, row+3, v.Message)
	}
}

// commandForKey maps a key press to a session command; ok is false for keys
// without a binding
func commandForKey(ev *tcell.EventKey, v session.View) (cmd session.Command, ok bool) {
	if v.State == session.Configuring {
		return settingsCommand(ev, v)
	}
	switch ev.Rune() {
	case ' ':
		return session.PlayPause{}, true
	case 'n':
		return session.Step{}, true
	case ']':
		return session.Scrub{Generation: v.Generation + scrubStep}, true
	case 'r':
		return session.Reset{}, true
	case 's':
		return session.Save{}, true
	case 'e':
		return session.Export{}, true
	case 'o':
		return session.OpenSettings{}, true
	}
	return nil, false
}

func settingsCommand(ev *tcell.EventKey, v session.View) (session.Command, bool) {
	if ev.Key() == tcell.KeyEnter {
		return session.Start{}, true
	}
	switch ev.Rune() {
	case 'f':
		if v.FillMode == model.FillDensity {
			return session.SetFillMode{Mode: model.FillFixedCount}, true
		}
		return session.SetFillMode{Mode: model.FillDensity}, true
	case '+', '=':
		if v.FillMode == model.FillDensity {
			return session.SetDensity{Density: v.Density + densityStep}, true
		}
		return session.SetTargetCount{Count: v.TargetCount + 1}, true
	case '-':
		if v.FillMode == model.FillDensity {
			return session.SetDensity{Density: v.Density - densityStep}, true
		}
		return session.SetTargetCount{Count: v.TargetCount - 1}, true
	case '>':
		return session.SetSize{Size: v.Size + 1}, true
	case '<':
		return session.SetSize{Size: v.Size - 1}, true
	case ']':
		return session.SetMaxGeneration{Generation: v.MaxGeneration + scrubStep}, true
	case '[':
		return session.SetMaxGeneration{Generation: v.MaxGeneration - scrubStep}, true
	}
	return nil, false
}

// commandForClick toggles the cell under a left click
func commandForClick(ev *tcell.EventMouse, v session.View) (session.Command, bool) {
	if v.State != session.Simulating || v.Grid == nil || ev.Buttons()&tcell.Button1 == 0 {
		return nil, false
	}
	x, y := ev.Position()
	x /= 2
	if !v.Grid.InBounds(x, y) {
		return nil, false
	}
	return session.Toggle{X: x, Y: y}, true
}

// latestSave returns the id of the newest save
func latestSave(ctx context.Context, st *store.Store) (int64, error) {
	records, err := st.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, store.ErrNotFound
	}
	return records[0].ID, nil
}

// pollEvents turns terminal input into session commands until the screen is
// finalised or ctx ends
func pollEvents(ctx context.Context, screen tcell.Screen, views *latestView, st *store.Store,
	cmds chan<- session.Command, quit func(), logger *log.Logger) {
	send := func(cmd session.Command) bool {
		select {
		case cmds <- cmd:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		var (
			cmd session.Command
			ok  bool
		)
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				quit()
				return
			}
			if ev.Rune() == 'l' && st != nil {
				id, err := latestSave(ctx, st)
				if err != nil {
					logger.Printf("no save to load: %v", err)
					continue
				}
				cmd, ok = session.Load{ID: id}, true
				break
			}
			cmd, ok = commandForKey(ev, views.get())
		case *tcell.EventMouse:
			cmd, ok = commandForClick(ev, views.get())
		}
		if ok && !send(cmd) {
			return
		}
	}
}
