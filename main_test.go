package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/sheikhrachel/go-conway/model"
	"github.com/sheikhrachel/go-conway/session"
	"github.com/sheikhrachel/go-conway/store"
	"github.com/sheikhrachel/go-conway/utils"
)

func newSimulationScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(120, 40)
	t.Cleanup(screen.Fini)
	return screen
}

func TestParseConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"size": 20, "density": 0.5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	config, opts, err := parseConfig([]string{"-config", path, "-size", "30", "-headless"})
	if err != nil {
		t.Fatal(err)
	}
	if config.Size != 30 || config.Density != 0.5 || !opts.headless {
		t.Fatalf("config %+v opts %+v", config, opts)
	}

	if _, _, err = parseConfig([]string{"-config", filepath.Join(t.TempDir(), "none.json"), "-density", "3"}); err == nil {
		t.Fatal("invalid density accepted")
	}
}

func TestDrawSimulation(t *testing.T) {
	screen := newSimulationScreen(t)
	grid, err := model.ParseRows(3, []string{"#..", "...", "..."})
	if err != nil {
		t.Fatal(err)
	}
	drawView(screen, session.View{
		State:         session.Simulating,
		Grid:          grid,
		Generation:    4,
		MaxGeneration: 100,
		LivingCount:   1,
	})

	_, _, style, _ := screen.GetContent(0, 0)
	if _, bg, _ := style.Decompose(); bg != tcell.ColorBlack {
		t.Fatalf("living cell background %v", bg)
	}
	_, _, style, _ = screen.GetContent(2, 0)
	if _, bg, _ := style.Decompose(); bg != tcell.ColorWhite {
		t.Fatalf("dead cell background %v", bg)
	}
	if line := screenLine(screen, 3+statusOffset); !strings.HasPrefix(line, "Gen: 4/100 | Living: 1") {
		t.Fatalf("status line %q", line)
	}
}

func TestDrawSettings(t *testing.T) {
	screen := newSimulationScreen(t)
	drawView(screen, session.View{State: session.Configuring, Size: 50, FillMode: model.FillFixedCount, TargetCount: 42})
	var all strings.Builder
	for y := 0; y < 12; y++ {
		all.WriteString(screenLine(screen, y))
		all.WriteByte('\n')
	}
	if !strings.Contains(all.String(), "Number of cells:  42") {
		t.Fatalf("settings screen:\n%s", all.String())
	}
}

func screenLine(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(r)
	}
	return strings.TrimRight(sb.String(), " ")
}

func TestCommandForKey(t *testing.T) {
	settings := session.View{State: session.Configuring, FillMode: model.FillDensity, Density: 0.25, Size: 10}
	sim := session.View{State: session.Simulating, Generation: 5}

	tests := []struct {
		name string
		ev   *tcell.EventKey
		v    session.View
		want session.Command
	}{
		{"start", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), settings, session.Start{}},
		{"fill", tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModNone), settings, session.SetFillMode{Mode: model.FillFixedCount}},
		{"density", tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone), settings, session.SetDensity{Density: 0.25 + densityStep}},
		{"size", tcell.NewEventKey(tcell.KeyRune, '<', tcell.ModNone), settings, session.SetSize{Size: 9}},
		{"play", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), sim, session.PlayPause{}},
		{"scrub", tcell.NewEventKey(tcell.KeyRune, ']', tcell.ModNone), sim, session.Scrub{Generation: 15}},
		{"settings", tcell.NewEventKey(tcell.KeyRune, 'o', tcell.ModNone), sim, session.OpenSettings{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := commandForKey(tt.ev, tt.v)
			if !ok || got != tt.want {
				t.Fatalf("got %#v (%v), want %#v", got, ok, tt.want)
			}
		})
	}
	if _, ok := commandForKey(tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), sim); ok {
		t.Fatal("unbound key produced a command")
	}
}

func TestCommandForClick(t *testing.T) {
	grid := model.NewGrid(5)
	v := session.View{State: session.Simulating, Grid: grid}
	cmd, ok := commandForClick(tcell.NewEventMouse(7, 3, tcell.Button1, tcell.ModNone), v)
	if !ok || cmd != (session.Toggle{X: 3, Y: 3}) {
		t.Fatalf("click produced %#v (%v)", cmd, ok)
	}
	if _, ok = commandForClick(tcell.NewEventMouse(20, 3, tcell.Button1, tcell.ModNone), v); ok {
		t.Fatal("click outside the grid produced a command")
	}
	if _, ok = commandForClick(tcell.NewEventMouse(1, 1, tcell.ButtonNone, tcell.ModNone), v); ok {
		t.Fatal("mouse motion produced a command")
	}
}

func TestRunHeadless(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	config := utils.DefaultConfig()
	config.Size = 8
	config.MaxGeneration = 5
	config.AutoPause = false
	config.FrameRate = time.Millisecond
	config.Seed = 1

	var out bytes.Buffer
	if err = runHeadless(ctx, config, st, log.New(io.Discard, "", 0), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Gen: 5 |") || !strings.Contains(out.String(), "Final stats: 5 generations") {
		t.Fatalf("output:\n%s", out.String())
	}

	records, err := st.List(ctx)
	if err != nil || len(records) != 1 || records[0].Generation != 5 {
		t.Fatalf("records %+v, err %v", records, err)
	}
}
