package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-conway/model"
	"github.com/sheikhrachel/go-conway/session"
	"github.com/sheikhrachel/go-conway/store"
	"github.com/sheikhrachel/go-conway/utils"
)

func main() {
	config, opts, err := parseConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	var fallback io.Writer = io.Discard
	if opts.headless {
		fallback = os.Stderr
	}
	logger, closeLog, err := newLogger(config, fallback)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if config.DBPath != "" {
		if st, err = store.Open(ctx, config.DBPath); err != nil {
			logger.Printf("saves disabled: %v", err)
			st = nil
		} else {
			defer st.Close()
		}
	}

	if opts.headless {
		err = runHeadless(ctx, config, st, logger, os.Stdout)
	} else {
		err = runInteractive(ctx, config, st, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

// runInteractive drives the session from a tcell screen
func runInteractive(ctx context.Context, config utils.Config, st *store.Store, logger *log.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "[runInteractive] creating screen")
	}
	if err = screen.Init(); err != nil {
		return errors.Wrap(err, "[runInteractive] initializing screen")
	}
	defer screen.Fini()
	screen.EnableMouse()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	views := &latestView{}
	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithOnChange(func(v session.View) {
			views.set(v)
			drawView(screen, v)
		}),
	}
	if st != nil {
		sessOpts = append(sessOpts, session.WithSaver(st))
	}
	sess, err := session.New(config, sessOpts...)
	if err != nil {
		return err
	}

	cmds := make(chan session.Command)
	go pollEvents(ctx, screen, views, st, cmds, cancel, logger)

	return sess.Run(ctx, cmds)
}

// runHeadless plays one run to the last generation, printing each frame
func runHeadless(ctx context.Context, config utils.Config, st *store.Store, logger *log.Logger, out io.Writer) error {
	var sessOpts = []session.Option{session.WithLogger(logger)}
	if st != nil {
		sessOpts = append(sessOpts, session.WithSaver(st))
	}
	sess, err := session.New(config, sessOpts...)
	if err != nil {
		return err
	}
	for _, cmd := range []session.Command{session.Start{}, session.PlayPause{}} {
		if err = sess.Handle(ctx, cmd); err != nil {
			return err
		}
	}

	renderer := &model.TerminalRenderer{Out: out}
	ticker := time.NewTicker(config.FrameRate)
	defer ticker.Stop()

	for {
		v := sess.View()
		if err = renderer.Clear(); err != nil {
			return err
		}
		if err = renderer.Display(v.Grid, v.Generation, v.LivingCount); err != nil {
			return err
		}
		if !sess.Playing() {
			break
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\n🛑 Shutting down gracefully...")
			return ctx.Err()
		case <-ticker.C:
			sess.Tick()
		}
	}

	v := sess.View()
	mean, std := v.Stats.PopulationSpread()
	fmt.Fprintf(out, "Final stats: %d generations in %.1f seconds\n",
		v.Generation, time.Since(v.Stats.StartTime).Seconds())
	fmt.Fprintf(out, "Population: %.1f ± %.1f, last rate %.1f gen/sec\n",
		mean, std, v.Stats.GenerationsPerSecond)
	if v.Message != "" {
		fmt.Fprintln(out, v.Message)
	}
	if st != nil {
		if err = sess.Handle(ctx, session.Save{}); err != nil {
			return err
		}
	}
	return nil
}
