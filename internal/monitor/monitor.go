// Package monitor implements a live terminal view of streaming-pipeline
// progress, adapted from the teacher's tui.go: the same termbox
// event-queue-plus-ticker draw loop, showing block counters and
// per-worker activity instead of reverb parameters.
package monitor

import (
	"fmt"
	"time"

	"github.com/nsf/termbox-go"
)

const (
	colDef    = termbox.ColorDefault
	colWhite  = termbox.ColorWhite
	colGreen  = termbox.ColorGreen
	colCyan   = termbox.ColorCyan
	colYellow = termbox.ColorYellow
)

// State is the live progress snapshot the monitor renders. Callers
// update it from the pipeline's ProgressFunc and worker hooks; State
// itself does no locking, so callers must serialize their own updates
// (the monitor only reads it from the draw loop's goroutine).
type State struct {
	TotalBlocks int
	Done        int
	Errors      int
	WorkerRows  []string
	Finished    bool
	Err         error
}

// Run draws state to the terminal until state.Finished, polling at a
// fixed interval and reacting to resize/quit key events. pollInterval
// of zero defaults to 100ms.
func Run(state *State, pollInterval time.Duration) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("monitor: termbox init: %w", err)
	}
	defer termbox.Close()

	termbox.SetInputMode(termbox.InputEsc)
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}

	eventQueue := make(chan termbox.Event)
	go func() {
		for {
			eventQueue <- termbox.PollEvent()
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	draw(state)
	for !state.Finished {
		select {
		case ev := <-eventQueue:
			switch ev.Type {
			case termbox.EventKey:
				if ev.Key == termbox.KeyEsc || ev.Ch == 'q' {
					return nil
				}
			case termbox.EventResize:
				draw(state)
			}
		case <-ticker.C:
			draw(state)
		}
	}
	draw(state)
	return nil
}

func draw(state *State) {
	_ = termbox.Clear(colDef, colDef)

	printTB(0, 0, colCyan, colDef, "freqimage streaming pipeline")
	printTB(0, 1, colWhite, colDef, "----------------------------------------------------")

	pct := 0.0
	if state.TotalBlocks > 0 {
		pct = 100 * float64(state.Done) / float64(state.TotalBlocks)
	}
	printTB(0, 3, colGreen, colDef, fmt.Sprintf("blocks: %d/%d (%.1f%%)", state.Done, state.TotalBlocks, pct))
	if state.Errors > 0 {
		printTB(0, 4, colYellow, colDef, fmt.Sprintf("errors: %d", state.Errors))
	}

	row := 6
	for _, w := range state.WorkerRows {
		printTB(0, row, colWhite, colDef, w)
		row++
	}

	if state.Finished {
		msg := "done"
		if state.Err != nil {
			msg = fmt.Sprintf("failed: %v", state.Err)
		}
		printTB(0, row+1, colCyan, colDef, msg)
	}

	_ = termbox.Flush()
}

func printTB(x, y int, fg, bg termbox.Attribute, msg string) {
	for _, c := range msg {
		termbox.SetCell(x, y, c, fg, bg)
		x++
	}
}
