package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tsdoctor/internal/ci"
	"tsdoctor/internal/pipeline"
	"tsdoctor/internal/ui"
)

type checkOutcome struct {
	result pipeline.Result
	out    ci.Result
}

// runCheckWithUI runs the check in the background while the progress model
// renders its events. rep must not write to the terminal while the UI is
// up; callers buffer the report and print it afterwards.
func runCheckWithUI(ctx context.Context, title string, req *pipeline.Request, rep pipeline.Reporter) (pipeline.Result, ci.Result, error) {
	events := make(chan pipeline.Event, 64)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, out := pipeline.Run(ctx, &reqCopy, rep)
		outcomeCh <- checkOutcome{result: res, out: out}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep draining so the check goroutine never blocks on a full channel.
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	return outcome.result, outcome.out, uiErr
}
