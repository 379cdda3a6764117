package main

import (
	"fmt"
	"io"
	"time"

	"tsdoctor/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings) error {
	if out == nil {
		return nil
	}
	var total time.Duration
	for _, stage := range pipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		d := timings.Duration(stage)
		total += d
		if _, err := fmt.Fprintf(out, "%-20s %9.1f ms\n", stage, toMillis(d)); err != nil {
			return err
		}
	}
	if total == 0 {
		return nil
	}
	_, err := fmt.Fprintf(out, "%-20s %9.1f ms\n", "total", toMillis(total))
	return err
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
