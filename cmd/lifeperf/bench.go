package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/kernels"
	"github.com/sbl8/lifestep/pattern"
	"github.com/sbl8/lifestep/runtime"
)

// result is one variant's measurement.
type result struct {
	Variant     string        `json:"variant"`
	Workers     int           `json:"workers"`
	Steps       int           `json:"steps"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	PerStep     time.Duration `json:"per_step_ns"`
	CellsPerSec float64       `json:"cells_per_sec"`
	Population  int           `json:"population"`
	Matches     bool          `json:"matches"`
}

type report struct {
	Height  int      `json:"height"`
	Width   int      `json:"width"`
	Density float64  `json:"density"`
	Seed    int64    `json:"seed"`
	Kernel  string   `json:"kernel"`
	Results []result `json:"results"`
}

func runBench(w io.Writer) error {
	h, wd, err := parseSize(sizeFlag)
	if err != nil {
		return err
	}
	if stepsFlag < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}
	mode, err := kernels.ParseMode(kernelName)
	if err != nil {
		return err
	}
	p, err := pattern.Random(h, wd, density, seed)
	if err != nil {
		return err
	}
	start, err := p.ToGrid(0, 0)
	if err != nil {
		return err
	}

	rep := report{Height: start.Height, Width: start.Width, Density: density, Seed: seed, Kernel: mode.Resolve().String()}
	var want core.Grid
	for _, v := range variants {
		runs, err := measure(v, start, mode)
		if err != nil {
			return err
		}
		for _, r := range runs {
			r.res.Matches = true
			if !skipVerify {
				if want.Data == nil {
					want = r.final
				} else {
					r.res.Matches = want.Equal(r.final)
				}
			}
			rep.Results = append(rep.Results, r.res)
		}
	}

	if jsonOut {
		return writeJSON(w, rep)
	}
	pr, err := newPrinter()
	if err != nil {
		return err
	}
	printReport(w, pr, rep)
	for _, r := range rep.Results {
		if !r.Matches {
			return fmt.Errorf("variant %s (workers %d) disagrees with %s", r.Variant, r.Workers, rep.Results[0].Variant)
		}
	}
	return nil
}

type run struct {
	res   result
	final core.Grid
}

// measure runs one variant from a copy of start. "engine" yields one run per
// pool size.
func measure(variant string, start core.Grid, mode kernels.Mode) ([]run, error) {
	if variant == "engine" {
		var out []run
		for _, n := range workerList {
			r, err := measureEngine(start, n, mode)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	}

	step := kernels.GetStepper(variant)
	if step == nil {
		return nil, fmt.Errorf("unknown variant %q (want engine or one of %v)", variant, kernels.StepperNames())
	}
	g := start.Clone()
	t := time.Now()
	for i := 0; i < stepsFlag; i++ {
		if err := step(g); err != nil {
			return nil, err
		}
	}
	return []run{{res: newResult(variant, 1, g, time.Since(t)), final: g}}, nil
}

func measureEngine(start core.Grid, workers int, mode kernels.Mode) (run, error) {
	opts := runtime.DefaultEngineOptions()
	opts.Workers = workers
	opts.Kernel = mode
	e, err := runtime.NewEngine(&opts)
	if err != nil {
		return run{}, err
	}
	defer e.Close()

	g := start.Clone()
	t := time.Now()
	if _, err := e.StepN(context.Background(), g, stepsFlag); err != nil {
		return run{}, err
	}
	return run{res: newResult("engine", workers, g, time.Since(t)), final: g}, nil
}

func newResult(variant string, workers int, g core.Grid, elapsed time.Duration) result {
	r := result{
		Variant:    variant,
		Workers:    workers,
		Steps:      stepsFlag,
		Elapsed:    elapsed,
		PerStep:    elapsed / time.Duration(stepsFlag),
		Population: g.Population(),
	}
	if s := elapsed.Seconds(); s > 0 {
		r.CellsPerSec = float64(g.Height*g.Width) * float64(stepsFlag) / s
	}
	return r
}
