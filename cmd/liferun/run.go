package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/runtime"
)

var (
	runSteps   int
	runOut     string
	runPrint   bool
	runTimeout time.Duration
	runEvery   int
	runBoard   boardFlags
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func addBoardFlags(cmd *cobra.Command, f *boardFlags) {
	cmd.Flags().IntVar(&f.minHeight, "min-height", 0, "Minimum board height (excluding border)")
	cmd.Flags().IntVar(&f.minWidth, "min-width", 0, "Minimum board width (excluding border)")
	cmd.Flags().StringVar(&f.random, "random", "", "Start from a random HxW board instead of a file")
	cmd.Flags().Float64Var(&f.density, "density", 0.3, "Live cell probability for --random")
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "Random seed for --random")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [pattern]",
		Short: "Advance a pattern by a number of generations",
		Long: `The run command loads a pattern (.rle, .seg) or a snapshot (.lfs),
advances it with the engine and reports population and timing.

Example:
  liferun run glider.rle --steps 100 --min-width 64 --min-height 64
  liferun run --random 512x512 --steps 1000 --out final.lfs
  liferun run final.lfs --steps 10 --print`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	cmd.Flags().IntVarP(&runSteps, "steps", "n", 1, "Generations to advance")
	cmd.Flags().StringVarP(&runOut, "out", "o", "", "Write the final board (.rle, .seg or .lfs)")
	cmd.Flags().BoolVar(&runPrint, "print", false, "Print the final board")
	cmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Abort after this long (0 = no limit)")
	cmd.Flags().IntVar(&runEvery, "report-every", 0, "Print population every N generations")
	addBoardFlags(cmd, &runBoard)
	return cmd
}

type runResult struct {
	Name       string        `json:"name"`
	Height     int           `json:"height"`
	Width      int           `json:"width"`
	Generation uint64        `json:"generation"`
	Steps      int           `json:"steps"`
	Population int           `json:"population"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Workers    int           `json:"workers"`
	Kernel     string        `json:"kernel"`
	AvgStep    time.Duration `json:"avg_step_ns"`
	CacheHits  int64         `json:"cache_hits"`
	CacheMiss  int64         `json:"cache_misses"`
}

func runRun(ctx context.Context, args []string) error {
	if runSteps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	b, err := loadBoard(path, runBoard)
	if err != nil {
		return err
	}
	printVerbose("Loaded %s: %dx%d, population %d, generation %d\n",
		b.name, b.grid.Height, b.grid.Width, b.grid.Population(), b.generation)

	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	start := time.Now()
	done, err := stepBoard(ctx, engine, b, runSteps, runEvery)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("stopped after %d of %d generations (%s): %w",
			done, runSteps, core.KindOf(err), err)
	}

	if runOut != "" {
		if err := saveBoard(runOut, b); err != nil {
			return fmt.Errorf("writing %s: %w", runOut, err)
		}
		printVerbose("Wrote %s\n", runOut)
	}

	stats := engine.Stats()
	res := runResult{
		Name:       b.name,
		Height:     b.grid.Height,
		Width:      b.grid.Width,
		Generation: b.generation,
		Steps:      done,
		Population: b.grid.Population(),
		Elapsed:    elapsed,
		Workers:    stats.Workers,
		Kernel:     stats.Kernel,
		AvgStep:    stats.AverageLatency,
		CacheHits:  stats.Cache.Hits,
		CacheMiss:  stats.Cache.Misses,
	}
	if jsonOut {
		return printJSON(res)
	}

	if runPrint {
		printInfo("%s", b.grid.String())
	}
	printInfo("%s: %d generations in %v, generation %d, population %d\n",
		res.Name, res.Steps, res.Elapsed.Round(time.Microsecond), res.Generation, res.Population)
	printVerbose("  board: %dx%d  workers: %d  kernel: %s  avg step: %v  cache: %d hits, %d misses\n",
		res.Height, res.Width, res.Workers, res.Kernel, res.AvgStep, res.CacheHits, res.CacheMiss)
	return nil
}

// stepBoard advances b by n generations, reporting every `every` generations.
func stepBoard(ctx context.Context, e *runtime.Engine, b *board, n, every int) (int, error) {
	if every <= 0 {
		every = n
	}
	done := 0
	for done < n {
		k, err := e.StepN(ctx, b.grid, min(every, n-done))
		done += k
		b.generation += uint64(k)
		if err != nil {
			return done, err
		}
		if every < n {
			printInfo("generation %d: population %d\n", b.generation, b.grid.Population())
		}
	}
	return done, nil
}
