package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbl8/lifestep/kernels"
	"github.com/sbl8/lifestep/runtime"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	logLevel string

	// Engine flags
	workers      int
	kernelName   string
	cacheSlots   int
	disableCache bool
	maxBuffer    int64
)

var rootCmd = &cobra.Command{
	Use:   "liferun",
	Short: "Step Game of Life patterns with the parallel engine",
	Long: `liferun loads Life patterns (RLE, segment text or snapshots), advances
them with the parallel partial-sum engine and writes the result as a
pattern, a snapshot or a PNG image.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(os.Stderr)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	pf.StringVar(&logLevel, "log-level", "", "Engine log level (debug, info, warn, error); empty disables logging")

	pf.IntVarP(&workers, "workers", "w", 4, "Worker pool size")
	pf.StringVar(&kernelName, "kernel", "auto", "Row kernel (auto, scalar, packed)")
	pf.IntVar(&cacheSlots, "cache-slots", 1, "Grid shapes whose buffers are kept between steps")
	pf.BoolVar(&disableCache, "no-cache", false, "Allocate fresh buffers on every step")
	pf.Int64Var(&maxBuffer, "max-buffer", 0, "Scratch memory limit per step in bytes (0 = unlimited)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogging installs a text logger on the engine at --log-level.
func setupLogging(w io.Writer) error {
	if logLevel == "" {
		runtime.SetLogger(nil)
		return nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	runtime.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// engineOptions maps the engine flags onto runtime options.
func engineOptions() (runtime.EngineOptions, error) {
	mode, err := kernels.ParseMode(kernelName)
	if err != nil {
		return runtime.EngineOptions{}, err
	}
	opts := runtime.DefaultEngineOptions()
	opts.Workers = workers
	opts.Kernel = mode
	opts.CacheSlots = cacheSlots
	opts.DisableCache = disableCache
	opts.MaxBufferBytes = maxBuffer
	opts.EnableStats = verbose || jsonOut
	return opts, nil
}

func newEngine() (*runtime.Engine, error) {
	opts, err := engineOptions()
	if err != nil {
		return nil, err
	}
	return runtime.NewEngine(&opts)
}

// Helper functions for output

func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
