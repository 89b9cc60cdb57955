package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	sizeFlag   string
	stepsFlag  int
	density    float64
	seed       int64
	workerList []int
	variants   []string
	kernelName string
	jsonOut    bool
	langTag    string
	skipVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "lifeperf",
	Short: "Benchmark Game of Life steppers",
	Long: `lifeperf advances the same random board with every selected variant,
checks that all variants agree on the final board and reports throughput.

Variants are the single-threaded steppers (reference, sequential, packed)
and "engine", which runs once per --workers entry.

Example:
  lifeperf --size 1024x1024 --steps 200 --workers 1,2,4,8
  lifeperf --variants sequential,engine --json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd.OutOrStdout())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&sizeFlag, "size", "256x256", "Board size HxW")
	f.IntVarP(&stepsFlag, "steps", "n", 100, "Generations per variant")
	f.Float64Var(&density, "density", 0.3, "Live cell probability")
	f.Int64Var(&seed, "seed", 1, "Random seed")
	f.IntSliceVarP(&workerList, "workers", "w", []int{1, 2, 4, 8}, "Engine pool sizes")
	f.StringSliceVar(&variants, "variants", []string{"reference", "sequential", "packed", "engine"}, "Variants to run")
	f.StringVar(&kernelName, "kernel", "auto", "Engine row kernel (auto, scalar, packed)")
	f.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	f.StringVar(&langTag, "lang", "en", "Language for number formatting")
	f.BoolVar(&skipVerify, "no-verify", false, "Skip comparing final boards")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func parseSize(s string) (h, w int, err error) {
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &h, &w); err != nil {
		return 0, 0, fmt.Errorf("invalid --size %q, want HxW: %w", s, err)
	}
	return h, w, nil
}

func newPrinter() (*message.Printer, error) {
	tag, err := language.Parse(langTag)
	if err != nil {
		return nil, fmt.Errorf("invalid --lang %q: %w", langTag, err)
	}
	return message.NewPrinter(tag), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
