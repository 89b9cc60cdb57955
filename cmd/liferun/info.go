package main

import (
	"github.com/spf13/cobra"

	"github.com/sbl8/lifestep/kernels"
	"github.com/sbl8/lifestep/pattern"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [pattern]",
		Short: "Report CPU kernel support and pattern metadata",
		Long: `The info command prints the kernel the engine selects on this machine
and, given a pattern file, its size, population and live bounds.

Example:
  liferun info
  liferun info glider.rle --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type patternInfo struct {
	Name       string        `json:"name"`
	Author     string        `json:"author,omitempty"`
	Comments   []string      `json:"comments,omitempty"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	X          int           `json:"x"`
	Y          int           `json:"y"`
	Population int           `json:"population"`
	Bounds     *pattern.Rect `json:"bounds,omitempty"`
}

type infoResult struct {
	Features kernels.Features `json:"features"`
	Steppers []string         `json:"steppers"`
	Pattern  *patternInfo     `json:"pattern,omitempty"`
}

func runInfo(args []string) error {
	res := infoResult{
		Features: kernels.DetectFeatures(),
		Steppers: kernels.StepperNames(),
	}
	if len(args) > 0 {
		p, err := pattern.Load(args[0])
		if err != nil {
			return err
		}
		pi := &patternInfo{
			Name:       p.Name,
			Author:     p.Author,
			Comments:   p.Comments,
			Width:      p.Width(),
			Height:     p.Height(),
			X:          p.X,
			Y:          p.Y,
			Population: p.Population(),
		}
		if r, ok := p.Bounds(); ok {
			pi.Bounds = &r
		}
		res.Pattern = pi
	}

	if jsonOut {
		return printJSON(res)
	}

	f := res.Features
	printInfo("\nEngine:\n")
	printInfo("  Arch: %s (%d CPUs)\n", f.Arch, f.CPUs)
	printInfo("  Default kernel: %s\n", f.DefaultMode)
	printInfo("  Word kernels: %v (chunk %d cells)\n", f.WordKernels, f.ChunkWidth)
	printVerbose("  SSE2: %v  AVX2: %v  ASIMD: %v  unaligned loads: %v\n", f.SSE2, f.AVX2, f.ASIMD, f.UnalignedLoad)
	printVerbose("  Cache line pad: %d\n", f.CacheLinePad)
	printInfo("  Steppers: %v\n", res.Steppers)

	if pi := res.Pattern; pi != nil {
		printInfo("\nPattern:\n")
		printInfo("  Name: %s\n", pi.Name)
		if pi.Author != "" {
			printInfo("  Author: %s\n", pi.Author)
		}
		printInfo("  Size: %dx%d at (%d,%d)\n", pi.Width, pi.Height, pi.X, pi.Y)
		printInfo("  Population: %d\n", pi.Population)
		if pi.Bounds != nil {
			printInfo("  Live bounds: rows %d-%d, columns %d-%d\n",
				pi.Bounds.MinRow, pi.Bounds.MaxRow, pi.Bounds.MinCol, pi.Bounds.MaxCol)
		}
		for _, c := range pi.Comments {
			printVerbose("  # %s\n", c)
		}
	}
	return nil
}
