package main

import (
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/text/message"
)

func printReport(w io.Writer, pr *message.Printer, rep report) {
	pr.Fprintf(w, "Board %d x %d, density %.2f, seed %d, %d generations, kernel %s\n\n",
		rep.Height, rep.Width, rep.Density, rep.Seed, stepsFlag, rep.Kernel)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	pr.Fprintf(tw, "variant\tworkers\ttotal\tper step\tcells/s\tspeedup\tpopulation\tok\t\n")
	var base time.Duration
	for i, r := range rep.Results {
		if i == 0 {
			base = r.Elapsed
		}
		speedup := 0.0
		if r.Elapsed > 0 {
			speedup = float64(base) / float64(r.Elapsed)
		}
		ok := "yes"
		if !r.Matches {
			ok = "NO"
		}
		pr.Fprintf(tw, "%s\t%d\t%v\t%v\t%.0f\t%.2fx\t%d\t%s\t\n",
			r.Variant, r.Workers, r.Elapsed.Round(time.Microsecond), r.PerStep.Round(time.Microsecond),
			r.CellsPerSec, speedup, r.Population, ok)
	}
	tw.Flush()
}
