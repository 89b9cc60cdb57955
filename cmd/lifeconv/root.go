package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/pattern"
)

var (
	fromFormat string
	toFormat   string
	scale      int
	name       string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lifeconv <input> <output>",
	Short: "Convert Life patterns between formats",
	Long: `lifeconv converts between RLE (.rle), segment text (.seg, .txt),
snapshots (.lfs) and PNG images (.png, output only). Formats are taken from
the file extensions unless --from or --to is given. "-" reads standard input
or writes standard output.

Example:
  lifeconv glider.rle glider.seg
  lifeconv board.lfs board.rle --name "after 1000 generations"
  lifeconv glider.rle glider.png --scale 16
  cat glider.rle | lifeconv --from rle --to seg - -`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args[0], args[1], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&fromFormat, "from", "", "Input format (rle, seg, lfs)")
	f.StringVar(&toFormat, "to", "", "Output format (rle, seg, lfs, png)")
	f.IntVar(&scale, "scale", 4, "Pixels per cell for png output")
	f.StringVar(&name, "name", "", "Pattern name to store in the output")
	f.BoolVarP(&verbose, "verbose", "v", false, "Report what was converted")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

const (
	formatSnapshot = "lfs"
	formatPNG      = "png"
)

// formatFor resolves the explicit format flag or the path extension.
func formatFor(flag, path string) (string, error) {
	if flag != "" {
		flag = strings.ToLower(flag)
		if flag == formatSnapshot || flag == formatPNG {
			return flag, nil
		}
		f, err := pattern.ParseFormat(flag)
		return string(f), err
	}
	if path == "-" {
		return "", fmt.Errorf("standard input and output need --from or --to")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == formatSnapshot || ext == formatPNG {
		return ext, nil
	}
	f, err := pattern.FormatOf(path)
	return string(f), err
}

// document is what was read: a pattern, plus the exact board when the input
// was a snapshot.
type document struct {
	pattern    *pattern.Pattern
	board      core.Grid
	generation uint64
}

func runConvert(in, out string, stdin io.Reader, stdout io.Writer) (err error) {
	from, err := formatFor(fromFormat, in)
	if err != nil {
		return err
	}
	if from == formatPNG {
		return fmt.Errorf("png is an output-only format")
	}
	to, err := formatFor(toFormat, out)
	if err != nil {
		return err
	}

	r := stdin
	if in != "-" {
		fh, err := os.Open(in)
		if err != nil {
			return err
		}
		defer fh.Close()
		r = fh
	}
	doc, err := read(r, from)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}
	if name != "" {
		doc.pattern.Name = name
	}

	w := stdout
	if out != "-" {
		fh, err := os.Create(out)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := fh.Close(); err == nil {
				err = cerr
			}
		}()
		w = fh
	}
	if err := write(w, doc, to); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if verbose {
		p := doc.pattern
		fmt.Fprintf(os.Stderr, "%s (%s) -> %s (%s): %dx%d, population %d\n",
			in, from, out, to, p.Width(), p.Height(), p.Population())
	}
	return nil
}

func read(r io.Reader, format string) (*document, error) {
	if format == formatSnapshot {
		g, gen, err := pattern.ReadSnapshot(r)
		if err != nil {
			return nil, err
		}
		return &document{pattern: pattern.FromGrid(g), board: g, generation: gen}, nil
	}
	p, err := pattern.Decode(r, pattern.Format(format))
	if err != nil {
		return nil, err
	}
	return &document{pattern: p}, nil
}

func write(w io.Writer, doc *document, format string) error {
	switch format {
	case formatSnapshot, formatPNG:
		g, err := doc.grid()
		if err != nil {
			return err
		}
		if format == formatPNG {
			return pattern.WritePNG(w, g, scale)
		}
		return pattern.WriteSnapshot(w, g, doc.generation)
	}
	return pattern.Encode(w, doc.pattern, pattern.Format(format))
}

// grid returns the snapshot board unchanged, or places the pattern on the
// smallest board that holds it at its offset.
func (d *document) grid() (core.Grid, error) {
	if d.board.Height > 0 {
		return d.board, nil
	}
	p := d.pattern
	if p.X < 0 || p.Y < 0 {
		p = p.Trim()
		p.X, p.Y = 0, 0
	}
	return p.ToGrid(0, 0)
}
