package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sbl8/lifestep/pattern"
)

var (
	renderOut   string
	renderScale int
	renderSteps int
	renderBoard boardFlags
)

func init() {
	rootCmd.AddCommand(newRenderCmd())
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [pattern]",
		Short: "Render a board as a PNG image",
		Long: `The render command draws a board, optionally after advancing it, as a
greyscale PNG with one square of --scale pixels per cell.

Example:
  liferun render gosper.rle -o gun.png --scale 8 --steps 30`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args)
		},
	}
	cmd.Flags().StringVarP(&renderOut, "out", "o", "board.png", "Output PNG path")
	cmd.Flags().IntVar(&renderScale, "scale", 4, "Pixels per cell")
	cmd.Flags().IntVarP(&renderSteps, "steps", "n", 0, "Generations to advance before rendering")
	addBoardFlags(cmd, &renderBoard)
	return cmd
}

func runRender(ctx context.Context, args []string) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	b, err := loadBoard(path, renderBoard)
	if err != nil {
		return err
	}

	if renderSteps > 0 {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()
		if _, err := stepBoard(ctx, engine, b, renderSteps, 0); err != nil {
			return err
		}
	}

	fh, err := os.Create(renderOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	if err := pattern.WritePNG(fh, b.grid, renderScale); err != nil {
		return fmt.Errorf("rendering %s: %w", renderOut, err)
	}
	printInfo("Wrote %s (%dx%d cells, generation %d)\n", renderOut, b.grid.Width, b.grid.Height, b.generation)
	return nil
}
