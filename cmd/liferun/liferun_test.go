package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/lifestep/pattern"
)

// captureOutput captures stdout while running fn.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()
	w.Close()
	os.Stdout = orig
	return string(<-done), fnErr
}

func resetFlags() {
	verbose, quiet, jsonOut, logLevel = false, false, false, ""
	workers, kernelName, cacheSlots, disableCache, maxBuffer = 2, "auto", 1, false, 0
	runSteps, runOut, runPrint, runTimeout, runEvery = 1, "", false, 0, 0
	runBoard = boardFlags{density: 0.3, seed: 1}
	renderOut, renderScale, renderSteps = "", 4, 0
	renderBoard = boardFlags{density: 0.3, seed: 1}
}

const blinkerRLE = "#N Blinker\n#R 1 1\nx = 3, y = 1, rule = B3/S23\n3o!\n"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunPatternFile(t *testing.T) {
	resetFlags()
	path := writeFile(t, "blinker.rle", blinkerRLE)
	runSteps = 3
	runPrint = true
	runBoard.minHeight, runBoard.minWidth = 5, 5

	out, err := captureOutput(t, func() error { return runRun(context.Background(), []string{path}) })
	require.NoError(t, err)
	assert.Contains(t, out, "Blinker: 3 generations")
	assert.Contains(t, out, "population 3")
	assert.Contains(t, out, "..#..")
}

func TestRunRandomJSONAndSnapshot(t *testing.T) {
	resetFlags()
	jsonOut = true
	runBoard.random = "30x40"
	runSteps = 5
	runOut = filepath.Join(t.TempDir(), "final.lfs")

	out, err := captureOutput(t, func() error { return runRun(context.Background(), nil) })
	require.NoError(t, err)
	var res runResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 5, res.Steps)
	assert.Equal(t, uint64(5), res.Generation)
	assert.Equal(t, 32, res.Height)
	assert.Equal(t, 42, res.Width)

	// Resuming the snapshot continues the generation count.
	snapshot := runOut
	resetFlags()
	jsonOut = true
	runSteps = 2
	out, err = captureOutput(t, func() error { return runRun(context.Background(), []string{snapshot}) })
	require.NoError(t, err)
	var resumed runResult
	require.NoError(t, json.Unmarshal([]byte(out), &resumed))
	assert.Equal(t, uint64(7), resumed.Generation)
	assert.Equal(t, res.Height, resumed.Height)
}

func TestRunErrors(t *testing.T) {
	resetFlags()
	_, err := captureOutput(t, func() error { return runRun(context.Background(), nil) })
	assert.Error(t, err)

	resetFlags()
	kernelName = "simd"
	runBoard.random = "5x5"
	_, err = captureOutput(t, func() error { return runRun(context.Background(), nil) })
	assert.Error(t, err)

	resetFlags()
	maxBuffer = 64
	runBoard.random = "50x50"
	_, err = captureOutput(t, func() error { return runRun(context.Background(), nil) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AllocationFailure")

	resetFlags()
	logLevel = "loud"
	assert.Error(t, setupLogging(os.Stderr))
}

func TestRender(t *testing.T) {
	resetFlags()
	path := writeFile(t, "blinker.rle", blinkerRLE)
	renderOut = filepath.Join(t.TempDir(), "blinker.png")
	renderScale = 3
	renderSteps = 1

	_, err := captureOutput(t, func() error { return runRender(context.Background(), []string{path}) })
	require.NoError(t, err)

	fh, err := os.Open(renderOut)
	require.NoError(t, err)
	defer fh.Close()
	img, err := png.Decode(fh)
	require.NoError(t, err)
	assert.Equal(t, 6*3, img.Bounds().Dx())
	assert.Equal(t, 4*3, img.Bounds().Dy())
}

func TestInfoJSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	path := writeFile(t, "blinker.rle", blinkerRLE)

	out, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	var res struct {
		Features struct {
			Arch        string `json:"Arch"`
			DefaultMode string `json:"DefaultMode"`
		} `json:"features"`
		Steppers []string     `json:"steppers"`
		Pattern  *patternInfo `json:"pattern"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.Features.Arch)
	assert.NotEmpty(t, res.Features.DefaultMode)
	assert.Contains(t, res.Steppers, "reference")
	require.NotNil(t, res.Pattern)
	assert.Equal(t, "Blinker", res.Pattern.Name)
	assert.Equal(t, 3, res.Pattern.Population)
}

func TestSaveBoardRoundTrip(t *testing.T) {
	resetFlags()
	p, err := pattern.Random(10, 12, 0.4, 5)
	require.NoError(t, err)
	g, err := p.ToGrid(0, 0)
	require.NoError(t, err)
	b := &board{name: "r", grid: g, generation: 7}

	dir := t.TempDir()
	for _, name := range []string{"b.rle", "b.seg", "b.lfs"} {
		path := filepath.Join(dir, name)
		require.NoError(t, saveBoard(path, b))
		back, err := loadBoard(path, boardFlags{})
		require.NoError(t, err, name)
		assert.Equal(t, g.Population(), back.grid.Population(), name)
		if name == "b.lfs" {
			assert.True(t, g.Equal(back.grid))
			assert.Equal(t, uint64(7), back.generation)
		}
	}
}
