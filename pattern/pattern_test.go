package pattern

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/internal/testgrid"
)

const gliderRLE = `#N Glider
#O Richard K. Guy
#C The smallest, most common, and first discovered spaceship.
#C www.conwaylife.com/wiki/index.php?title=Glider
x = 3, y = 3, rule = B3/S23
bob$2bo$3o!
`

const glider = `
.#.
..#
###`

func TestDecodeRLE(t *testing.T) {
	t.Parallel()
	p, err := DecodeRLE(strings.NewReader(gliderRLE))
	require.NoError(t, err)
	assert.Equal(t, "Glider", p.Name)
	assert.Equal(t, "Richard K. Guy", p.Author)
	assert.Len(t, p.Comments, 2)
	assert.Equal(t, 3, p.Width())
	assert.Equal(t, 3, p.Height())
	assert.Equal(t, testgrid.Parse(glider).String(), p.String())
	assert.Equal(t, 5, p.Population())
}

func TestDecodeRLEVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
		x, y int
	}{
		{
			name: "offset and spaces",
			in:   "#R 4 2\nx=3,y=2\n o 2b $\n3o!",
			want: "#..\n###\n",
			x:    4, y: 2,
		},
		{
			name: "multi-row skip and wrapped body",
			in:   "#P -1 0\nx = 2, y = 4, rule = b3/s23\no\nb2$\nbo!ignored trailing text",
			want: "#.\n..\n.#\n..\n",
			x:    -1,
		},
		{
			name: "missing bang",
			in:   "x = 2, y = 1\n2o",
			want: "##\n",
		},
		{
			name: "utf8 bom",
			in:   "\xef\xbb\xbfx = 1, y = 1\no!",
			want: "#\n",
		},
		{
			name: "empty pattern",
			in:   "x = 0, y = 0\n!",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := DecodeRLE(strings.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
			assert.Equal(t, tt.x, p.X)
			assert.Equal(t, tt.y, p.Y)
		})
	}
}

func TestDecodeRLEErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"no header", "#N nothing\n", ErrSyntax},
		{"bad extent", "x = three, y = 3\n!", ErrSyntax},
		{"missing y", "x = 3\n!", ErrSyntax},
		{"unknown key", "x = 3, y = 3, z = 1\n!", ErrSyntax},
		{"highlife", "x = 3, y = 3, rule = B36/S23\n!", ErrUnsupportedRule},
		{"run past width", "x = 2, y = 1\n3o!", ErrSyntax},
		{"row past height", "x = 2, y = 1\n$o!", ErrSyntax},
		{"bad token", "x = 2, y = 1\noz!", ErrSyntax},
		{"bad offset", "#R 1\nx = 1, y = 1\no!", ErrSyntax},
		{"offset out of range", "#R 9223372036854775807 0\nx = 1, y = 1\no!", ErrSyntax},
		{"board too large", "x = 100000, y = 100000\n!", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeRLE(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeRLE(t *testing.T) {
	t.Parallel()
	g := core.MustGrid(8, 10)
	g.Sub(2, 3, 3, 3).CopyFrom(testgrid.Parse(glider))
	p := FromGrid(g)
	p.Name = "Glider"
	p.Comments = []string{"placed"}

	var buf bytes.Buffer
	require.NoError(t, EncodeRLE(&buf, p))
	assert.Equal(t, "#N Glider\n#C placed\n#R 3 2\nx = 3, y = 3, rule = B3/S23\nbo$2bo$3o!\n", buf.String())

	back, err := DecodeRLE(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, back.X)
	assert.Equal(t, 2, back.Y)
	assert.Equal(t, p.Trim().String(), back.String())
}

func TestEncodeRLEWrapsAndRoundTrips(t *testing.T) {
	t.Parallel()
	p, err := Random(40, 90, 0.5, 7)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeRLE(&buf, p))
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len(line), rleLineWidth, line)
	}

	back, err := DecodeRLE(&buf)
	require.NoError(t, err)
	assert.Equal(t, p.Trim().String(), back.String())
	assert.Equal(t, p.Population(), back.Population())
}

func TestEncodeRLEEmpty(t *testing.T) {
	t.Parallel()
	p, err := New(5, 5)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, EncodeRLE(&buf, p))
	back, err := DecodeRLE(&buf)
	require.NoError(t, err)
	assert.Zero(t, back.Height())
	assert.Zero(t, back.Population())
}

func TestSegmentsRoundTrip(t *testing.T) {
	t.Parallel()
	in := `6,4
2
1,0,3,2
0,1,0
1,1,1
4,2,2,2
1,0
0,1
`
	p, err := DecodeSegments(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "..#...\n.###..\n....#.\n.....#\n", p.String())

	var buf bytes.Buffer
	require.NoError(t, EncodeSegments(&buf, p))
	assert.Equal(t, "6,4\n1\n1,0,5,4\n0,1,0,0,0\n1,1,1,0,0\n0,0,0,1,0\n0,0,0,0,1\n", buf.String())

	back, err := DecodeSegments(&buf)
	require.NoError(t, err)
	assert.Equal(t, p.String(), back.String())
}

func TestSegmentsErrors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"",
		"3",
		"3,3\n1\n0,0,4,1\n1,1,1,1\n",
		"3,3\n1\n0,0,2,1\n1\n",
		"3,3\n1\n0,0,2,1\n1,2\n",
		"3,3\n2\n0,0,1,1\n1\n",
		"100000,100000\n0\n",
	} {
		_, err := DecodeSegments(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrSyntax, "%q", in)
	}
}

func TestBoundsAndTrim(t *testing.T) {
	t.Parallel()
	p, err := New(6, 7)
	require.NoError(t, err)
	_, ok := p.Bounds()
	assert.False(t, ok)

	p.Cells.Set(1, 2, 1)
	p.Cells.Set(4, 5, 1)
	r, ok := p.Bounds()
	require.True(t, ok)
	assert.Equal(t, Rect{MinRow: 1, MinCol: 2, MaxRow: 4, MaxCol: 5}, r)
	assert.Equal(t, 4, r.Height())
	assert.Equal(t, 4, r.Width())

	p.X, p.Y = 10, 20
	tr := p.Trim()
	assert.Equal(t, 12, tr.X)
	assert.Equal(t, 21, tr.Y)
	assert.Equal(t, 4, tr.Width())
	assert.Equal(t, 2, tr.Population())
}

func TestToGrid(t *testing.T) {
	t.Parallel()
	p := FromGrid(testgrid.Parse(glider))
	p.X, p.Y = 2, 1

	g, err := p.ToGrid(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1+3+2, g.Height)
	assert.Equal(t, 2+3+2, g.Width)
	assert.Equal(t, uint8(1), g.At(2, 4))
	assert.Equal(t, 5, g.Population())
	for _, v := range testgrid.Border(g) {
		assert.Zero(t, v)
	}

	big, err := p.ToGrid(20, 30)
	require.NoError(t, err)
	assert.Equal(t, 22, big.Height)
	assert.Equal(t, 32, big.Width)

	p.X = -1
	_, err = p.ToGrid(0, 0)
	assert.Equal(t, core.KindInvalidShape, core.KindOf(err))
}

func TestToGridRejectsHugeOffsets(t *testing.T) {
	t.Parallel()
	p, err := DecodeRLE(strings.NewReader("#R 1073741824 0\nx = 1, y = 1\no!"))
	require.NoError(t, err)
	assert.Equal(t, MaxCells, p.X)

	_, err = p.ToGrid(0, 0)
	assert.Equal(t, core.KindInvalidShape, core.KindOf(err))

	p.X, p.Y = 0, MaxCells-1
	_, err = p.ToGrid(0, 0)
	assert.Equal(t, core.KindInvalidShape, core.KindOf(err), "board over the cell limit")

	_, err = p.ToGrid(0, MaxCells+1)
	assert.Equal(t, core.KindInvalidShape, core.KindOf(err))
}

func TestRandom(t *testing.T) {
	t.Parallel()
	a, err := Random(30, 30, 0.3, 99)
	require.NoError(t, err)
	b, err := Random(30, 30, 0.3, 99)
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
	assert.InDelta(t, 270, a.Population(), 90)

	empty, err := Random(10, 10, 0, 1)
	require.NoError(t, err)
	assert.Zero(t, empty.Population())

	_, err = Random(3, 3, 1.5, 1)
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	p, err := Random(33, 47, 0.4, 3)
	require.NoError(t, err)
	strided := testgrid.Strided(p.Cells)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, strided, 1234))
	g, gen, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), gen)
	assert.True(t, p.Cells.Equal(g))

	_, _, err = ReadSnapshot(strings.NewReader("not zstd at all"))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	t.Parallel()
	g := testgrid.Parse(glider)
	img, err := Render(g, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())
	assert.Equal(t, LiveColor, img.GrayAt(5, 1))
	assert.Equal(t, DeadColor, img.GrayAt(1, 1))
	assert.Equal(t, LiveColor, img.GrayAt(11, 11))

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, g, 2))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 6, decoded.Bounds().Dx())

	_, err = Render(g, 0)
	assert.Error(t, err)
}

func TestLoadSave(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := FromGrid(testgrid.Parse(glider))

	for _, name := range []string{"glider.rle", "glider.seg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, p))
		back, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, "glider", back.Name)
		assert.Equal(t, p.String(), back.Trim().String(), name)
	}

	bad := filepath.Join(dir, "glider.gif")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))
	_, err := Load(bad)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	f, err := ParseFormat("segments")
	require.NoError(t, err)
	assert.Equal(t, FormatSegments, f)
}
