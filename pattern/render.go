package pattern

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/sbl8/lifestep/core"
)

// Colours used by Render.
var (
	LiveColor = color.Gray{Y: 0xFF}
	DeadColor = color.Gray{Y: 0x00}
)

// Render draws one pixel per cell and scales the image up by scale using
// nearest-neighbour sampling, so every cell becomes a scale × scale square.
func Render(g core.Grid, scale int) (*image.Gray, error) {
	if scale < 1 {
		return nil, fmt.Errorf("render: scale %d < 1", scale)
	}
	if err := g.CheckExtent(); err != nil {
		return nil, err
	}
	src := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			c := DeadColor
			if g.At(i, j) != 0 {
				c = LiveColor
			}
			src.SetGray(j, i, c)
		}
	}
	if scale == 1 {
		return src, nil
	}
	dst := image.NewGray(image.Rect(0, 0, g.Width*scale, g.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// WritePNG renders g at the given scale and encodes it as PNG.
func WritePNG(w io.Writer, g core.Grid, scale int) error {
	img, err := Render(g, scale)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
