package pattern

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DecodeSegments reads the segment text format:
//
//	width,height
//	segment count
//	x,y,w,h        (per segment)
//	c,c,...,c      (h rows of w cells)
//
// Segments are written onto a width × height board in order; later segments
// overwrite earlier ones. Cells are 0 or 1.
func DecodeSegments(r io.Reader) (*Pattern, error) {
	s := &segmentScanner{sc: bufio.NewScanner(textReader(r))}

	dims, err := s.ints(2)
	if err != nil {
		return nil, err
	}
	p, err := New(dims[1], dims[0])
	if err != nil {
		return nil, fmt.Errorf("%w: board %dx%d: %v", ErrSyntax, dims[0], dims[1], err)
	}

	count, err := s.ints(1)
	if err != nil {
		return nil, err
	}
	for seg := 0; seg < count[0]; seg++ {
		hdr, err := s.ints(4)
		if err != nil {
			return nil, err
		}
		x, y, w, h := hdr[0], hdr[1], hdr[2], hdr[3]
		if x < 0 || y < 0 || w < 0 || h < 0 || x+w > p.Width() || y+h > p.Height() {
			return nil, syntaxErr(s.line, "segment %d (%d,%d %dx%d) outside %dx%d board", seg, x, y, w, h, p.Width(), p.Height())
		}
		for j := 0; j < h; j++ {
			cells, err := s.ints(w)
			if err != nil {
				return nil, err
			}
			for k, v := range cells {
				if v != 0 && v != 1 {
					return nil, syntaxErr(s.line, "cell value %d", v)
				}
				p.Cells.Set(y+j, x+k, uint8(v))
			}
		}
	}
	return p, nil
}

type segmentScanner struct {
	sc   *bufio.Scanner
	line int
}

// ints reads the next non-blank line as exactly n comma-separated integers.
func (s *segmentScanner) ints(n int) ([]int, error) {
	for s.sc.Scan() {
		s.line++
		text := strings.TrimSpace(s.sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != n {
			return nil, syntaxErr(s.line, "want %d values, got %d", n, len(fields))
		}
		out := make([]int, n)
		for i, f := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, syntaxErr(s.line, "bad integer %q", f)
			}
			out[i] = v
		}
		return out, nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, err
	}
	return nil, syntaxErr(s.line, "unexpected end of input")
}

// EncodeSegments writes the board covering the pattern at its offset as a
// single segment spanning the live cells. A pattern without live cells
// produces zero segments.
func EncodeSegments(w io.Writer, p *Pattern) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d,%d\n", p.X+p.Width(), p.Y+p.Height())

	r, ok := p.Bounds()
	if !ok {
		fmt.Fprintln(bw, 0)
		return bw.Flush()
	}
	fmt.Fprintln(bw, 1)
	fmt.Fprintf(bw, "%d,%d,%d,%d\n", p.X+r.MinCol, p.Y+r.MinRow, r.Width(), r.Height())
	for i := r.MinRow; i <= r.MaxRow; i++ {
		for j := r.MinCol; j <= r.MaxCol; j++ {
			if j > r.MinCol {
				bw.WriteByte(',')
			}
			if p.Cells.At(i, j) != 0 {
				bw.WriteByte('1')
			} else {
				bw.WriteByte('0')
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
