package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrSnapshotFormat is returned for byte streams that are not grid snapshots.
var ErrSnapshotFormat = errors.New("malformed grid snapshot")

const (
	snapshotMagic   = "LFGS"
	snapshotVersion = 1
)

// snapshotHeader is the fixed-size prefix of a serialized grid.
// Layout: [magic(4)][version(1)][reserved(3)][generation(8)][height(4)][width(4)]
type snapshotHeader struct {
	Magic      [4]byte
	Version    uint8
	_          [3]byte
	Generation uint64
	Height     uint32
	Width      uint32
}

// MarshalGrid encodes g as a header followed by one bit per cell, row-major,
// most significant bit first. Any non-zero cell is stored as live.
func MarshalGrid(g Grid, generation uint64) ([]byte, error) {
	if err := g.CheckExtent(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	hdr := snapshotHeader{
		Version:    snapshotVersion,
		Generation: generation,
		Height:     uint32(g.Height),
		Width:      uint32(g.Width),
	}
	copy(hdr.Magic[:], snapshotMagic)
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}

	bits := make([]byte, packedLen(g.Height, g.Width))
	k := 0
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if g.At(i, j) != 0 {
				bits[k>>3] |= 0x80 >> (k & 7)
			}
			k++
		}
	}
	buf.Write(bits)
	return buf.Bytes(), nil
}

// UnmarshalGrid decodes a snapshot produced by MarshalGrid into a new dense
// grid and returns it with its generation counter.
func UnmarshalGrid(b []byte) (Grid, uint64, error) {
	r := bytes.NewReader(b)
	var hdr snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Grid{}, 0, fmt.Errorf("%w: header: %v", ErrSnapshotFormat, err)
	}
	if string(hdr.Magic[:]) != snapshotMagic {
		return Grid{}, 0, fmt.Errorf("%w: bad magic %q", ErrSnapshotFormat, hdr.Magic[:])
	}
	if hdr.Version != snapshotVersion {
		return Grid{}, 0, fmt.Errorf("%w: unsupported version %d", ErrSnapshotFormat, hdr.Version)
	}
	h, w := int(hdr.Height), int(hdr.Width)
	n, err := Shape{Height: h, Width: w}.Cells()
	if err != nil {
		return Grid{}, 0, fmt.Errorf("%w: %v", ErrSnapshotFormat, err)
	}
	bits := b[len(b)-r.Len():]
	if len(bits) != (n+7)/8 {
		return Grid{}, 0, fmt.Errorf("%w: %d payload bytes for %dx%d grid", ErrSnapshotFormat, len(bits), h, w)
	}
	g, err := NewGrid(h, w)
	if err != nil {
		return Grid{}, 0, err
	}
	k := 0
	for i := 0; i < h; i++ {
		row := g.Row(i)
		for j := range row {
			row[j] = (bits[k>>3] >> (7 - k&7)) & 1
			k++
		}
	}
	return g, hdr.Generation, nil
}

func packedLen(h, w int) int {
	return (h*w + 7) / 8
}
