package pattern

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/sbl8/lifestep/core"
)

// maxSnapshotBytes bounds the decompressed size of a snapshot.
const maxSnapshotBytes = 1 << 30

var encoderPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		return enc
	},
}

var decoderPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxSnapshotBytes))
		return dec
	},
}

// WriteSnapshot stores g and its generation counter as a zstd-compressed
// snapshot.
func WriteSnapshot(w io.Writer, g core.Grid, generation uint64) error {
	raw, err := core.MarshalGrid(g, generation)
	if err != nil {
		return err
	}

	enc := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(enc)
	enc.Reset(w)
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		return fmt.Errorf("snapshot: compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("snapshot: compress: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (core.Grid, uint64, error) {
	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)
	if err := dec.Reset(r); err != nil {
		return core.Grid{}, 0, fmt.Errorf("snapshot: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(dec, maxSnapshotBytes+1)); err != nil {
		return core.Grid{}, 0, fmt.Errorf("%w: decompress: %v", core.ErrSnapshotFormat, err)
	}
	if buf.Len() > maxSnapshotBytes {
		return core.Grid{}, 0, fmt.Errorf("%w: larger than %d bytes", core.ErrSnapshotFormat, maxSnapshotBytes)
	}
	return core.UnmarshalGrid(buf.Bytes())
}
