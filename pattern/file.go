package pattern

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a pattern file format.
type Format string

const (
	FormatRLE      Format = "rle"
	FormatSegments Format = "seg"
)

// ErrUnknownFormat is returned for file extensions with no decoder.
var ErrUnknownFormat = errors.New("unknown pattern format")

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rle":
		return FormatRLE, nil
	case ".seg", ".txt", ".state":
		return FormatSegments, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// ParseFormat accepts "rle" or "seg".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatRLE:
		return FormatRLE, nil
	case FormatSegments, "segments":
		return FormatSegments, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Decode reads a pattern in format f.
func Decode(r io.Reader, f Format) (*Pattern, error) {
	switch f {
	case FormatRLE:
		return DecodeRLE(r)
	case FormatSegments:
		return DecodeSegments(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Encode writes p in format f.
func Encode(w io.Writer, p *Pattern, f Format) error {
	switch f {
	case FormatRLE:
		return EncodeRLE(w, p)
	case FormatSegments:
		return EncodeSegments(w, p)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Load reads the pattern file at path, choosing the decoder by extension.
func Load(path string) (*Pattern, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	p, err := Decode(fh, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Save writes p to path in the format its extension names.
func Save(path string, p *Pattern) (err error) {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(fh, p, f)
}
