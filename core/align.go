package core

import (
	"fmt"
	"unsafe"
)

const (
	// CacheLineSize is a common cache line size, typically 64 bytes.
	CacheLineSize = 64

	// WordSize is the width of the packed-word kernels in bytes.
	WordSize = 8
)

// AlignedSize rounds size up to the nearest cache line multiple.
func AlignedSize(size int) int {
	return (size + CacheLineSize - 1) &^ (CacheLineSize - 1)
}

// IsAligned reports whether the first byte of b sits on a cache line boundary.
func IsAligned(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))%CacheLineSize == 0
}

// AllocBytes allocates a zeroed, cache-aligned byte slice of length size.
// A size the runtime refuses to allocate is reported as an AllocError
// instead of a panic.
func AllocBytes(size int) (b []byte, err error) {
	if size < 0 {
		return nil, &AllocError{What: "cell buffer", Bytes: int64(size), Cause: fmt.Errorf("negative size")}
	}
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = &AllocError{What: "cell buffer", Bytes: int64(size), Cause: fmt.Errorf("%v", r)}
		}
	}()
	return AlignedBytes(size), nil
}

// AlignedBytes allocates a byte slice with its underlying array aligned to
// CacheLineSize.
func AlignedBytes(size int) []byte {
	if size == 0 {
		return nil
	}
	buf := make([]byte, size+CacheLineSize-1)

	ptr := uintptr(unsafe.Pointer(&buf[0]))
	offset := uintptr(0)
	if mod := ptr % CacheLineSize; mod != 0 {
		offset = CacheLineSize - mod
	}
	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}
