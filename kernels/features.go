package kernels

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/sbl8/lifestep/core"
)

// Features describes the host as far as kernel selection is concerned.
type Features struct {
	Arch          string
	CPUs          int
	WordKernels   bool
	DefaultMode   Mode
	ChunkWidth    int
	CacheLinePad  int
	SSE2          bool
	AVX2          bool
	ASIMD         bool
	UnalignedLoad bool
}

// DetectFeatures inspects the running CPU.
func DetectFeatures() Features {
	f := Features{
		Arch:         runtime.GOARCH,
		CPUs:         runtime.NumCPU(),
		WordKernels:  wordKernels,
		DefaultMode:  ModeAuto.Resolve(),
		ChunkWidth:   ChunkWidth(),
		CacheLinePad: int(unsafe.Sizeof(cpu.CacheLinePad{})),
		SSE2:         cpu.X86.HasSSE2,
		AVX2:         cpu.X86.HasAVX2,
		ASIMD:        cpu.ARM64.HasASIMD,
	}
	switch runtime.GOARCH {
	case "amd64", "386", "arm64", "ppc64le", "s390x":
		f.UnalignedLoad = true
	}
	return f
}

// ChunkWidth is the number of cells the packed loops handle per operation.
func ChunkWidth() int {
	if wordKernels {
		return core.WordSize
	}
	return 1
}
