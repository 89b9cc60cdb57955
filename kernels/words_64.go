//go:build amd64 || arm64 || ppc64 || ppc64le || riscv64 || loong64 || mips64 || mips64le || s390x

package kernels

// wordKernels enables the packed uint64 loops under ModeAuto.
const wordKernels = true
