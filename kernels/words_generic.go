//go:build !(amd64 || arm64 || ppc64 || ppc64le || riscv64 || loong64 || mips64 || mips64le || s390x)

package kernels

// 32-bit targets emulate uint64 arithmetic; the byte loop is faster there.
const wordKernels = false
