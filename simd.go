package blake3

import "github.com/klauspost/cpuid/v2"

// DetectSIMDDegree reports the widest batch of independent blocks the host
// CPU's advertised instruction set could plausibly process in one
// vectorized compression call. It is advisory only: this package's own
// recursion width is the fixed maxSIMDDegree constant in tree.go, never
// this value, because the digest must be identical regardless of the
// machine it runs on. It exists so a caller linking in vectorized
// compression kernels has a feature-detection entry point to build on.
func DetectSIMDDegree() int {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return 16
	case cpuid.CPU.Supports(cpuid.AVX2):
		return 8
	case cpuid.CPU.Supports(cpuid.SSE4):
		return 4
	default:
		return 1
	}
}
