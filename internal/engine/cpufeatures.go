package engine

import (
	"golang.org/x/sys/cpu"
)

// simdTier names which vectorized kernel tier the NNUE accumulator/feature
// layers expect to run under on this machine. The actual kernels live in the
// vendored sfnnue module and are selected at compile time via build tags
// (simd.go/simd_neon.go/simd_scalar.go); this is a runtime report of
// which tier the hardware actually supports, surfaced at startup so a
// mismatch (e.g. an AVX2 binary running on a non-AVX2 host) is visible in
// the log rather than silently crashing on an illegal instruction.
type simdTier string

const (
	simdTierAVX2   simdTier = "avx2"
	simdTierSSE4   simdTier = "sse4"
	simdTierNEON   simdTier = "neon"
	simdTierScalar simdTier = "scalar"
)

// detectSIMDTier reports the best SIMD tier golang.org/x/sys/cpu finds
// available on the current CPU.
func detectSIMDTier() simdTier {
	if cpu.X86.HasAVX2 {
		return simdTierAVX2
	}
	if cpu.X86.HasSSE41 {
		return simdTierSSE4
	}
	if cpu.ARM64.HasASIMD {
		return simdTierNEON
	}
	return simdTierScalar
}

// hasBMI2 reports whether the host supports the BMI2 PEXT instruction,
// consulted when choosing between a PEXT-indexed and a magic-multiplier
// sliding-attack table (magic.go uses the magic-multiplier path
// unconditionally, since Go's standard library exposes no portable PEXT
// intrinsic without assembly; this flag is reported for diagnostic parity
// with the choice spec's attack-table construction describes).
func hasBMI2() bool {
	return cpu.X86.HasBMI2
}
