package dsv

import (
	"bytes"

	"github.com/klauspost/cpuid/v2"
)

// fastScanSupported caches the CPU feature check once per process, mirroring
// SupportedCPU() in the teacher's simdcsv.go -- except here it gates a
// scalar byte-search fast path rather than a SIMD CSV pipeline, since this
// core's matching stays byte-at-a-time by design (see SPEC_FULL.md §2).
var fastScanSupported = cpuid.CPU.Supports(cpuid.SSE2) || cpuid.CPU.Supports(cpuid.ASIMD)

// fastPathDescription is logged once per Parser at debug level so the
// chosen scan strategy is observable without instrumenting a build.
func fastPathDescription() string {
	if fastScanSupported {
		return "byte-scan: bytes.IndexByte (cpu reports wide unaligned loads)"
	}
	return "byte-scan: manual loop (cpu lacks SSE2/ASIMD)"
}

// fastIndexByte locates the first occurrence of c in buf, preferring the
// standard library's accelerated implementation when the running CPU
// supports the wide loads it relies on, and falling back to a manual scan
// otherwise. Used by the single-sequence shortcut in matcher.go when the
// equivalence set has exactly one non-exclusive one-byte member.
func fastIndexByte(buf []byte, c byte) int {
	if fastScanSupported {
		return bytes.IndexByte(buf, c)
	}
	for i, b := range buf {
		if b == c {
			return i
		}
	}
	return -1
}
