// align.go - build-time alignment checking switch.
//
// Alignment checking is a build-time option per the core's memory design:
// with the default build, misaligned 16/32-bit accesses are reported to the
// Environment and abort the access; building with -tags noalign removes the
// checks entirely and accesses proceed regardless of address alignment.

//go:build !noalign

package memview

const checkAlignment = true
