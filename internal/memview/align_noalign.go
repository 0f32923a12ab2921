//go:build noalign

package memview

const checkAlignment = false
