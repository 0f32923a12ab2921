// memview.go - Memory View: one per holder, a 65536-slot direct table from
// the high 16 bits of an address to a Page pointer, rebuilt on every pool
// unlock. This is the fast path the CPU reads instructions and data
// through; between lock cycles it needs no further indirection.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package memview

import (
	"encoding/binary"

	"github.com/intuitionamiga/ie32mips/internal/page"
)

const tableSize = 1 << 16

// Alignment error ids, passed to FaultReporter.MemoryError — see spec §4.2.
const (
	ErrLoad16Misaligned  = 0
	ErrLoad32Misaligned  = 1
	ErrStoreMisaligned   = 3
)

// FaultReporter receives misaligned-access notifications. A cpu.CPU
// implements this by passing the fault to its Environment, which decides
// whether to stop the CPU.
type FaultReporter interface {
	MemoryError(errorID uint32)
}

// MemoryEventOwner is implemented by a View's owner (the CPU) so pageOrMake
// can mark it as being inside a memory event of its own before calling
// Pool.CreatePage. Without this, a CPU that triggers page creation from its
// own dispatch goroutine would deadlock against the pool's lock cycle
// calling back into the CPU's own pause gate — see cpu.go's
// pauseExcludeMemoryEvent.
type MemoryEventOwner interface {
	EnterMemoryEvent()
	ExitMemoryEvent()
}

// View is a single holder's direct page table over a shared Pool.
type View struct {
	pool     *page.Pool
	owner    page.Listener // nil if this view's accesses never trigger page creation as a registered listener
	reporter FaultReporter
	table    [tableSize]*page.Page
	reg      *page.Registration
}

// New constructs a View registered as a Holder of pool. owner is the
// page.Listener (typically the CPU) whose memory events this view serves;
// it is passed through to Pool.CreatePage as the lock cycle's initiator.
// reporter receives alignment-fault notifications.
func New(pool *page.Pool, owner page.Listener, reporter FaultReporter) *View {
	v := &View{pool: pool, owner: owner, reporter: reporter}
	v.reg = pool.RegisterHolder(v)
	v.Rebuild(pool)
	return v
}

// Close unregisters the view from its pool. Safe to call more than once.
func (v *View) Close() {
	v.reg.Release()
}

// Rebuild implements page.Holder: it repopulates the table from the pool's
// current (indices, pages) arrays. Called by the pool once per unlock.
func (v *View) Rebuild(p *page.Pool) {
	for i := range v.table {
		v.table[i] = nil
	}
	indices, pages := p.Snapshot()
	for i, idx := range indices {
		v.table[idx] = pages[i]
	}
}

func (v *View) pageAt(addr uint32) *page.Page {
	return v.table[addr>>16]
}

// pageOrMake returns the page covering addr, creating it through the pool
// (and thus running a full lock cycle) if it is not yet mapped.
func (v *View) pageOrMake(addr uint32) *page.Page {
	idx := uint16(addr >> 16)
	if pg := v.table[idx]; pg != nil {
		return pg
	}
	if m, ok := v.owner.(MemoryEventOwner); ok {
		m.EnterMemoryEvent()
		defer m.ExitMemoryEvent()
	}
	_, err := v.pool.CreatePage(idx, v.owner)
	if err != nil {
		// Lost the race to another holder creating the same page
		// concurrently; our table was already rebuilt by that cycle.
		return v.table[idx]
	}
	return v.table[idx]
}

// GetU8 reads a single byte. An unmapped page reads as zero and allocates
// nothing.
func (v *View) GetU8(addr uint32) uint8 {
	pg := v.pageAt(addr)
	if pg == nil {
		return 0
	}
	return pg.Bytes[uint16(addr)]
}

// GetU8Optional reads a single byte, returning ok=false if the page is
// unmapped rather than synthesising a zero. Used by syscalls that must
// distinguish "wrote a real zero byte" from "ran off mapped memory" (see
// the string-print syscall in internal/env).
func (v *View) GetU8Optional(addr uint32) (value uint8, ok bool) {
	pg := v.pageAt(addr)
	if pg == nil {
		return 0, false
	}
	return pg.Bytes[uint16(addr)], true
}

// GetI8 reads a single byte sign-extended to int8.
func (v *View) GetI8(addr uint32) int8 {
	return int8(v.GetU8(addr))
}

// SetU8 writes a single byte, creating the backing page if necessary.
func (v *View) SetU8(addr uint32, value uint8) {
	pg := v.pageOrMake(addr)
	pg.Bytes[uint16(addr)] = value
}

// GetU16Aligned reads a little-endian uint16. Misaligned addresses (odd)
// are reported to the FaultReporter with ErrLoad16Misaligned when
// alignment checking is built in; ok is false and no allocation happens.
func (v *View) GetU16Aligned(addr uint32) (value uint16, ok bool) {
	if checkAlignment && addr&1 != 0 {
		v.reporter.MemoryError(ErrLoad16Misaligned)
		return 0, false
	}
	return v.readU16(addr), true
}

// GetI16Aligned reads a little-endian int16 with the same alignment rule
// as GetU16Aligned.
func (v *View) GetI16Aligned(addr uint32) (value int16, ok bool) {
	u, ok := v.GetU16Aligned(addr)
	return int16(u), ok
}

// SetU16Aligned writes a little-endian uint16. Misaligned addresses report
// ErrStoreMisaligned and the write does not happen.
func (v *View) SetU16Aligned(addr uint32, value uint16) (ok bool) {
	if checkAlignment && addr&1 != 0 {
		v.reporter.MemoryError(ErrStoreMisaligned)
		return false
	}
	v.writeU16(addr, value)
	return true
}

// GetU32Aligned reads a little-endian uint32. Misaligned addresses (not a
// multiple of 4) report ErrLoad32Misaligned; ok is false and the result
// must be discarded by the caller.
func (v *View) GetU32Aligned(addr uint32) (value uint32, ok bool) {
	if checkAlignment && addr&3 != 0 {
		v.reporter.MemoryError(ErrLoad32Misaligned)
		return 0, false
	}
	return v.readU32(addr), true
}

// SetU32Aligned writes a little-endian uint32. Misaligned addresses report
// ErrStoreMisaligned and the write does not happen.
func (v *View) SetU32Aligned(addr uint32, value uint32) (ok bool) {
	if checkAlignment && addr&3 != 0 {
		v.reporter.MemoryError(ErrStoreMisaligned)
		return false
	}
	v.writeU32(addr, value)
	return true
}

// readU16/writeU16/readU32/writeU32 compose byte-granular access the same
// way memory_bus.go composes its 32-bit accesses with
// encoding/binary.LittleEndian, but across page boundaries.
func (v *View) readU16(addr uint32) uint16 {
	if uint16(addr) <= page.Size-2 {
		pg := v.pageAt(addr)
		if pg == nil {
			return 0
		}
		return binary.LittleEndian.Uint16(pg.Bytes[uint16(addr):])
	}
	lo := v.GetU8(addr)
	hi := v.GetU8(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (v *View) writeU16(addr uint32, value uint16) {
	if uint16(addr) <= page.Size-2 {
		pg := v.pageOrMake(addr)
		binary.LittleEndian.PutUint16(pg.Bytes[uint16(addr):], value)
		return
	}
	v.SetU8(addr, byte(value))
	v.SetU8(addr+1, byte(value>>8))
}

func (v *View) readU32(addr uint32) uint32 {
	if uint16(addr) <= page.Size-4 {
		pg := v.pageAt(addr)
		if pg == nil {
			return 0
		}
		return binary.LittleEndian.Uint32(pg.Bytes[uint16(addr):])
	}
	var out uint32
	for i := uint32(0); i < 4; i++ {
		out |= uint32(v.GetU8(addr+i)) << (8 * i)
	}
	return out
}

func (v *View) writeU32(addr uint32, value uint32) {
	if uint16(addr) <= page.Size-4 {
		pg := v.pageOrMake(addr)
		binary.LittleEndian.PutUint32(pg.Bytes[uint16(addr):], value)
		return
	}
	for i := uint32(0); i < 4; i++ {
		v.SetU8(addr+i, byte(value>>(8*i)))
	}
}

// GetOrMakeRawPointer returns the backing Page and byte offset for addr,
// for bulk reads, creating the page if it is not mapped. The returned Page
// is valid only until the next lock cycle.
func (v *View) GetOrMakeRawPointer(addr uint32) (*page.Page, uint16) {
	pg := v.pageOrMake(addr)
	return pg, uint16(addr)
}
