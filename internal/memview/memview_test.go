// memview_test.go - round-trip and alignment-boundary coverage for the
// per-holder direct page table.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package memview

import (
	"testing"

	"github.com/intuitionamiga/ie32mips/internal/page"
)

type recordingFaultReporter struct {
	errors []uint32
}

func (r *recordingFaultReporter) MemoryError(errorID uint32) {
	r.errors = append(r.errors, errorID)
}

type passthroughListener struct{}

func (passthroughListener) Lock(initiator bool) error   { return nil }
func (passthroughListener) Unlock(initiator bool) error { return nil }

func newTestView() (*View, *recordingFaultReporter) {
	pool := page.NewPool()
	reporter := &recordingFaultReporter{}
	v := New(pool, passthroughListener{}, reporter)
	return v, reporter
}

func TestByteRoundTrip(t *testing.T) {
	v, _ := newTestView()
	v.SetU8(0x1234, 0xAB)
	if got := v.GetU8(0x1234); got != 0xAB {
		t.Fatalf("expected 0xAB, got %#02x", got)
	}
}

func TestUnmappedByteReadsZero(t *testing.T) {
	v, _ := newTestView()
	if got := v.GetU8(0xDEAD); got != 0 {
		t.Fatalf("expected 0 on unmapped page, got %#02x", got)
	}
}

func TestGetU8OptionalDistinguishesUnmapped(t *testing.T) {
	v, _ := newTestView()
	if _, ok := v.GetU8Optional(0x1000); ok {
		t.Fatal("expected ok=false for unmapped page")
	}
	v.SetU8(0x1000, 0)
	if val, ok := v.GetU8Optional(0x1000); !ok || val != 0 {
		t.Fatalf("expected ok=true val=0 for mapped zero byte, got ok=%v val=%d", ok, val)
	}
}

func TestU16RoundTripWithinPage(t *testing.T) {
	v, _ := newTestView()
	if !v.SetU16Aligned(0x100, 0xBEEF) {
		t.Fatal("expected SetU16Aligned to succeed on aligned address")
	}
	got, ok := v.GetU16Aligned(0x100)
	if !ok || got != 0xBEEF {
		t.Fatalf("expected 0xBEEF, got %#04x ok=%v", got, ok)
	}
}

func TestU32RoundTripAtEndOfPage(t *testing.T) {
	v, _ := newTestView()
	addr := uint32(page.Size - 4)
	if !v.SetU32Aligned(addr, 0x11223344) {
		t.Fatal("expected SetU32Aligned to succeed")
	}
	got, ok := v.GetU32Aligned(addr)
	if !ok || got != 0x11223344 {
		t.Fatalf("expected 0x11223344, got %#08x ok=%v", got, ok)
	}
}

func TestMisalignedU16LoadReportsFaultAndSkipsValue(t *testing.T) {
	if !checkAlignment {
		t.Skip("alignment checking disabled in this build")
	}
	v, reporter := newTestView()
	v.SetU8(1, 0xFF)
	v.SetU8(2, 0xFF)
	_, ok := v.GetU16Aligned(1)
	if ok {
		t.Fatal("expected ok=false for misaligned load")
	}
	if len(reporter.errors) != 1 || reporter.errors[0] != ErrLoad16Misaligned {
		t.Fatalf("expected one ErrLoad16Misaligned report, got %v", reporter.errors)
	}
}

func TestMisalignedU32StoreReportsFaultAndSkipsWrite(t *testing.T) {
	if !checkAlignment {
		t.Skip("alignment checking disabled in this build")
	}
	v, reporter := newTestView()
	ok := v.SetU32Aligned(2, 0xFFFFFFFF)
	if ok {
		t.Fatal("expected ok=false for misaligned store")
	}
	if len(reporter.errors) != 1 || reporter.errors[0] != ErrStoreMisaligned {
		t.Fatalf("expected one ErrStoreMisaligned report, got %v", reporter.errors)
	}
	if v.GetU8(2) != 0 || v.GetU8(3) != 0 {
		t.Fatal("expected misaligned store to write nothing")
	}
}

func TestRebuildAfterExternalPageCreation(t *testing.T) {
	pool := page.NewPool()
	reporter := &recordingFaultReporter{}
	v := New(pool, passthroughListener{}, reporter)

	pool.CreatePage(7, nil)
	v.Rebuild(pool)

	addr := uint32(7)<<16 | 0x10
	v.SetU8(addr, 0x42)
	if got := v.GetU8(addr); got != 0x42 {
		t.Fatalf("expected 0x42 after rebuild, got %#02x", got)
	}
}
