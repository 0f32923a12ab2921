// env_test.go - syscall semantics: RNG reproducibility, string bound
// checking, and the read/parse paths.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package env

import (
	"bytes"
	"strings"
	"testing"

	"github.com/intuitionamiga/ie32mips/internal/cpu"
)

type stubEnvironment struct{ stopped bool }

func (s *stubEnvironment) ArithmeticError(c *cpu.CPU, errorID uint32)                     { s.stopped = true }
func (s *stubEnvironment) MemoryError(c *cpu.CPU, errorID uint32)                         { s.stopped = true }
func (s *stubEnvironment) InvalidOpcode(c *cpu.CPU)                                       { s.stopped = true }
func (s *stubEnvironment) SystemCall(c *cpu.CPU, callID uint32)                           {}
func (s *stubEnvironment) SystemCallError(c *cpu.CPU, callID, errorID uint32, msg string) {}

func newTestCPU() *cpu.CPU {
	return cpu.New(&stubEnvironment{})
}

func writeNulTerminatedString(c *cpu.CPU, addr uint32, s string) {
	mem := c.Memory()
	for i := 0; i < len(s); i++ {
		mem.SetU8(addr+uint32(i), s[i])
	}
	mem.SetU8(addr+uint32(len(s)), 0)
}

func TestPrintStringStopsAtNulAndBound(t *testing.T) {
	var out bytes.Buffer
	e := NewConsoleFrom(strings.NewReader(""), &out)
	c := newTestCPU()
	writeNulTerminatedString(c, 0x1000, "hello")
	c.SetReg(4, 0x1000)

	e.printString(c)
	if out.String() != "hello" {
		t.Fatalf("expected %q, got %q", "hello", out.String())
	}
}

func TestPrintStringBoundedAt500BytesWithoutNul(t *testing.T) {
	var out bytes.Buffer
	e := NewConsoleFrom(strings.NewReader(""), &out)
	c := newTestCPU()
	mem := c.Memory()
	for i := 0; i < 600; i++ {
		mem.SetU8(0x2000+uint32(i), 'x')
	}
	c.SetReg(4, 0x2000)

	e.printString(c)
	if len(out.String()) != 500 {
		t.Fatalf("expected 500 bytes printed, got %d", len(out.String()))
	}
}

func TestRandomRangeReproducibleFromFixedSeed(t *testing.T) {
	e1 := NewConsoleFrom(strings.NewReader(""), &bytes.Buffer{})
	e1.randSeed = 12345

	e2 := NewConsoleFrom(strings.NewReader(""), &bytes.Buffer{})
	e2.randSeed = 12345

	c1 := newTestCPU()
	c2 := newTestCPU()

	var seq1, seq2 []uint32
	for i := 0; i < 10; i++ {
		c1.SetReg(4, 0)
		c1.SetReg(5, 100)
		e1.randomRange(c1)
		seq1 = append(seq1, c1.Reg(2))

		c2.SetReg(4, 0)
		c2.SetReg(5, 100)
		e2.randomRange(c2)
		seq2 = append(seq2, c2.Reg(2))
	}

	for i := range seq1 {
		if seq1[i] != seq2[i] {
			t.Fatalf("sequence diverged at %d: %d != %d", i, seq1[i], seq2[i])
		}
		if seq1[i] >= 100 {
			t.Fatalf("expected result in [0,100), got %d", seq1[i])
		}
	}
}

func TestRandomRangeZeroWhenRangeInvalid(t *testing.T) {
	e := NewConsoleFrom(strings.NewReader(""), &bytes.Buffer{})
	c := newTestCPU()
	c.SetReg(4, 50)
	c.SetReg(5, 50) // hi == lo, not > lo
	e.randomRange(c)
	if c.Reg(2) != 0 {
		t.Fatalf("expected 0 for empty range, got %d", c.Reg(2))
	}
}

func TestReadDecimalParsesSignedAndUnsigned(t *testing.T) {
	e := NewConsoleFrom(strings.NewReader("-42\n"), &bytes.Buffer{})
	c := newTestCPU()
	e.readDecimal(c, 5)
	if got := int32(c.Reg(2)); got != -42 {
		t.Fatalf("expected -42, got %d", got)
	}
}

func TestReadCharAcceptsExactlyOneCharacter(t *testing.T) {
	e := NewConsoleFrom(strings.NewReader("q\n"), &bytes.Buffer{})
	c := newTestCPU()
	e.readChar(c, 102)
	if got := rune(c.Reg(2)); got != 'q' {
		t.Fatalf("expected 'q', got %q", got)
	}
}

func TestReadCharRejectsMultipleCharacters(t *testing.T) {
	e := NewConsoleFrom(strings.NewReader("ab\n"), &bytes.Buffer{})
	c := newTestCPU()
	c.SetReg(2, 0xDEADBEEF)
	e.readChar(c, 102)
	if c.Reg(2) != 0xDEADBEEF {
		t.Fatalf("expected reg2 untouched on invalid input, got %#x", c.Reg(2))
	}
}

func TestHSVToPackedRGBPrimaryColors(t *testing.T) {
	red := hsvToPackedRGB(0, 255, 255)
	if red != 0x0000FF {
		t.Fatalf("expected pure red (0x0000FF packed), got %#06x", red)
	}
}

func TestFramebufferFillAndSnapshot(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.Fill(0x00FF00)
	w, h, pix := fb.Snapshot()
	if w != 2 || h != 2 {
		t.Fatalf("expected 2x2, got %dx%d", w, h)
	}
	for i := 0; i < len(pix); i += 4 {
		if pix[i] != 0 || pix[i+1] != 0xFF || pix[i+2] != 0 || pix[i+3] != 0xFF {
			t.Fatalf("expected green opaque pixel at offset %d, got %v", i, pix[i:i+4])
		}
	}
}

func TestFramebufferSetPixelIndex(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.Fill(0x00FF00)
	fb.SetPixelIndex(10, 0x0000FF)
	_, _, pix := fb.Snapshot()
	off := 10 * 4
	if pix[off] != 0xFF || pix[off+1] != 0 || pix[off+2] != 0 {
		t.Fatalf("expected red pixel (packed 0x0000FF) at index 10, got %v", pix[off:off+4])
	}
}
