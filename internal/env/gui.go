// gui.go - GUIEnvironment wraps ConsoleEnvironment with the keyboard-poll
// and framebuffer syscalls, backed by ebiten's input state the same way
// video_backend_ebiten.go's handleKeyboardInput polls it.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package env

import (
	"io"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/intuitionamiga/ie32mips/internal/cpu"
)

// GUIEnvironment adds the framebuffer (syscalls 150-156) and keyboard poll
// (syscall 104) to ConsoleEnvironment's console I/O, RNG, and clock.
type GUIEnvironment struct {
	*ConsoleEnvironment
	fb *Framebuffer
}

// NewGUI constructs a GUIEnvironment with no framebuffer allocated yet;
// syscall 150 allocates one on first use, matching the original handler's
// zero-sized image before the program's first resize call.
func NewGUI() *GUIEnvironment {
	return NewGUIFrom(nil, nil)
}

// NewGUIFrom is NewGUI with a swappable input/output pair, mirroring
// NewConsoleFrom. Passing nil for both in and out falls back to
// os.Stdin/os.Stdout; a single nil argument is used as given.
func NewGUIFrom(in io.Reader, out io.Writer) *GUIEnvironment {
	var console *ConsoleEnvironment
	if in == nil && out == nil {
		console = NewConsole()
	} else {
		console = NewConsoleFrom(in, out)
	}
	return &GUIEnvironment{ConsoleEnvironment: console, fb: NewFramebuffer(0, 0)}
}

// Framebuffer exposes the surface for the host render loop to snapshot and
// blit each frame.
func (e *GUIEnvironment) Framebuffer() *Framebuffer { return e.fb }

func (e *GUIEnvironment) SystemCall(c *cpu.CPU, callID uint32) {
	switch callID {
	case 104:
		c.SetReg(2, keyPressedValue(c.Reg(4)))
	case 150:
		e.fb.Resize(int(c.Reg(4)), int(c.Reg(5)))
	case 151:
		e.fb.SetPixel(int(c.Reg(4)), int(c.Reg(5)), c.Reg(6))
	case 152:
		e.fb.SetPixelIndex(int(c.Reg(4)), c.Reg(5))
	case 153:
		e.fb.Present()
	case 155:
		c.SetReg(2, hsvToPackedRGB(c.Reg(4), c.Reg(5), c.Reg(6)))
	case 156:
		e.fb.Fill(c.Reg(4))
	default:
		e.ConsoleEnvironment.SystemCall(c, callID)
	}
}

// keyPressedValue reports whether the uppercased ASCII key is currently
// held, per syscall 104.
func keyPressedValue(asciiCode uint32) uint32 {
	r := asciiUpper(byte(asciiCode))
	key, ok := keyFromRune(r)
	if !ok {
		return 0
	}
	if ebiten.IsKeyPressed(key) {
		return 1
	}
	return 0
}

func asciiUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func keyFromRune(r byte) (ebiten.Key, bool) {
	switch {
	case r >= 'A' && r <= 'Z':
		return ebiten.KeyA + ebiten.Key(r-'A'), true
	case r >= '0' && r <= '9':
		return ebiten.Key0 + ebiten.Key(r-'0'), true
	default:
		return 0, false
	}
}

// hsvToPackedRGB implements syscall 155: H, S, V each in 0..255, mapped to
// 0..1 before the standard hexagonal HSV-to-RGB conversion, then packed
// the same way every other color syscall does (r | g<<8 | b<<16).
func hsvToPackedRGB(h, s, v uint32) uint32 {
	hf := float64(h) / 255.0
	sf := float64(s) / 255.0
	vf := float64(v) / 255.0

	r, g, b := hsvToRGB(hf, sf, vf)
	return uint32(r*255.0) | uint32(g*255.0)<<8 | uint32(b*255.0)<<16
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	h = h * 6.0
	i := int(h)
	f := h - float64(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
