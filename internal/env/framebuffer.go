// framebuffer.go - the pixel surface behind syscalls 150-156. Storage is a
// flat RGBA byte slice the way video_backend_ebiten.go's EbitenOutput keeps
// its frameBuffer; a generation counter lets a host game loop tell whether
// a new Present (syscall 153) has happened since its last Draw.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package env

import "sync"

// Framebuffer is a w×h RGBA pixel surface with opaque alpha, guarded for
// concurrent access between the CPU's dispatch goroutine (which writes via
// syscalls) and a host render loop (which reads via Snapshot).
type Framebuffer struct {
	mu         sync.RWMutex
	width      int
	height     int
	pix        []byte // RGBA, len == width*height*4
	generation uint64
}

// NewFramebuffer allocates a w×h surface filled black, per syscall 150.
func NewFramebuffer(w, h int) *Framebuffer {
	fb := &Framebuffer{width: w, height: h, pix: make([]byte, w*h*4)}
	fb.fillLocked(0)
	return fb
}

// Dimensions returns the current width and height.
func (fb *Framebuffer) Dimensions() (w, h int) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.width, fb.height
}

func (fb *Framebuffer) fillLocked(packedRGB uint32) {
	r, g, b := byte(packedRGB), byte(packedRGB>>8), byte(packedRGB>>16)
	for i := 0; i < len(fb.pix); i += 4 {
		fb.pix[i], fb.pix[i+1], fb.pix[i+2], fb.pix[i+3] = r, g, b, 0xFF
	}
}

// Fill sets every pixel to packedRGB, per syscall 156.
func (fb *Framebuffer) Fill(packedRGB uint32) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.fillLocked(packedRGB)
}

// SetPixel sets the pixel at (x, y), per syscall 151. Out-of-bounds
// coordinates are ignored rather than panicking, matching the "log and
// stop" policy being reserved for CPU faults, not host-side drawing
// mistakes the original never bounds-checks either.
func (fb *Framebuffer) SetPixel(x, y int, packedRGB uint32) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return
	}
	fb.setIndexLocked(y*fb.width+x, packedRGB)
}

// SetPixelIndex sets the pixel at a linear index, per syscall 152.
func (fb *Framebuffer) SetPixelIndex(index int, packedRGB uint32) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.setIndexLocked(index, packedRGB)
}

func (fb *Framebuffer) setIndexLocked(index int, packedRGB uint32) {
	if index < 0 || index >= fb.width*fb.height {
		return
	}
	off := index * 4
	fb.pix[off] = byte(packedRGB)
	fb.pix[off+1] = byte(packedRGB >> 8)
	fb.pix[off+2] = byte(packedRGB >> 16)
	fb.pix[off+3] = 0xFF
}

// Resize reallocates the surface to w×h, filled black, per syscall 150
// issued again mid-run.
func (fb *Framebuffer) Resize(w, h int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.width, fb.height = w, h
	fb.pix = make([]byte, w*h*4)
	fb.fillLocked(0)
}

// Present bumps the generation counter, per syscall 153's "present to host
// texture" — the actual texture upload happens in the host's render loop,
// which polls Generation against its own last-drawn value.
func (fb *Framebuffer) Present() {
	fb.mu.Lock()
	fb.generation++
	fb.mu.Unlock()
}

// Generation returns the count of Present calls so far.
func (fb *Framebuffer) Generation() uint64 {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.generation
}

// Snapshot copies the current pixel buffer out for rendering.
func (fb *Framebuffer) Snapshot() (w, h int, pix []byte) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	out := make([]byte, len(fb.pix))
	copy(out, fb.pix)
	return fb.width, fb.height, out
}
