// display.go - the ebiten.Game adapter that blits the emulator's
// framebuffer into the window, scaling with golang.org/x/image/draw the
// way video_backend_ebiten.go scales its own frame buffer before
// presenting — except here the scale happens on the CPU-to-window path
// rather than inside the Ebiten image itself, since the emulated screen
// size is whatever syscall 150 last requested.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"

	"github.com/intuitionamiga/ie32mips/internal/cpu"
	"github.com/intuitionamiga/ie32mips/internal/env"
)

const (
	defaultWindowWidth  = 640
	defaultWindowHeight = 480
)

type display struct {
	c  *cpu.CPU
	fb *env.Framebuffer

	lastGeneration uint64
	source         *image.NRGBA
	window         *ebiten.Image
}

func newDisplay(c *cpu.CPU, fb *env.Framebuffer) *display {
	ebiten.SetWindowSize(defaultWindowWidth, defaultWindowHeight)
	return &display{c: c, fb: fb}
}

func (d *display) Update() error {
	if ebiten.IsWindowBeingClosed() {
		d.c.Stop()
		return ebiten.Termination
	}
	if !d.c.IsRunning() {
		return ebiten.Termination
	}
	return nil
}

func (d *display) Draw(screen *ebiten.Image) {
	gen := d.fb.Generation()
	w, h, pix := d.fb.Snapshot()
	if w == 0 || h == 0 {
		screen.Fill(color.Black)
		return
	}
	if gen != d.lastGeneration || d.source == nil || d.source.Bounds().Dx() != w || d.source.Bounds().Dy() != h {
		d.source = &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
		d.lastGeneration = gen
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	if d.window == nil || d.window.Bounds().Dx() != sw || d.window.Bounds().Dy() != sh {
		d.window = ebiten.NewImage(sw, sh)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, sw, sh))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), d.source, d.source.Bounds(), draw.Over, nil)
	d.window.WritePixels(dst.Pix)
	screen.DrawImage(d.window, nil)
}

func (d *display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
