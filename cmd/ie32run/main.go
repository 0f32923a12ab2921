// main.go - ie32run: loads a flat binary image into a fresh CPU and runs
// it either headless (console-only Environment) or under an ebiten window
// (GUIEnvironment, for the framebuffer and keyboard syscalls).

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/intuitionamiga/ie32mips/internal/cpu"
	"github.com/intuitionamiga/ie32mips/internal/env"
)

func main() {
	headless := flag.Bool("headless", false, "run without a display, console syscalls only")
	loadPath := flag.String("load", "", "flat binary image to load at address 0")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ie32run [options] -load program.bin\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *loadPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	image, err := os.ReadFile(*loadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *headless {
		runHeadless(image)
		return
	}
	runWindowed(image)
}

func runHeadless(image []byte) {
	stdin := NewStdinReader()
	var environment *env.ConsoleEnvironment
	if stdin != nil {
		defer stdin.Close()
		environment = env.NewConsoleFrom(stdin, os.Stdout)
	} else {
		environment = env.NewConsole()
	}
	c := cpu.New(environment)
	loadImage(c, image)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		c.Stop()
	}()

	c.Start()
	for c.IsRunning() {
		time.Sleep(5 * time.Millisecond)
	}
}

func runWindowed(image []byte) {
	stdin := NewStdinReader()
	var environment *env.GUIEnvironment
	if stdin != nil {
		defer stdin.Close()
		environment = env.NewGUIFrom(stdin, os.Stdout)
	} else {
		environment = env.NewGUI()
	}
	c := cpu.New(environment)
	loadImage(c, image)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		c.Stop()
	}()

	ebiten.SetWindowTitle("ie32run")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	game := newDisplay(c, environment.Framebuffer())
	c.Start()
	if err := ebiten.RunGame(game); err != nil {
		fmt.Fprintf(os.Stderr, "display error: %v\n", err)
	}
	c.Stop()
}

// loadImage writes a flat little-endian byte image starting at address 0,
// byte by byte through the CPU's Memory View so ordinary paging applies.
func loadImage(c *cpu.CPU, image []byte) {
	mem := c.Memory()
	for i, b := range image {
		mem.SetU8(uint32(i), b)
	}
}
