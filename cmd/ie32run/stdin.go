// stdin.go - StdinReader puts the terminal into raw mode and polls stdin a
// byte at a time, translating and echoing input itself, the same shape as
// terminal_host.go's TerminalHost — generalised here from feeding bytes to
// a line-discipline MMIO device into satisfying io.Reader for the
// console environment's line-buffered "read decimal" / "read one
// character" syscalls.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// StdinReader implements io.Reader over a raw-mode, non-blocking stdin fd.
// Safe to skip entirely when stdin is not a terminal (e.g. piped input in
// headless/test runs) — NewStdinReader returns nil in that case and the
// caller reads os.Stdin directly.
type StdinReader struct {
	fd           int
	oldTermState *term.State
	nonblockSet  bool
	stopped      sync.Once
	stopCh       chan struct{}
}

// NewStdinReader puts stdin into raw non-blocking mode if it is a
// terminal; otherwise it returns nil and the caller should read os.Stdin
// directly.
func NewStdinReader() *StdinReader {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stdin: failed to set raw mode: %v\n", err)
		return nil
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "stdin: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(fd, oldState)
		return nil
	}
	return &StdinReader{fd: fd, oldTermState: oldState, nonblockSet: true, stopCh: make(chan struct{})}
}

// Read blocks until at least one byte is available, translating CR to LF
// and DEL to BS the way terminal_host.go does, and echoing each byte back
// to stdout so raw mode doesn't leave the user typing blind.
func (r *StdinReader) Read(p []byte) (int, error) {
	buf := make([]byte, 1)
	for {
		select {
		case <-r.stopCh:
			return 0, os.ErrClosed
		default:
		}
		n, err := syscall.Read(r.fd, buf)
		if n > 0 {
			b := buf[0]
			if b == '\r' {
				b = '\n'
			}
			if b == 0x7F {
				b = 0x08
			}
			os.Stdout.Write([]byte{b})
			if b == 0x08 {
				os.Stdout.Write([]byte("\x1b[K"))
			}
			p[0] = b
			return 1, nil
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return 0, err
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Close restores the terminal to its original mode.
func (r *StdinReader) Close() {
	r.stopped.Do(func() { close(r.stopCh) })
	if r.nonblockSet {
		_ = syscall.SetNonblock(r.fd, false)
		r.nonblockSet = false
	}
	if r.oldTermState != nil {
		_ = term.Restore(r.fd, r.oldTermState)
		r.oldTermState = nil
	}
}
