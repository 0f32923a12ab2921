// cpu.go - the fetch-decode-execute engine for the MIPS-subset ISA: 32
// general-purpose registers (register 0 included — this emulator does not
// hard-wire it to zero), HI/LO multiplication halves, and the
// running/paused/finished control surface a host drives from any thread.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package cpu

import (
	"sync/atomic"
	"time"

	"github.com/intuitionamiga/ie32mips/internal/memview"
	"github.com/intuitionamiga/ie32mips/internal/page"
)

// pollInterval is how often a paused or pausing CPU re-checks its state.
// A few milliseconds of latency is acceptable for this core (see spec
// design notes on the pause counter); a lower-latency build would replace
// this with a parked-goroutine/wakeup primitive instead.
const pollInterval = time.Millisecond

// Environment is the host-supplied handler for syscalls and fault
// notifications — the dynamic-dispatch capability object the CPU is
// parametric over (arithmetic/memory/opcode faults and the syscall ABI).
// Every method is expected to decide for itself whether to stop the CPU;
// the core's default policy throughout is "log and stop".
type Environment interface {
	ArithmeticError(c *CPU, errorID uint32)
	MemoryError(c *CPU, errorID uint32)
	InvalidOpcode(c *CPU)
	SystemCall(c *CPU, callID uint32)
	SystemCallError(c *CPU, callID, errorID uint32, message string)
}

// CPU holds all interpreter state: registers, control flags, and the
// Memory View it fetches and accesses through. Construct with New.
type CPU struct {
	// Registers — hot path, touched on nearly every instruction.
	pc  uint32
	reg [32]uint32
	hi  uint32
	lo  uint32

	// Control flags. running/finished/isPaused/iCheck/insideMemoryEvent
	// are read across goroutines (the dispatch goroutine and whichever
	// goroutine is driving pause/stop/step), hence atomic.Bool rather
	// than plain bool guarded by a mutex — the dispatch loop must never
	// block on a mutex between instructions.
	running           atomic.Bool
	finished          atomic.Bool
	isPaused          atomic.Bool
	iCheck            atomic.Bool
	insideMemoryEvent atomic.Bool
	pauseRequests     atomic.Int64

	env  Environment
	pool *page.Pool
	mem  *memview.View

	listenerReg *page.Registration
}

// New constructs an idle CPU wired to a fresh Memory View over a new Page
// Pool, per the control surface's new() operation.
func New(env Environment) *CPU {
	c := &CPU{env: env, pool: page.NewPool()}
	c.finished.Store(true)
	c.isPaused.Store(true)
	c.listenerReg = c.pool.RegisterListener(c)
	c.mem = memview.New(c.pool, c, c)
	return c
}

// Memory exposes the CPU's Memory View for host introspection (e.g. a
// debugger dumping a region, or a loader writing the initial image).
func (c *CPU) Memory() *memview.View { return c.mem }

// Pool exposes the backing Page Pool, e.g. so a second CPU can share it.
func (c *CPU) Pool() *page.Pool { return c.pool }

// PC returns the program counter.
func (c *CPU) PC() uint32 { return c.pc }

// SetPC sets the program counter. Intended for host use while the CPU is
// idle (e.g. loading a program); calling it while running races the
// dispatch goroutine.
func (c *CPU) SetPC(pc uint32) { c.pc = pc }

// Reg returns general-purpose register r (0-31).
func (c *CPU) Reg(r int) uint32 { return c.reg[r] }

// SetReg writes general-purpose register r. Register 0 is writable in
// this emulator, unlike real MIPS.
func (c *CPU) SetReg(r int, v uint32) { c.reg[r] = v }

// HI and LO return the multiplication/division result halves.
func (c *CPU) HI() uint32 { return c.hi }
func (c *CPU) LO() uint32 { return c.lo }

// SetHI and SetLO write the multiplication/division result halves.
func (c *CPU) SetHI(v uint32) { c.hi = v }
func (c *CPU) SetLO(v uint32) { c.lo = v }

// IsRunning reports whether the CPU is executing or mid-shutdown: true
// once Start/Step has been called until the dispatch loop has fully
// exited (Idle -> finished=true is the only false state).
func (c *CPU) IsRunning() bool {
	return c.running.Load() || !c.finished.Load()
}

// IsPaused reports whether the dispatch loop is currently parked in its
// pause gate. An idle CPU (never started, or finished) also reports
// paused, so a Pool lock cycle does not wait on it.
func (c *CPU) IsPaused() bool {
	return c.isPaused.Load()
}

// PausedOrStopped is true if the CPU is paused or not running at all —
// useful for a host polling for a safe inspection window.
func (c *CPU) PausedOrStopped() bool {
	return c.IsPaused() || !c.IsRunning()
}

// Start moves an Idle CPU to Running: the dispatch loop runs on its own
// goroutine until it stops or faults.
func (c *CPU) Start() {
	if c.running.Load() || !c.finished.Load() {
		return
	}
	c.running.Store(true)
	c.finished.Store(false)
	go c.run()
}

// Step is like Start but leaves running false, so the outer control loop
// falls through to Idle after a single pass instead of looping back.
func (c *CPU) Step() {
	if c.running.Load() || !c.finished.Load() {
		return
	}
	c.finished.Store(false)
	go c.run()
}

// Stop asynchronously requests the dispatch loop to exit. The caller may
// poll IsRunning to observe termination.
func (c *CPU) Stop() {
	c.running.Store(false)
	c.iCheck.Store(false)
}

// Reset clears registers and the program counter. Precondition: Idle.
func (c *CPU) Reset() {
	c.pc = 0
	c.reg = [32]uint32{}
	c.hi = 0
	c.lo = 0
}

// Clear resets the CPU and unmaps every page from its Pool.
func (c *CPU) Clear() {
	c.Reset()
	_ = c.pool.RemoveAllPages(c)
}

// Pause increments the pause-request counter and blocks the calling
// goroutine until the dispatch loop reports itself paused. Reference
// counted: Pause/Resume calls nest.
func (c *CPU) Pause() {
	c.pauseRequests.Add(1)
	for {
		c.iCheck.Store(false)
		if c.IsPaused() {
			return
		}
		time.Sleep(pollInterval)
	}
}

// pauseExcludeMemoryEvent is Pause's variant used by the Page Pool's lock
// protocol: it also returns as soon as the CPU reports it is inside a
// memory event of its own, which is how a CPU creating a page on its own
// dispatch goroutine avoids deadlocking against its own pause gate.
func (c *CPU) pauseExcludeMemoryEvent() {
	c.pauseRequests.Add(1)
	for {
		c.iCheck.Store(false)
		if c.IsPaused() || c.insideMemoryEvent.Load() {
			return
		}
		time.Sleep(pollInterval)
	}
}

// Resume decrements the pause-request counter. Safe from any thread.
func (c *CPU) Resume() {
	c.pauseRequests.Add(-1)
}

// Lock implements page.Listener: the Page Pool calls this on every
// registered listener before mutating its layout.
func (c *CPU) Lock(initiator bool) error {
	c.pauseExcludeMemoryEvent()
	return nil
}

// Unlock implements page.Listener: called once the Pool's mutation and
// every holder's rebuild have completed.
func (c *CPU) Unlock(initiator bool) error {
	c.Resume()
	return nil
}

// MemoryError implements memview.FaultReporter by delegating to the
// Environment, which decides whether (and how) to stop the CPU.
func (c *CPU) MemoryError(errorID uint32) {
	c.env.MemoryError(c, errorID)
}

// EnterMemoryEvent and ExitMemoryEvent implement memview.MemoryEventOwner:
// the Memory View calls these around its own call into Pool.CreatePage, so
// that if that call triggers a lock cycle which loops back to this same
// CPU's Lock method, pauseExcludeMemoryEvent recognises it is already on
// the dispatch goroutine and returns instead of spinning forever.
func (c *CPU) EnterMemoryEvent() { c.insideMemoryEvent.Store(true) }
func (c *CPU) ExitMemoryEvent()  { c.insideMemoryEvent.Store(false) }

// run is the outer control loop: pause_gate(); inner_loop(); while
// running. It always ends by marking the CPU paused and finished.
func (c *CPU) run() {
	c.iCheck.Store(true)
	c.isPaused.Store(false)
	for {
		c.pauseGate()
		c.innerLoop()
		c.iCheck.Store(true)
		if !c.running.Load() {
			break
		}
	}
	c.isPaused.Store(true)
	c.finished.Store(true)
}

func (c *CPU) pauseGate() {
	for c.pauseRequests.Load() > 0 {
		c.isPaused.Store(true)
		time.Sleep(pollInterval)
	}
	c.isPaused.Store(false)
}

func (c *CPU) innerLoop() {
	for c.iCheck.Load() {
		op, ok := c.mem.GetU32Aligned(c.pc)
		c.pc = c.pc + 4
		if !ok {
			return
		}
		c.execute(op)
	}
}
