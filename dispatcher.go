// dispatcher.go - JIT dispatcher loop (§4.7, component I)
//
// Grounded on cpu_z80_runner.go's CPUZ80Runner: a small struct owning a
// CPU/bus pair and a run loop, using a mutex and condition variable for
// start/stop/VBLANK signalling. See DESIGN.md component I.

package jit

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// haltStepCycles is the minimum virtual-clock advance applied per
// dispatcher tick while halted and no interrupt is pending; the clock
// jumps straight to NextUpdate when that is further out (§4.7 step 6).
const haltStepCycles = 16

// Dispatcher owns the single guest CPU thread described in §5: it reads
// and writes GuestState and the block cache without a lock, and only
// touches the renderer/audio/vblank machinery through their own
// synchronization.
type Dispatcher struct {
	State    *GuestState
	Mem      *Memory
	Cache    *BlockCache
	Emitter  Emitter
	OptLevel int
	Render   LineRenderer

	// Turbo disables frame-pacing sleep.
	Turbo bool

	FrameInterval time.Duration

	vblankMu   sync.Mutex
	vblankCond *sync.Cond
	exiting    bool
}

// NewDispatcher wires a Dispatcher over an already-constructed guest
// state, memory map, block cache and emitter.
func NewDispatcher(state *GuestState, mem *Memory, cache *BlockCache, emitter Emitter, render LineRenderer, optLevel int) *Dispatcher {
	d := &Dispatcher{
		State:         state,
		Mem:           mem,
		Cache:         cache,
		Emitter:       emitter,
		OptLevel:      optLevel,
		Render:        render,
		FrameInterval: time.Second / 60,
	}
	d.vblankCond = sync.NewCond(&d.vblankMu)
	return d
}

// Run executes dispatcher ticks until Stop is called or a CompileError
// escapes block resolution.
func (d *Dispatcher) Run() error {
	for {
		d.vblankMu.Lock()
		exit := d.exiting
		d.vblankMu.Unlock()
		if exit {
			return nil
		}
		if err := d.Tick(); err != nil {
			return err
		}
	}
}

// Stop requests the run loop exit after its current tick and wakes any
// VBLANK waiter so a blocked renderer thread can observe the exit and
// join (§5 "cancellation and shutdown").
func (d *Dispatcher) Stop() {
	d.vblankMu.Lock()
	d.exiting = true
	d.vblankMu.Unlock()
	d.vblankCond.Broadcast()
}

// Tick runs one dispatcher iteration: resolve/invoke a block (or advance
// the halt clock), then run the scheduler and interrupt dispatcher when
// due (§4.7).
func (d *Dispatcher) Tick() error {
	s := d.State

	if s.Halt == RUNNING {
		if err := d.runBlock(); err != nil {
			return err
		}
	} else {
		s.InstCount = max(s.InstCount+haltStepCycles, s.NextUpdate)
	}

	if err := d.Mem.TakeBankError(); err != nil {
		fmt.Fprintf(os.Stderr, "gbz80jit: %v\n", err)
	}

	if s.InstCount >= s.NextUpdate {
		wasLY := d.Mem.LY()
		RunScheduler(s, d.Mem, d.Render)

		if vector := DispatchInterrupt(s, d.Mem); vector != 0 {
			s.SP -= 2
			d.Mem.Write(s.SP, byte(s.PC))
			d.Mem.Write(s.SP+1, byte(s.PC>>8))
			s.PC = vector
			s.Halt = RUNNING
		}

		switch s.Halt {
		case WAIT_STAT3:
			if d.Mem.STAT()&3 == 3 {
				s.Halt = RUNNING
			}
		case WAIT_LY:
			if d.Mem.LY() == s.HaltArg {
				s.Halt = RUNNING
			}
		}

		if wasLY != 144 && d.Mem.LY() == 144 {
			d.onVBlank()
		}
	}
	return nil
}

// runBlock resolves the cache slot for s.PC (compiling on miss per §4.1-
// §4.4), invokes it, and resolves the next PC from the sentinel
// convention. The reference emitter's closures always compute the real
// next address themselves (or write s.PC directly and return
// PCFromState); unlike a raw-bytes backend, they never need a post-hoc
// "re-decode the last opcode" fallback, so only the sentinel case is
// handled here.
func (d *Dispatcher) runBlock() error {
	s := d.State
	block, err := d.resolveBlock(s.PC)
	if err != nil {
		return err
	}

	ret := block.Func(s, d.Mem)
	var nextPC uint16
	if ret == PCFromState {
		nextPC = s.PC
	} else {
		nextPC = ret
		s.PC = ret
	}

	cycles := block.BaseCycles
	if nextPC == block.EndAddr {
		cycles += block.LastNotTaken
	} else {
		cycles += block.LastTaken
	}
	s.InstCount += uint64(cycles)
	block.ExecCount++
	return nil
}

// resolveBlock implements §4.7 step 1's cache-selection rule.
func (d *Dispatcher) resolveBlock(pc uint16) (*Block, error) {
	switch {
	case pc < 0x4000:
		return d.romSlot(0, pc)
	case pc < 0x8000:
		return d.romSlot(d.Mem.CurrentROMBank(), pc)
	case pc >= 0xFF80 && pc < 0xFFFF:
		if b := d.Cache.LookupHRAM(pc); b.Populated() {
			return b, nil
		}
		nb, err := d.Emitter.Compile(d.Mem, pc, d.OptLevel)
		if err != nil {
			return nil, err
		}
		d.Cache.StoreHRAM(pc, nb)
		return nb, nil
	default:
		return d.Emitter.Compile(d.Mem, pc, d.OptLevel)
	}
}

func (d *Dispatcher) romSlot(bank int, pc uint16) (*Block, error) {
	if b := d.Cache.LookupROM(bank, pc); b.Populated() {
		return b, nil
	}
	nb, err := d.Emitter.Compile(d.Mem, pc, d.OptLevel)
	if err != nil {
		return nil, err
	}
	d.Cache.StoreROM(bank, pc, nb)
	return nb, nil
}

// onVBlank implements the frame-pacing/condition-variable half of §5:
// outside turbo mode, sleep until the next frame deadline, then broadcast
// so a waiting renderer thread wakes.
func (d *Dispatcher) onVBlank() {
	if !d.Turbo && d.FrameInterval > 0 {
		time.Sleep(d.FrameInterval)
	}
	d.vblankMu.Lock()
	d.vblankCond.Broadcast()
	d.vblankMu.Unlock()
}

// WaitVBlank blocks the calling (renderer) goroutine until the next
// VBLANK broadcast or dispatcher exit.
func (d *Dispatcher) WaitVBlank() {
	d.vblankMu.Lock()
	defer d.vblankMu.Unlock()
	if d.exiting {
		return
	}
	d.vblankCond.Wait()
}
