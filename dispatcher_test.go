package jit

import "testing"

func TestDispatcherTickRunsBlockAndAdvancesPC(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.loadCode(0, 0x00, 0x76) // NOP; HALT
	rig.State.PC = 0
	d := NewDispatcher(rig.State, rig.Mem, rig.Cache, rig.Emitter, nil, 0)
	d.Turbo = true

	if err := d.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if rig.State.PC != 2 {
		t.Fatalf("PC=%04X, want 0002", rig.State.PC)
	}
	if rig.State.Halt != HALT {
		t.Fatalf("Halt=%v, want HALT", rig.State.Halt)
	}
	if rig.State.InstCount == 0 {
		t.Fatalf("InstCount must advance after executing a block")
	}
}

func TestDispatcherCachesCompiledROMBlocks(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.loadCode(0, 0x00, 0x76) // NOP; HALT
	d := NewDispatcher(rig.State, rig.Mem, rig.Cache, rig.Emitter, nil, 1)
	d.Turbo = true

	if _, err := d.resolveBlock(0); err != nil {
		t.Fatalf("resolveBlock: %v", err)
	}
	if rig.Cache.LookupROM(0, 0) == nil {
		t.Fatalf("expected resolveBlock to populate the ROM cache slot")
	}
	before := rig.Cache.LookupROM(0, 0)
	before.ExecCount++ // runBlock's post-invoke bump marks the slot populated
	again, err := d.resolveBlock(0)
	if err != nil {
		t.Fatalf("resolveBlock (second): %v", err)
	}
	if again != before {
		t.Fatalf("expected the second resolveBlock to return the identical cached *Block")
	}
}

func TestDispatcherHaltedTickAdvancesVirtualClockWithoutExecuting(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.Halt = HALT
	rig.State.InstCount = 10
	rig.State.NextUpdate = 1_000_000 // well past InstCount+haltStepCycles, so the clock jumps to it
	wantPC := rig.State.PC
	d := NewDispatcher(rig.State, rig.Mem, rig.Cache, rig.Emitter, nil, 0)
	d.Turbo = true

	if err := d.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if rig.State.InstCount != 1_000_000 {
		t.Fatalf("InstCount=%d, want %d", rig.State.InstCount, 1_000_000)
	}
	if rig.State.PC != wantPC {
		t.Fatalf("PC should be untouched while halted, got %04X want %04X", rig.State.PC, wantPC)
	}
}

// Scenario 2-adjacent (§8): a pending, IE-enabled, IME-armed interrupt
// wakes a halted CPU, pushes the return address, and jumps to the vector.
func TestDispatcherTickDispatchesInterruptFromHalt(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.Halt = HALT
	rig.State.PC = 0x1234
	rig.State.SP = 0xFFFE
	rig.State.IME = true
	rig.State.NextUpdate = 0 // force the scheduler/interrupt check this tick
	rig.Mem.Write(0xFFFF, ifVBlank)
	rig.Mem.SetIOReg(regIF, ifVBlank)

	d := NewDispatcher(rig.State, rig.Mem, rig.Cache, rig.Emitter, nil, 0)
	d.Turbo = true

	if err := d.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if rig.State.PC != 0x40 {
		t.Fatalf("PC=%04X, want 0040 (VBLANK vector)", rig.State.PC)
	}
	if rig.State.Halt != RUNNING {
		t.Fatalf("Halt=%v, want RUNNING after interrupt wakeup", rig.State.Halt)
	}
	if rig.State.SP != 0xFFFC {
		t.Fatalf("SP=%04X, want FFFC after the two-byte push", rig.State.SP)
	}
	if rig.Mem.Read(0xFFFC) != 0x34 || rig.Mem.Read(0xFFFD) != 0x12 {
		t.Fatalf("pushed return address bytes = %02X %02X, want 34 12",
			rig.Mem.Read(0xFFFC), rig.Mem.Read(0xFFFD))
	}
}

func TestDispatcherStopEndsRunLoop(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.loadCode(0, 0x76) // HALT, so Run() spins on halted ticks until Stop
	d := NewDispatcher(rig.State, rig.Mem, rig.Cache, rig.Emitter, nil, 0)
	d.Turbo = true
	d.Stop()

	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
