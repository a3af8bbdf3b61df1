package jit

import "testing"

// P6: with IME=true, IE=0x1F, IF=0x1F, DispatchInterrupt returns 0x40
// (VBLANK wins ties against every other pending line).
func TestDispatchInterruptVBlankWinsTiesP6(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.IME = true
	rig.Mem.Write(0xFFFF, 0x1F)
	rig.Mem.SetIOReg(regIF, 0x1F)

	vector := DispatchInterrupt(rig.State, rig.Mem)

	if vector != 0x40 {
		t.Fatalf("vector=0x%02X, want 0x40 (VBLANK)", vector)
	}
	if rig.State.IME {
		t.Fatalf("IME must be cleared on dispatch")
	}
	if rig.Mem.IOReg(regIF)&ifVBlank != 0 {
		t.Fatalf("VBLANK IF bit must be cleared after dispatch")
	}
	if rig.Mem.IOReg(regIF)&ifSTAT == 0 {
		t.Fatalf("lower-priority pending bits must remain latched")
	}
	if rig.State.TrapReason&TrapInt == 0 {
		t.Fatalf("TrapReason must carry TrapInt after a dispatch")
	}
}

func TestDispatchInterruptDisabledByIME(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.IME = false
	rig.Mem.Write(0xFFFF, 0x1F)
	rig.Mem.SetIOReg(regIF, 0x1F)

	if v := DispatchInterrupt(rig.State, rig.Mem); v != 0 {
		t.Fatalf("vector=0x%02X, want 0 when IME is false", v)
	}
}

func TestDispatchInterruptMaskedByIE(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.IME = true
	rig.Mem.Write(0xFFFF, ifTimer) // only timer enabled
	rig.Mem.SetIOReg(regIF, ifVBlank|ifTimer)

	vector := DispatchInterrupt(rig.State, rig.Mem)
	if vector != 0x50 {
		t.Fatalf("vector=0x%02X, want 0x50 (TIMER, the only IE-enabled line)", vector)
	}
}

func TestDispatchInterruptSerialNeverDispatched(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.IME = true
	rig.Mem.Write(0xFFFF, ifSerial)
	rig.Mem.SetIOReg(regIF, ifSerial)

	if v := DispatchInterrupt(rig.State, rig.Mem); v != 0 {
		t.Fatalf("vector=0x%02X, want 0 (serial has no vector)", v)
	}
	if rig.Mem.IOReg(regIF)&ifSerial == 0 {
		t.Fatalf("serial IF bit must stay latched since it is never accepted")
	}
}

func TestDispatchInterruptNoneWhenIFIsClear(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.IME = true
	rig.Mem.Write(0xFFFF, 0x1F)
	rig.Mem.SetIOReg(regIF, 0)

	if v := DispatchInterrupt(rig.State, rig.Mem); v != 0 {
		t.Fatalf("vector=0x%02X, want 0 when no IF bits are set", v)
	}
}

func TestDispatchInterruptPriorityOrderSecondHighest(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.IME = true
	rig.Mem.Write(0xFFFF, 0x1F)
	rig.Mem.SetIOReg(regIF, ifSTAT|ifTimer|ifJoypad)

	vector := DispatchInterrupt(rig.State, rig.Mem)
	if vector != 0x48 {
		t.Fatalf("vector=0x%02X, want 0x48 (STAT is the highest of the pending set)", vector)
	}
}
