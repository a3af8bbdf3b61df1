package jit

import "testing"

func TestJoypadDirectionKeysSelectedReadsActiveLow(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.KeyDown(KeyRight)
	rig.State.KeyDown(KeyUp)

	rig.Mem.Write(0xFF00, 0x20) // select direction keys (bit4=0)

	got := rig.Mem.Read(0xFF00)
	want := byte(0x2A) // (0x20|0x01|0x04) ^ 0x0F
	if got != want {
		t.Fatalf("joypad read=0x%02X, want 0x%02X", got, want)
	}
}

func TestJoypadButtonKeysSelectedReadsActiveLow(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.KeyDown(KeyA)

	rig.Mem.Write(0xFF00, 0x10) // select button keys (bit5=0)

	got := rig.Mem.Read(0xFF00)
	want := byte(0x1E) // (0x10|0x01) ^ 0x0F
	if got != want {
		t.Fatalf("joypad read=0x%02X, want 0x%02X", got, want)
	}
}

func TestJoypadKeyUpClearsSelectedBit(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.State.KeyDown(KeyRight)
	rig.State.KeyUp(KeyRight)

	rig.Mem.Write(0xFF00, 0x20)

	got := rig.Mem.Read(0xFF00)
	if got&0x01 == 0 {
		t.Fatalf("joypad read=0x%02X, bit0 should read 1 (not pressed, active-low) after KeyUp", got)
	}
}

func TestTIMAWriteHardwareQuirkAlwaysResetsToZero(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.Mem.SetIOReg(regTIMA, 0x55)

	rig.Mem.Write(0xFF05, 0x99) // the written value is irrelevant

	if got := rig.Mem.IOReg(regTIMA); got != 0 {
		t.Fatalf("TIMA after write-quirk=0x%02X, want 0x00", got)
	}
}

func TestDMACopiesOAMFromSourcePage(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	for i := 0; i < oamSize; i++ {
		rig.Mem.Write(0xC000+uint16(i), byte(i+1))
	}

	rig.Mem.Write(0xFF46, 0xC0) // source page 0xC000

	for i := 0; i < oamSize; i++ {
		if got := rig.Mem.Read(0xFE00 + uint16(i)); got != byte(i+1) {
			t.Fatalf("OAM[%d]=%d, want %d", i, got, i+1)
		}
	}
	if rig.Mem.IOReg(0xFF46) != 0xC0 {
		t.Fatalf("DMA source register not latched")
	}
}

func TestAudioPassthroughLocksAndForwards(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.Mem.Write(0xFF12, 0x77) // NR12

	if rig.Mem.IOReg(0xFF12) != 0x77 {
		t.Fatalf("audio register mirror not updated in the I/O band")
	}
	if len(rig.Audio.Writes) != 1 || rig.Audio.Writes[0].Addr != 0xFF12 || rig.Audio.Writes[0].Value != 0x77 {
		t.Fatalf("expected the headless audio sink to observe the write, got %+v", rig.Audio.Writes)
	}
}

func TestHRAMWriteInvalidatesCacheBeforeStoring(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	block := &Block{EndAddr: 0xFFA0, ExecCount: 1}
	rig.Cache.StoreHRAM(0xFF90, block)

	rig.Mem.Write(0xFF95, 0x42)

	if rig.Cache.LookupHRAM(0xFF90) != nil {
		t.Fatalf("expected the overlapping HRAM block to be invalidated")
	}
	if rig.Mem.Read(0xFF95) != 0x42 {
		t.Fatalf("HRAM byte not actually stored after invalidation")
	}
}

func TestIERegisterReadWrite(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.Mem.Write(0xFFFF, 0x1F)
	if got := rig.Mem.Read(0xFFFF); got != 0x1F {
		t.Fatalf("IE=0x%02X, want 0x1F", got)
	}
}

func TestEchoRAMMirrorsWRAM(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.Mem.Write(0xC012, 0xAB)
	if got := rig.Mem.Read(0xE012); got != 0xAB {
		t.Fatalf("echo RAM read=0x%02X, want 0xAB", got)
	}
}

func TestUnusableRegionReadsFFAndDropsWrites(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.Mem.Write(0xFEA5, 0x42) // unusable region: must be a no-op
	if got := rig.Mem.Read(0xFEA5); got != 0xFF {
		t.Fatalf("unusable region read=0x%02X, want 0xFF", got)
	}
}

func TestVRAMReadWriteRoundTrip(t *testing.T) {
	rig := newTestRig(t, newTestROM(0x8000))
	rig.Mem.Write(0x8123, 0x5C)
	if got := rig.Mem.Read(0x8123); got != 0x5C {
		t.Fatalf("VRAM read=0x%02X, want 0x5C", got)
	}
}
