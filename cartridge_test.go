package jit

import "testing"

func TestParseCartridgeRejectsUndersizedROM(t *testing.T) {
	_, err := ParseCartridge(make([]byte, 0x100))
	if err == nil {
		t.Fatalf("expected an error for a ROM shorter than the header region")
	}
}

func TestParseCartridgeROMBankFormula(t *testing.T) {
	for _, tc := range []struct {
		sizeCode byte
		want     int
	}{
		{0x00, 2},
		{0x01, 4},
		{0x02, 8},
		{0x05, 64},
		{0x07, 256},
	} {
		rom := newMBCROM(0x00, tc.sizeCode, 0x00, tc.want)
		cart, err := ParseCartridge(rom)
		if err != nil {
			t.Fatalf("sizeCode=0x%02X: ParseCartridge: %v", tc.sizeCode, err)
		}
		if cart.ROMBanks != tc.want {
			t.Fatalf("sizeCode=0x%02X: ROMBanks=%d, want %d", tc.sizeCode, cart.ROMBanks, tc.want)
		}
	}
}

func TestParseCartridgeRAMBankFormula(t *testing.T) {
	for _, tc := range []struct {
		sizeCode byte
		want     int
	}{
		{0x00, 0},
		{0x02, 1},
		{0x03, 4},
		{0x04, 16},
	} {
		rom := newMBCROM(0x00, 0x00, tc.sizeCode, 2)
		cart, err := ParseCartridge(rom)
		if err != nil {
			t.Fatalf("ramCode=0x%02X: ParseCartridge: %v", tc.sizeCode, err)
		}
		if cart.RAMBanks != tc.want {
			t.Fatalf("ramCode=0x%02X: RAMBanks=%d, want %d", tc.sizeCode, cart.RAMBanks, tc.want)
		}
	}
}

func TestParseCartridgeMBCByteDecoding(t *testing.T) {
	for _, tc := range []struct {
		mbcByte byte
		want    MBCKind
	}{
		{0x00, MBCNone},
		{0x01, MBC1},
		{0x03, MBC1RAMBat},
		{0x05, MBC2},
		{0x11, MBC3},
		{0x13, MBC3RAMBat},
		{0x19, MBC5},
		{0x1B, MBC5RAMBat},
		{0xFF, MBCNone}, // unrecognized byte decodes to MBCNone, not an error
	} {
		rom := newMBCROM(tc.mbcByte, 0x00, 0x00, 2)
		cart, err := ParseCartridge(rom)
		if err != nil {
			t.Fatalf("mbcByte=0x%02X: ParseCartridge: %v", tc.mbcByte, err)
		}
		if cart.MBC != tc.want {
			t.Fatalf("mbcByte=0x%02X: MBC=%v, want %v", tc.mbcByte, cart.MBC, tc.want)
		}
	}
}

func TestParseCartridgeHeaderChecksumValid(t *testing.T) {
	rom := newMBCROM(0x00, 0x00, 0x00, 2)
	cart, err := ParseCartridge(rom)
	if err != nil {
		t.Fatalf("ParseCartridge: %v", err)
	}
	if !cart.HeaderValid {
		t.Fatalf("expected HeaderValid for a checksum fixed up by newMBCROM")
	}
}

func TestParseCartridgeHeaderChecksumInvalidIsNotAnError(t *testing.T) {
	rom := newMBCROM(0x00, 0x00, 0x00, 2)
	rom[headerChecksumByte] ^= 0xFF // corrupt the checksum

	cart, err := ParseCartridge(rom)
	if err != nil {
		t.Fatalf("a bad checksum must not fail parsing: %v", err)
	}
	if cart.HeaderValid {
		t.Fatalf("expected HeaderValid=false after corrupting the checksum byte")
	}
}

func TestMBCKindString(t *testing.T) {
	if MBC1.String() != "MBC1" {
		t.Fatalf("MBC1.String()=%q, want MBC1", MBC1.String())
	}
	if MBCKind(99).String() != "UNKNOWN" {
		t.Fatalf("unrecognized MBCKind.String()=%q, want UNKNOWN", MBCKind(99).String())
	}
}
