// cartridge.go - Game Boy cartridge header parsing (§6 ROM file)

package jit

import "fmt"

// MBCKind enumerates the memory bank controllers this core understands.
// Field offsets and the bank-count formulas below follow the documented
// public cartridge header layout; see DESIGN.md component B for the
// pack files consulted as a semantic reference (not a teacher — no code
// copied from them).
type MBCKind int

const (
	MBCNone MBCKind = iota
	MBC1
	MBC1RAMBat
	MBC2
	MBC2Bat
	MBC3
	MBC3RAMBat
	MBC5
	MBC5RAMBat
)

func (k MBCKind) String() string {
	switch k {
	case MBCNone:
		return "NONE"
	case MBC1:
		return "MBC1"
	case MBC1RAMBat:
		return "MBC1+RAM+BATTERY"
	case MBC2:
		return "MBC2"
	case MBC2Bat:
		return "MBC2+BATTERY"
	case MBC3:
		return "MBC3"
	case MBC3RAMBat:
		return "MBC3+RAM+BATTERY"
	case MBC5:
		return "MBC5"
	case MBC5RAMBat:
		return "MBC5+RAM+BATTERY"
	default:
		return "UNKNOWN"
	}
}

const (
	headerTitleStart    = 0x0134
	headerTitleEnd      = 0x0144
	headerMBCByte       = 0x0147
	headerROMSizeByte   = 0x0148
	headerRAMSizeByte   = 0x0149
	headerChecksumByte  = 0x014D
	headerChecksumStart = 0x0134
	headerChecksumEnd   = 0x014D
)

var mbcByteTable = map[byte]MBCKind{
	0x00: MBCNone,
	0x01: MBC1,
	0x02: MBC1,
	0x03: MBC1RAMBat,
	0x05: MBC2,
	0x06: MBC2Bat,
	0x0F: MBC3RAMBat,
	0x10: MBC3RAMBat,
	0x11: MBC3,
	0x12: MBC3,
	0x13: MBC3RAMBat,
	0x19: MBC5,
	0x1A: MBC5,
	0x1B: MBC5RAMBat,
	0x1C: MBC5,
	0x1D: MBC5,
	0x1E: MBC5RAMBat,
}

// Cartridge holds the header fields the core reads (§6) plus the raw
// ROM image.
type Cartridge struct {
	ROM []byte

	Title       string
	MBC         MBCKind
	ROMBanks    int
	RAMBanks    int
	HeaderValid bool
}

// ParseCartridge reads the header at 0x0100-0x014F out of a full ROM
// image. It fails only for an image too short to hold the header — an
// unrecognized MBC byte decodes to MBCNone and HeaderValid records whether the stored checksum matched.
func ParseCartridge(rom []byte) (*Cartridge, error) {
	if len(rom) < 0x150 {
		return nil, fmt.Errorf("rom too small to contain a header: %d bytes", len(rom))
	}

	c := &Cartridge{ROM: rom}
	c.Title = parseTitle(rom[headerTitleStart:headerTitleEnd])

	if kind, ok := mbcByteTable[rom[headerMBCByte]]; ok {
		c.MBC = kind
	} else {
		c.MBC = MBCNone
	}

	c.ROMBanks = 2 << rom[headerROMSizeByte]

	switch rom[headerRAMSizeByte] {
	case 0:
		c.RAMBanks = 0
	case 2:
		c.RAMBanks = 1
	case 3:
		c.RAMBanks = 4
	case 4:
		c.RAMBanks = 16
	default:
		c.RAMBanks = 0
	}

	c.HeaderValid = verifyHeaderChecksum(rom)
	return c, nil
}

func parseTitle(b []byte) string {
	end := len(b)
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	return string(b[:end])
}

func verifyHeaderChecksum(rom []byte) bool {
	var sum byte
	for i := headerChecksumStart; i < headerChecksumEnd; i++ {
		sum = sum - rom[i] - 1
	}
	return sum == rom[headerChecksumByte]
}
