// memory.go - 64 KiB guest address space, bank remap, and I/O side effects (§4.5)

package jit

import "fmt"

const (
	vramSize = 0x2000
	wramSize = 0x2000
	oamSize  = 0xA0
	ioSize   = 0x80
	hramSize = 0x7F

	maxExtRAMBanks = 16
	extRAMBankSize = 0x2000

	romBankSize = 0x4000
)

// HRAMInvalidator is the contract memory.go calls into when a store
// lands in the HRAM self-modifying-code region. cache.go's BlockCache
// is the only implementer in this repo.
type HRAMInvalidator interface {
	InvalidateFrom(addr uint16)
}

// Memory is the 64 KiB guest view described in §3 "Memory". It holds
// the ROM image, a re-backed 16 KiB window for the switchable ROM bank,
// VRAM/WRAM/OAM/IO/HRAM, and the 16-bank external-RAM image backing the
// 0xA000-0xBFFF sliding window. Grounded on machine_bus.go's
// mutex-guarded contiguous-memory-plus-callback-regions shape.
type Memory struct {
	cart *Cartridge

	romBank0 []byte // 0x0000-0x3FFF, always bank 0
	romView  [romBankSize]byte
	romBank  int

	vram [vramSize]byte
	wram [wramSize]byte
	oam  [oamSize]byte
	io   [ioSize]byte
	hram [hramSize]byte
	ie   byte

	extRAM        [maxExtRAMBanks][extRAMBankSize]byte
	ramBank       int
	ramEnabled    bool
	mbc           MBCKind
	mbcMode       byte
	mbc1Low5      int
	mbc1High2     int
	romBankLow    byte
	romBankHigh   byte

	keys *byte // aliases GuestState.Keys

	renderer Renderer
	audio    AudioSink
	cache    HRAMInvalidator

	// BankErr records the last out-of-range ROM bank select the
	// aliasing wrap in refillROMView papered over. It is non-fatal
	// (the mapped window still backs every guest read/write) and is
	// drained by the dispatcher for diagnostic logging between ticks.
	BankErr error
}

// NewMemory builds a Memory view over a parsed cartridge. keys should
// point at the owning GuestState's Keys field so joypad reads observe
// live input.
func NewMemory(cart *Cartridge, keys *byte, renderer Renderer, audio AudioSink, cache HRAMInvalidator) *Memory {
	m := &Memory{
		cart:     cart,
		romBank0: cart.ROM[:romBankSize],
		mbc:      cart.MBC,
		romBank:  1,
		keys:     keys,
		renderer: renderer,
		audio:    audio,
		cache:    cache,
	}
	m.io[0x00] = 0xCF // joypad: no keys pressed, both select bits (4, 5) low
	m.refillROMView()
	return m
}

func (m *Memory) refillROMView() {
	off := romBankSize * m.romBank
	if off+romBankSize > len(m.cart.ROM) {
		// Out-of-range bank selects wrap per hardware aliasing: the
		// offset is taken modulo the ROM length instead of panicking.
		m.BankErr = &BankSwitchError{
			Bank: m.romBank,
			Err:  fmt.Errorf("offset %#x exceeds rom length %#x, aliasing applied", off, len(m.cart.ROM)),
		}
		off = off % len(m.cart.ROM)
	}
	copy(m.romView[:], m.cart.ROM[off:off+romBankSize])
}

// TakeBankError returns and clears the most recent out-of-range bank
// select recorded by refillROMView, or nil if none occurred since the
// last call.
func (m *Memory) TakeBankError() error {
	err := m.BankErr
	m.BankErr = nil
	return err
}

// switchROMBankDirect remaps the 0x4000-0x7FFF window to the given bank.
// A same-bank switch is a no-op, matching §4.5.
func (m *Memory) switchROMBankDirect(bank int) {
	if bank == m.romBank {
		return
	}
	if bank <= 0 {
		bank = 1
	}
	m.romBank = bank
	m.refillROMView()
}

// switchRAMBankLatched selects which external RAM bank the 0xA000-0xBFFF
// window reads and writes. extRAM is addressed per bank in place, so no
// data is copied; a same-bank or out-of-range select is ignored (§4.5).
func (m *Memory) switchRAMBankLatched(bank int) {
	if bank == m.ramBank {
		return
	}
	if bank < 0 || bank >= maxExtRAMBanks {
		return
	}
	m.ramBank = bank
}

// Read implements a guest byte load.
func (m *Memory) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romBank0[addr]
	case addr < 0x8000:
		return m.romView[addr-0x4000]
	case addr < 0xA000:
		return m.vram[addr-0x8000]
	case addr < 0xC000:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.extRAM[m.ramBank][addr-0xA000]
	case addr < 0xE000:
		return m.wram[addr-0xC000]
	case addr < 0xFE00:
		return m.wram[addr-0xE000] // echo RAM
	case addr < 0xFEA0:
		return m.oam[addr-0xFE00]
	case addr < 0xFF00:
		return 0xFF // unusable region
	case addr < 0xFF80:
		return m.io[addr-0xFF00]
	case addr < 0xFFFF:
		return m.hram[addr-0xFF80]
	default:
		return m.ie
	}
}

// Write implements memory_write (§4.5) in the order the spec lists.
func (m *Memory) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		m.handleMBCWrite(addr, value)
		return
	case addr == 0xFF00:
		m.writeJoypadSelect(value)
		return
	case addr == 0xFF05:
		m.io[0xFF05-0xFF00] = 0 // TIMA hardware quirk
		return
	case addr == 0xFF46:
		m.doDMA(value)
		m.io[addr-0xFF00] = value
		return
	case addr >= 0xFF10 && addr < 0xFF40:
		m.audio.Lock()
		m.audio.ChannelUpdate(addr, value)
		m.audio.Unlock()
		m.io[addr-0xFF00] = value
		return
	case addr >= 0xFF80 && addr < 0xFFFF:
		if m.cache != nil {
			m.cache.InvalidateFrom(addr)
		}
		m.hram[addr-0xFF80] = value
		return
	case addr == 0xFFFF:
		m.ie = value
		return
	}

	switch {
	case addr < 0xA000:
		m.vram[addr-0x8000] = value
	case addr < 0xC000:
		if m.ramEnabled {
			m.extRAM[m.ramBank][addr-0xA000] = value
		}
	case addr < 0xE000:
		m.wram[addr-0xC000] = value
	case addr < 0xFE00:
		m.wram[addr-0xE000] = value
	case addr < 0xFEA0:
		m.oam[addr-0xFE00] = value
	case addr < 0xFF00:
		// unusable region, writes are dropped
	default:
		m.io[addr-0xFF00] = value
	}
}

// writeJoypadSelect implements the joypad read-on-write quirk described
// in §4.5: the write handler computes the bitmask of currently-held
// keys selected by bits 4/5 of value and stores it back inverted, so
// that a later plain Read of 0xFF00 returns it directly.
func (m *Memory) writeJoypadSelect(value byte) {
	var keys byte
	if m.keys != nil {
		keys = *m.keys
	}
	result := value & 0x30
	if value&0x10 == 0 { // direction keys selected
		if keys&byte(KeyRight) != 0 {
			result |= 0x01
		}
		if keys&byte(KeyLeft) != 0 {
			result |= 0x02
		}
		if keys&byte(KeyUp) != 0 {
			result |= 0x04
		}
		if keys&byte(KeyDown) != 0 {
			result |= 0x08
		}
	}
	if value&0x20 == 0 { // button keys selected
		if keys&byte(KeyA) != 0 {
			result |= 0x01
		}
		if keys&byte(KeyB) != 0 {
			result |= 0x02
		}
		if keys&byte(KeySelect) != 0 {
			result |= 0x04
		}
		if keys&byte(KeyStart) != 0 {
			result |= 0x08
		}
	}
	m.io[0] = result ^ 0x0F // active low: pressed bits read as 0
}

// doDMA copies 160 bytes from value<<8 into OAM (§4.5).
func (m *Memory) doDMA(value byte) {
	src := uint16(value) << 8
	for i := 0; i < oamSize; i++ {
		m.oam[i] = m.Read(src + uint16(i))
	}
}

// LY returns the current scanline register value, used by the scheduler
// and by the self-loop optimizer's WAIT_LY resolution.
func (m *Memory) LY() byte { return m.io[0xFF44-0xFF00] }

// STAT returns the LCD status register.
func (m *Memory) STAT() byte { return m.io[0xFF41-0xFF00] }

// IOReg/SetIOReg give the scheduler and interrupt dispatcher direct
// access to the I/O band by absolute address without going through the
// MBC/HRAM/audio side-effect switch in Write — the scheduler owns these
// registers outright between dispatcher ticks.
func (m *Memory) IOReg(addr uint16) byte      { return m.io[addr-0xFF00] }
func (m *Memory) SetIOReg(addr uint16, v byte) { m.io[addr-0xFF00] = v }

// CurrentROMBank reports the bank currently mapped at 0x4000-0x7FFF, for
// the dispatcher's cache keying (§4.7 step 1).
func (m *Memory) CurrentROMBank() int { return m.romBank }
