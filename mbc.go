// mbc.go - Memory bank controller command decode (§4.5)

package jit

// handleMBCWrite decodes a guest store into the 0x0000-0x7FFF window as
// an MBC command rather than a data write, per the controller kind
// latched on the cartridge. Unknown selectors within a known controller
// family are ignored; nothing is logged for them.
func (m *Memory) handleMBCWrite(addr uint16, value byte) {
	switch m.mbc {
	case MBCNone:
		// No controller: ROM writes are simply ignored.
		return
	case MBC1, MBC1RAMBat, MBC2, MBC2Bat:
		m.handleMBC1Write(addr, value)
	case MBC3, MBC3RAMBat:
		m.handleMBC3Write(addr, value)
	case MBC5, MBC5RAMBat:
		m.handleMBC5Write(addr, value)
	}
}

func (m *Memory) handleMBC1Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := int(value & 0x1F)
		if bank%0x20 == 0 {
			bank |= 1
		}
		m.setROMBankLow5(bank)
	case addr < 0x6000:
		if m.mbcMode == 0 {
			m.setROMBankHigh2(int(value & 0x03))
		} else {
			m.switchRAMBankLatched(int(value & 0x03))
		}
	default: // < 0x8000
		m.mbcMode = value & 1
	}
}

func (m *Memory) handleMBC3Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := int(value & 0x7F)
		if bank == 0 {
			bank = 1
		}
		m.switchROMBankDirect(bank)
	case addr < 0x6000:
		sel := value & 0x0F
		if sel <= 3 {
			m.switchRAMBankLatched(int(sel))
		}
		// 8..12 select an RTC register; the RTC itself is a stub
		// returning 0 (§9), so selection has no further effect here.
	default: // < 0x8000
		// RTC latch: stubbed, reads always return 0.
	}
}

func (m *Memory) handleMBC5Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x3000:
		m.romBankLow = value
		m.switchROMBankDirect(int(m.romBankHigh)<<8 | int(m.romBankLow))
	case addr < 0x4000:
		m.romBankHigh = value & 1
		m.switchROMBankDirect(int(m.romBankHigh)<<8 | int(m.romBankLow))
	case addr < 0x6000:
		m.switchRAMBankLatched(int(value & 0x0F))
	}
}

// setROMBankLow5 and setROMBankHigh2 implement MBC1's split bank-select
// registers: the low 5 bits come from [0x2000,0x4000), the upper 2 bits
// (shared with the RAM bank select in mode 1) come from [0x4000,0x6000).
func (m *Memory) setROMBankLow5(low5 int) {
	m.mbc1Low5 = low5
	m.switchROMBankDirect(m.mbc1High2<<5 | m.mbc1Low5)
}

func (m *Memory) setROMBankHigh2(high2 int) {
	m.mbc1High2 = high2
	m.switchROMBankDirect(m.mbc1High2<<5 | m.mbc1Low5)
}
