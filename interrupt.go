// interrupt.go - Fixed-priority interrupt dispatcher (§4.8, component H)
//
// Grounded on cpu_z80.go's irqLine/nmiPending/iffDelay interrupt-latch
// handling (IFF1/IFF2 semantics, deferred accept); the GBZ80 priority
// encoding and vector table are rewritten from §4.8, which has no direct
// teacher analogue (Z80 NMI/maskable-IRQ model differs from the Game
// Boy's five-line IE&IF scheme). See DESIGN.md component H.

package jit

// interruptVectors is indexed by IF/IE bit position. Serial (bit 3) has
// no vector in this model — dispatching it would be a programming error,
// so it's omitted from the table and DispatchInterrupt skips that bit.
var interruptVectors = map[byte]uint16{
	ifVBlank: 0x40,
	ifSTAT:   0x48,
	ifTimer:  0x50,
	ifJoypad: 0x60,
}

var interruptPriority = []byte{ifVBlank, ifSTAT, ifTimer, ifSerial, ifJoypad}

// DispatchInterrupt inspects IE & IF under IME and, if any bit is
// pending, accepts the highest-priority one: clears IME, clears that IF
// bit, ORs TrapInt into TrapReason, and returns its vector. Returns 0 if
// nothing was dispatched (0 is never a valid vector since the RST00/boot
// vector is never a guest-reachable interrupt target in this model).
func DispatchInterrupt(s *GuestState, m *Memory) uint16 {
	if !s.IME {
		return 0
	}
	ie := m.Read(0xFFFF)
	iflag := m.IOReg(regIF)
	pending := ie & iflag

	for _, bit := range interruptPriority {
		if pending&bit == 0 {
			continue
		}
		vector, ok := interruptVectors[bit]
		if !ok {
			continue // Serial: latched but never dispatched
		}
		s.IME = false
		m.SetIOReg(regIF, iflag&^bit)
		s.TrapReason |= TrapInt
		return vector
	}
	return 0
}
