// state.go - Guest CPU state record for the GBZ80 JIT core

package jit

// HaltState enumerates the dispatcher's idle modes. WAIT_LY and
// WAIT_STAT3 are synthesized by the optimizer's fuseWaitLY and
// fuseWaitSTAT3 passes (see optimizer.go) out of busy-wait polling loops the guest program
// would otherwise spin on forever between scheduler ticks.
type HaltState int

const (
	RUNNING HaltState = iota
	HALT
	WAIT_LY
	WAIT_STAT3
)

func (h HaltState) String() string {
	switch h {
	case RUNNING:
		return "RUNNING"
	case HALT:
		return "HALT"
	case WAIT_LY:
		return "WAIT_LY"
	case WAIT_STAT3:
		return "WAIT_STAT3"
	default:
		return "UNKNOWN"
	}
}

// TrapReason is a bitset recording why the dispatcher last stopped
// running cached blocks and fell back to PC resolution or logging.
type TrapReason uint8

const (
	TrapOther TrapReason = 1 << iota
	TrapCall
	TrapRST
	TrapInt
	TrapRet
)

// KeyBit indexes the eight Game Boy joypad keys inside GuestState.Keys.
// Bit set means pressed; writeJoypadSelect (memory.go) inverts the sense
// on the way out, matching real hardware's active-low wiring.
type KeyBit uint8

const (
	KeyRight KeyBit = 1 << iota
	KeyLeft
	KeyUp
	KeyDown
	KeyA
	KeyB
	KeySelect
	KeyStart
)

// GuestState is the register file and virtual-clock record the dispatcher,
// decoder, and emitted blocks all read and write. Per the data model in
// §3: A, B, C, D, E, H, L are the eight ALU-visible 8-bit registers;
// FSubtract is the only flag bit (N) that the core keeps materialized
// between guest instructions. Z, H, C live latently in host condition
// codes inside a compiled block's execution and are only forced into an
// 8-bit F value at a boundary — see flags.go.
type GuestState struct {
	A, B, C, D, E, H, L byte
	FSubtract           bool

	// CC shadows the host condition codes the JIT keeps Z/H/C latent
	// in between guest instructions (§4.9, §9). The reference emitter
	// (emitter.go) has no real host FLAGS register to clobber, so these
	// fields simply are the host condition codes for the duration of
	// the process — SAVE_CC/RESTORE_CC-flagged nodes (flow.go) still
	// run their materialize/sink step against F() / SetF() so the
	// contract is exercised the same way a native-codegen backend
	// would need to.
	CC HostFlags

	SP, PC uint16

	InstCount  uint64
	LYCount    uint64
	TIMACount  uint64
	DIVCount   uint64
	NextUpdate uint64

	IME  bool
	Halt HaltState
	// HaltArg carries the LY value a WAIT_LY halt is blocked on.
	HaltArg byte

	Keys byte

	TrapReason TrapReason
}

// NewGuestState returns a GuestState with PC at the cartridge entry
// point (0x0100, per the Game Boy boot handoff) and every counter zeroed.
func NewGuestState() *GuestState {
	return &GuestState{PC: 0x0100, SP: 0xFFFE}
}

// BC, DE, HL return the 16-bit register-pair views used by LD rr,nn and
// the (rr) dereference operand forms.
func (s *GuestState) BC() uint16 { return uint16(s.B)<<8 | uint16(s.C) }
func (s *GuestState) DE() uint16 { return uint16(s.D)<<8 | uint16(s.E) }
func (s *GuestState) HL() uint16 { return uint16(s.H)<<8 | uint16(s.L) }

func (s *GuestState) SetBC(v uint16) { s.B, s.C = byte(v>>8), byte(v) }
func (s *GuestState) SetDE(v uint16) { s.D, s.E = byte(v>>8), byte(v) }
func (s *GuestState) SetHL(v uint16) { s.H, s.L = byte(v>>8), byte(v) }

// KeyDown and KeyUp track guest-visible key press state; they are
// called from the renderer/input backend under no lock, since Keys is
// only ever read on the guest CPU thread inside memory.go's joypad
// handler (see §5 concurrency model: input events are the one
// suspension-free cross-thread touch point, matched here by treating
// Keys as a single byte updated with an atomic-free plain store, exactly
// as period Game Boy hardware latches key state once per poll).
func (s *GuestState) KeyDown(k KeyBit) { s.Keys |= byte(k) }
func (s *GuestState) KeyUp(k KeyBit)   { s.Keys &^= byte(k) }

// F and SetF materialize/restore the guest F register from/to the
// latent CC shadow plus FSubtract, per the flag-boundary protocol (J).
func (s *GuestState) F() byte {
	return EncodeF(s.CC, s.FSubtract)
}

func (s *GuestState) SetF(f byte) {
	s.CC, s.FSubtract = DecodeF(f)
}
