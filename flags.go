// flags.go - Flag-boundary protocol between emitted blocks and the guest F byte

package jit

// The JIT keeps Z, H, C latent in host condition codes between guest
// instructions (§4.9) and only materializes them into the guest F byte
// at a boundary that observes F directly. The two stub shapes below are
// the only place that conversion happens; every other consumer of F
// goes through EncodeF/DecodeF.
//
// §9's Open Question on F-bit layout is resolved here exactly as the
// spec's own text states: flag_args[0] packs (C, H, Z) at bits (0, 4, 6).
// This is a private implementation detail of the boundary stubs — no
// guest-observable behavior depends on the specific packing as long as
// EncodeF and DecodeF are mutual inverses (P7).
const (
	hostFlagCBit = 0
	hostFlagHBit = 4
	hostFlagZBit = 6
)

// Guest F byte bit positions, as observed by PUSH AF / POP AF / LD (nn),A
// on F-sensitive paths.
const (
	guestFlagCBit = 4
	guestFlagHBit = 5
	guestFlagZBit = 7
	guestFlagNBit = 6
)

// HostFlags is the shadow condition-code record used by the reference
// (closure-compiling) emitter in place of naming actual host CPU
// condition codes — see §9's note that an implementation unable to name
// host CC directly should route save/restore through an equivalent
// hflags:{z,h,c} shadow. Pack/UnpackHostFlags convert it to and from the
// flag_args[0] byte; EncodeF/DecodeF convert it to and from the guest F
// byte.
type HostFlags struct {
	Z, H, C bool
}

// Pack folds HostFlags into the flag_args[0] byte layout described above.
func (f HostFlags) Pack() byte {
	var b byte
	if f.C {
		b |= 1 << hostFlagCBit
	}
	if f.H {
		b |= 1 << hostFlagHBit
	}
	if f.Z {
		b |= 1 << hostFlagZBit
	}
	return b
}

// UnpackHostFlags is Pack's inverse.
func UnpackHostFlags(b byte) HostFlags {
	return HostFlags{
		Z: b&(1<<hostFlagZBit) != 0,
		H: b&(1<<hostFlagHBit) != 0,
		C: b&(1<<hostFlagCBit) != 0,
	}
}

// DecodeF is the load-flag stub: it reads the guest F byte (as observed,
// e.g., after a POP AF) and produces the HostFlags plus the FSubtract
// bit that a compiled block's condition-code-dependent nodes need before
// they run (RESTORE_CC, see flow.go).
func DecodeF(f byte) (HostFlags, bool) {
	hf := HostFlags{
		Z: f&(1<<guestFlagZBit) != 0,
		H: f&(1<<guestFlagHBit) != 0,
		C: f&(1<<guestFlagCBit) != 0,
	}
	fSubtract := f&(1<<guestFlagNBit) != 0
	return hf, fSubtract
}

// EncodeF is the store-flag stub: it reads HostFlags plus FSubtract and
// produces the guest F byte (low nibble always zero, matching real
// hardware). DecodeF ignores the low nibble, so EncodeF(DecodeF(f))
// equals f & 0xF0 for all 256 values of f (P7).
func EncodeF(hf HostFlags, fSubtract bool) byte {
	var f byte
	if hf.Z {
		f |= 1 << guestFlagZBit
	}
	if hf.H {
		f |= 1 << guestFlagHBit
	}
	if hf.C {
		f |= 1 << guestFlagCBit
	}
	if fSubtract {
		f |= 1 << guestFlagNBit
	}
	return f
}

// SyncFlagsFromGuest and SyncFlagsToGuest are the two bootstrap shapes
// the emitter contract (§4.4) calls "a load-flag stub" and "a
// store-flag stub". They are thin wrappers over DecodeF and EncodeF.
func SyncFlagsFromGuest(f byte) (HostFlags, bool) {
	return DecodeF(f)
}

func SyncFlagsToGuest(hf HostFlags, fSubtract bool) byte {
	return EncodeF(hf, fSubtract)
}
