// scheduler.go - Event scheduler (§4.6, component G)
//
// Reworked entirely for GBZ80 semantics: no direct analogue exists in
// the teacher (LY/STAT/TIMA have no TED/ANTIC/ULA equivalent), but the
// overall shape — a per-tick function that advances a raster counter
// and raises an interrupt latch bit on boundary crossings — follows
// ted_engine.go/video_ted.go's scanline state machine. See DESIGN.md
// component G.

package jit

const (
	regDIV  = 0xFF04
	regTIMA = 0xFF05
	regTMA  = 0xFF06
	regTAC  = 0xFF07
	regIF   = 0xFF0F
	regLYC  = 0xFF45

	ifVBlank = 1 << 0
	ifSTAT   = 1 << 1
	ifTimer  = 1 << 2
	ifSerial = 1 << 3
	ifJoypad = 1 << 4

	statCoincidence = 1 << 2
	statIntMode0    = 1 << 3
	statIntMode1    = 1 << 4
	statIntMode2    = 1 << 5
	statIntLYC      = 1 << 6
)

var timaPeriods = [4]uint64{256, 4, 16, 64}

// LineRenderer is invoked once per visible scanline, under the
// Renderer's own Lock/Unlock (mirroring the audio passthrough's locking
// discipline in memory.go).
type LineRenderer func(ly byte)

// RunScheduler advances TIMA, DIV, LY and the intra-line STAT mode by
// the rules in §4.6, raising IF bits as each one crosses a boundary, and
// recomputes GuestState.NextUpdate. Called whenever InstCount >= NextUpdate.
func RunScheduler(s *GuestState, m *Memory, render LineRenderer) {
	tac := m.IOReg(regTAC)
	period := timaPeriods[tac&3]
	enabled := tac&4 != 0

	if enabled && s.InstCount > s.TIMACount+period {
		tima := m.IOReg(regTIMA)
		if tima == 0xFF {
			m.SetIOReg(regTIMA, m.IOReg(regTMA))
			m.SetIOReg(regIF, m.IOReg(regIF)|ifTimer)
		} else {
			m.SetIOReg(regTIMA, tima+1)
		}
		s.TIMACount = s.InstCount
	}

	if s.InstCount > s.DIVCount+period {
		m.SetIOReg(regDIV, m.IOReg(regDIV)+1)
		s.DIVCount = s.InstCount
	}

	if s.InstCount > s.LYCount+114 {
		ly := (m.LY() + 1) % 154
		m.SetIOReg(0xFF44, ly)
		s.LYCount = s.InstCount

		if ly < 144 && render != nil {
			render(ly)
		}

		stat := m.STAT()
		coincident := ly == m.IOReg(regLYC)
		if coincident {
			stat |= statCoincidence
		} else {
			stat &^= statCoincidence
		}
		if coincident && stat&statIntLYC != 0 {
			m.SetIOReg(0xFF0F, m.IOReg(regIF)|ifSTAT)
		}

		if ly == 144 {
			m.SetIOReg(0xFF0F, m.IOReg(regIF)|ifVBlank)
			stat = stat&^3 | 1 // mode 1
			if stat&statIntMode1 != 0 {
				m.SetIOReg(0xFF0F, m.IOReg(regIF)|ifSTAT)
			}
		}
		m.SetIOReg(0xFF41, stat)
	}

	if m.LY() < 144 {
		offset := s.InstCount - s.LYCount
		stat := m.STAT()
		mode := stat & 3
		var wantMode byte
		switch {
		case offset < 20:
			wantMode = 2
		case offset < 63:
			wantMode = 3
		default:
			wantMode = 0
		}
		if wantMode != mode {
			stat = stat&^3 | wantMode
			m.SetIOReg(0xFF41, stat)
			raise := (wantMode == 2 && stat&statIntMode2 != 0) ||
				(wantMode == 0 && stat&statIntMode0 != 0)
			if raise {
				m.SetIOReg(0xFF0F, m.IOReg(regIF)|ifSTAT)
			}
		}
	}

	s.NextUpdate = nextWakeup(s, m)
}

// nextWakeup computes the minimum of the next TIMA deadline, the next LY
// boundary, and the next intra-line STAT transition, per §4.6.
func nextWakeup(s *GuestState, m *Memory) uint64 {
	next := s.LYCount + 114

	tac := m.IOReg(regTAC)
	if tac&4 != 0 {
		period := timaPeriods[tac&3]
		if d := s.TIMACount + period; d < next {
			next = d
		}
	}

	if m.LY() < 144 {
		for _, off := range [2]uint64{20, 63} {
			if d := s.LYCount + off; d > s.InstCount && d < next {
				next = d
			}
		}
	}

	if next <= s.InstCount {
		next = s.InstCount + 1
	}
	return next
}
