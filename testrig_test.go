// testrig_test.go - shared test fixtures for the jit package's tests.

package jit

import "testing"

// newTestROM builds a minimal valid 32 KiB cartridge image (no MBC, no
// RAM) with a correct header checksum, so ParseCartridge never reports
// HeaderValid == false for tests that don't care about the header.
func newTestROM(size int) []byte {
	if size < 0x150 {
		size = 0x8000
	}
	rom := make([]byte, size)
	rom[headerMBCByte] = 0x00    // MBCNone
	rom[headerROMSizeByte] = 0x00 // 2 banks
	rom[headerRAMSizeByte] = 0x00 // no RAM
	fixHeaderChecksum(rom)
	return rom
}

// fixHeaderChecksum recomputes 0x014D so verifyHeaderChecksum passes
// after a test has poked at the 0x0134-0x014C range.
func fixHeaderChecksum(rom []byte) {
	var sum byte
	for i := headerChecksumStart; i < headerChecksumEnd; i++ {
		sum = sum - rom[i] - 1
	}
	rom[headerChecksumByte] = sum
}

// newMBCROM builds a ROM whose header declares the given MBC kind byte,
// ROM size code and RAM size code, sized to hold romBanks*16KiB.
func newMBCROM(mbcByte byte, romSizeCode byte, ramSizeCode byte, romBanks int) []byte {
	size := romBanks * romBankSize
	if size < 0x8000 {
		size = 0x8000
	}
	rom := make([]byte, size)
	rom[headerMBCByte] = mbcByte
	rom[headerROMSizeByte] = romSizeCode
	rom[headerRAMSizeByte] = ramSizeCode
	// Tag each bank's first byte with its own bank number so bank-switch
	// tests can assert on which bank got mapped in.
	for b := 0; b < romBanks; b++ {
		rom[b*romBankSize] = byte(b)
	}
	fixHeaderChecksum(rom)
	return rom
}

// testRig bundles a freshly constructed GuestState/Memory/Emitter triple
// wired the way cmd/gbjit's newSession wires them, minus any real
// renderer/audio backend.
type testRig struct {
	State   *GuestState
	Mem     *Memory
	Cache   *BlockCache
	Cart    *Cartridge
	Emitter *ClosureEmitter
	Render  *HeadlessRenderer
	Audio   *HeadlessAudioSink
}

func newTestRig(t *testing.T, rom []byte) *testRig {
	t.Helper()
	cart, err := ParseCartridge(rom)
	if err != nil {
		t.Fatalf("ParseCartridge: %v", err)
	}
	state := NewGuestState()
	render := NewHeadlessRenderer()
	audio := NewHeadlessAudioSink()
	cache := NewBlockCache(cart.ROMBanks)
	mem := NewMemory(cart, &state.Keys, render, audio, cache)
	return &testRig{
		State:   state,
		Mem:     mem,
		Cache:   cache,
		Cart:    cart,
		Emitter: NewClosureEmitter(),
		Render:  render,
		Audio:   audio,
	}
}

// loadCode copies bytes into guest memory starting at addr, going
// through the ROM image directly (bank 0 or the mapped bank 1 window)
// so the decoder can read it back via Memory.Read.
func (r *testRig) loadCode(addr uint16, code ...byte) {
	for i, b := range code {
		a := addr + uint16(i)
		switch {
		case a < 0x4000:
			r.Mem.romBank0[a] = b
		case a < 0x8000:
			r.Mem.romView[a-0x4000] = b
		default:
			r.Mem.Write(a, b)
		}
	}
}

// step compiles and executes exactly one block starting at r.State.PC at
// the given optimization level, mirroring dispatcher.runBlock without
// needing a full Dispatcher/scheduler wired up. Returns the compiled
// block so callers can inspect cycle counts and cache metadata.
func (r *testRig) step(t *testing.T, optLevel int) *Block {
	t.Helper()
	block, err := r.Emitter.Compile(r.Mem, r.State.PC, optLevel)
	if err != nil {
		t.Fatalf("Compile at $%04X: %v", r.State.PC, err)
	}
	ret := block.Func(r.State, r.Mem)
	if ret == PCFromState {
		// already written into State.PC by the emitted node
	} else {
		r.State.PC = ret
	}
	block.ExecCount++
	return block
}

// stepInstr decodes and executes exactly the opcode at r.State.PC,
// mirroring Compile's pipeline (Optimize, AnnotateFlagLifetime,
// OptimizeCC, Emit) but on a single node rather than DecodeBlock's
// full walk-to-terminator basic block. step can't isolate one
// instruction on its own: DecodeBlock always builds a maximal block, so
// a single opcode with no terminator right after it keeps decoding
// through whatever guest memory follows (in a test ROM, that's the
// zero-filled body all the way to the header checksum byte). The §8
// scenario tests want the effect of exactly one instruction, so this
// isolates the first decoded node and runs only that. Returns the node
// actually run so callers can check its cycle counts directly.
func (r *testRig) stepInstr(t *testing.T, optLevel int) IRNode {
	t.Helper()
	bb := DecodeBlock(r.Mem, r.State.PC)
	if len(bb.Nodes) == 0 || bb.Nodes[0].Op == OpERROR {
		t.Fatalf("decode at $%04X: no instruction", r.State.PC)
	}
	nodes := Optimize([]IRNode{bb.Nodes[0]}, optLevel, r.State.PC)
	nodes = AnnotateFlagLifetime(nodes)
	nodes = r.Emitter.OptimizeCC(nodes)
	node := nodes[0]
	ret := r.Emitter.Emit(node)(r.State, r.Mem)
	if ret != PCFromState {
		r.State.PC = ret
	}
	return node
}
