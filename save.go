// save.go - Battery save file round-trip (§6 "Battery save file")
//
// Grounded on §6 directly: the external-RAM banks concatenated, exactly
// cart.RAMBanks*8192 bytes. Since memory.go's extRAM array is written
// in place per bank (no separate staging buffer to flush), "flush the
// currently-mapped bank" reduces to reading the array as it stands.

package jit

// ExternalRAM returns the raw backing array for a Memory's external RAM
// banks, sized down to the cartridge's declared bank count. Exported so
// save.go and cmd/gbjit can serialize/restore it without reaching into
// unexported fields.
func (m *Memory) ExternalRAM() []byte {
	banks := m.cart.RAMBanks
	out := make([]byte, banks*extRAMBankSize)
	for b := 0; b < banks; b++ {
		copy(out[b*extRAMBankSize:(b+1)*extRAMBankSize], m.extRAM[b][:])
	}
	return out
}

// LoadExternalRAM restores a previously saved image. It is the caller's
// responsibility to have already validated the image's length against
// ExpectedSaveSize (SaveMismatchError, §7) before calling this.
func (m *Memory) LoadExternalRAM(data []byte) {
	banks := m.cart.RAMBanks
	for b := 0; b < banks && (b+1)*extRAMBankSize <= len(data); b++ {
		copy(m.extRAM[b][:], data[b*extRAMBankSize:(b+1)*extRAMBankSize])
	}
}

// ExpectedSaveSize is cart.RAMBanks*8192 — the exact size a battery save
// file for this cartridge must have.
func ExpectedSaveSize(cart *Cartridge) int {
	return cart.RAMBanks * extRAMBankSize
}

// LoadSave validates a save file's length against the cartridge's
// declared RAM size and, if it matches, loads it. A mismatch returns
// SaveMismatchError and leaves external RAM zero-initialized (§7).
func LoadSave(mem *Memory, cart *Cartridge, path string, data []byte) error {
	want := ExpectedSaveSize(cart)
	if len(data) != want {
		return &SaveMismatchError{Path: path, Want: want, Got: len(data)}
	}
	mem.LoadExternalRAM(data)
	return nil
}
