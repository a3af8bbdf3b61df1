// decoder.go - Basic-block decoder and IR builder (§4.1)

package jit

// DecodeBlock walks guest memory starting at start, one opcode at a
// time, copying the matching template out of primaryTable/cbTable
// (decoder_tables.go) until a node with FlagEndsBlock is produced. An
// undefined opcode immediately ends the block with an ERROR node — the
// caller (emitter.go's Compile) turns that into a CompileError.
func DecodeBlock(mem *Memory, start uint16) BasicBlock {
	block := BasicBlock{Start: start}
	addr := start

	for {
		op := mem.Read(addr)
		var tmpl irTemplate
		var argsStart uint16
		var prefixLen int

		if op == 0xCB {
			next := mem.Read(addr + 1)
			tmpl = cbTable[next]
			prefixLen = 2
			argsStart = addr + 2
		} else {
			tmpl = primaryTable[op]
			prefixLen = 1
			argsStart = addr + 1
		}

		node := IRNode{
			Op:             tmpl.Op,
			Dst:            tmpl.Dst,
			Src:            tmpl.Src,
			Address:        addr,
			Bytes:          tmpl.Bytes,
			CyclesTaken:    tmpl.Taken,
			CyclesNotTaken: tmpl.NotTaken,
			Flags:          tmpl.Flags,
		}

		if node.Op == OpERROR {
			node.Bytes = prefixLen
			block.Nodes = append(block.Nodes, node)
			block.End = addr + uint16(prefixLen)
			return block
		}

		immLen := tmpl.Bytes - prefixLen
		if immLen > 0 {
			node.Args = readArgs(mem, argsStart, immLen)
		}

		block.Nodes = append(block.Nodes, node)
		addr += uint16(tmpl.Bytes)

		if node.EndsBlock() {
			block.End = addr
			return block
		}
	}
}

// readArgs copies the immediate bytes following an opcode (and, for
// CB-prefixed nodes, following the CB prefix byte) so the emitter can
// read them independent of later guest-memory writes to the same
// region.
func readArgs(mem *Memory, start uint16, n int) []byte {
	args := make([]byte, n)
	for i := 0; i < n; i++ {
		args[i] = mem.Read(start + uint16(i))
	}
	return args
}

// Imm8 returns the single-byte immediate of a node decoded with one
// argument byte.
func (n IRNode) Imm8() byte {
	if len(n.Args) < 1 {
		return 0
	}
	return n.Args[0]
}

// Imm8Signed returns the immediate as a signed displacement (JR, LD
// HL,SP+d, ADD SP,d).
func (n IRNode) Imm8Signed() int8 {
	return int8(n.Imm8())
}

// Imm16 returns the two-byte little-endian immediate of a node decoded
// with two argument bytes.
func (n IRNode) Imm16() uint16 {
	if len(n.Args) < 2 {
		return 0
	}
	return uint16(n.Args[0]) | uint16(n.Args[1])<<8
}
