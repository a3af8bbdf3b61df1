// optimizer.go - Semantic peephole optimizer (§4.2)
//
// No single teacher file does IR peephole rewriting (cpu_z80.go
// interprets directly); this is original to this repo, written in the
// teacher's table/switch idiom. See DESIGN.md component D.

package jit

// Optimize rewrites a decoded node list in place according to the
// optimization level (0 = off, 1..3 progressively more aggressive) and
// returns the rewritten list. Level 0 must leave the list bit-identical
// (P8).
func Optimize(nodes []IRNode, level int, start uint16) []IRNode {
	if level <= 0 {
		return nodes
	}

	nodes = fuseMemcpy(nodes, level)
	nodes = fuseWaitSTAT3(nodes, level)
	nodes = fuseWaitLY(nodes, level)
	nodes = collapseJoypadDoublePoll(nodes, level)
	nodes = breakSelfLoop(nodes, level, start)

	return nodes
}

// isConstantNode implements the "constant" and "no memory access"
// predicates from §4.2: a node with a memory operand is never constant,
// except INC/DEC (HL) which is only treated as side-effect-free at
// opt-level >= 3. Apart from that case, any node that writes guest memory
// (FlagPersistentWrite) is never constant, regardless of its operand tags
// — this is the conservative guard §9 calls out for
// 0xFF00/0xFF44/0xFF10-0xFF3F access dressed up as an ordinary-looking
// dereference.
func isConstantNode(n IRNode, level int) bool {
	if (n.Op == OpINC8 || n.Op == OpDEC8) && n.Dst == OperandDerefHL {
		return level >= 3
	}
	if n.Flags&FlagPersistentWrite != 0 {
		return false
	}
	if isMemOperand(n.Dst) || isMemOperand(n.Src) {
		return false
	}
	return true
}

// fuseMemcpy implements rule 1: LD A,(HL+); LD (DE),A; INC DE -> one
// MEMCPY_FUSE node, cycles 6, bytes 3.
func fuseMemcpy(nodes []IRNode, level int) []IRNode {
	if level < 1 {
		return nodes
	}
	out := make([]IRNode, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		if i+2 < len(nodes) &&
			nodes[i].Op == OpLD8 && nodes[i].Dst == OperandA && nodes[i].Src == OperandDerefHLInc &&
			nodes[i+1].Op == OpLD8 && nodes[i+1].Dst == OperandDerefDE && nodes[i+1].Src == OperandA &&
			nodes[i+2].Op == OpINC16 && nodes[i+2].Dst == OperandDE {
			out = append(out, IRNode{
				Op:      OpMEMCPY_FUSE,
				Dst:     OperandDerefDE,
				Src:     OperandDerefHLInc,
				Address: nodes[i].Address,
				Bytes:   3,
				CyclesTaken:    6,
				CyclesNotTaken: 6,
				Flags:   FlagPersistentWrite,
			})
			i += 2
			continue
		}
		out = append(out, nodes[i])
	}
	return out
}

// fuseWaitSTAT3 implements rule 2: LDH A,(STAT); AND 3; JR NZ,-6 -> one
// HALT node with WAIT_STAT3, 0 cycles, 6 bytes.
func fuseWaitSTAT3(nodes []IRNode, level int) []IRNode {
	if level < 1 {
		return nodes
	}
	out := make([]IRNode, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		if i+2 < len(nodes) && matchesWaitPattern(nodes[i:i+3], 0x41, OpAND8, 0x03) {
			out = append(out, IRNode{
				Op:      OpHALT,
				Dst:     OperandWaitSTAT3,
				Address: nodes[i].Address,
				Bytes:   6,
				Flags:   FlagEndsBlock,
			})
			i += 2
			continue
		}
		out = append(out, nodes[i])
	}
	return out
}

// fuseWaitLY implements rule 3: LDH A,(LY); CP n; JR NZ,-6 -> one HALT
// node with WAIT_LY and HaltArg := n.
func fuseWaitLY(nodes []IRNode, level int) []IRNode {
	if level < 1 {
		return nodes
	}
	out := make([]IRNode, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		if i+2 < len(nodes) && matchesWaitPattern(nodes[i:i+3], 0x44, OpCP8, -1) {
			out = append(out, IRNode{
				Op:      OpHALT,
				Dst:     OperandWaitLY,
				Args:    []byte{nodes[i+1].Imm8()},
				Address: nodes[i].Address,
				Bytes:   6,
				Flags:   FlagEndsBlock,
			})
			i += 2
			continue
		}
		out = append(out, nodes[i])
	}
	return out
}

// matchesWaitPattern checks the shared LDH A,(io); <mid>; JR NZ,-6 shape.
// midImm pins the mid instruction's immediate to an exact value (rule 2's
// AND must be masking bit pattern 0x03, per "F0 41 E6 03 20 FA"); pass -1
// when the immediate is a variable the fused HALT node captures instead
// (rule 3's CP target scanline).
func matchesWaitPattern(win []IRNode, ioAddr byte, midOp OpTag, midImm int) bool {
	if win[0].Op != OpLDH || win[0].Dst != OperandA || win[0].Src != OperandDerefNHRAM || win[0].Imm8() != ioAddr {
		return false
	}
	if win[1].Op != midOp || win[1].Dst != OperandA || win[1].Src != OperandImm8 {
		return false
	}
	if midImm >= 0 && win[1].Imm8() != byte(midImm) {
		return false
	}
	if win[2].Op != OpJR || win[2].Dst != OperandCondNZ || win[2].Src != OperandImm8Signed {
		return false
	}
	// The JR must target the first node of the window (a backward
	// displacement of -6 relative to its own address).
	target := uint16(int32(win[2].Address) + 2 + int32(win[2].Imm8Signed()))
	return target == win[0].Address
}

// collapseJoypadDoublePoll implements rule 4: F0 00 F0 00 (two LDH
// A,(joypad) in a row) -> extend the first by 3 cycles and 2 bytes,
// drop the second. Re-applies until no further match is found, since
// collapsing can expose a new adjacent pair.
func collapseJoypadDoublePoll(nodes []IRNode, level int) []IRNode {
	if level < 1 {
		return nodes
	}
	for {
		changed := false
		out := make([]IRNode, 0, len(nodes))
		for i := 0; i < len(nodes); i++ {
			if i+1 < len(nodes) && isJoypadPoll(nodes[i]) && isJoypadPoll(nodes[i+1]) {
				merged := nodes[i]
				merged.CyclesTaken += 3
				merged.CyclesNotTaken += 3
				merged.Bytes += 2
				out = append(out, merged)
				i++
				changed = true
				continue
			}
			out = append(out, nodes[i])
		}
		nodes = out
		if !changed {
			return nodes
		}
	}
}

func isJoypadPoll(n IRNode) bool {
	return n.Op == OpLDH && n.Dst == OperandA && n.Src == OperandDerefNHRAM && n.Imm8() == 0x00
}

// breakSelfLoop implements rule 5. If the block's final node is an
// unconditional JR whose target is the block's own start address, it's
// a busy-wait spin. When every preceding node is constant (isConstantNode)
// the strong form applies: the body nodes stay and the trailing JR is
// replaced by a HALT terminator, so the dispatcher advances virtual time via the scheduler
// instead of re-running the spin (scenario 5, §8). When the body has no
// memory side effects but isn't fully constant, the weaker form applies:
// a JP_TARGET marker is prepended and the trailing JR becomes an
// explicit JP_BWD, keeping the block callable while making the back-edge
// visible to later passes.
func breakSelfLoop(nodes []IRNode, level int, start uint16) []IRNode {
	if level < 1 || len(nodes) == 0 {
		return nodes
	}
	last := nodes[len(nodes)-1]
	if last.Op != OpJR || last.Dst != OperandNone || last.Src != OperandImm8Signed {
		return nodes
	}
	target := uint16(int32(last.Address) + 2 + int32(last.Imm8Signed()))
	if target != start {
		return nodes
	}

	allConstant := true
	noMemAccess := true
	for _, n := range nodes[:len(nodes)-1] {
		if !isConstantNode(n, level) {
			allConstant = false
		}
		// "No memory side effects" (§4.2 rule 5) means no writes: a node
		// that only reads guest memory (e.g. a plain LD A,(HL) poll) still
		// qualifies for the weak form even though it isn't "constant".
		if n.Flags&FlagPersistentWrite != 0 {
			noMemAccess = false
		}
	}

	if allConstant {
		halt := IRNode{
			Op:      OpHALT,
			Address: last.Address,
			Bytes:   last.Bytes,
			Flags:   FlagEndsBlock,
		}
		out := make([]IRNode, 0, len(nodes))
		out = append(out, nodes[:len(nodes)-1]...)
		out = append(out, halt)
		return out
	}

	if noMemAccess {
		marker := IRNode{Op: OpJP_TARGET, Address: start, Bytes: 0}
		bwd := IRNode{
			Op:      OpJP_BWD,
			Dst:     OperandJumpTargetLabel,
			Args:    []byte{byte(start), byte(start >> 8)},
			Address: last.Address,
			Bytes:   last.Bytes,
			CyclesTaken:    last.CyclesTaken,
			CyclesNotTaken: last.CyclesNotTaken,
			Flags:   FlagEndsBlock,
		}
		out := make([]IRNode, 0, len(nodes)+1)
		out = append(out, marker)
		out = append(out, nodes[:len(nodes)-1]...)
		out = append(out, bwd)
		return out
	}

	return nodes
}
