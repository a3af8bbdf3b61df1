// decoder_tables.go - Opcode -> IR template tables for the primary and
// CB-prefixed instruction sets.
//
// Rather than 256+256 hand-listed literal entries, the tables are built
// at package init time from the classical Z80-family bitfield
// decomposition of the opcode byte (x = bits 7-6, y = bits 5-3,
// z = bits 2-0, p = y>>1, q = y&1). This keeps the table exhaustive and easy to audit against the ISA
// while staying a flat [256]irTemplate array indexed by opcode byte, in
// the spirit of the teacher's baseOps/cbOps dispatch-table convention
// (cpu_z80.go).

package jit

// irTemplate is a decode-time-only IRNode with Address/Args left zero;
// the decoder copies one of these per opcode byte and fills in the rest.
type irTemplate struct {
	Op       OpTag
	Dst, Src OperandTag
	Bytes    int
	Taken    int
	NotTaken int
	Flags    FlagBits
}

var rpOperand = [4]OperandTag{OperandBC, OperandDE, OperandHL, OperandSP}
var rp2Operand = [4]OperandTag{OperandBC, OperandDE, OperandHL, OperandAF}
var rOperand = [8]OperandTag{OperandB, OperandC, OperandD, OperandE, OperandH, OperandL, OperandDerefHL, OperandA}
var condOperand = [4]OperandTag{OperandCondNZ, OperandCondZ, OperandCondNC, OperandCondC}
var rstOperand = [8]OperandTag{OperandRST00, OperandRST08, OperandRST10, OperandRST18, OperandRST20, OperandRST28, OperandRST30, OperandRST38}
var bitOperand = [8]OperandTag{OperandBit0, OperandBit1, OperandBit2, OperandBit3, OperandBit4, OperandBit5, OperandBit6, OperandBit7}
var aluOp = [8]OpTag{OpADD8, OpADC8, OpSUB8, OpSBC8, OpAND8, OpOR8, OpXOR8, OpCP8}

const (
	errTemplateBytes = 1
)

var errorTemplate = irTemplate{Op: OpERROR, Bytes: errTemplateBytes, Flags: FlagEndsBlock}

// unusedPrimary is the explicit set of undefined primary opcodes called
// out by §4.1. Its cardinality (11) differs from the spec prose's "12";
// the explicit set is authoritative.
var unusedPrimary = map[byte]bool{
	0xD3: true, 0xDB: true, 0xDD: true,
	0xE3: true, 0xE4: true, 0xEB: true, 0xEC: true, 0xED: true,
	0xF4: true, 0xFC: true, 0xFD: true,
}

var primaryTable [256]irTemplate
var cbTable [256]irTemplate

func init() {
	for i := 0; i < 256; i++ {
		primaryTable[i] = buildPrimaryTemplate(byte(i))
		cbTable[i] = buildCBTemplate(byte(i))
	}
}

func isMemOperand(t OperandTag) bool {
	switch t {
	case OperandDerefHL, OperandDerefBC, OperandDerefDE, OperandDerefNN,
		OperandDerefHLInc, OperandDerefHLDec, OperandDerefCHRAM, OperandDerefNHRAM:
		return true
	}
	return false
}

func buildPrimaryTemplate(op byte) irTemplate {
	if unusedPrimary[op] {
		return errorTemplate
	}
	x := op >> 6 & 3
	y := op >> 3 & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return irTemplate{Op: OpNOP, Bytes: 1, Taken: 4, NotTaken: 4}
			case 1:
				return irTemplate{Op: OpLD16, Dst: OperandDerefNN, Src: OperandSP, Bytes: 3, Taken: 20, NotTaken: 20, Flags: FlagPersistentWrite}
			case 2:
				return irTemplate{Op: OpSTOP, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagEndsBlock}
			case 3:
				return irTemplate{Op: OpJR, Src: OperandImm8Signed, Bytes: 2, Taken: 12, NotTaken: 12, Flags: FlagEndsBlock}
			default: // y = 4..7: JR cc,d
				return irTemplate{Op: OpJR, Dst: condOperand[y-4], Src: OperandImm8Signed, Bytes: 2, Taken: 12, NotTaken: 8, Flags: FlagEndsBlock | FlagUsesCC}
			}
		case 1:
			if q == 0 {
				return irTemplate{Op: OpLD16, Dst: rpOperand[p], Src: OperandImm16, Bytes: 3, Taken: 12, NotTaken: 12}
			}
			return irTemplate{Op: OpADD16, Dst: OperandHL, Src: rpOperand[p], Bytes: 1, Taken: 8, NotTaken: 8, Flags: FlagAffectsCC}
		case 2:
			derefs := [4]OperandTag{OperandDerefBC, OperandDerefDE, OperandDerefHLInc, OperandDerefHLDec}
			if q == 0 {
				return irTemplate{Op: OpLD8, Dst: derefs[p], Src: OperandA, Bytes: 1, Taken: 8, NotTaken: 8, Flags: FlagPersistentWrite}
			}
			return irTemplate{Op: OpLD8, Dst: OperandA, Src: derefs[p], Bytes: 1, Taken: 8, NotTaken: 8}
		case 3:
			if q == 0 {
				return irTemplate{Op: OpINC16, Dst: rpOperand[p], Bytes: 1, Taken: 8, NotTaken: 8}
			}
			return irTemplate{Op: OpDEC16, Dst: rpOperand[p], Bytes: 1, Taken: 8, NotTaken: 8}
		case 4:
			cyc := 4
			flags := FlagAffectsCC
			if rOperand[y] == OperandDerefHL {
				cyc = 12
				flags |= FlagPersistentWrite
			}
			return irTemplate{Op: OpINC8, Dst: rOperand[y], Bytes: 1, Taken: cyc, NotTaken: cyc, Flags: flags}
		case 5:
			cyc := 4
			flags := FlagAffectsCC
			if rOperand[y] == OperandDerefHL {
				cyc = 12
				flags |= FlagPersistentWrite
			}
			return irTemplate{Op: OpDEC8, Dst: rOperand[y], Bytes: 1, Taken: cyc, NotTaken: cyc, Flags: flags}
		case 6:
			cyc := 8
			flags := FlagBits(0)
			if rOperand[y] == OperandDerefHL {
				cyc = 12
				flags |= FlagPersistentWrite
			}
			return irTemplate{Op: OpLD8, Dst: rOperand[y], Src: OperandImm8, Bytes: 2, Taken: cyc, NotTaken: cyc, Flags: flags}
		case 7:
			switch y {
			case 0:
				return irTemplate{Op: OpRLCA, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagAffectsCC}
			case 1:
				return irTemplate{Op: OpRRCA, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagAffectsCC}
			case 2:
				return irTemplate{Op: OpRLA, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagAffectsCC | FlagUsesCC}
			case 3:
				return irTemplate{Op: OpRRA, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagAffectsCC | FlagUsesCC}
			case 4:
				return irTemplate{Op: OpDAA, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagAffectsCC | FlagUsesCC}
			case 5:
				return irTemplate{Op: OpCPL, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagAffectsCC}
			case 6:
				return irTemplate{Op: OpSCF, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagAffectsCC}
			default:
				return irTemplate{Op: OpCCF, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagAffectsCC | FlagUsesCC}
			}
		}
	case 1:
		if y == 6 && z == 6 {
			return irTemplate{Op: OpHALT, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagEndsBlock}
		}
		cyc := 4
		flags := FlagBits(0)
		if rOperand[y] == OperandDerefHL || rOperand[z] == OperandDerefHL {
			cyc = 8
			if rOperand[y] == OperandDerefHL {
				flags |= FlagPersistentWrite
			}
		}
		return irTemplate{Op: OpLD8, Dst: rOperand[y], Src: rOperand[z], Bytes: 1, Taken: cyc, NotTaken: cyc, Flags: flags}
	case 2:
		cyc := 4
		if rOperand[z] == OperandDerefHL {
			cyc = 8
		}
		flags := FlagAffectsCC | FlagUsesCC
		if aluOp[y] != OpADC8 && aluOp[y] != OpSBC8 {
			flags = FlagAffectsCC
		}
		return irTemplate{Op: aluOp[y], Dst: OperandA, Src: rOperand[z], Bytes: 1, Taken: cyc, NotTaken: cyc, Flags: flags}
	default: // x == 3
		switch z {
		case 0:
			switch y {
			case 0, 1, 2, 3:
				return irTemplate{Op: OpRET, Dst: condOperand[y], Bytes: 1, Taken: 20, NotTaken: 8, Flags: FlagEndsBlock | FlagUsesCC}
			case 4:
				return irTemplate{Op: OpLDH, Dst: OperandDerefNHRAM, Src: OperandA, Bytes: 2, Taken: 12, NotTaken: 12, Flags: FlagPersistentWrite}
			case 5:
				return irTemplate{Op: OpADD_SP_D, Src: OperandImm8Signed, Bytes: 2, Taken: 16, NotTaken: 16, Flags: FlagAffectsCC}
			case 6:
				return irTemplate{Op: OpLDH, Dst: OperandA, Src: OperandDerefNHRAM, Bytes: 2, Taken: 12, NotTaken: 12}
			default:
				return irTemplate{Op: OpLD_HL_SP_D, Dst: OperandHL, Src: OperandImm8Signed, Bytes: 2, Taken: 12, NotTaken: 12, Flags: FlagAffectsCC}
			}
		case 1:
			if q == 0 {
				return irTemplate{Op: OpPOP, Dst: rp2Operand[p], Bytes: 1, Taken: 12, NotTaken: 12}
			}
			switch y {
			case 1:
				return irTemplate{Op: OpRET, Bytes: 1, Taken: 16, NotTaken: 16, Flags: FlagEndsBlock}
			case 3:
				return irTemplate{Op: OpRETI, Bytes: 1, Taken: 16, NotTaken: 16, Flags: FlagEndsBlock}
			case 5:
				return irTemplate{Op: OpJP, Src: OperandHL, Bytes: 1, Taken: 4, NotTaken: 4, Flags: FlagEndsBlock}
			default:
				return irTemplate{Op: OpLD_SP_HL, Dst: OperandSP, Src: OperandHL, Bytes: 1, Taken: 8, NotTaken: 8}
			}
		case 2:
			switch y {
			case 0, 1, 2, 3:
				return irTemplate{Op: OpJP, Dst: condOperand[y], Src: OperandImm16, Bytes: 3, Taken: 16, NotTaken: 12, Flags: FlagEndsBlock | FlagUsesCC}
			case 4:
				return irTemplate{Op: OpLD8, Dst: OperandDerefCHRAM, Src: OperandA, Bytes: 1, Taken: 8, NotTaken: 8, Flags: FlagPersistentWrite}
			case 5:
				return irTemplate{Op: OpLD8, Dst: OperandDerefNN, Src: OperandA, Bytes: 3, Taken: 16, NotTaken: 16, Flags: FlagPersistentWrite}
			case 6:
				return irTemplate{Op: OpLD8, Dst: OperandA, Src: OperandDerefCHRAM, Bytes: 1, Taken: 8, NotTaken: 8}
			default:
				return irTemplate{Op: OpLD8, Dst: OperandA, Src: OperandDerefNN, Bytes: 3, Taken: 16, NotTaken: 16}
			}
		case 3:
			switch y {
			case 0:
				return irTemplate{Op: OpJP, Src: OperandImm16, Bytes: 3, Taken: 16, NotTaken: 16, Flags: FlagEndsBlock}
			case 6:
				return irTemplate{Op: OpDI, Bytes: 1, Taken: 4, NotTaken: 4}
			case 7:
				return irTemplate{Op: OpEI, Bytes: 1, Taken: 4, NotTaken: 4}
			default: // y == 1 is the CB prefix, handled by the decoder directly
				return errorTemplate
			}
		case 4:
			if y <= 3 {
				return irTemplate{Op: OpCALL, Dst: condOperand[y], Src: OperandImm16, Bytes: 3, Taken: 24, NotTaken: 12, Flags: FlagEndsBlock | FlagUsesCC}
			}
			return errorTemplate
		case 5:
			if q == 0 {
				return irTemplate{Op: OpPUSH, Src: rp2Operand[p], Bytes: 1, Taken: 16, NotTaken: 16}
			}
			if y == 1 {
				return irTemplate{Op: OpCALL, Src: OperandImm16, Bytes: 3, Taken: 24, NotTaken: 24, Flags: FlagEndsBlock}
			}
			return errorTemplate
		case 6:
			flags := FlagAffectsCC | FlagUsesCC
			if aluOp[y] != OpADC8 && aluOp[y] != OpSBC8 {
				flags = FlagAffectsCC
			}
			return irTemplate{Op: aluOp[y], Dst: OperandA, Src: OperandImm8, Bytes: 2, Taken: 8, NotTaken: 8, Flags: flags}
		default: // z == 7
			return irTemplate{Op: OpRST, Dst: rstOperand[y], Bytes: 1, Taken: 16, NotTaken: 16, Flags: FlagEndsBlock}
		}
	}
	return errorTemplate
}

func buildCBTemplate(op byte) irTemplate {
	y := op >> 3 & 7
	z := op & 7
	r := rOperand[z]
	mem := r == OperandDerefHL

	cbOp := [8]OpTag{OpCB_RLC, OpCB_RRC, OpCB_RL, OpCB_RR, OpCB_SLA, OpCB_SRA, OpCB_SWAP, OpCB_SRL}

	switch op >> 6 & 3 {
	case 0: // rotate/shift family
		cyc := 8
		flags := FlagAffectsCC
		if mem {
			cyc = 16
			flags |= FlagPersistentWrite
		}
		return irTemplate{Op: cbOp[y], Dst: r, Bytes: 2, Taken: cyc, NotTaken: cyc, Flags: flags}
	case 1: // BIT
		cyc := 8
		if mem {
			cyc = 12
		}
		return irTemplate{Op: OpCB_BIT, Dst: bitOperand[y], Src: r, Bytes: 2, Taken: cyc, NotTaken: cyc, Flags: FlagAffectsCC}
	case 2: // RES
		cyc := 8
		flags := FlagBits(0)
		if mem {
			cyc = 16
			flags |= FlagPersistentWrite
		}
		return irTemplate{Op: OpCB_RES, Dst: bitOperand[y], Src: r, Bytes: 2, Taken: cyc, NotTaken: cyc, Flags: flags}
	default: // SET
		cyc := 8
		flags := FlagBits(0)
		if mem {
			cyc = 16
			flags |= FlagPersistentWrite
		}
		return irTemplate{Op: OpCB_SET, Dst: bitOperand[y], Src: r, Bytes: 2, Taken: cyc, NotTaken: cyc, Flags: flags}
	}
}
