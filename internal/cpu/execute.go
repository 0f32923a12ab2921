// execute.go - the single-instruction executor. All arithmetic uses
// two's-complement wrapping (Go's built-in integer overflow behaviour
// already matches this — no explicit wrapping helpers are needed). There
// is no branch delay slot: a taken branch or jump simply overwrites pc,
// which is already pointing at the next sequential instruction by the
// time execute runs.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package cpu

func (c *CPU) execute(op uint32) {
	f := decode(op)
	switch op >> 26 {
	case opR:
		c.executeR(f)
	case opJ:
		c.pc = uint32(int32(c.pc) + jumpOffset(f.addr26))
	case opJAL:
		c.reg[31] = c.pc
		c.pc = uint32(int32(c.pc) + jumpOffset(f.addr26))
	case opTRAP:
		c.env.SystemCall(c, f.addr26)
	case opADDI:
		c.reg[f.rt] = uint32(int32(c.reg[f.rs]) + immSigned(f.imm16))
	case opADDIU:
		c.reg[f.rt] = c.reg[f.rs] + immUnsigned(f.imm16)
	case opANDI:
		c.reg[f.rt] = c.reg[f.rs] & immUnsigned(f.imm16)
	case opORI:
		c.reg[f.rt] = c.reg[f.rs] | immUnsigned(f.imm16)
	case opXORI:
		c.reg[f.rt] = c.reg[f.rs] ^ immUnsigned(f.imm16)
	case opLHI:
		c.reg[f.rt] = (c.reg[f.rt] & 0xFFFF) | immUpper(f.imm16)
	case opLLO:
		c.reg[f.rt] = (c.reg[f.rt] & 0xFFFF0000) | immUnsigned(f.imm16)
	case opSLTI:
		c.reg[f.rt] = boolReg(int32(c.reg[f.rs]) < immSigned(f.imm16))
	case opSLTIU:
		c.reg[f.rt] = boolReg(c.reg[f.rs] < immUnsigned(f.imm16))
	case opBEQ:
		if c.reg[f.rs] == c.reg[f.rt] {
			c.branch(f.imm16)
		}
	case opBNE:
		if c.reg[f.rs] != c.reg[f.rt] {
			c.branch(f.imm16)
		}
	case opBGTZ:
		// The source compares the raw u32 register against zero
		// (effectively "not equal to zero") rather than a signed
		// greater-than-zero test; kept as observed.
		if c.reg[f.rs] != 0 {
			c.branch(f.imm16)
		}
	case opBLEZ:
		if c.reg[f.rs] == 0 {
			c.branch(f.imm16)
		}
	case opLB:
		effective := c.effective(f)
		c.reg[f.rt] = uint32(int32(int8(c.mem.GetU8(effective))))
	case opLBU:
		effective := c.effective(f)
		c.reg[f.rt] = uint32(c.mem.GetU8(effective))
	case opLH:
		effective := c.effective(f)
		if v, ok := c.mem.GetI16Aligned(effective); ok {
			c.reg[f.rt] = uint32(int32(v))
		}
	case opLHU:
		effective := c.effective(f)
		if v, ok := c.mem.GetU16Aligned(effective); ok {
			c.reg[f.rt] = uint32(v)
		}
	case opLW:
		effective := c.effective(f)
		if v, ok := c.mem.GetU32Aligned(effective); ok {
			c.reg[f.rt] = v
		}
	case opSB:
		effective := c.effective(f)
		c.mem.SetU8(effective, byte(c.reg[f.rt]))
	case opSH:
		effective := c.effective(f)
		c.mem.SetU16Aligned(effective, uint16(c.reg[f.rt]))
	case opSW:
		effective := c.effective(f)
		c.mem.SetU32Aligned(effective, c.reg[f.rt])
	default:
		c.env.InvalidOpcode(c)
	}
}

// branch adds the scaled, sign-extended immediate to the already-advanced
// pc.
func (c *CPU) branch(imm16 uint32) {
	c.pc = uint32(int32(c.pc) + immBranch(imm16))
}

// effective computes the load/store address: reg[rs] + imm_branch(imm16).
// This reuses the same *4-scaled immediate form as branches, matching the
// original source exactly (spec.md §4.3 calls this out explicitly).
func (c *CPU) effective(f fields) uint32 {
	return uint32(int32(c.reg[f.rs]) + immBranch(f.imm16))
}

func (c *CPU) executeR(f fields) {
	switch f.fn {
	case fnADD, fnADDU:
		c.reg[f.rd] = c.reg[f.rs] + c.reg[f.rt]
	case fnAND:
		c.reg[f.rd] = c.reg[f.rs] & c.reg[f.rt]
	case fnDIV:
		c.divSigned(f)
	case fnDIVU:
		c.divUnsigned(f)
	case fnMULT:
		s := int64(int32(c.reg[f.rs]))
		t := int64(int32(c.reg[f.rt]))
		result := uint64(s * t)
		c.lo = uint32(result)
		c.hi = uint32(result >> 32)
	case fnMULTU:
		s := uint64(c.reg[f.rs])
		t := uint64(c.reg[f.rt])
		result := s * t
		c.lo = uint32(result)
		c.hi = uint32(result >> 32)
	case fnNOR:
		c.reg[f.rd] = ^(c.reg[f.rs] | c.reg[f.rt])
	case fnOR:
		c.reg[f.rd] = c.reg[f.rs] | c.reg[f.rt]
	case fnXOR:
		c.reg[f.rd] = c.reg[f.rs] ^ c.reg[f.rt]
	case fnSLL:
		c.reg[f.rd] = c.reg[f.rt] << f.sh
	case fnSLLV:
		c.reg[f.rd] = c.reg[f.rt] << (c.reg[f.rs] & 0x1F)
	case fnSRA:
		c.reg[f.rd] = uint32(int32(c.reg[f.rt]) >> f.sh)
	case fnSRAV:
		c.reg[f.rd] = uint32(int32(c.reg[f.rt]) >> (c.reg[f.rs] & 0x1F))
	case fnSRL:
		c.reg[f.rd] = c.reg[f.rt] >> f.sh
	case fnSRLV:
		c.reg[f.rd] = c.reg[f.rt] >> (c.reg[f.rs] & 0x1F)
	case fnSUB:
		c.reg[f.rd] = uint32(int32(c.reg[f.rs]) - int32(c.reg[f.rt]))
	case fnSUBU:
		c.reg[f.rd] = c.reg[f.rs] - c.reg[f.rt]
	case fnSLT:
		c.reg[f.rd] = boolReg(int32(c.reg[f.rs]) < int32(c.reg[f.rt]))
	case fnSLTU:
		c.reg[f.rd] = boolReg(c.reg[f.rs] < c.reg[f.rt])
	case fnJALR:
		c.reg[31] = c.pc
		c.pc = c.reg[f.rs]
	case fnJR:
		c.pc = c.reg[f.rs]
	case fnMFHI:
		c.reg[f.rd] = c.hi
	case fnMFLO:
		c.reg[f.rd] = c.lo
	case fnMTHI:
		c.hi = c.reg[f.rs]
	case fnMTLO:
		c.lo = c.reg[f.rs]
	default:
		c.env.InvalidOpcode(c)
	}
}

// divSigned and divUnsigned implement DIV/DIVU. The divisor is reg[rd],
// not reg[rt] — matching the original source's register usage for this
// instruction pair, which spec.md's testable properties confirm
// ("DIV with reg[rd]==0 -> arithmetic_error(0)"). Division by zero calls
// ArithmeticError and leaves hi/lo unchanged, per spec.md §4.3 — this is
// the corrected polarity from spec.md §9's Open Question, not the
// original's inverted check.
func (c *CPU) divSigned(f fields) {
	divisor := int32(c.reg[f.rd])
	if divisor == 0 {
		c.env.ArithmeticError(c, 0)
		return
	}
	dividend := int32(c.reg[f.rs])
	c.lo = uint32(dividend / divisor)
	c.hi = uint32(dividend % divisor)
}

func (c *CPU) divUnsigned(f fields) {
	divisor := c.reg[f.rd]
	if divisor == 0 {
		c.env.ArithmeticError(c, 0)
		return
	}
	dividend := c.reg[f.rs]
	c.lo = dividend / divisor
	c.hi = dividend % divisor
}

func boolReg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
